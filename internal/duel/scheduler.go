package duel

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// CronScheduler runs expiry callbacks as gocron one-time jobs tagged with the
// duel id.
type CronScheduler struct {
	sched  gocron.Scheduler
	logger zerolog.Logger
}

func NewCronScheduler(clock clockwork.Clock, logger zerolog.Logger) (*CronScheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithClock(clock))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &CronScheduler{sched: sched, logger: logger.With().Str("component", "scheduler").Logger()}, nil
}

func (c *CronScheduler) Start() {
	c.sched.Start()
}

func (c *CronScheduler) Shutdown() error {
	return c.sched.Shutdown()
}

func (c *CronScheduler) Schedule(id string, at time.Time, fn func()) error {
	_, err := c.sched.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(at)),
		gocron.NewTask(fn),
		gocron.WithName("duel-expiry-"+id),
		gocron.WithTags(id),
	)
	if err != nil {
		return err
	}
	c.logger.Debug().Str("duel_id", id).Time("at", at).Msg("expiry scheduled")
	return nil
}

func (c *CronScheduler) Cancel(id string) {
	c.sched.RemoveByTags(id)
	c.logger.Debug().Str("duel_id", id).Msg("expiry cancelled")
}
