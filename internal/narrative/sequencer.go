package narrative

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Output is where a sequence is delivered. Respond answers the triggering
// command; FollowUp posts a later message in the same conversation.
type Output interface {
	Respond(ctx context.Context, content string) error
	FollowUp(ctx context.Context, content string) error
}

// Sequencer paces narrative lines: the first is sent at once, every following
// line waits one delay after the previous send.
type Sequencer struct {
	clock  clockwork.Clock
	delay  time.Duration
	logger zerolog.Logger
}

func NewSequencer(clock clockwork.Clock, delay time.Duration, logger zerolog.Logger) *Sequencer {
	return &Sequencer{clock: clock, delay: delay, logger: logger}
}

// WithDelay returns a sequencer sharing the clock and logger with another pace.
func (s *Sequencer) WithDelay(d time.Duration) *Sequencer {
	return &Sequencer{clock: s.clock, delay: d, logger: s.logger}
}

// Play delivers lines in order. Only a failed first response is returned;
// follow-up failures are logged and the sequence continues.
func (s *Sequencer) Play(ctx context.Context, out Output, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	if err := out.Respond(ctx, lines[0]); err != nil {
		return err
	}
	i := 1
	return s.Stream(ctx, out, func() (string, bool) {
		if i >= len(lines) {
			return "", false
		}
		line := lines[i]
		i++
		return line, true
	})
}

// Stream pulls lines from next until it reports false, waiting one delay
// before each follow-up. It returns ctx.Err() if cancelled mid-sequence.
func (s *Sequencer) Stream(ctx context.Context, out Output, next func() (string, bool)) error {
	for n := 0; ; n++ {
		line, ok := next()
		if !ok {
			return nil
		}
		if err := s.wait(ctx); err != nil {
			return err
		}
		if err := out.FollowUp(ctx, line); err != nil {
			s.logger.Warn().Err(err).Int("line", n+1).Msg("follow-up delivery failed, continuing")
		}
	}
}

// Say sends one follow-up immediately, logging a failure.
func (s *Sequencer) Say(ctx context.Context, out Output, line string) {
	if err := out.FollowUp(ctx, line); err != nil {
		s.logger.Warn().Err(err).Msg("follow-up delivery failed")
	}
}

func (s *Sequencer) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.clock.After(s.delay):
		return nil
	}
}
