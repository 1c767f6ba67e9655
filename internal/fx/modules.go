package fx

import (
	"heist-bot/internal/api"
	"heist-bot/internal/config"
	"heist-bot/internal/discord"
	"heist-bot/internal/domain"
	"heist-bot/internal/duel"
	"heist-bot/internal/journal"
	"heist-bot/internal/logger"
	"heist-bot/internal/narrative"
	"heist-bot/internal/random"
	"heist-bot/internal/resolver"
	"heist-bot/internal/server"
	"heist-bot/internal/service"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideRoleMap(cfg *config.Config) domain.RoleMap {
	return cfg.RoleMap()
}

func ProvideSequencer(cfg *config.Config, clock clockwork.Clock, logger zerolog.Logger) *narrative.Sequencer {
	return narrative.NewSequencer(clock, cfg.NarrativeDelay, logger)
}

func ProvideScheduler(s *duel.CronScheduler) duel.Scheduler {
	return s
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(ProvideRoleMap),
	// journal
	fx.Provide(journal.Open),
	fx.Provide(journal.NewRepository),
	// ledger
	fx.Provide(fx.Annotate(api.NewLedgerClient, fx.As(new(journal.Balances)))),
	fx.Provide(fx.Annotate(journal.NewLedger, fx.As(new(duel.Ledger)), fx.As(new(service.Ledger)))),
	// game
	fx.Provide(clockwork.NewRealClock),
	fx.Provide(random.Default),
	fx.Provide(ProvideSequencer),
	fx.Provide(resolver.New),
	fx.Provide(service.NewRobberyService),
	fx.Provide(duel.NewStore),
	fx.Provide(duel.NewCronScheduler),
	fx.Provide(ProvideScheduler),
	fx.Provide(duel.NewEngine),
	// discord
	fx.Provide(discord.NewSession),
	fx.Provide(fx.Annotate(discord.NewDirectory, fx.As(new(server.Directory)))),
	fx.Provide(fx.Annotate(discord.NewAnnouncer, fx.As(new(duel.Announcer)))),
	fx.Provide(server.NewBot),
	fx.Provide(discord.NewGateway),
)
