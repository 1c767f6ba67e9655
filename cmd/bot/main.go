package main

import (
	"context"
	"database/sql"
	"fmt"
	"heist-bot/internal/config"
	"heist-bot/internal/constants"
	"heist-bot/internal/discord"
	"heist-bot/internal/duel"
	fxmodules "heist-bot/internal/fx"
	"heist-bot/internal/journal"
	"heist-bot/internal/server"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runHealthServer),
		fx.Invoke(runGateway),
	).Run()
}

func runHealthServer(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           server.NewHealthHandler(logger),
		ReadHeaderTimeout: constants.ShutdownTimeout,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("health server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("health server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("health server shutdown failed")
				return err
			}
			logger.Info().Msg("health server stopped")
			return nil
		},
	})
}

func runGateway(
	lc fx.Lifecycle,
	gateway *discord.Gateway,
	scheduler *duel.CronScheduler,
	repo *journal.Repository,
	db *sql.DB,
	logger zerolog.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if n, err := journal.ReportFailures(ctx, repo, time.Now().Add(-constants.JournalLookback), logger); err != nil {
				logger.Warn().Err(err).Msg("failed to read ledger journal")
			} else if n > 0 {
				logger.Warn().Int("count", n).Msg("ledger adjustments need manual reconciliation")
			}

			scheduler.Start()
			if err := gateway.Open(); err != nil {
				logger.Error().Err(err).Msg("failed to start gateway")
				return err
			}
			logger.Info().Msg("bot started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down bot")

			if err := gateway.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing gateway")
			}
			// pending duels are in memory only; their expiry jobs die with the scheduler
			if err := scheduler.Shutdown(); err != nil {
				logger.Warn().Err(err).Msg("error stopping scheduler")
			}
			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}

			logger.Info().Msg("bot stopped gracefully")
			return nil
		},
	})
}
