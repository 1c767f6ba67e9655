package journal

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// ReportFailures logs every failed adjustment since the given time so an
// operator can reconcile balances by hand. It returns how many were found.
func ReportFailures(ctx context.Context, repo *Repository, since time.Time, logger zerolog.Logger) (int, error) {
	failed, err := repo.ListFailed(ctx, since)
	if err != nil {
		return 0, err
	}
	for _, e := range failed {
		logger.Warn().
			Str("entry_id", e.ID).
			Str("guild_id", e.GuildID).
			Str("user_id", e.UserID).
			Int64("delta", e.Delta).
			Str("reason", e.Reason).
			Str("error", e.Error).
			Time("at", e.CreatedAt).
			Msg("unreconciled ledger adjustment")
	}
	return len(failed), nil
}
