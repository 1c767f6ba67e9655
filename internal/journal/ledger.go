package journal

import (
	"context"
	"heist-bot/internal/constants"

	"github.com/rs/zerolog"
)

// Balances is the ledger surface the journal records.
type Balances interface {
	GetBalance(ctx context.Context, guildID, userID string) (int64, error)
	AdjustBalance(ctx context.Context, guildID, userID string, delta int64) (int64, error)
}

type reasonKey struct{}

// WithReason tags adjustments made with ctx, e.g. "duel_refund".
func WithReason(ctx context.Context, reason string) context.Context {
	return context.WithValue(ctx, reasonKey{}, reason)
}

func ReasonFrom(ctx context.Context) string {
	if r, ok := ctx.Value(reasonKey{}).(string); ok && r != "" {
		return r
	}
	return "unspecified"
}

// Ledger records every adjustment passing through it. Journal write failures
// are logged and never change the ledger result.
type Ledger struct {
	next   Balances
	repo   *Repository
	logger zerolog.Logger
}

func NewLedger(next Balances, repo *Repository, logger zerolog.Logger) *Ledger {
	return &Ledger{next: next, repo: repo, logger: logger}
}

func (l *Ledger) GetBalance(ctx context.Context, guildID, userID string) (int64, error) {
	return l.next.GetBalance(ctx, guildID, userID)
}

func (l *Ledger) AdjustBalance(ctx context.Context, guildID, userID string, delta int64) (int64, error) {
	balance, err := l.next.AdjustBalance(ctx, guildID, userID, delta)

	entry := &Entry{
		GuildID: guildID,
		UserID:  userID,
		Delta:   delta,
		Reason:  ReasonFrom(ctx),
		OK:      err == nil,
	}
	if err != nil {
		entry.Error = err.Error()
	} else {
		entry.NewBalance = &balance
	}

	dbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.DatabaseTimeout)
	defer cancel()
	if jerr := l.repo.Insert(dbCtx, entry); jerr != nil {
		l.logger.Error().Err(jerr).
			Str("user_id", userID).
			Int64("delta", delta).
			Str("reason", entry.Reason).
			Msg("failed to journal ledger adjustment")
	}

	return balance, err
}
