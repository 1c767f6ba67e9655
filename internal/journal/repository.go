package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// Entry is one attempted balance adjustment.
type Entry struct {
	ID         string
	GuildID    string
	UserID     string
	Delta      int64
	Reason     string
	OK         bool
	NewBalance *int64
	Error      string
	CreatedAt  time.Time
}

type Repository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewRepository(db *sql.DB, logger zerolog.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

func (r *Repository) Insert(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate entry id: %w", err)
		}
		e.ID = id
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	var errText sql.NullString
	if e.Error != "" {
		errText = sql.NullString{String: e.Error, Valid: true}
	}
	var balance sql.NullInt64
	if e.NewBalance != nil {
		balance = sql.NullInt64{Int64: *e.NewBalance, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, guild_id, user_id, delta, reason, ok, new_balance, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.GuildID, e.UserID, e.Delta, e.Reason, e.OK, balance, errText, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return nil
}

// ListFailed returns failed adjustments since the given time, oldest first.
func (r *Repository) ListFailed(ctx context.Context, since time.Time) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, guild_id, user_id, delta, reason, ok, new_balance, error, created_at
		FROM ledger_entries
		WHERE ok = 0 AND created_at >= ?
		ORDER BY created_at ASC, rowid ASC`, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query failed entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			balance sql.NullInt64
			errText sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.GuildID, &e.UserID, &e.Delta, &e.Reason, &e.OK, &balance, &errText, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		if balance.Valid {
			v := balance.Int64
			e.NewBalance = &v
		}
		e.Error = errText.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
