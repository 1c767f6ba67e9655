package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	CommandTimeout     = 5 * time.Minute
	NotifyTimeout      = 10 * time.Second
)

const (
	DBMaxOpenConns    = 10
	DBMaxIdleConns    = 2
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	JournalLookback   = 24 * time.Hour
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// Retry-After fallback when the ledger omits the header.
	DefaultRetryAfter = 60 * time.Second
	MinBet            = 1
	MaxBet            = 1_000_000_000_000
	DuelStartingHP    = 100
)
