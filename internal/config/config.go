package config

import (
	"fmt"
	"heist-bot/internal/domain"
	"heist-bot/internal/logger"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	DiscordToken  string        `env:"DISCORD_TOKEN"`
	GuildID       string        `env:"GUILD_ID"`
	LedgerToken   string        `env:"UNBELIEVABOAT_API_TOKEN"`
	LedgerBaseURL string        `env:"LEDGER_BASE_URL" envDefault:"https://unbelievaboat.com/api/v1"`
	LedgerTimeout time.Duration `env:"LEDGER_TIMEOUT" envDefault:"10s"`

	ServerPort  string `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	JournalPath string `env:"JOURNAL_PATH" envDefault:"journal.db"`

	NarrativeDelay time.Duration `env:"NARRATIVE_DELAY" envDefault:"1500ms"`
	DuelRoundDelay time.Duration `env:"DUEL_ROUND_DELAY" envDefault:"4s"`
	DuelExpiry     time.Duration `env:"DUEL_EXPIRY" envDefault:"3m"`

	Roles Roles `envPrefix:"ROLE_"`
}

// Roles holds the chat role names that grant each weapon tier.
type Roles struct {
	Pistol        string `env:"PISTOL" envDefault:"Glock"`
	SubmachineGun string `env:"SMG" envDefault:"Uzi"`
	Shotgun       string `env:"SHOTGUN" envDefault:"Shotgun"`
	TopTier       string `env:"TOP" envDefault:"Woozie"`
}

func Load(log zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := logger.ApplyLevel(cfg.LogLevel)

	log.Info().
		Str("ledger_base_url", cfg.LedgerBaseURL).
		Str("server_port", cfg.ServerPort).
		Str("log_level", level.String()).
		Str("journal_path", cfg.JournalPath).
		Dur("narrative_delay", cfg.NarrativeDelay).
		Dur("duel_round_delay", cfg.DuelRoundDelay).
		Dur("duel_expiry", cfg.DuelExpiry).
		Msg("configuration loaded")

	return &cfg, nil
}

func (c Config) Validate() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	if c.LedgerToken == "" {
		return fmt.Errorf("UNBELIEVABOAT_API_TOKEN is required")
	}
	if c.NarrativeDelay < 0 || c.DuelRoundDelay < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	if c.DuelExpiry <= 0 {
		return fmt.Errorf("DUEL_EXPIRY must be positive")
	}
	return nil
}

// RoleMap maps the configured role names onto weapon tiers.
func (c *Config) RoleMap() domain.RoleMap {
	return domain.NewRoleMap(map[domain.Tier]string{
		domain.Pistol:        c.Roles.Pistol,
		domain.SubmachineGun: c.Roles.SubmachineGun,
		domain.Shotgun:       c.Roles.Shotgun,
		domain.TopTier:       c.Roles.TopTier,
	})
}

var Module = fx.Provide(Load)
