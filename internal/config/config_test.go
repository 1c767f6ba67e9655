package config

import (
	"testing"
	"time"

	"heist-bot/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "discord")
	t.Setenv("UNBELIEVABOAT_API_TOKEN", "ledger")

	cfg, err := Load(zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, "https://unbelievaboat.com/api/v1", cfg.LedgerBaseURL)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 1500*time.Millisecond, cfg.NarrativeDelay)
	assert.Equal(t, 4*time.Second, cfg.DuelRoundDelay)
	assert.Equal(t, 3*time.Minute, cfg.DuelExpiry)
	assert.Equal(t, "Woozie", cfg.Roles.TopTier)
	assert.Equal(t, "Glock", cfg.Roles.Pistol)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "discord")
	t.Setenv("UNBELIEVABOAT_API_TOKEN", "ledger")
	t.Setenv("NARRATIVE_DELAY", "250ms")
	t.Setenv("ROLE_SMG", "Mac10")

	cfg, err := Load(zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.NarrativeDelay)
	assert.Equal(t, "Mac10", cfg.Roles.SubmachineGun)

	tiers := cfg.RoleMap().Tiers([]string{"mac10", "Glock"})
	assert.True(t, tiers.Has(domain.SubmachineGun))
	assert.True(t, tiers.Has(domain.Pistol))
	assert.False(t, tiers.Has(domain.TopTier))
}

func TestLoad_MissingTokens(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("UNBELIEVABOAT_API_TOKEN", "")

	_, err := Load(zerolog.Nop())
	require.Error(t, err)
}
