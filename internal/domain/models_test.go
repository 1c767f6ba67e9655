package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleMap_Tiers(t *testing.T) {
	roles := NewRoleMap(map[Tier]string{
		Pistol:        "Glock",
		SubmachineGun: "Uzi",
		Shotgun:       "Shotgun",
		TopTier:       "Woozie",
	})

	tests := []struct {
		name  string
		roles []string
		want  TierSet
	}{
		{"none", nil, 0},
		{"unrelated roles", []string{"Member", "Booster"}, 0},
		{"case insensitive", []string{"SHOTGUN"}, NewTierSet(Shotgun)},
		{"several", []string{"glock", "Woozie", "Member"}, NewTierSet(Pistol, TopTier)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, roles.Tiers(tt.roles))
		})
	}
	assert.Equal(t, "Woozie", roles.RoleName(TopTier))
}

func TestTierSet(t *testing.T) {
	s := NewTierSet(Pistol, Shotgun)

	assert.True(t, s.Has(Unarmed))
	assert.True(t, s.Has(Pistol))
	assert.False(t, s.Has(TopTier))
	assert.Equal(t, Shotgun, s.Highest())
	assert.Equal(t, Unarmed, TierSet(0).Highest())
	assert.Equal(t, "pistol,shotgun", s.String())
}
