package domain

import (
	"strings"

	"github.com/gosimple/slug"
)

// Member is a chat participant as seen at invocation time.
type Member struct {
	ID          string
	DisplayName string
	Mention     string
	Bot         bool
	Roles       []string // role names
}

type Tier int

const (
	Unarmed Tier = iota
	Pistol
	SubmachineGun
	Shotgun
	TopTier
)

func (t Tier) String() string {
	switch t {
	case Pistol:
		return "pistol"
	case SubmachineGun:
		return "submachine_gun"
	case Shotgun:
		return "shotgun"
	case TopTier:
		return "top_tier"
	default:
		return "unarmed"
	}
}

// TierSet is the set of tiers a member holds. Unarmed is implicit.
type TierSet uint8

func NewTierSet(tiers ...Tier) TierSet {
	var s TierSet
	for _, t := range tiers {
		s = s.With(t)
	}
	return s
}

func (s TierSet) With(t Tier) TierSet {
	if t == Unarmed {
		return s
	}
	return s | 1<<uint(t)
}

func (s TierSet) Has(t Tier) bool {
	if t == Unarmed {
		return true
	}
	return s&(1<<uint(t)) != 0
}

// Highest returns the most lethal tier held.
func (s TierSet) Highest() Tier {
	for t := TopTier; t > Unarmed; t-- {
		if s.Has(t) {
			return t
		}
	}
	return Unarmed
}

func (s TierSet) String() string {
	var names []string
	for t := Pistol; t <= TopTier; t++ {
		if s.Has(t) {
			names = append(names, t.String())
		}
	}
	if len(names) == 0 {
		return Unarmed.String()
	}
	return strings.Join(names, ",")
}

// RoleMap maps chat role names onto tiers. Names are compared by slug, so
// "Shotgun", "shotgun" and " SHOTGUN " are the same role.
type RoleMap struct {
	byName map[string]Tier
	names  map[Tier]string
}

func NewRoleMap(names map[Tier]string) RoleMap {
	m := RoleMap{byName: make(map[string]Tier), names: make(map[Tier]string)}
	for tier, name := range names {
		if tier == Unarmed || strings.TrimSpace(name) == "" {
			continue
		}
		m.byName[slug.Make(name)] = tier
		m.names[tier] = name
	}
	return m
}

func (m RoleMap) Tiers(roles []string) TierSet {
	var s TierSet
	for _, r := range roles {
		if tier, ok := m.byName[slug.Make(r)]; ok {
			s = s.With(tier)
		}
	}
	return s
}

// RoleName is the configured role name for a tier, used in user-facing notices.
func (m RoleMap) RoleName(t Tier) string {
	return m.names[t]
}
