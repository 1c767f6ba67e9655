package resolver

import "heist-bot/internal/domain"

type Variant int

const (
	// Major is the high-stakes robbery, requiring the top tier.
	Major Variant = iota
	// Minor is the pistol robbery.
	Minor
)

func (v Variant) String() string {
	if v == Minor {
		return "minor"
	}
	return "major"
}

type Range struct {
	Min, Max int64
}

// Rules is one variant's decision table. Tier sets are checked in the order
// mutual, defended, deterred; a target matching none is robbed.
type Rules struct {
	Variant  Variant
	Command  string
	Required domain.Tier

	Mutual   domain.TierSet
	Defended domain.TierSet
	Deterred domain.TierSet

	MutualLoss Range
	Penalty    Range
	Plain      Range
}

var rules = map[Variant]Rules{
	Major: {
		Variant:    Major,
		Command:    "woozie",
		Required:   domain.TopTier,
		Mutual:     domain.NewTierSet(domain.TopTier),
		Defended:   domain.NewTierSet(domain.Shotgun),
		MutualLoss: Range{5_000, 15_000},
		Penalty:    Range{10_000, 15_000},
		Plain:      Range{25_000, 50_000},
	},
	Minor: {
		Variant:    Minor,
		Command:    "plock",
		Required:   domain.Pistol,
		Mutual:     domain.NewTierSet(domain.Pistol),
		Defended:   domain.NewTierSet(domain.SubmachineGun),
		Deterred:   domain.NewTierSet(domain.Shotgun),
		MutualLoss: Range{1_000, 5_000},
		Penalty:    Range{5_000, 10_000},
		Plain:      Range{500, 10_000},
	},
}

func RulesFor(v Variant) Rules {
	return rules[v]
}

// VariantForCommand maps a slash command name to its variant.
func VariantForCommand(name string) (Variant, bool) {
	for v, r := range rules {
		if r.Command == name {
			return v, true
		}
	}
	return 0, false
}

func overlaps(held, set domain.TierSet) bool {
	return held&set != 0
}
