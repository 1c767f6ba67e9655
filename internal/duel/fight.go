package duel

import (
	"fmt"
	"heist-bot/internal/constants"
	"heist-bot/internal/domain"
	"heist-bot/internal/random"
)

const (
	HitChance      = 0.65
	CritChance     = 0.20
	CritMultiplier = 1.5
	SpecialChance  = 0.15
	SpecialDamage  = 35

	// maxRounds bounds a pathological run of misses.
	maxRounds = 500
)

type Move struct {
	Attempt string
	Miss    string
	Hit     string
	Damage  int
}

var moves = []Move{
	{"throws a quick jab", "dodges the jab", "lands a solid hit", 10},
	{"goes for an uppercut", "steps back", "connects with devastating force", 20},
	{"attempts a roundhouse kick", "blocks the kick", "lands perfectly", 25},
	{"tries a body shot", "guards their body", "hits the mark", 15},
	{"launches a haymaker", "ducks under", "catches them off guard", 30},
}

var specialMove = Move{
	Attempt: "unleashes their signature combo",
	Hit:     "it lands clean",
	Damage:  SpecialDamage,
}

type Side int

const (
	ChallengerSide Side = iota
	TargetSide
)

func (s Side) other() Side { return 1 - s }

type Round struct {
	Number   int
	Attacker Side
	Move     Move
	Hit      bool
	Critical bool
	Special  bool
	Damage   int
	HP       [2]int // after the round
}

// Fight simulates rounds until one fighter is out of hit points.
type Fight struct {
	fighters    [2]domain.Member
	hp          [2]int
	maxHP       int
	specialUsed map[string]bool // fighter ids that have used their special move
	src         random.Source
	rounds      int
}

func NewFight(challenger, target domain.Member, src random.Source) *Fight {
	return &Fight{
		fighters:    [2]domain.Member{challenger, target},
		hp:          [2]int{constants.DuelStartingHP, constants.DuelStartingHP},
		maxHP:       constants.DuelStartingHP,
		specialUsed: make(map[string]bool),
		src:         src,
	}
}

func (f *Fight) Over() bool {
	return f.hp[ChallengerSide] == 0 || f.hp[TargetSide] == 0 || f.rounds >= maxRounds
}

func (f *Fight) HP(s Side) int { return f.hp[s] }

func (f *Fight) MaxHP() int { return f.maxHP }

func (f *Fight) Fighter(s Side) domain.Member { return f.fighters[s] }

// Next plays one round.
func (f *Fight) Next() Round {
	f.rounds++
	r := Round{Number: f.rounds, Attacker: Side(f.src.IntN(2))}
	r.Move = random.Pick(f.src, moves)

	if random.Chance(f.src, HitChance) {
		r.Hit = true
		attackerID := f.fighters[r.Attacker].ID
		damage := r.Move.Damage
		if !f.specialUsed[attackerID] && random.Chance(f.src, SpecialChance) {
			f.specialUsed[attackerID] = true
			r.Special = true
			r.Move = specialMove
			damage = SpecialDamage
		}
		if random.Chance(f.src, CritChance) {
			r.Critical = true
			damage = int(float64(damage) * CritMultiplier)
		}
		r.Damage = damage
		defender := r.Attacker.other()
		f.hp[defender] = max(0, f.hp[defender]-damage)
	}

	r.HP = f.hp
	return r
}

// Winner is the fighter left standing. If both are at zero, or the round cap
// is hit with equal health, the target wins.
func (f *Fight) Winner() Side {
	if f.hp[ChallengerSide] > f.hp[TargetSide] {
		return ChallengerSide
	}
	return TargetSide
}

// Narrate renders a round followed by the health line.
func (f *Fight) Narrate(r Round) string {
	attacker := f.fighters[r.Attacker]
	defender := f.fighters[r.Attacker.other()]

	var line string
	switch {
	case r.Special:
		line = fmt.Sprintf("🌟 %s %s and %s! (-%d HP)", attacker.Mention, r.Move.Attempt, r.Move.Hit, r.Damage)
	case r.Hit:
		line = fmt.Sprintf("💥 %s %s and %s! (-%d HP)", attacker.Mention, r.Move.Attempt, r.Move.Hit, r.Damage)
	default:
		line = fmt.Sprintf("💨 %s %s but %s %s!", attacker.Mention, r.Move.Attempt, defender.Mention, r.Move.Miss)
	}
	if r.Critical {
		line += " **CRITICAL HIT!**"
	}

	return fmt.Sprintf("%s\n%s: %dHP | %s: %dHP", line,
		f.fighters[ChallengerSide].DisplayName, r.HP[ChallengerSide],
		f.fighters[TargetSide].DisplayName, r.HP[TargetSide])
}
