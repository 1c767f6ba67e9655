package resolver

import (
	"errors"
	"heist-bot/internal/domain"
	"heist-bot/internal/random"
)

var (
	ErrMissingTier   = errors.New("actor does not hold the tier this command requires")
	ErrNothingToTake = errors.New("target has nothing to take")
)

// LuckyEscapeChance is the probability that one side of a mutual exchange
// walks away richer instead of poorer.
const LuckyEscapeChance = 0.05

type Scenario int

const (
	PlainRobbery Scenario = iota
	MutualExchange
	Defended
	Deterred
)

func (s Scenario) String() string {
	switch s {
	case MutualExchange:
		return "mutual_exchange"
	case Defended:
		return "defended"
	case Deterred:
		return "deterred"
	default:
		return "plain_robbery"
	}
}

type Participant int

const (
	Robber Participant = iota
	Target
)

func (p Participant) String() string {
	if p == Target {
		return "target"
	}
	return "robber"
}

// Party names a participant for narration.
type Party struct {
	Name    string
	Mention string
}

type Input struct {
	Variant     Variant
	ActorTiers  domain.TierSet
	TargetTiers domain.TierSet
	// TargetBalance is only consulted for plain robbery.
	TargetBalance int64
	Robber        Party
	Target        Party
}

type Outcome struct {
	Scenario Scenario
	Variant  Variant
	Lines    []string
	Deltas   map[Participant]int64
	// Drawn is the plain-robbery amount before capping at the target balance.
	Drawn int64
	// LuckySide is set when a mutual exchange turned one loss into a gain.
	LuckySide *Participant
}

func (o Outcome) Delta(p Participant) int64 {
	return o.Deltas[p]
}

// Resolver decides robbery outcomes. It performs no I/O.
type Resolver struct {
	src random.Source
}

func New(src random.Source) *Resolver {
	return &Resolver{src: src}
}

// Classify walks the variant's decision chain for the given target tiers.
func (r *Resolver) Classify(v Variant, target domain.TierSet) Scenario {
	rs := RulesFor(v)
	switch {
	case overlaps(target, rs.Mutual):
		return MutualExchange
	case overlaps(target, rs.Defended):
		return Defended
	case overlaps(target, rs.Deterred):
		return Deterred
	default:
		return PlainRobbery
	}
}

func (r *Resolver) Resolve(in Input) (Outcome, error) {
	rs := RulesFor(in.Variant)
	if !in.ActorTiers.Has(rs.Required) {
		return Outcome{}, ErrMissingTier
	}

	out := Outcome{
		Scenario: r.Classify(in.Variant, in.TargetTiers),
		Variant:  in.Variant,
		Deltas:   map[Participant]int64{Robber: 0, Target: 0},
	}
	cast := script{Robber: in.Robber, Target: in.Target}

	switch out.Scenario {
	case MutualExchange:
		robberLoss := random.Between(r.src, rs.MutualLoss.Min, rs.MutualLoss.Max)
		targetLoss := random.Between(r.src, rs.MutualLoss.Min, rs.MutualLoss.Max)
		out.Deltas[Robber] = -robberLoss
		out.Deltas[Target] = -targetLoss
		if random.Chance(r.src, LuckyEscapeChance) {
			side := Participant(r.src.IntN(2))
			out.Deltas[side] = -out.Deltas[side]
			out.LuckySide = &side
		}
		cast.RobberDelta, cast.TargetDelta = out.Deltas[Robber], out.Deltas[Target]
		if out.LuckySide != nil {
			out.Lines = random.Pick(r.src, luckyEscapeScripts)(cast, *out.LuckySide)
		} else {
			out.Lines = random.Pick(r.src, mutualScripts[in.Variant])(cast)
		}

	case Defended:
		penalty := random.Between(r.src, rs.Penalty.Min, rs.Penalty.Max)
		out.Deltas[Robber] = -penalty
		cast.RobberDelta = -penalty
		out.Lines = random.Pick(r.src, defendedScripts[in.Variant])(cast)

	case Deterred:
		out.Lines = random.Pick(r.src, deterredScripts)(cast)

	default:
		if in.TargetBalance <= 0 {
			return Outcome{}, ErrNothingToTake
		}
		out.Drawn = random.Between(r.src, rs.Plain.Min, rs.Plain.Max)
		amount := min(out.Drawn, in.TargetBalance)
		out.Deltas[Robber] = amount
		out.Deltas[Target] = -amount
		cast.RobberDelta, cast.TargetDelta = amount, -amount
		out.Lines = random.Pick(r.src, plainScripts[in.Variant])(cast)
	}

	return out, nil
}
