package service

import (
	"context"
	"fmt"
	"heist-bot/internal/constants"
	"heist-bot/internal/domain"
	"heist-bot/internal/journal"
	"heist-bot/internal/narrative"
	"heist-bot/internal/resolver"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Ledger interface {
	GetBalance(ctx context.Context, guildID, userID string) (int64, error)
	AdjustBalance(ctx context.Context, guildID, userID string, delta int64) (int64, error)
}

type RobRequest struct {
	Variant resolver.Variant
	GuildID string
	Robber  domain.Member
	Target  domain.Member
}

// Adjustment is one balance change the robbery asked the ledger for.
type Adjustment struct {
	Participant resolver.Participant
	Member      domain.Member
	Delta       int64
	NewBalance  int64
	Applied     bool
	Err         error
}

type Report struct {
	Outcome     resolver.Outcome
	Adjustments []Adjustment
}

// Failed reports whether any requested adjustment did not go through.
func (r Report) Failed() bool {
	for _, a := range r.Adjustments {
		if a.Err != nil {
			return true
		}
	}
	return false
}

type RobberyService struct {
	ledger   Ledger
	resolver *resolver.Resolver
	roles    domain.RoleMap
	seq      *narrative.Sequencer
	logger   zerolog.Logger
}

func NewRobberyService(ledger Ledger, res *resolver.Resolver, roles domain.RoleMap, seq *narrative.Sequencer, logger zerolog.Logger) *RobberyService {
	return &RobberyService{
		ledger:   ledger,
		resolver: res,
		roles:    roles,
		seq:      seq,
		logger:   logger.With().Str("component", "robbery").Logger(),
	}
}

// Rob resolves a robbery, narrates it on out and then applies the outcome to
// the ledger. The narrative is played in full before any balance moves.
func (s *RobberyService) Rob(ctx context.Context, req RobRequest, out narrative.Output) (Report, error) {
	logger := s.logger.With().
		Str("variant", req.Variant.String()).
		Str("robber", req.Robber.ID).
		Str("target", req.Target.ID).
		Logger()

	actorTiers := s.roles.Tiers(req.Robber.Roles)
	targetTiers := s.roles.Tiers(req.Target.Roles)

	if !actorTiers.Has(resolver.RulesFor(req.Variant).Required) {
		return Report{}, resolver.ErrMissingTier
	}

	in := resolver.Input{
		Variant:     req.Variant,
		ActorTiers:  actorTiers,
		TargetTiers: targetTiers,
		Robber:      resolver.Party{Name: req.Robber.DisplayName, Mention: req.Robber.Mention},
		Target:      resolver.Party{Name: req.Target.DisplayName, Mention: req.Target.Mention},
	}

	scenario := s.resolver.Classify(req.Variant, targetTiers)
	if scenario == resolver.PlainRobbery {
		apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
		balance, err := s.ledger.GetBalance(apiCtx, req.GuildID, req.Target.ID)
		cancel()
		if err != nil {
			logger.Warn().Err(err).Msg("failed to fetch target balance")
			return Report{}, resolver.ErrNothingToTake
		}
		in.TargetBalance = balance
	}

	outcome, err := s.resolver.Resolve(in)
	if err != nil {
		return Report{}, err
	}

	logger.Info().
		Str("scenario", outcome.Scenario.String()).
		Int64("robber_delta", outcome.Delta(resolver.Robber)).
		Int64("target_delta", outcome.Delta(resolver.Target)).
		Msg("robbery resolved")

	if err := s.seq.Play(ctx, out, outcome.Lines); err != nil {
		logger.Warn().Err(err).Msg("narrative interrupted")
	}

	// the story has been told, balances follow even if the command context is gone
	applyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.CommandTimeout)
	defer cancel()
	applyCtx = journal.WithReason(applyCtx, "robbery_"+outcome.Scenario.String())

	report := Report{Outcome: outcome}
	switch outcome.Scenario {
	case resolver.PlainRobbery:
		report.Adjustments = s.applyPlain(applyCtx, req, outcome)
	case resolver.MutualExchange:
		report.Adjustments = s.applyConcurrently(applyCtx, req, outcome, resolver.Robber, resolver.Target)
	case resolver.Defended:
		report.Adjustments = s.applyConcurrently(applyCtx, req, outcome, resolver.Robber)
	case resolver.Deterred:
		return report, nil
	}

	for _, a := range report.Adjustments {
		if a.Err != nil {
			logger.Error().Err(a.Err).
				Str("participant", a.Participant.String()).
				Int64("delta", a.Delta).
				Msg("ledger adjustment failed")
		}
	}

	s.seq.Say(applyCtx, out, aftermath(report))
	return report, nil
}

// applyPlain takes from the target first; the robber is only paid once the
// money has actually left the target.
func (s *RobberyService) applyPlain(ctx context.Context, req RobRequest, o resolver.Outcome) []Adjustment {
	take := s.adjust(ctx, req, resolver.Target, o.Delta(resolver.Target))
	if take.Err != nil {
		return []Adjustment{take, s.pending(req, resolver.Robber, o.Delta(resolver.Robber))}
	}
	return []Adjustment{take, s.adjust(ctx, req, resolver.Robber, o.Delta(resolver.Robber))}
}

// applyConcurrently issues independent adjustments. A failure on one side is
// reported and never rolls back the other.
func (s *RobberyService) applyConcurrently(ctx context.Context, req RobRequest, o resolver.Outcome, parts ...resolver.Participant) []Adjustment {
	out := make([]Adjustment, len(parts))
	g := new(errgroup.Group)
	for i, p := range parts {
		g.Go(func() error {
			out[i] = s.adjust(ctx, req, p, o.Delta(p))
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *RobberyService) adjust(ctx context.Context, req RobRequest, p resolver.Participant, delta int64) Adjustment {
	a := s.pending(req, p, delta)

	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	balance, err := s.ledger.AdjustBalance(apiCtx, req.GuildID, a.Member.ID, delta)
	if err != nil {
		a.Err = err
		return a
	}
	a.NewBalance = balance
	a.Applied = true
	return a
}

func (s *RobberyService) pending(req RobRequest, p resolver.Participant, delta int64) Adjustment {
	m := req.Robber
	if p == resolver.Target {
		m = req.Target
	}
	return Adjustment{Participant: p, Member: m, Delta: delta}
}

func aftermath(r Report) string {
	var b strings.Builder
	b.WriteString("📊 **Aftermath**")
	for _, a := range r.Adjustments {
		b.WriteString("\n")
		switch {
		case a.Applied:
			fmt.Fprintf(&b, "%s: %s (%s)", a.Member.Mention, narrative.Money(a.NewBalance), narrative.Signed(a.Delta))
		case a.Err != nil:
			fmt.Fprintf(&b, "%s: %s was not applied. %s", a.Member.Mention, narrative.Signed(a.Delta), FailureNotice(a.Err))
		default:
			fmt.Fprintf(&b, "%s: %s was not applied because the first transfer failed.", a.Member.Mention, narrative.Signed(a.Delta))
		}
	}
	return b.String()
}
