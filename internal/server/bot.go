package server

import (
	"context"
	"errors"
	"fmt"
	"heist-bot/internal/constants"
	"heist-bot/internal/domain"
	"heist-bot/internal/duel"
	"heist-bot/internal/narrative"
	"heist-bot/internal/random"
	"heist-bot/internal/resolver"
	"heist-bot/internal/service"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const genericFailure = "❌ An unexpected error occurred. Please try again later."

// Invocation is one slash command or component interaction.
type Invocation struct {
	Command   string
	GuildID   string
	ChannelID string
	Actor     domain.Member
	Target    *domain.Member
}

// Responder is the reply channel of an invocation. Notify sends a notice only
// the invoking user can see.
type Responder interface {
	narrative.Output
	Notify(ctx context.Context, content string) error
}

// ChallengeResponder can post the challenge message a duel is attached to and
// returns its id.
type ChallengeResponder interface {
	Responder
	PostChallenge(ctx context.Context, content string, challenger, target domain.Member) (string, error)
}

type Directory interface {
	Members(ctx context.Context, guildID string) ([]domain.Member, error)
}

type Bot struct {
	robbery   *service.RobberyService
	duels     *duel.Engine
	directory Directory
	announcer duel.Announcer
	roles     domain.RoleMap
	src       random.Source
	logger    zerolog.Logger
}

func NewBot(
	robbery *service.RobberyService,
	duels *duel.Engine,
	directory Directory,
	announcer duel.Announcer,
	roles domain.RoleMap,
	src random.Source,
	logger zerolog.Logger,
) *Bot {
	return &Bot{
		robbery:   robbery,
		duels:     duels,
		directory: directory,
		announcer: announcer,
		roles:     roles,
		src:       src,
		logger:    logger,
	}
}

// Rob runs /woozie or /plock.
func (b *Bot) Rob(ctx context.Context, variant resolver.Variant, inv Invocation, out Responder) {
	b.handle(ctx, inv, out, func(ctx context.Context, logger zerolog.Logger) error {
		rules := resolver.RulesFor(variant)
		if !b.roles.Tiers(inv.Actor.Roles).Has(rules.Required) {
			return notify(ctx, out, missingRole(rules, b.roles))
		}

		target, notice, err := b.pickTarget(ctx, inv)
		if err != nil {
			return err
		}
		if notice != "" {
			return notify(ctx, out, notice)
		}

		logger.Info().Str("target", target.ID).Msg("robbery started")

		report, err := b.robbery.Rob(ctx, service.RobRequest{
			Variant: variant,
			GuildID: inv.GuildID,
			Robber:  inv.Actor,
			Target:  target,
		}, out)
		switch {
		case errors.Is(err, resolver.ErrNothingToTake):
			return notify(ctx, out, fmt.Sprintf("❌ %s has nothing to take!", target.Mention))
		case errors.Is(err, resolver.ErrMissingTier):
			return notify(ctx, out, missingRole(rules, b.roles))
		case err != nil:
			return err
		}

		logger.Info().
			Str("scenario", report.Outcome.Scenario.String()).
			Bool("ledger_failed", report.Failed()).
			Msg("robbery finished")
		return nil
	})
}

// pickTarget validates the named target or draws a random eligible member.
// A non-empty notice means the invocation should stop there.
func (b *Bot) pickTarget(ctx context.Context, inv Invocation) (domain.Member, string, error) {
	if inv.Target != nil {
		switch {
		case inv.Target.ID == inv.Actor.ID:
			return domain.Member{}, "❌ You can't rob yourself!", nil
		case inv.Target.Bot:
			return domain.Member{}, "❌ You can't rob a bot!", nil
		}
		return *inv.Target, "", nil
	}

	members, err := b.directory.Members(ctx, inv.GuildID)
	if err != nil {
		return domain.Member{}, "", fmt.Errorf("failed to list members: %w", err)
	}
	var eligible []domain.Member
	for _, m := range members {
		if !m.Bot && m.ID != inv.Actor.ID {
			eligible = append(eligible, m)
		}
	}
	if len(eligible) == 0 {
		return domain.Member{}, "❌ No valid targets found!", nil
	}
	return random.Pick(b.src, eligible), "", nil
}

// Fight posts a challenge and registers it with the duel engine.
func (b *Bot) Fight(ctx context.Context, inv Invocation, out ChallengeResponder) {
	b.handle(ctx, inv, out, func(ctx context.Context, logger zerolog.Logger) error {
		switch {
		case inv.Target == nil:
			return notify(ctx, out, "❌ You need to pick someone to fight!")
		case inv.Target.ID == inv.Actor.ID:
			return notify(ctx, out, "❌ You can't fight yourself!")
		case inv.Target.Bot:
			return notify(ctx, out, "❌ You can't fight a bot!")
		}

		content := fmt.Sprintf("🥊 %s has challenged %s to a fight!\nPlace your bets below. %s has %s to accept.",
			inv.Actor.Mention, inv.Target.Mention, inv.Target.Mention, humanDuration(b.duels.Expiry()))
		messageID, err := out.PostChallenge(ctx, content, inv.Actor, *inv.Target)
		if err != nil {
			return fmt.Errorf("failed to post challenge: %w", err)
		}

		d, err := b.duels.Open(ctx, duel.ChallengeRequest{
			MessageID:  messageID,
			GuildID:    inv.GuildID,
			ChannelID:  inv.ChannelID,
			Challenger: inv.Actor,
			Target:     *inv.Target,
		})
		if err != nil {
			// no duel backs the buttons, take them down
			if cerr := b.announcer.CloseChallenge(ctx, inv.ChannelID, messageID, "❌ This challenge could not be opened."); cerr != nil {
				logger.Warn().Err(cerr).Str("message_id", messageID).Msg("failed to close orphaned challenge")
			}
			return err
		}
		logger.Info().Str("duel_id", d.ID).Msg("challenge posted")
		return nil
	})
}

// AcceptFight handles the accept button on a challenge message.
func (b *Bot) AcceptFight(ctx context.Context, inv Invocation, duelID string, out Responder) {
	b.handle(ctx, inv, out, func(ctx context.Context, logger zerolog.Logger) error {
		if d, ok := b.duels.Store().Get(duelID); ok && d.Target.ID != inv.Actor.ID {
			return notify(ctx, out, fmt.Sprintf("❌ Only %s can accept this fight!", d.Target.Mention))
		}

		res, err := b.duels.Accept(ctx, duelID, inv.Actor, out)
		if err != nil {
			return err
		}
		logger.Info().Str("duel_id", duelID).Str("winner", res.Winner.ID).Msg("fight finished")
		return nil
	})
}

// CanBet reports whether the bet modal should be offered for a duel.
func (b *Bot) CanBet(duelID string) error {
	d, ok := b.duels.Store().Get(duelID)
	if !ok {
		return duel.ErrNotFound
	}
	if d.State != duel.Pending {
		return duel.ErrNotPending
	}
	return nil
}

// Bet handles a submitted bet modal.
func (b *Bot) Bet(ctx context.Context, inv Invocation, duelID, fighterID, amount string, out Responder) {
	b.handle(ctx, inv, out, func(ctx context.Context, logger zerolog.Logger) error {
		d, ok := b.duels.Store().Get(duelID)
		if !ok {
			return duel.ErrNotFound
		}

		bet, err := b.duels.PlaceBet(ctx, duel.BetRequest{
			DuelID:    duelID,
			Bettor:    inv.Actor,
			FighterID: fighterID,
			Amount:    amount,
		})
		if err != nil {
			return err
		}

		fighter := d.Challenger
		if fighterID == d.Target.ID {
			fighter = d.Target
		}
		return out.Respond(ctx, fmt.Sprintf("💸 %s bet %s on %s!", inv.Actor.Mention, narrative.Money(bet.Amount), fighter.Mention))
	})
}

// handle is the boundary every invocation goes through. It tags the logger,
// bounds the context and turns errors and panics into notices.
func (b *Bot) handle(ctx context.Context, inv Invocation, out Responder, fn func(ctx context.Context, logger zerolog.Logger) error) {
	ctx, cancel := context.WithTimeout(ctx, constants.CommandTimeout)
	defer cancel()

	logger := b.logger.With().
		Str("invocation_id", uuid.New().String()).
		Str("command", inv.Command).
		Str("guild_id", inv.GuildID).
		Str("actor", inv.Actor.ID).
		Logger()
	ctx = logger.WithContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("invocation panicked")
			_ = out.Notify(ctx, genericFailure)
		}
	}()

	if err := fn(ctx, logger); err != nil {
		notice, expected := userNotice(err)
		if expected {
			logger.Info().Err(err).Msg("invocation rejected")
		} else {
			logger.Error().Err(err).Msg("invocation failed")
		}
		if err := out.Notify(ctx, notice); err != nil {
			logger.Warn().Err(err).Msg("failed to deliver notice")
		}
	}
}

// userNotice maps an error to its player-facing message. expected is false
// for failures that deserve an error log.
func userNotice(err error) (string, bool) {
	var funds *duel.InsufficientFundsError
	switch {
	case errors.As(err, &funds):
		return fmt.Sprintf("❌ You don't have enough money! Your balance: %s", narrative.Money(funds.Balance)), true
	case errors.Is(err, duel.ErrNotFound),
		errors.Is(err, duel.ErrNotPending),
		errors.Is(err, duel.ErrNotChallenged),
		errors.Is(err, duel.ErrInvalidAmount),
		errors.Is(err, duel.ErrUnknownFighter),
		errors.Is(err, duel.ErrSelfChallenge),
		errors.Is(err, duel.ErrBotChallenge),
		errors.Is(err, duel.ErrDuplicate):
		return "❌ " + capitalize(err.Error()) + ".", true
	case errors.Is(err, duel.ErrBelowMinimum):
		return fmt.Sprintf("❌ The minimum bet is %s.", narrative.Money(constants.MinBet)), true
	case errors.Is(err, duel.ErrAboveMaximum):
		return fmt.Sprintf("❌ The maximum bet is %s.", narrative.Money(constants.MaxBet)), true
	case isLedgerError(err):
		return service.FailureNotice(err), false
	default:
		return genericFailure, false
	}
}

func notify(ctx context.Context, out Responder, content string) error {
	if err := out.Notify(ctx, content); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to deliver notice")
	}
	return nil
}

func missingRole(rules resolver.Rules, roles domain.RoleMap) string {
	name := roles.RoleName(rules.Required)
	if name == "" {
		name = rules.Required.String()
	}
	return fmt.Sprintf("❌ You need the %s role to use /%s!", name, rules.Command)
}

func humanDuration(d time.Duration) string {
	if d >= time.Minute && d%time.Minute == 0 {
		if d == time.Minute {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", d/time.Minute)
	}
	return d.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
