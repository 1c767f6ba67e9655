package duel

import (
	"context"
	"errors"
	"fmt"
	"heist-bot/internal/config"
	"heist-bot/internal/constants"
	"heist-bot/internal/domain"
	"heist-bot/internal/journal"
	"heist-bot/internal/narrative"
	"heist-bot/internal/random"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Ledger interface {
	GetBalance(ctx context.Context, guildID, userID string) (int64, error)
	AdjustBalance(ctx context.Context, guildID, userID string, delta int64) (int64, error)
}

// Announcer posts outside of any command response, e.g. when a challenge
// expires on its own.
type Announcer interface {
	Announce(ctx context.Context, channelID, content string) error
	CloseChallenge(ctx context.Context, channelID, messageID, content string) error
}

// Scheduler runs fn once at the given time unless cancelled first.
type Scheduler interface {
	Schedule(id string, at time.Time, fn func()) error
	Cancel(id string)
}

type ChallengeRequest struct {
	MessageID  string
	GuildID    string
	ChannelID  string
	Challenger domain.Member
	Target     domain.Member
}

type BetRequest struct {
	DuelID    string
	Bettor    domain.Member
	FighterID string
	Amount    string
}

type Settlement struct {
	Bet    Bet
	Amount int64 // credited, zero for forfeited bets
	Err    error
}

type Result struct {
	Winner   domain.Member
	Loser    domain.Member
	WinnerHP int
	Rounds   int
	Payouts  []Settlement
}

type Engine struct {
	store     *Store
	ledger    Ledger
	announcer Announcer
	scheduler Scheduler
	seq       *narrative.Sequencer
	clock     clockwork.Clock
	src       random.Source
	expiry    time.Duration
	logger    zerolog.Logger
}

func NewEngine(
	cfg *config.Config,
	store *Store,
	ledger Ledger,
	announcer Announcer,
	scheduler Scheduler,
	seq *narrative.Sequencer,
	clock clockwork.Clock,
	src random.Source,
	logger zerolog.Logger,
) *Engine {
	return &Engine{
		store:     store,
		ledger:    ledger,
		announcer: announcer,
		scheduler: scheduler,
		seq:       seq.WithDelay(cfg.DuelRoundDelay),
		clock:     clock,
		src:       src,
		expiry:    cfg.DuelExpiry,
		logger:    logger.With().Str("component", "duel").Logger(),
	}
}

func (e *Engine) Store() *Store { return e.store }

// Expiry is how long a challenge stays open.
func (e *Engine) Expiry() time.Duration { return e.expiry }

// Open registers a pending challenge and arms its expiry timer.
func (e *Engine) Open(ctx context.Context, req ChallengeRequest) (Duel, error) {
	if req.Target.Bot {
		return Duel{}, ErrBotChallenge
	}
	if req.Target.ID == req.Challenger.ID {
		return Duel{}, ErrSelfChallenge
	}

	now := e.clock.Now()
	d := &Duel{
		ID:         req.MessageID,
		GuildID:    req.GuildID,
		ChannelID:  req.ChannelID,
		Challenger: req.Challenger,
		Target:     req.Target,
		State:      Pending,
		CreatedAt:  now,
		ExpiresAt:  now.Add(e.expiry),
	}
	if err := e.store.Insert(d); err != nil {
		return Duel{}, err
	}

	id := d.ID
	if err := e.scheduler.Schedule(id, d.ExpiresAt, func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.CommandTimeout)
		defer cancel()
		if _, err := e.Expire(ctx, id); err != nil {
			e.logger.Error().Err(err).Str("duel_id", id).Msg("expiry failed")
		}
	}); err != nil {
		e.store.Remove(id)
		return Duel{}, fmt.Errorf("failed to schedule expiry: %w", err)
	}

	e.logger.Info().
		Str("duel_id", id).
		Str("challenger", req.Challenger.ID).
		Str("target", req.Target.ID).
		Time("expires_at", d.ExpiresAt).
		Msg("duel opened")

	return d.snapshot(), nil
}

// PlaceBet debits the wager and records it. Bets are only taken while the
// challenge is pending; a failed debit records nothing.
func (e *Engine) PlaceBet(ctx context.Context, req BetRequest) (Bet, error) {
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		return Bet{}, err
	}

	var bet Bet
	err = e.store.With(req.DuelID, func(d *Duel) error {
		if d.State != Pending {
			return ErrNotPending
		}
		if _, ok := d.fighter(req.FighterID); !ok {
			return ErrUnknownFighter
		}

		apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
		defer cancel()

		balance, err := e.ledger.GetBalance(apiCtx, d.GuildID, req.Bettor.ID)
		if err != nil {
			return fmt.Errorf("failed to check balance: %w", err)
		}
		if balance < amount {
			return &InsufficientFundsError{Balance: balance, Amount: amount}
		}

		if _, err := e.ledger.AdjustBalance(journal.WithReason(apiCtx, "duel_bet"), d.GuildID, req.Bettor.ID, -amount); err != nil {
			return fmt.Errorf("failed to debit bet: %w", err)
		}

		id, err := gonanoid.New()
		if err != nil {
			id = strconv.FormatInt(e.clock.Now().UnixNano(), 36)
		}
		bet = Bet{
			ID:        id,
			Bettor:    req.Bettor,
			Amount:    amount,
			FighterID: req.FighterID,
			PlacedAt:  e.clock.Now(),
		}
		d.Bets = append(d.Bets, bet)
		return nil
	})
	if err != nil {
		e.logger.Info().Err(err).Str("duel_id", req.DuelID).Str("bettor", req.Bettor.ID).Msg("bet rejected")
		return Bet{}, err
	}

	e.logger.Info().
		Str("duel_id", req.DuelID).
		Str("bet_id", bet.ID).
		Str("bettor", bet.Bettor.ID).
		Str("fighter", bet.FighterID).
		Int64("amount", bet.Amount).
		Msg("bet placed")
	return bet, nil
}

// Accept starts the fight. Only the challenged player may accept, and only
// once. The fight is narrated on out and bets are settled when it ends, even
// if narration is cut short.
func (e *Engine) Accept(ctx context.Context, duelID string, actor domain.Member, out narrative.Output) (Result, error) {
	var d Duel
	err := e.store.With(duelID, func(live *Duel) error {
		if actor.ID != live.Target.ID {
			return ErrNotChallenged
		}
		if live.State != Pending {
			return ErrNotPending
		}
		live.State = Accepted
		d = live.snapshot()
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	e.scheduler.Cancel(duelID)

	logger := e.logger.With().Str("duel_id", duelID).Logger()
	logger.Info().Msg("duel accepted")

	fight := NewFight(d.Challenger, d.Target, e.src)
	lines := []string{fmt.Sprintf("🥊 The fight between %s and %s begins!", d.Challenger.Mention, d.Target.Mention)}
	for !fight.Over() {
		lines = append(lines, fight.Narrate(fight.Next()))
	}

	winnerSide := fight.Winner()
	res := Result{
		Winner:   fight.Fighter(winnerSide),
		Loser:    fight.Fighter(winnerSide.other()),
		WinnerHP: fight.HP(winnerSide),
		Rounds:   len(lines) - 1,
	}

	// respond first, the reply has a deadline
	if err := out.Respond(ctx, lines[0]); err != nil {
		logger.Warn().Err(err).Msg("failed to send fight opening")
	}
	if err := e.announcer.CloseChallenge(ctx, d.ChannelID, d.ID, fmt.Sprintf("🥊 %s accepted the challenge!", d.Target.Mention)); err != nil {
		logger.Warn().Err(err).Msg("failed to close challenge message")
	}
	next := 1
	if err := e.seq.Stream(ctx, out, func() (string, bool) {
		if next >= len(lines) {
			return "", false
		}
		next++
		return lines[next-1], true
	}); err != nil {
		logger.Warn().Err(err).Msg("fight narration interrupted")
	}

	// settlement must not be abandoned with the command context
	settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.CommandTimeout)
	defer cancel()

	var bets []Bet
	_ = e.store.With(duelID, func(live *Duel) error {
		live.State = Resolved
		bets = live.Bets
		live.Bets = nil
		return nil
	})

	res.Payouts = e.payout(settleCtx, d.GuildID, bets, res.Winner.ID, res.WinnerHP, fight.MaxHP())

	for _, s := range res.Payouts {
		switch {
		case s.Err != nil:
			e.seq.Say(settleCtx, out, fmt.Sprintf("⚠️ Couldn't pay %s their %s winnings. The payout has been logged for an admin.",
				s.Bet.Bettor.Mention, narrative.Money(Payout(s.Bet.Amount, res.WinnerHP, fight.MaxHP()))))
		case s.Amount > 0:
			e.seq.Say(settleCtx, out, fmt.Sprintf("💰 %s won %s from their bet! (x%.2f)",
				s.Bet.Bettor.Mention, narrative.Money(s.Amount), Multiplier(res.WinnerHP, fight.MaxHP())))
		}
	}
	e.seq.Say(settleCtx, out, fmt.Sprintf("🏆 %s has won the fight against %s!", res.Winner.Mention, res.Loser.Mention))

	logger.Info().
		Str("winner", res.Winner.ID).
		Int("winner_hp", res.WinnerHP).
		Int("rounds", res.Rounds).
		Int("bets", len(bets)).
		Msg("duel resolved")
	return res, nil
}

func (e *Engine) payout(ctx context.Context, guildID string, bets []Bet, winnerID string, winnerHP, maxHP int) []Settlement {
	results := make([]Settlement, len(bets))

	g := new(errgroup.Group)
	g.SetLimit(4)
	for i, bet := range bets {
		results[i] = Settlement{Bet: bet}
		if bet.FighterID != winnerID {
			continue
		}
		g.Go(func() error {
			amount := Payout(bet.Amount, winnerHP, maxHP)
			if _, err := e.ledger.AdjustBalance(journal.WithReason(ctx, "duel_payout"), guildID, bet.Bettor.ID, amount); err != nil {
				e.logger.Error().Err(err).
					Str("bet_id", bet.ID).
					Str("bettor", bet.Bettor.ID).
					Int64("amount", amount).
					Msg("payout failed")
				results[i].Err = err
				return nil
			}
			results[i].Amount = amount
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Expire refunds every bet of a still-pending duel and removes it. It is a
// no-op for duels that were accepted or already gone.
func (e *Engine) Expire(ctx context.Context, duelID string) ([]Settlement, error) {
	var (
		d       Duel
		expired bool
	)
	err := e.store.With(duelID, func(live *Duel) error {
		if live.State != Pending {
			return nil
		}
		live.State = Expired
		d = live.snapshot()
		live.Bets = nil
		expired = true
		return nil
	})
	if errors.Is(err, ErrNotFound) || (err == nil && !expired) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	logger := e.logger.With().Str("duel_id", duelID).Logger()
	logger.Info().Int("bets", len(d.Bets)).Msg("duel expired, refunding bets")

	refunds := make([]Settlement, len(d.Bets))
	g := new(errgroup.Group)
	g.SetLimit(4)
	for i, bet := range d.Bets {
		refunds[i] = Settlement{Bet: bet}
		g.Go(func() error {
			apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
			defer cancel()
			if _, err := e.ledger.AdjustBalance(journal.WithReason(apiCtx, "duel_refund"), d.GuildID, bet.Bettor.ID, bet.Amount); err != nil {
				logger.Error().Err(err).
					Str("bet_id", bet.ID).
					Str("bettor", bet.Bettor.ID).
					Int64("amount", bet.Amount).
					Msg("refund failed")
				refunds[i].Err = err
				return nil
			}
			refunds[i].Amount = bet.Amount
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range refunds {
		var msg string
		if r.Err != nil {
			msg = fmt.Sprintf("⚠️ Couldn't refund %s to %s. The refund has been logged for an admin.", narrative.Money(r.Bet.Amount), r.Bet.Bettor.Mention)
		} else {
			msg = fmt.Sprintf("💰 Refunded %s to %s as the fight was not accepted.", narrative.Money(r.Amount), r.Bet.Bettor.Mention)
		}
		if err := e.announcer.Announce(ctx, d.ChannelID, msg); err != nil {
			logger.Warn().Err(err).Msg("refund notice failed")
		}
	}
	if err := e.announcer.CloseChallenge(ctx, d.ChannelID, d.ID, "⏰ Challenge has expired!"); err != nil {
		logger.Warn().Err(err).Msg("failed to close challenge message")
	}

	return refunds, nil
}

// ParseAmount accepts whole numbers, optionally written as "$1,000".
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if n < constants.MinBet {
		return 0, ErrBelowMinimum
	}
	if n > constants.MaxBet {
		return 0, ErrAboveMaximum
	}
	return n, nil
}
