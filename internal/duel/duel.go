// Package duel runs wagered one-on-one fights: challenge, pre-accept
// betting, simulation, payout and expiry refunds.
package duel

import (
	"errors"
	"fmt"
	"heist-bot/internal/domain"
	"time"
)

type State int

const (
	Pending State = iota
	Accepted
	Resolved
	Expired
)

func (s State) String() string {
	switch s {
	case Accepted:
		return "accepted"
	case Resolved:
		return "resolved"
	case Expired:
		return "expired"
	default:
		return "pending"
	}
}

// Terminal states leave the active set.
func (s State) Terminal() bool {
	return s == Resolved || s == Expired
}

var (
	ErrNotFound       = errors.New("this fight is no longer active")
	ErrDuplicate      = errors.New("a fight is already registered for this message")
	ErrNotChallenged  = errors.New("only the challenged player can accept")
	ErrNotPending     = errors.New("betting is closed, the fight has already started")
	ErrInvalidAmount  = errors.New("bet amount must be a whole number")
	ErrBelowMinimum   = errors.New("bet is below the minimum")
	ErrAboveMaximum   = errors.New("bet is above the maximum")
	ErrUnknownFighter = errors.New("that fighter is not in this fight")
	ErrSelfChallenge  = errors.New("you can't fight yourself")
	ErrBotChallenge   = errors.New("you can't fight a bot")
)

// InsufficientFundsError rejects a bet larger than the bettor's cash.
type InsufficientFundsError struct {
	Balance int64
	Amount  int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %d, bet %d", e.Balance, e.Amount)
}

// Bet is a wager already debited from the bettor.
type Bet struct {
	ID        string
	Bettor    domain.Member
	Amount    int64
	FighterID string
	PlacedAt  time.Time
}

type Duel struct {
	ID         string // id of the message hosting the challenge
	GuildID    string
	ChannelID  string
	Challenger domain.Member
	Target     domain.Member
	State      State
	CreatedAt  time.Time
	ExpiresAt  time.Time
	Bets       []Bet
}

func (d *Duel) fighter(id string) (domain.Member, bool) {
	switch id {
	case d.Challenger.ID:
		return d.Challenger, true
	case d.Target.ID:
		return d.Target, true
	}
	return domain.Member{}, false
}

func (d *Duel) snapshot() Duel {
	c := *d
	c.Bets = append([]Bet(nil), d.Bets...)
	return c
}
