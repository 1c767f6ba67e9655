package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"heist-bot/internal/api"
	"heist-bot/internal/config"
	"heist-bot/internal/domain"
	"heist-bot/internal/duel"
	"heist-bot/internal/narrative"
	"heist-bot/internal/random"
	"heist-bot/internal/resolver"
	"heist-bot/internal/service"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLedger struct {
	mu      sync.Mutex
	cash    map[string]int64
	failGet error
	adjusts int
}

func (l *fakeLedger) GetBalance(_ context.Context, _, userID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failGet != nil {
		return 0, l.failGet
	}
	return l.cash[userID], nil
}

func (l *fakeLedger) AdjustBalance(_ context.Context, _, userID string, delta int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.adjusts++
	l.cash[userID] += delta
	return l.cash[userID], nil
}

type fakeAnnouncer struct {
	mu     sync.Mutex
	closed map[string]string
}

func (a *fakeAnnouncer) Announce(context.Context, string, string) error {
	return nil
}

func (a *fakeAnnouncer) CloseChallenge(_ context.Context, _, messageID, content string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed[messageID] = content
	return nil
}

type fakeScheduler struct {
	err error
}

func (s *fakeScheduler) Schedule(string, time.Time, func()) error {
	return s.err
}

func (s *fakeScheduler) Cancel(string) {}

type fakeDirectory struct {
	members []domain.Member
	panics  bool
}

func (d *fakeDirectory) Members(context.Context, string) ([]domain.Member, error) {
	if d.panics {
		panic("directory exploded")
	}
	return d.members, nil
}

type fakeResponder struct {
	mu        sync.Mutex
	public    []string
	notices   []string
	challenge string
}

func (r *fakeResponder) Respond(_ context.Context, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.public = append(r.public, content)
	return nil
}

func (r *fakeResponder) FollowUp(ctx context.Context, content string) error {
	return r.Respond(ctx, content)
}

func (r *fakeResponder) Notify(_ context.Context, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, content)
	return nil
}

func (r *fakeResponder) PostChallenge(_ context.Context, content string, _, _ domain.Member) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.challenge = content
	return "msg-1", nil
}

var (
	roles = domain.NewRoleMap(map[domain.Tier]string{
		domain.Pistol:        "Glock",
		domain.SubmachineGun: "Uzi",
		domain.Shotgun:       "Shotgun",
		domain.TopTier:       "Woozie",
	})
	robber = domain.Member{ID: "robber", DisplayName: "Robber", Mention: "<@robber>", Roles: []string{"Woozie", "Glock"}}
	victim = domain.Member{ID: "victim", DisplayName: "Victim", Mention: "<@victim>"}
	robot  = domain.Member{ID: "robot", DisplayName: "Robot", Mention: "<@robot>", Bot: true}
)

type harness struct {
	bot       *Bot
	ledger    *fakeLedger
	engine    *duel.Engine
	directory *fakeDirectory
	announcer *fakeAnnouncer
	scheduler *fakeScheduler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		ledger:    &fakeLedger{cash: map[string]int64{"robber": 1_000, "victim": 1_000}},
		directory: &fakeDirectory{},
		announcer: &fakeAnnouncer{closed: map[string]string{}},
		scheduler: &fakeScheduler{},
	}
	seq := narrative.NewSequencer(clockwork.NewRealClock(), 0, zerolog.Nop())
	cfg := &config.Config{DuelExpiry: 3 * time.Minute}
	src := random.NewSeeded(11)

	h.engine = duel.NewEngine(cfg, duel.NewStore(), h.ledger, h.announcer, h.scheduler, seq, clockwork.NewFakeClock(), src, zerolog.Nop())
	robbery := service.NewRobberyService(h.ledger, resolver.New(src), roles, seq, zerolog.Nop())
	h.bot = NewBot(robbery, h.engine, h.directory, h.announcer, roles, src, zerolog.Nop())
	return h
}

func inv(actor domain.Member, target *domain.Member) Invocation {
	return Invocation{Command: "test", GuildID: "g1", ChannelID: "c1", Actor: actor, Target: target}
}

func TestRob_Preconditions(t *testing.T) {
	unarmed := domain.Member{ID: "u", Mention: "<@u>"}
	self := robber

	tests := []struct {
		name    string
		variant resolver.Variant
		inv     Invocation
		members []domain.Member
		want    string
	}{
		{"missing role", resolver.Major, inv(unarmed, &victim), nil, "You need the Woozie role to use /woozie!"},
		{"missing pistol", resolver.Minor, inv(unarmed, &victim), nil, "You need the Glock role to use /plock!"},
		{"self", resolver.Major, inv(robber, &self), nil, "You can't rob yourself!"},
		{"bot", resolver.Major, inv(robber, &robot), nil, "You can't rob a bot!"},
		{"no eligible members", resolver.Major, inv(robber, nil), []domain.Member{robber, robot}, "No valid targets found!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.directory.members = tt.members
			out := &fakeResponder{}

			h.bot.Rob(context.Background(), tt.variant, tt.inv, out)

			require.Len(t, out.notices, 1)
			assert.Contains(t, out.notices[0], tt.want)
			assert.Empty(t, out.public)
			assert.Zero(t, h.ledger.adjusts)
		})
	}
}

func TestRob_RandomTarget(t *testing.T) {
	h := newHarness(t)
	h.directory.members = []domain.Member{robber, robot, victim}
	out := &fakeResponder{}

	h.bot.Rob(context.Background(), resolver.Major, inv(robber, nil), out)

	assert.Empty(t, out.notices)
	assert.NotEmpty(t, out.public)
	assert.Equal(t, int64(0), h.ledger.cash["victim"])
	assert.Equal(t, int64(2_000), h.ledger.cash["robber"])
}

func TestRob_NothingToTake(t *testing.T) {
	h := newHarness(t)
	h.ledger.cash["victim"] = 0
	out := &fakeResponder{}

	h.bot.Rob(context.Background(), resolver.Minor, inv(robber, &victim), out)

	require.Len(t, out.notices, 1)
	assert.Equal(t, "❌ <@victim> has nothing to take!", out.notices[0])
}

func TestRob_PanicBecomesGenericNotice(t *testing.T) {
	h := newHarness(t)
	h.directory.panics = true
	out := &fakeResponder{}

	assert.NotPanics(t, func() {
		h.bot.Rob(context.Background(), resolver.Major, inv(robber, nil), out)
	})
	assert.Equal(t, []string{genericFailure}, out.notices)
}

func TestFight_Preconditions(t *testing.T) {
	self := robber
	tests := []struct {
		name   string
		target *domain.Member
		want   string
	}{
		{"no target", nil, "pick someone"},
		{"self", &self, "can't fight yourself"},
		{"bot", &robot, "can't fight a bot"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			out := &fakeResponder{}
			h.bot.Fight(context.Background(), inv(robber, tt.target), out)

			require.Len(t, out.notices, 1)
			assert.Contains(t, out.notices[0], tt.want)
			assert.Zero(t, h.engine.Store().Len())
		})
	}
}

func TestFight_ClosesChallengeWhenOpenFails(t *testing.T) {
	h := newHarness(t)
	h.scheduler.err = errors.New("scheduler stopped")

	out := &fakeResponder{}
	h.bot.Fight(context.Background(), inv(robber, &victim), out)

	assert.NotEmpty(t, out.challenge)
	require.Len(t, out.notices, 1)
	assert.Contains(t, out.notices[0], "unexpected error")
	assert.Equal(t, "❌ This challenge could not be opened.", h.announcer.closed["msg-1"])
	assert.Zero(t, h.engine.Store().Len())
	assert.ErrorIs(t, h.bot.CanBet("msg-1"), duel.ErrNotFound)
}

func TestFight_BetAndAccept(t *testing.T) {
	h := newHarness(t)
	h.ledger.cash["bettor"] = 500
	bettor := domain.Member{ID: "bettor", Mention: "<@bettor>"}
	ctx := context.Background()

	out := &fakeResponder{}
	h.bot.Fight(ctx, inv(robber, &victim), out)
	require.Empty(t, out.notices)
	assert.Contains(t, out.challenge, "3 minutes")
	require.NoError(t, h.bot.CanBet("msg-1"))

	betOut := &fakeResponder{}
	h.bot.Bet(ctx, inv(bettor, nil), "msg-1", "victim", "$50", betOut)
	require.Empty(t, betOut.notices)
	assert.Equal(t, []string{"💸 <@bettor> bet $50 on <@victim>!"}, betOut.public)
	assert.Equal(t, int64(450), h.ledger.cash["bettor"])

	betOut = &fakeResponder{}
	h.bot.Bet(ctx, inv(bettor, nil), "msg-1", "victim", "9000", betOut)
	assert.Equal(t, []string{"❌ You don't have enough money! Your balance: $450"}, betOut.notices)

	wrong := &fakeResponder{}
	h.bot.AcceptFight(ctx, inv(bettor, nil), "msg-1", wrong)
	assert.Equal(t, []string{"❌ Only <@victim> can accept this fight!"}, wrong.notices)

	fight := &fakeResponder{}
	h.bot.AcceptFight(ctx, inv(victim, nil), "msg-1", fight)
	assert.Empty(t, fight.notices)
	assert.Contains(t, fight.public[len(fight.public)-1], "has won the fight")

	assert.ErrorIs(t, h.bot.CanBet("msg-1"), duel.ErrNotFound)
	late := &fakeResponder{}
	h.bot.Bet(ctx, inv(bettor, nil), "msg-1", "victim", "5", late)
	assert.Equal(t, []string{"❌ This fight is no longer active."}, late.notices)
}

func TestBet_LedgerFailureNotice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.bot.Fight(ctx, inv(robber, &victim), &fakeResponder{})

	h.ledger.failGet = &api.RateLimitError{RetryAfter: 5 * time.Second}
	out := &fakeResponder{}
	h.bot.Bet(ctx, inv(robber, nil), "msg-1", "robber", "10", out)

	require.Len(t, out.notices, 1)
	assert.Contains(t, out.notices[0], "Try again in 5s")
}

func TestUserNotice(t *testing.T) {
	tests := []struct {
		err      error
		want     string
		expected bool
	}{
		{duel.ErrInvalidAmount, "❌ Bet amount must be a whole number.", true},
		{duel.ErrBelowMinimum, "❌ The minimum bet is $1.", true},
		{duel.ErrAboveMaximum, "❌ The maximum bet is $1,000,000,000,000.", true},
		{duel.ErrNotPending, "❌ Betting is closed, the fight has already started.", true},
		{&duel.InsufficientFundsError{Balance: 1234, Amount: 5000}, "❌ You don't have enough money! Your balance: $1,234", true},
		{api.ErrUnauthorized, service.FailureNotice(api.ErrUnauthorized), false},
		{errors.New("boom"), genericFailure, false},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, expected := userNotice(tt.err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.expected, expected)
		})
	}
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "3 minutes", humanDuration(3*time.Minute))
	assert.Equal(t, "1 minute", humanDuration(time.Minute))
	assert.Equal(t, "45s", humanDuration(45*time.Second))
}
