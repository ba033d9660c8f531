package service

import (
	"context"
	"testing"

	"github.com/layer-3/accolade/adapters/store"
	"github.com/layer-3/accolade/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccountService(t *testing.T) (*AccountService, *store.MemoryLedger, *store.MemorySessionStore) {
	t.Helper()
	ledger := store.NewMemoryLedger()
	sessions := store.NewMemorySessionStore()
	svc, err := NewAccountService(ledger, sessions)
	require.NoError(t, err)
	return svc, ledger, sessions
}

func TestAccountService_InitializeAndEligibility(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newAccountService(t)

	el, err := svc.Eligibility(ctx, "0xABC")
	require.NoError(t, err)
	assert.Equal(t, Eligibility{Eligible: false, Current: 0, Required: 10, TokensNeeded: 10}, el)

	balance, err := svc.Initialize(ctx, "0xABC")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), balance)

	el, err = svc.Eligibility(ctx, "0xABC")
	require.NoError(t, err)
	assert.True(t, el.Eligible)
	assert.Zero(t, el.TokensNeeded)
}

func TestAccountService_AdminAdjustments(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newAccountService(t)

	balance, err := svc.AddTokens(ctx, "0xNEW", 25)
	require.NoError(t, err)
	assert.Equal(t, int64(25), balance, "admin credit must not apply the initial grant")

	_, err = svc.AddTokens(ctx, "0xNEW", 0)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	balance, err = svc.DeductTokens(ctx, "0xNEW", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(20), balance)

	_, err = svc.DeductTokens(ctx, "0xNEW", 21)
	assert.ErrorIs(t, err, core.ErrInsufficientTokens)

	_, err = svc.DeductTokens(ctx, "0xNEW", -1)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	require.NoError(t, svc.SetTokens(ctx, "0xNEW", 0))
	balance, _ = svc.Balance(ctx, "0xNEW")
	assert.Zero(t, balance)

	assert.ErrorIs(t, svc.SetTokens(ctx, "0xNEW", -3), core.ErrInvalidAmount)
	assert.ErrorIs(t, svc.SetTokens(ctx, "", 3), core.ErrMissingField)
}

func TestAccountService_Participants(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _ := newAccountService(t)
	require.NoError(t, ledger.SetExact(ctx, "0xB", 2))
	require.NoError(t, ledger.SetExact(ctx, "0xA", 1))

	got, err := svc.Participants(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Participant{{Identity: "0xA", Balance: 1}, {Identity: "0xB", Balance: 2}}, got)
}

func TestAccountService_BadgeEligibility(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _ := newAccountService(t)
	require.NoError(t, ledger.SetExact(ctx, "0xABC", 60))

	got, err := svc.BadgeEligibility(ctx, "0xABC")
	require.NoError(t, err)
	assert.Equal(t, int64(60), got.Current)
	require.NotNil(t, got.Highest)
	assert.Equal(t, "Intermediate", *got.Highest)
	assert.Equal(t, []TierEligibility{
		{Badge: "Newbie", Requirement: 10, Eligible: true},
		{Badge: "Amateur", Requirement: 30, Eligible: true},
		{Badge: "Intermediate", Requirement: 50, Eligible: true},
		{Badge: "Pro", Requirement: 75, Eligible: false, TokensNeeded: 15},
		{Badge: "entrePROneur", Requirement: 100, Eligible: false, TokensNeeded: 40},
	}, got.Tiers)

	got, err = svc.BadgeEligibility(ctx, "0xNOBODY")
	require.NoError(t, err)
	assert.Nil(t, got.Highest)
}

func TestAccountService_Stats(t *testing.T) {
	ctx := context.Background()
	svc, ledger, sessions := newAccountService(t)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalUsers)
	assert.Zero(t, stats.AverageTokens)

	require.NoError(t, ledger.SetExact(ctx, "0xA", 10))
	require.NoError(t, ledger.SetExact(ctx, "0xB", 30))
	require.NoError(t, ledger.SetExact(ctx, "0xC", 60))
	require.NoError(t, sessions.Create(ctx, &core.QuizSession{ID: "s1"}))

	stats, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{
		TotalUsers:    3,
		TotalTokens:   100,
		AverageTokens: 33.33,
		EligibleCounts: map[string]int{
			"Newbie":       3,
			"Amateur":      2,
			"Intermediate": 1,
			"Pro":          0,
			"entrePROneur": 0,
		},
		ActiveSessions: 1,
	}, stats)
}
