package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/layer-3/accolade/core"
	"github.com/layer-3/accolade/ports"
	"github.com/shopspring/decimal"
)

// AccountService exposes participant balances and the operator adjustments.
type AccountService struct {
	ledger   ports.Ledger
	sessions ports.SessionStore
	options
}

// Eligibility reports whether a balance covers the minimum mint threshold
type Eligibility struct {
	Eligible     bool  `json:"eligible"`
	Current      int64 `json:"current_tokens"`
	Required     int64 `json:"required_tokens"`
	TokensNeeded int64 `json:"tokens_needed"`
}

// Participant is one ledger entry
type Participant struct {
	Identity string `json:"user_address"`
	Balance  int64  `json:"token_balance"`
}

// TierEligibility reports one badge tier against a balance
type TierEligibility struct {
	Badge        string `json:"badge"`
	Requirement  int64  `json:"requirement"`
	Eligible     bool   `json:"eligible"`
	TokensNeeded int64  `json:"tokens_needed,omitempty"`
}

// BadgeEligibility reports every badge tier against a participant's balance
type BadgeEligibility struct {
	Identity string            `json:"user_address"`
	Current  int64             `json:"current_tokens"`
	Tiers    []TierEligibility `json:"badge_eligibility"`

	// Highest is the most expensive affordable tier, nil if none
	Highest *string `json:"highest_eligible_badge"`
}

// Stats aggregates balances and tier eligibility across all participants
type Stats struct {
	TotalUsers     int            `json:"total_users"`
	TotalTokens    int64          `json:"total_tokens_distributed"`
	AverageTokens  float64        `json:"average_tokens_per_user"`
	EligibleCounts map[string]int `json:"badge_eligible_counts"`
	ActiveSessions int            `json:"active_sessions"`
}

// NewAccountService creates an account service. sessions is only read for stats.
func NewAccountService(ledger ports.Ledger, sessions ports.SessionStore, opts ...Option) (*AccountService, error) {
	if ledger == nil || sessions == nil {
		return nil, errors.New("ledger and session store are required")
	}
	return &AccountService{
		ledger:   ledger,
		sessions: sessions,
		options:  newOptions(opts),
	}, nil
}

// Initialize grants the initial balance to a new participant
func (s *AccountService) Initialize(ctx context.Context, identity string) (int64, error) {
	if identity == "" {
		return 0, fmt.Errorf("user address: %w", core.ErrMissingField)
	}
	return s.ledger.EnsureInitialized(ctx, identity, s.policy.InitialGrant)
}

func (s *AccountService) Balance(ctx context.Context, identity string) (int64, error) {
	return s.ledger.BalanceOf(ctx, identity)
}

// Eligibility checks the balance against the minimum mint threshold
func (s *AccountService) Eligibility(ctx context.Context, identity string) (Eligibility, error) {
	balance, err := s.ledger.BalanceOf(ctx, identity)
	if err != nil {
		return Eligibility{}, err
	}
	return Eligibility{
		Eligible:     balance >= s.policy.MinimumMint,
		Current:      balance,
		Required:     s.policy.MinimumMint,
		TokensNeeded: max(0, s.policy.MinimumMint-balance),
	}, nil
}

// AddTokens credits a positive amount, creating the participant at zero if needed
func (s *AccountService) AddTokens(ctx context.Context, identity string, amount int64) (int64, error) {
	if identity == "" {
		return 0, fmt.Errorf("user address: %w", core.ErrMissingField)
	}
	if amount <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive", core.ErrInvalidAmount)
	}

	if _, err := s.ledger.EnsureInitialized(ctx, identity, 0); err != nil {
		return 0, err
	}
	balance, err := s.ledger.Credit(ctx, identity, amount)
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "tokens added", "identity", identity, "amount", amount, "balance", balance)
	return balance, nil
}

// DeductTokens debits a positive amount or fails with core.ErrInsufficientTokens
func (s *AccountService) DeductTokens(ctx context.Context, identity string, amount int64) (int64, error) {
	if identity == "" {
		return 0, fmt.Errorf("user address: %w", core.ErrMissingField)
	}
	if amount <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive", core.ErrInvalidAmount)
	}

	balance, err := s.ledger.Debit(ctx, identity, amount)
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "tokens deducted", "identity", identity, "amount", amount, "balance", balance)
	return balance, nil
}

// SetTokens overrides the balance with a non-negative amount
func (s *AccountService) SetTokens(ctx context.Context, identity string, amount int64) error {
	if identity == "" {
		return fmt.Errorf("user address: %w", core.ErrMissingField)
	}
	if amount < 0 {
		return fmt.Errorf("%w: amount cannot be negative", core.ErrInvalidAmount)
	}

	if err := s.ledger.SetExact(ctx, identity, amount); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "tokens set", "identity", identity, "balance", amount)
	return nil
}

// Participants lists every known balance ordered by identity
func (s *AccountService) Participants(ctx context.Context) ([]Participant, error) {
	balances, err := s.ledger.Balances(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Participant, 0, len(balances))
	for id, balance := range balances {
		out = append(out, Participant{Identity: id, Balance: balance})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out, nil
}

// BadgeEligibility checks the balance against every tier of the schedule
func (s *AccountService) BadgeEligibility(ctx context.Context, identity string) (BadgeEligibility, error) {
	balance, err := s.ledger.BalanceOf(ctx, identity)
	if err != nil {
		return BadgeEligibility{}, err
	}

	result := BadgeEligibility{
		Identity: identity,
		Current:  balance,
		Tiers:    make([]TierEligibility, 0, len(s.policy.Schedule)),
	}
	for _, tier := range s.policy.Schedule {
		te := TierEligibility{
			Badge:       tier.Name,
			Requirement: tier.Cost,
			Eligible:    balance >= tier.Cost,
		}
		if !te.Eligible {
			te.TokensNeeded = tier.Cost - balance
		} else {
			name := tier.Name
			result.Highest = &name
		}
		result.Tiers = append(result.Tiers, te)
	}
	return result, nil
}

// Stats aggregates the ledger. The average is rounded to two decimal places.
func (s *AccountService) Stats(ctx context.Context) (Stats, error) {
	balances, err := s.ledger.Balances(ctx)
	if err != nil {
		return Stats{}, err
	}
	active, err := s.sessions.Count(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		TotalUsers:     len(balances),
		EligibleCounts: make(map[string]int, len(s.policy.Schedule)),
		ActiveSessions: active,
	}
	for _, tier := range s.policy.Schedule {
		stats.EligibleCounts[tier.Name] = 0
	}
	for _, balance := range balances {
		stats.TotalTokens += balance
		for _, tier := range s.policy.Schedule {
			if balance >= tier.Cost {
				stats.EligibleCounts[tier.Name]++
			}
		}
	}
	if stats.TotalUsers > 0 {
		stats.AverageTokens = decimal.NewFromInt(stats.TotalTokens).
			Div(decimal.NewFromInt(int64(stats.TotalUsers))).
			Round(2).
			InexactFloat64()
	}
	return stats, nil
}
