package store

import (
	"context"
	"sync"

	"github.com/layer-3/accolade/core"
	"github.com/layer-3/accolade/ports"
)

// MemoryLedger is an in-memory implementation of the Ledger interface.
// A single mutex guards the balance map so concurrent credits and debits on
// the same identity never lose updates.
type MemoryLedger struct {
	balances map[string]int64
	mu       sync.Mutex
}

// NewMemoryLedger creates an empty in-memory ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances: make(map[string]int64),
	}
}

var _ ports.Ledger = (*MemoryLedger)(nil)

// EnsureInitialized sets the balance to defaultGrant if the identity is unknown
func (l *MemoryLedger) EnsureInitialized(ctx context.Context, identity string, defaultGrant int64) (int64, error) {
	if defaultGrant < 0 {
		return 0, core.ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance, ok := l.balances[identity]
	if !ok {
		l.balances[identity] = defaultGrant
		return defaultGrant, nil
	}
	return balance, nil
}

// BalanceOf returns the balance, 0 for unknown identities
func (l *MemoryLedger) BalanceOf(ctx context.Context, identity string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.balances[identity], nil
}

// Credit adds amount to the balance
func (l *MemoryLedger) Credit(ctx context.Context, identity string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, core.ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.balances[identity] += amount
	return l.balances[identity], nil
}

// Debit subtracts amount if the identity exists and can cover it
func (l *MemoryLedger) Debit(ctx context.Context, identity string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, core.ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance, ok := l.balances[identity]
	if !ok || balance < amount {
		return balance, core.ErrInsufficientTokens
	}
	l.balances[identity] = balance - amount
	return balance - amount, nil
}

// SetExact overrides the balance
func (l *MemoryLedger) SetExact(ctx context.Context, identity string, amount int64) error {
	if amount < 0 {
		return core.ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.balances[identity] = amount
	return nil
}

// Balances returns a snapshot of all balances
func (l *MemoryLedger) Balances(ctx context.Context) (map[string]int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]int64, len(l.balances))
	for k, v := range l.balances {
		out[k] = v
	}
	return out, nil
}
