package ports

import (
	"context"
	"time"

	"github.com/layer-3/accolade/core"
)

// Ledger tracks participant token balances. Implementations serialize every
// mutation per identity.
type Ledger interface {
	// EnsureInitialized grants defaultGrant to an unknown identity and returns the balance
	EnsureInitialized(ctx context.Context, identity string, defaultGrant int64) (int64, error)

	// BalanceOf returns 0 for unknown identities without creating them
	BalanceOf(ctx context.Context, identity string) (int64, error)

	// Credit adds amount, creating the identity at 0 first if needed
	Credit(ctx context.Context, identity string, amount int64) (int64, error)

	// Debit subtracts amount or fails with core.ErrInsufficientTokens
	Debit(ctx context.Context, identity string, amount int64) (int64, error)

	// SetExact overrides the balance
	SetExact(ctx context.Context, identity string, amount int64) error

	// Balances returns a copy of every known balance
	Balances(ctx context.Context) (map[string]int64, error)
}

// SessionStore owns quiz sessions.
type SessionStore interface {
	Create(ctx context.Context, session *core.QuizSession) error

	// Get returns a copy of the session or core.ErrUnknownSession
	Get(ctx context.Context, id string) (*core.QuizSession, error)

	// Update runs fn with exclusive access to the session; changes are kept
	// only when fn returns nil
	Update(ctx context.Context, id string, fn func(s *core.QuizSession) error) error

	DeleteExpired(ctx context.Context, now time.Time) (int, error)
	Count(ctx context.Context) (int, error)
}

// RecordStore persists issued credential records.
type RecordStore interface {
	Append(ctx context.Context, record core.CredentialRecord) error
	List(ctx context.Context) ([]core.CredentialRecord, error)
}
