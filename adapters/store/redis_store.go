package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/layer-3/accolade/core"
	"github.com/layer-3/accolade/ports"
	"github.com/redis/go-redis/v9"
)

// debitScript subtracts ARGV[2] from field ARGV[1] only when the field exists
// and holds at least that much. Returns the new balance, or -1 on shortfall.
var debitScript = redis.NewScript(`
local balance = redis.call("HGET", KEYS[1], ARGV[1])
if not balance then
	return -1
end
balance = tonumber(balance)
local amount = tonumber(ARGV[2])
if balance < amount then
	return -1
end
return redis.call("HINCRBY", KEYS[1], ARGV[1], -amount)
`)

// RedisLedger is a Redis implementation of the Ledger interface. Balances live
// in a single hash; every mutation is a single atomic command or script.
type RedisLedger struct {
	client *redis.Client
	key    string
}

// NewRedisLedger creates a new Redis ledger
func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{
		client: client,
		key:    "accolade:balances",
	}
}

var _ ports.Ledger = (*RedisLedger)(nil)

// EnsureInitialized sets the balance to defaultGrant if the identity is unknown
func (l *RedisLedger) EnsureInitialized(ctx context.Context, identity string, defaultGrant int64) (int64, error) {
	if defaultGrant < 0 {
		return 0, core.ErrInvalidAmount
	}

	if err := l.client.HSetNX(ctx, l.key, identity, defaultGrant).Err(); err != nil {
		return 0, fmt.Errorf("initialize balance: %w", errors.Join(core.ErrStoreOperationFailed, err))
	}
	return l.BalanceOf(ctx, identity)
}

// BalanceOf returns the balance, 0 for unknown identities
func (l *RedisLedger) BalanceOf(ctx context.Context, identity string) (int64, error) {
	balance, err := l.client.HGet(ctx, l.key, identity).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("read balance: %w", errors.Join(core.ErrStoreOperationFailed, err))
	}
	return balance, nil
}

// Credit adds amount to the balance
func (l *RedisLedger) Credit(ctx context.Context, identity string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, core.ErrInvalidAmount
	}

	balance, err := l.client.HIncrBy(ctx, l.key, identity, amount).Result()
	if err != nil {
		return 0, fmt.Errorf("credit balance: %w", errors.Join(core.ErrStoreOperationFailed, err))
	}
	return balance, nil
}

// Debit subtracts amount if the identity exists and can cover it
func (l *RedisLedger) Debit(ctx context.Context, identity string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, core.ErrInvalidAmount
	}

	balance, err := debitScript.Run(ctx, l.client, []string{l.key}, identity, amount).Int64()
	if err != nil {
		return 0, fmt.Errorf("debit balance: %w", errors.Join(core.ErrStoreOperationFailed, err))
	}
	if balance < 0 {
		current, err := l.BalanceOf(ctx, identity)
		if err != nil {
			return 0, err
		}
		return current, core.ErrInsufficientTokens
	}
	return balance, nil
}

// SetExact overrides the balance
func (l *RedisLedger) SetExact(ctx context.Context, identity string, amount int64) error {
	if amount < 0 {
		return core.ErrInvalidAmount
	}

	if err := l.client.HSet(ctx, l.key, identity, amount).Err(); err != nil {
		return fmt.Errorf("set balance: %w", errors.Join(core.ErrStoreOperationFailed, err))
	}
	return nil
}

// Balances returns a snapshot of all balances
func (l *RedisLedger) Balances(ctx context.Context) (map[string]int64, error) {
	raw, err := l.client.HGetAll(ctx, l.key).Result()
	if err != nil {
		return nil, fmt.Errorf("read balances: %w", errors.Join(core.ErrStoreOperationFailed, err))
	}

	out := make(map[string]int64, len(raw))
	for identity, value := range raw {
		balance, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse balance of %s: %w", identity, err)
		}
		out[identity] = balance
	}
	return out, nil
}
