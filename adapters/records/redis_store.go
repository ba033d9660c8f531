package records

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/layer-3/accolade/core"
	"github.com/layer-3/accolade/ports"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps credential records as an append-only Redis list, one JSON
// entry per record. RPUSH is atomic so concurrent issuers never lose appends.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a new Redis record store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		key:    "accolade:credentials",
	}
}

var _ ports.RecordStore = (*RedisStore)(nil)

// Append pushes record onto the log
func (s *RedisStore) Append(ctx context.Context, record core.CredentialRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	if err := s.client.RPush(ctx, s.key, payload).Err(); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// List returns every record in append order
func (s *RedisStore) List(ctx context.Context) ([]core.CredentialRecord, error) {
	raw, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}

	records := make([]core.CredentialRecord, 0, len(raw))
	for _, entry := range raw {
		var record core.CredentialRecord
		if err := json.Unmarshal([]byte(entry), &record); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}
