package records

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/layer-3/accolade/core"
	"github.com/layer-3/accolade/ports"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(i int) core.CredentialRecord {
	return core.CredentialRecord{
		Identity:       fmt.Sprintf("0x%03d", i),
		StudentName:    "Ada Lovelace",
		Cohort:         "Sem 4",
		Institution:    "Analytical U",
		BadgeType:      "Newbie",
		GrantDate:      "2025-01-02",
		MetadataURI:    "https://gateway.example/ipfs/meta",
		CertificateURI: "https://gateway.example/ipfs/img",
		TokensUsed:     10,
	}
}

func storeContract(t *testing.T, s ports.RecordStore) {
	ctx := context.Background()

	empty, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, s.Append(ctx, record(1)))
	require.NoError(t, s.Append(ctx, record(2)))

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, record(1), got[0])
	assert.Equal(t, record(2), got[1])

	var wg sync.WaitGroup
	for i := 3; i < 23; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Append(ctx, record(i)))
		}(i)
	}
	wg.Wait()

	got, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 22)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "badges", "StudentBadgeData.json")
	storeContract(t, NewFileStore(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"user_address": "0x001"`)
	assert.Contains(t, string(data), `"certificate_url"`)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := NewFileStore(path)
	assert.Error(t, s.Append(context.Background(), record(1)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	storeContract(t, NewRedisStore(client))
}
