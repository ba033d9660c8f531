package service

import (
	"context"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/layer-3/accolade/adapters/store"
	"github.com/layer-3/accolade/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMintFixture(t *testing.T, balance int64) (*MintService, *store.MemoryLedger, *fakeChain, *fakeEvents) {
	t.Helper()
	ledger := store.NewMemoryLedger()
	if balance > 0 {
		require.NoError(t, ledger.SetExact(context.Background(), "0xABC", balance))
	}
	chain := &fakeChain{}
	events := &fakeEvents{}
	svc, err := NewMintService(ledger, chain, events)
	require.NoError(t, err)
	return svc, ledger, chain, events
}

func mintRequest(badge string) MintRequest {
	return MintRequest{
		BadgeType: badge,
		TokenURI:  "https://gateway.test/ipfs/cid1",
		Recipient: testRecipient,
		Identity:  "0xABC",
	}
}

func TestMintService_MintBadge(t *testing.T) {
	ctx := context.Background()
	svc, ledger, chain, events := newMintFixture(t, 100)

	out, err := svc.MintBadge(ctx, mintRequest("Amateur"))
	require.NoError(t, err)
	assert.Equal(t, core.MintOutcome{TxHash: "0xhash1", TokensDeducted: 30, RemainingTokens: 70}, out)

	balance, _ := ledger.BalanceOf(ctx, "0xABC")
	assert.Equal(t, int64(70), balance)

	require.Len(t, chain.signed, 1)
	assert.Equal(t, core.MethodMintBadge, chain.signed[0].Method)
	assert.Equal(t, []any{common.HexToAddress(testRecipient), "Amateur", "https://gateway.test/ipfs/cid1"}, chain.signed[0].Args)

	require.Len(t, events.minted, 1)
	assert.Equal(t, "0xhash1", events.minted[0].TxHash)
	assert.Equal(t, int64(30), events.minted[0].Tokens)
}

func TestMintService_InsufficientTokensNeverCallsChain(t *testing.T) {
	ctx := context.Background()
	svc, ledger, chain, events := newMintFixture(t, 20)

	_, err := svc.MintBadge(ctx, mintRequest("Amateur"))
	require.ErrorIs(t, err, core.ErrInsufficientTokens)

	assert.Zero(t, chain.calls())
	assert.Empty(t, events.minted)
	balance, _ := ledger.BalanceOf(ctx, "0xABC")
	assert.Equal(t, int64(20), balance)
}

func TestMintService_ChainFailureRefunds(t *testing.T) {
	ctx := context.Background()
	svc, ledger, chain, events := newMintFixture(t, 100)
	chain.submitErr = errBoom

	_, err := svc.MintBadge(ctx, mintRequest("Pro"))
	require.ErrorIs(t, err, core.ErrChainSubmissionFailed)
	assert.ErrorIs(t, err, errBoom)

	balance, _ := ledger.BalanceOf(ctx, "0xABC")
	assert.Equal(t, int64(100), balance)
	assert.Equal(t, 1, chain.submitted)
	assert.Empty(t, events.minted)
}

func TestMintService_FailedRefundJoinsErrors(t *testing.T) {
	ctx := context.Background()
	ledger := &failingLedger{Ledger: store.NewMemoryLedger()}
	require.NoError(t, ledger.SetExact(ctx, "0xABC", 100))
	chain := &fakeChain{submitErr: errBoom}
	svc, err := NewMintService(ledger, chain, nil)
	require.NoError(t, err)

	ledger.failCredit = true
	_, err = svc.MintBadge(ctx, mintRequest("Newbie"))
	assert.ErrorIs(t, err, core.ErrChainSubmissionFailed)
	assert.ErrorIs(t, err, core.ErrStoreOperationFailed)
}

func TestMintService_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _, chain, _ := newMintFixture(t, 100)

	req := mintRequest("Newbie")
	req.TokenURI = ""
	_, err := svc.MintBadge(ctx, req)
	assert.ErrorIs(t, err, core.ErrMissingField)

	req = mintRequest("Newbie")
	req.Recipient = "not-an-address"
	_, err = svc.MintBadge(ctx, req)
	assert.ErrorIs(t, err, core.ErrInvalidAddress)

	_, err = svc.MintBadge(ctx, mintRequest("Legend"))
	assert.ErrorIs(t, err, core.ErrInvalidBadgeType)

	assert.Zero(t, chain.calls())
}

func TestMintService_EventFailureDoesNotFailMint(t *testing.T) {
	ctx := context.Background()
	svc, _, _, events := newMintFixture(t, 100)
	events.err = errBoom

	out, err := svc.MintBadge(ctx, mintRequest("Newbie"))
	require.NoError(t, err)
	assert.Equal(t, int64(90), out.RemainingTokens)
}

func TestMintService_ConcurrentMintsNeverOverspend(t *testing.T) {
	ctx := context.Background()
	svc, ledger, chain, _ := newMintFixture(t, 100)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.MintBadge(ctx, mintRequest("Intermediate")); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 2, chain.submitted)
	balance, _ := ledger.BalanceOf(ctx, "0xABC")
	assert.Zero(t, balance)
}
