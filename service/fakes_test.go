package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/layer-3/accolade/core"
	"github.com/layer-3/accolade/ports"
)

const testRecipient = "0x00000000000000000000000000000000000000aa"

var errBoom = errors.New("boom")

type fakeChain struct {
	mu        sync.Mutex
	nonces    int
	signed    []core.ContractCall
	submitted int
	submitErr error
	reads     map[string][]any
	readErr   error
	readCalls []core.ContractCall
	connected bool
}

func (f *fakeChain) Nonce(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nonces++
	return uint64(f.nonces), nil
}

func (f *fakeChain) BuildAndSign(ctx context.Context, call core.ContractCall, nonce uint64) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signed = append(f.signed, call)
	return []byte(fmt.Sprintf("signed-%d", nonce)), nil
}

func (f *fakeChain) Submit(ctx context.Context, signedTx []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted++
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return fmt.Sprintf("0xhash%d", f.submitted), nil
}

func (f *fakeChain) Call(ctx context.Context, call core.ContractCall) ([]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readCalls = append(f.readCalls, call)
	if f.readErr != nil {
		return nil, f.readErr
	}
	key := call.Method
	if len(call.Args) > 0 {
		key = fmt.Sprintf("%s(%v)", call.Method, call.Args[0])
	}
	out, ok := f.reads[key]
	if !ok {
		return nil, fmt.Errorf("no result for %s", key)
	}
	return out, nil
}

func (f *fakeChain) Connected(ctx context.Context) bool {
	return f.connected
}

func (f *fakeChain) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nonces + len(f.signed) + f.submitted
}

// fakeContent hands out sequential CIDs. failAt makes the n-th pin (1-based) fail.
type fakeContent struct {
	mu       sync.Mutex
	pins     int
	failAt   int
	json     []core.Metadata
	names    []string
	files    []string
	metadata map[string]core.Metadata
}

func (f *fakeContent) next() (string, error) {
	f.pins++
	if f.failAt == f.pins {
		return "", core.ErrUploadFailed
	}
	return fmt.Sprintf("cid%d", f.pins), nil
}

func (f *fakeContent) PinJSON(ctx context.Context, name string, content any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = append(f.names, name)
	if md, ok := content.(core.Metadata); ok {
		f.json = append(f.json, md)
	}
	return f.next()
}

func (f *fakeContent) PinBytes(ctx context.Context, data []byte, filename string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files = append(f.files, filename)
	return f.next()
}

func (f *fakeContent) URL(cid string) string {
	return "https://gateway.test/ipfs/" + cid
}

func (f *fakeContent) Resolve(ctx context.Context, uri string) (core.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	md, ok := f.metadata[uri]
	if !ok {
		return core.Metadata{}, errors.New("not found")
	}
	return md, nil
}

type fakeRenderer struct {
	mu      sync.Mutex
	details []ports.CertificateDetails
	err     error
}

func (f *fakeRenderer) Render(ctx context.Context, d ports.CertificateDetails) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.details = append(f.details, d)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("png"), nil
}

type fakeRecords struct {
	mu      sync.Mutex
	records []core.CredentialRecord
	err     error
}

func (f *fakeRecords) Append(ctx context.Context, record core.CredentialRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeRecords) List(ctx context.Context) ([]core.CredentialRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.CredentialRecord(nil), f.records...), nil
}

type fakeEvents struct {
	mu     sync.Mutex
	minted []ports.BadgeMinted
	issued []ports.CredentialIssued
	err    error
}

func (f *fakeEvents) PublishBadgeMinted(ctx context.Context, event ports.BadgeMinted) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.minted = append(f.minted, event)
	return f.err
}

func (f *fakeEvents) PublishCredentialIssued(ctx context.Context, event ports.CredentialIssued) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued = append(f.issued, event)
	return f.err
}

// failingLedger wraps a ledger and fails credits once armed
type failingLedger struct {
	ports.Ledger
	failCredit bool
}

func (l *failingLedger) Credit(ctx context.Context, identity string, amount int64) (int64, error) {
	if l.failCredit {
		return 0, core.ErrStoreOperationFailed
	}
	return l.Ledger.Credit(ctx, identity, amount)
}
