package ports

import (
	"context"
	"time"

	"github.com/layer-3/accolade/core"
)

// ChainClient submits transactions to, and reads from, the badge contract.
type ChainClient interface {
	// Nonce returns the next nonce of the issuing account
	Nonce(ctx context.Context) (uint64, error)

	// BuildAndSign encodes call against the contract and signs it with the issuing key
	BuildAndSign(ctx context.Context, call core.ContractCall, nonce uint64) ([]byte, error)

	// Submit broadcasts a signed transaction and returns its hash
	Submit(ctx context.Context, signedTx []byte) (string, error)

	// Call runs a read-only contract method
	Call(ctx context.Context, call core.ContractCall) ([]any, error)

	Connected(ctx context.Context) bool
}

// ContentStore pins content and resolves it back through a gateway.
type ContentStore interface {
	PinJSON(ctx context.Context, name string, content any) (string, error)
	PinBytes(ctx context.Context, data []byte, filename string) (string, error)
	URL(cid string) string

	MetadataResolver
}

// MetadataResolver fetches published metadata back.
type MetadataResolver interface {
	// Resolve fetches and decodes credential metadata from uri
	Resolve(ctx context.Context, uri string) (core.Metadata, error)
}

// CertificateDetails is what gets drawn onto a certificate.
type CertificateDetails struct {
	Name        string
	Cohort      string
	Institution string
	MetadataURL string
	BadgeLabel  string
	GrantDate   time.Time
}

// Renderer draws certificate images.
type Renderer interface {
	Render(ctx context.Context, details CertificateDetails) ([]byte, error)
}
