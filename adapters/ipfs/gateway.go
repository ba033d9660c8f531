package ipfs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/layer-3/accolade/core"
	"github.com/layer-3/accolade/ports"
)

// Gateway resolves published metadata over plain HTTP. It needs no
// credentials, so badge listing works without a pinning account.
type Gateway struct {
	http *http.Client
}

var _ ports.MetadataResolver = (*Gateway)(nil)

// NewGateway creates a resolver. A nil client gets a 30 second timeout.
func NewGateway(client *http.Client) *Gateway {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Gateway{http: client}
}

// Resolve fetches credential metadata from uri
func (g *Gateway) Resolve(ctx context.Context, uri string) (core.Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return core.Metadata{}, fmt.Errorf("create resolve request: %w", err)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return core.Metadata{}, fmt.Errorf("resolve %s: %w", uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.Metadata{}, fmt.Errorf("resolve %s: status %d", uri, resp.StatusCode)
	}

	var md core.Metadata
	if err := json.NewDecoder(resp.Body).Decode(&md); err != nil {
		return core.Metadata{}, fmt.Errorf("decode metadata: %w", err)
	}
	return md, nil
}
