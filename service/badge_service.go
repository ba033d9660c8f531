package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/layer-3/accolade/core"
	"github.com/layer-3/accolade/ports"
)

const notAvailable = "N/A"

// MintAvailability is the contract's view of a badge type
type MintAvailability struct {
	CanMint bool   `json:"can_mint"`
	Minted  uint64 `json:"minted"`
	Cap     uint64 `json:"cap"`
}

// MintedBadge flattens the metadata of one minted token
type MintedBadge struct {
	StudentName    any    `json:"Student Name"`
	GrantDate      any    `json:"Badge Grant Date"`
	BadgeType      any    `json:"Badge Type"`
	Cohort         any    `json:"Class or Semester"`
	Institution    any    `json:"University"`
	CertificateURL string `json:"Certificate URL"`
	TokensUsed     any    `json:"Tokens Used"`
}

// BadgeService reads badge state from the contract.
type BadgeService struct {
	chain    ports.ChainClient
	resolver ports.MetadataResolver
	options
}

// NewBadgeService creates a badge service. resolver fetches token metadata
// for ListMintedBadges.
func NewBadgeService(chain ports.ChainClient, resolver ports.MetadataResolver, opts ...Option) (*BadgeService, error) {
	if chain == nil || resolver == nil {
		return nil, errors.New("chain client and metadata resolver are required")
	}
	return &BadgeService{
		chain:    chain,
		resolver: resolver,
		options:  newOptions(opts),
	}, nil
}

// CanMint reports whether badgeType still has supply, how many were minted and the cap
func (s *BadgeService) CanMint(ctx context.Context, badgeType string) (MintAvailability, error) {
	out, err := s.call(ctx, core.MethodCanMintBadge, badgeType)
	if err != nil {
		return MintAvailability{}, err
	}
	canMint, ok := first[bool](out)
	if !ok {
		return MintAvailability{}, unexpected(core.MethodCanMintBadge, out)
	}

	minted, err := s.MintedCount(ctx, badgeType)
	if err != nil {
		return MintAvailability{}, err
	}

	out, err = s.call(ctx, core.MethodBadgeTypes, badgeType)
	if err != nil {
		return MintAvailability{}, err
	}
	if len(out) < 2 {
		return MintAvailability{}, unexpected(core.MethodBadgeTypes, out)
	}
	capacity, ok := out[1].(*big.Int)
	if !ok {
		return MintAvailability{}, unexpected(core.MethodBadgeTypes, out)
	}

	return MintAvailability{
		CanMint: canMint,
		Minted:  minted,
		Cap:     capacity.Uint64(),
	}, nil
}

// MintedCount returns how many badges of badgeType exist
func (s *BadgeService) MintedCount(ctx context.Context, badgeType string) (uint64, error) {
	out, err := s.call(ctx, core.MethodGetMintedCount, badgeType)
	if err != nil {
		return 0, err
	}
	n, ok := first[*big.Int](out)
	if !ok {
		return 0, unexpected(core.MethodGetMintedCount, out)
	}
	return n.Uint64(), nil
}

// ListMintedBadges resolves the metadata of every token id from 1 to totalSupply.
// Tokens whose metadata cannot be fetched are left out.
func (s *BadgeService) ListMintedBadges(ctx context.Context) ([]MintedBadge, error) {
	out, err := s.call(ctx, core.MethodTotalSupply)
	if err != nil {
		return nil, err
	}
	total, ok := first[*big.Int](out)
	if !ok {
		return nil, unexpected(core.MethodTotalSupply, out)
	}

	uris := make([]string, 0, total.Uint64())
	for id := int64(1); id <= total.Int64(); id++ {
		out, err := s.call(ctx, core.MethodTokenURI, big.NewInt(id))
		if err != nil {
			return nil, err
		}
		uri, ok := first[string](out)
		if !ok {
			return nil, unexpected(core.MethodTokenURI, out)
		}
		uris = append(uris, uri)
	}

	badges := make([]MintedBadge, 0, len(uris))
	for _, uri := range uris {
		md, err := s.resolve(ctx, uri)
		if err != nil {
			s.logger.DebugContext(ctx, "skipping unresolvable token metadata", "uri", uri, "error", err)
			continue
		}
		badges = append(badges, flatten(md))
	}
	return badges, nil
}

func (s *BadgeService) call(ctx context.Context, method string, args ...any) ([]any, error) {
	defer s.metrics.ObserveExternal("chain", time.Now())

	out, err := s.chain.Call(ctx, core.ContractCall{Method: method, Args: args})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrChainReadFailed, err)
	}
	return out, nil
}

func (s *BadgeService) resolve(ctx context.Context, uri string) (core.Metadata, error) {
	defer s.metrics.ObserveExternal("ipfs", time.Now())
	return s.resolver.Resolve(ctx, uri)
}

func flatten(md core.Metadata) MintedBadge {
	attr := func(key string) any {
		if v, ok := md.Attr(key); ok {
			return v
		}
		return notAvailable
	}

	certificate := md.CertificateURL
	if certificate == "" {
		certificate = notAvailable
	}

	return MintedBadge{
		StudentName:    attr("Student"),
		GrantDate:      attr("Date"),
		BadgeType:      attr("Badge Type"),
		Cohort:         attr("Class"),
		Institution:    attr("University"),
		CertificateURL: certificate,
		TokensUsed:     attr("Tokens Used"),
	}
}

func first[T any](out []any) (T, bool) {
	var zero T
	if len(out) == 0 {
		return zero, false
	}
	v, ok := out[0].(T)
	return v, ok
}

func unexpected(method string, out []any) error {
	return fmt.Errorf("%w: unexpected %s output %v", core.ErrChainReadFailed, method, out)
}
