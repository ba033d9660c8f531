package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/layer-3/accolade/core"
	"github.com/layer-3/accolade/ports"
)

// MintRequest asks for a badge to be minted to Recipient, paid by Identity
type MintRequest struct {
	BadgeType string
	TokenURI  string
	Recipient string
	Identity  string
}

// MintService trades ledger tokens for on-chain badge mints.
type MintService struct {
	ledger ports.Ledger
	chain  ports.ChainClient
	events ports.EventPublisher
	options
	reserve reservation
}

// NewMintService creates a new mint service. events may be nil.
func NewMintService(ledger ports.Ledger, chain ports.ChainClient, events ports.EventPublisher, opts ...Option) (*MintService, error) {
	if ledger == nil || chain == nil {
		return nil, errors.New("ledger and chain client are required")
	}

	o := newOptions(opts)
	return &MintService{
		ledger:  ledger,
		chain:   chain,
		events:  events,
		options: o,
		reserve: reservation{
			ledger:   ledger,
			workflow: "mint",
			timeout:  o.policy.ExternalTimeout,
			logger:   o.logger,
			metrics:  o.metrics,
		},
	}, nil
}

// MintBadge looks up the badge cost, reserves it from the participant and
// submits the mint transaction. The reservation is refunded if submission
// fails. Success means the node accepted the transaction, not that it was mined.
func (s *MintService) MintBadge(ctx context.Context, req MintRequest) (core.MintOutcome, error) {
	if req.BadgeType == "" || req.TokenURI == "" || req.Recipient == "" || req.Identity == "" {
		return core.MintOutcome{}, core.ErrMissingField
	}
	if !common.IsHexAddress(req.Recipient) {
		return core.MintOutcome{}, fmt.Errorf("recipient %q: %w", req.Recipient, core.ErrInvalidAddress)
	}

	cost, ok := s.policy.Schedule.Cost(req.BadgeType)
	if !ok {
		return core.MintOutcome{}, fmt.Errorf("%w: %s", core.ErrInvalidBadgeType, req.BadgeType)
	}

	balance, err := s.ledger.BalanceOf(ctx, req.Identity)
	if err != nil {
		return core.MintOutcome{}, fmt.Errorf("read balance: %w", err)
	}
	if balance < cost {
		s.metrics.Mint("insufficient")
		return core.MintOutcome{}, fmt.Errorf("%w: %s costs %d, balance is %d", core.ErrInsufficientTokens, req.BadgeType, cost, balance)
	}

	var txHash string
	remaining, err := s.reserve.run(ctx, req.Identity, cost, func(ctx context.Context) error {
		hash, err := s.submit(ctx, req)
		if err != nil {
			return fmt.Errorf("%w: %w", core.ErrChainSubmissionFailed, err)
		}
		txHash = hash
		return nil
	})
	if err != nil {
		s.metrics.Mint("failure")
		return core.MintOutcome{}, err
	}

	s.metrics.Mint("success")
	s.logger.InfoContext(ctx, "badge mint submitted",
		"identity", req.Identity,
		"recipient", req.Recipient,
		"badge_type", req.BadgeType,
		"tx_hash", txHash,
		"tokens", cost)

	if s.events != nil {
		err := s.events.PublishBadgeMinted(ctx, ports.BadgeMinted{
			Identity:  req.Identity,
			Recipient: req.Recipient,
			BadgeType: req.BadgeType,
			TxHash:    txHash,
			Tokens:    cost,
		})
		if err != nil {
			s.logger.WarnContext(ctx, "failed to publish badge minted event", "error", err)
		}
	}

	return core.MintOutcome{
		TxHash:          txHash,
		TokensDeducted:  cost,
		RemainingTokens: remaining,
	}, nil
}

func (s *MintService) submit(ctx context.Context, req MintRequest) (string, error) {
	defer s.metrics.ObserveExternal("chain", time.Now())

	nonce, err := s.chain.Nonce(ctx)
	if err != nil {
		return "", err
	}

	signed, err := s.chain.BuildAndSign(ctx, core.ContractCall{
		Method: core.MethodMintBadge,
		Args:   []any{common.HexToAddress(req.Recipient), req.BadgeType, req.TokenURI},
	}, nonce)
	if err != nil {
		return "", err
	}

	return s.chain.Submit(ctx, signed)
}
