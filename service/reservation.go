package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/layer-3/accolade/core"
	"github.com/layer-3/accolade/metrics"
	"github.com/layer-3/accolade/ports"
)

// reservation debits tokens ahead of an external effect and credits them back
// if the effect fails. The debit is the only reversible step; whatever the
// effect already did outside the process stays done.
type reservation struct {
	ledger   ports.Ledger
	workflow string
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// run debits amount from identity, then calls effect. It returns the balance
// left after the debit. Debit failures wrap core.ErrTokenDeductionFailed.
func (r reservation) run(ctx context.Context, identity string, amount int64, effect func(ctx context.Context) error) (int64, error) {
	remaining, err := r.ledger.Debit(ctx, identity, amount)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrTokenDeductionFailed, err)
	}

	effectCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		effectCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	effectErr := effect(effectCtx)
	if effectErr == nil {
		return remaining, nil
	}

	// refund even when the caller's context is already done
	refundCtx := context.WithoutCancel(ctx)
	if _, err := r.ledger.Credit(refundCtx, identity, amount); err != nil {
		r.logger.ErrorContext(ctx, "refund failed",
			"workflow", r.workflow,
			"identity", identity,
			"amount", amount,
			"cause", effectErr,
			"error", err)
		return 0, errors.Join(effectErr, fmt.Errorf("refund %d tokens to %s: %w", amount, identity, err))
	}

	r.metrics.Compensation(r.workflow)
	r.logger.WarnContext(ctx, "reservation refunded",
		"workflow", r.workflow,
		"identity", identity,
		"amount", amount,
		"cause", effectErr)
	return 0, effectErr
}
