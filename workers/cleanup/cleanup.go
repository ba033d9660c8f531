package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/layer-3/accolade/metrics"
	"github.com/layer-3/accolade/ports"
)

// Result describes one sweep
type Result struct {
	Evicted   int
	Remaining int
	Duration  time.Duration
}

type Option func(*SessionCleanupService)

func WithLogger(logger *slog.Logger) Option {
	return func(s *SessionCleanupService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(s *SessionCleanupService) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *SessionCleanupService) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *SessionCleanupService) {
		if now != nil {
			s.now = now
		}
	}
}

// SessionCleanupService periodically evicts expired quiz sessions.
type SessionCleanupService struct {
	store    ports.SessionStore
	logger   *slog.Logger
	interval time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time
}

func New(store ports.SessionStore, opts ...Option) *SessionCleanupService {
	service := &SessionCleanupService{
		store:    store,
		logger:   slog.Default(),
		interval: 5 * time.Minute,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Start sweeps every interval until ctx is done
func (s *SessionCleanupService) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			res, err := s.RunOnce(ctx)
			if err != nil {
				s.logger.Error("session_cleanup_failed", "error", err)
				continue
			}
			if res.Evicted > 0 {
				s.logger.Info("session_cleanup_completed",
					"evicted", res.Evicted,
					"remaining", res.Remaining,
					"duration_ms", res.Duration.Milliseconds(),
				)
			}

		case <-ctx.Done():
			s.logger.Info("session cleanup worker stopping", "reason", ctx.Err())
			return ctx.Err()
		}
	}
}

// RunOnce evicts sessions expired at the current time and refreshes the active gauge.
func (s *SessionCleanupService) RunOnce(ctx context.Context) (*Result, error) {
	start := time.Now()

	evicted, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		return nil, err
	}
	remaining, err := s.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.SetActiveSessions(remaining)

	return &Result{
		Evicted:   evicted,
		Remaining: remaining,
		Duration:  time.Since(start),
	}, nil
}
