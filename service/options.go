package service

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/layer-3/accolade/core"
	"github.com/layer-3/accolade/metrics"
)

// Policy holds the token economics of quizzes and badges.
type Policy struct {
	// InitialGrant is credited to a participant the first time they start a quiz
	InitialGrant int64

	// RewardPerCorrect is credited for every correct answer
	RewardPerCorrect int64

	// MinimumMint is the balance needed to mint, and the flat credential issuance cost
	MinimumMint int64

	// QuizSize is how many questions a session draws
	QuizSize int

	// SessionTTL bounds how long a session is kept after it starts
	SessionTTL time.Duration

	// ExternalTimeout bounds each chain submission or publication workflow
	ExternalTimeout time.Duration

	Schedule core.CostSchedule
}

// DefaultPolicy returns the stock policy
func DefaultPolicy() Policy {
	return Policy{
		InitialGrant:     10000,
		RewardPerCorrect: 50,
		MinimumMint:      10,
		QuizSize:         5,
		SessionTTL:       time.Hour,
		ExternalTimeout:  30 * time.Second,
		Schedule:         core.DefaultCostSchedule,
	}
}

type options struct {
	policy  Policy
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	rng     *rand.Rand
}

// Option configures a service.
type Option func(*options)

// WithPolicy overrides the default policy
func WithPolicy(p Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithLogger overrides the logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records service activity in m
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithRand sets the source used to draw quiz questions
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		o.rng = r
	}
}

func newOptions(opts []Option) options {
	o := options{
		policy: DefaultPolicy(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.policy.Schedule == nil {
		o.policy.Schedule = core.DefaultCostSchedule
	}
	return o
}
