package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the issuance workflow.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	QuizSessionsStarted prometheus.Counter
	QuizAnswers         *prometheus.CounterVec
	ActiveSessions      prometheus.Gauge
	Mints               *prometheus.CounterVec
	Credentials         *prometheus.CounterVec
	Compensations       *prometheus.CounterVec
	ExternalLatency     *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		QuizSessionsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "accolade_quiz_sessions_started_total",
			Help: "Total number of quiz sessions started",
		}),
		QuizAnswers: f.NewCounterVec(prometheus.CounterOpts{
			Name: "accolade_quiz_answers_total",
			Help: "Total number of quiz answers by result",
		}, []string{"result"}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "accolade_quiz_active_sessions",
			Help: "Current number of stored quiz sessions",
		}),
		Mints: f.NewCounterVec(prometheus.CounterOpts{
			Name: "accolade_mints_total",
			Help: "Total number of mint attempts by outcome",
		}, []string{"outcome"}),
		Credentials: f.NewCounterVec(prometheus.CounterOpts{
			Name: "accolade_credentials_total",
			Help: "Total number of credential issuance attempts by outcome",
		}, []string{"outcome"}),
		Compensations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "accolade_compensations_total",
			Help: "Total number of refunded token reservations by workflow",
		}, []string{"workflow"}),
		ExternalLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "accolade_external_call_seconds",
			Help:    "Latency of calls to external dependencies",
			Buckets: prometheus.DefBuckets,
		}, []string{"dependency"}),
	}
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.QuizSessionsStarted.Inc()
}

func (m *Metrics) Answer(correct bool) {
	if m == nil {
		return
	}
	result := "incorrect"
	if correct {
		result = "correct"
	}
	m.QuizAnswers.WithLabelValues(result).Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

func (m *Metrics) Mint(outcome string) {
	if m == nil {
		return
	}
	m.Mints.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Credential(outcome string) {
	if m == nil {
		return
	}
	m.Credentials.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Compensation(workflow string) {
	if m == nil {
		return
	}
	m.Compensations.WithLabelValues(workflow).Inc()
}

// ObserveExternal records how long a call to dependency took since start
func (m *Metrics) ObserveExternal(dependency string, start time.Time) {
	if m == nil {
		return
	}
	m.ExternalLatency.WithLabelValues(dependency).Observe(time.Since(start).Seconds())
}
