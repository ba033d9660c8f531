package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SessionStarted()
	m.Answer(true)
	m.Answer(true)
	m.Answer(false)
	m.Mint("success")
	m.Compensation("mint")
	m.SetActiveSessions(3)
	m.ObserveExternal("chain", time.Now())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.QuizSessionsStarted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.QuizAnswers.WithLabelValues("correct")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QuizAnswers.WithLabelValues("incorrect")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mints.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Compensations.WithLabelValues("mint")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ActiveSessions))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SessionStarted()
		m.Answer(true)
		m.Mint("failure")
		m.Credential("success")
		m.Compensation("credential")
		m.SetActiveSessions(1)
		m.ObserveExternal("pinata", time.Now())
	})
}
