package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/docscan/constants"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveAttempt("ocrspace", constants.OutcomeUnavailable, time.Second)
	m.ObserveAttempt("ocrspace", constants.OutcomeUnavailable, time.Second)
	m.ObserveAttempt("local", constants.OutcomeOK, time.Second)
	m.IncExhausted()
	m.ObserveScan(constants.Aadhaar, 4, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProviderAttempts.WithLabelValues("ocrspace", "unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderAttempts.WithLabelValues("local", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exhausted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Scans.WithLabelValues(string(constants.Aadhaar))))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAttempt("x", constants.OutcomeOK, 0)
		m.IncExhausted()
		m.ObserveScan(constants.Other, 0, 0)
	})
}
