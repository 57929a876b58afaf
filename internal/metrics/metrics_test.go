package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := MustNew(prometheus.NewRegistry())
	m.GateOutcome("denied", "")
	m.GateOutcome("denied", "")
	m.Verification("payment", "error")
	m.ReportCache(true)
	m.ReportCache(false)
	m.CodeScored("Low-Low-Low-Low-Low")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.gateOutcomes.WithLabelValues("denied", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.verifyCalls.WithLabelValues("payment", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reportCache.WithLabelValues("hit")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bigfive_gate_outcomes_total")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.GateOutcome("shown", "payment")
		m.Verification("free_code", "ok")
		m.ReportCache(true)
		m.CodeScored("x")
	})
}
