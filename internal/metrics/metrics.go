package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bigfive"

// Metrics groups the service's Prometheus collectors. A nil *Metrics is
// valid and records nothing, which keeps tests free of registry setup.
type Metrics struct {
	codesScored  *prometheus.CounterVec
	verifyCalls  *prometheus.CounterVec
	gateOutcomes *prometheus.CounterVec
	reportCache  *prometheus.CounterVec
	gatherer     prometheus.Gatherer
}

// MustNew registers collectors with reg and panics on duplicate
// registration, mirroring promauto.
func MustNew(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		codesScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "codes_scored_total",
			Help:      "Questionnaires scored, by resulting code.",
		}, []string{"code"}),
		verifyCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "verifications_total",
			Help:      "Verification calls made by the access gate.",
		}, []string{"kind", "result"}),
		gateOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "outcomes_total",
			Help:      "Terminal access gate states.",
		}, []string{"state", "via"}),
		reportCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "cache_lookups_total",
			Help:      "Rendered report cache lookups.",
		}, []string{"result"}),
		gatherer: reg,
	}
	reg.MustRegister(m.codesScored, m.verifyCalls, m.gateOutcomes, m.reportCache)
	return m
}

func (m *Metrics) CodeScored(code string) {
	if m == nil {
		return
	}
	m.codesScored.WithLabelValues(code).Inc()
}

func (m *Metrics) Verification(kind, result string) {
	if m == nil {
		return
	}
	m.verifyCalls.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) GateOutcome(state, via string) {
	if m == nil {
		return
	}
	m.gateOutcomes.WithLabelValues(state, via).Inc()
}

func (m *Metrics) ReportCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.reportCache.WithLabelValues("hit").Inc()
		return
	}
	m.reportCache.WithLabelValues("miss").Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
