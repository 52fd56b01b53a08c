// Package metrics exposes Prometheus instrumentation for retrieval and the
// HTTP surface.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/akropatel/tenantrag/internal/retrieval"
)

// Retrieval Prometheus metrics.
var (
	RetrievalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tenantrag",
			Name:      "retrievals_total",
			Help:      "Total number of retrieval calls",
		},
		[]string{"tenant", "role"},
	)

	RoleBlockedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tenantrag",
			Name:      "role_blocked_total",
			Help:      "Total candidates blocked by role gating",
		},
		[]string{"tenant", "role"},
	)

	DegradedRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tenantrag",
			Name:      "degraded_retries_total",
			Help:      "Total retrievals retried with the role filter disabled",
		},
		[]string{"tenant", "role"},
	)

	ExpansionRoundsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tenantrag",
			Name:      "expansion_rounds_total",
			Help:      "Total coverage expansion rounds issued",
		},
		[]string{"tenant"},
	)

	RetrievalPassages = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tenantrag",
			Name:      "retrieval_passages",
			Help:      "Passages returned per retrieval",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"tenant"},
	)
)

var retrievalMetricsRegistered bool

// RegisterRetrievalMetrics registers Prometheus retrieval metrics. Must be called once from main.
func RegisterRetrievalMetrics() {
	if retrievalMetricsRegistered {
		return
	}
	prometheus.MustRegister(RetrievalsTotal)
	prometheus.MustRegister(RoleBlockedTotal)
	prometheus.MustRegister(DegradedRetriesTotal)
	prometheus.MustRegister(ExpansionRoundsTotal)
	prometheus.MustRegister(RetrievalPassages)
	retrievalMetricsRegistered = true
}

// Emitter translates retrieval diagnostics into Prometheus counters.
type Emitter struct{}

// Emit implements retrieval.Emitter.
func (Emitter) Emit(ctx context.Context, ev retrieval.Event) error {
	switch ev.Type {
	case retrieval.EventRetrieval:
		RetrievalsTotal.WithLabelValues(ev.TenantID, ev.Role).Inc()
		RetrievalPassages.WithLabelValues(ev.TenantID).Observe(float64(ev.Passages))
		if ev.BlockedByRole > 0 {
			RoleBlockedTotal.WithLabelValues(ev.TenantID, ev.Role).Add(float64(ev.BlockedByRole))
		}
		if ev.ExpansionRounds > 0 {
			ExpansionRoundsTotal.WithLabelValues(ev.TenantID).Add(float64(ev.ExpansionRounds))
		}
	case retrieval.EventDegradedRole:
		DegradedRetriesTotal.WithLabelValues(ev.TenantID, ev.Role).Inc()
	}
	return nil
}

var _ retrieval.Emitter = Emitter{}
