package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics manages the Prometheus metrics for the token subsystem.
type Metrics struct {
	TokenIssued        *prometheus.CounterVec
	TokenVerifications *prometheus.CounterVec
	TokenRevocations   *prometheus.CounterVec
	IssueLatency       *prometheus.HistogramVec
	StoreOpLatency     *prometheus.HistogramVec
	DegradedKeyMode    prometheus.Gauge
}

// NewMetrics creates and registers the metrics on the default registerer.
func NewMetrics() *Metrics {
	return &Metrics{
		TokenIssued: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenforge_tokens_issued_total",
				Help: "Total number of tokens issued.",
			},
			[]string{"token_type"},
		),
		TokenVerifications: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenforge_token_verifications_total",
				Help: "Total number of token verifications by outcome.",
			},
			[]string{"result"},
		),
		TokenRevocations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenforge_token_revocations_total",
				Help: "Total number of token revocations.",
			},
			[]string{"reason"},
		),
		IssueLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tokenforge_token_issue_latency_seconds",
				Help:    "Latency of token pair issuance.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),
		StoreOpLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tokenforge_store_operation_latency_seconds",
				Help:    "Latency of record store operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		DegradedKeyMode: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "tokenforge_signing_key_degraded",
				Help: "1 when the signing key is an ephemeral generated fallback.",
			},
		),
	}
}

// RecordIssue records an issuance event with its latency.
func (m *Metrics) RecordIssue(tokenType, result string, duration time.Duration) {
	m.TokenIssued.WithLabelValues(tokenType).Inc()
	m.IssueLatency.WithLabelValues(result).Observe(duration.Seconds())
}

// RecordVerification records a verification outcome ("ok" or the error kind).
func (m *Metrics) RecordVerification(result string) {
	m.TokenVerifications.WithLabelValues(result).Inc()
}

// RecordRevocation records a revocation by reason.
func (m *Metrics) RecordRevocation(reason string) {
	m.TokenRevocations.WithLabelValues(reason).Inc()
}

// RecordStoreOp records the latency of a store operation.
func (m *Metrics) RecordStoreOp(operation string, duration time.Duration) {
	m.StoreOpLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetDegradedKeyMode flips the degraded signing key gauge.
func (m *Metrics) SetDegradedKeyMode(degraded bool) {
	if degraded {
		m.DegradedKeyMode.Set(1)
	} else {
		m.DegradedKeyMode.Set(0)
	}
}
