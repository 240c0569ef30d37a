package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the claims module.
// Tracks submissions, admin decisions, notification failures and transaction latency.
type Metrics struct {
	ClaimsCreated        prometheus.Counter
	Decisions            *prometheus.CounterVec
	NotificationFailures *prometheus.CounterVec
	ApprovalDuration     *prometheus.HistogramVec
}

// New registers the claims metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ClaimsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "escena_claims_created_total",
			Help: "Total number of profile claims submitted",
		}),
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "escena_claim_decisions_total",
			Help: "Admin decisions by operation and outcome",
		}, []string{"operation", "outcome"}),
		NotificationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "escena_notification_failures_total",
			Help: "Post-commit notifications that could not be delivered",
		}, []string{"kind"}),
		ApprovalDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "escena_approval_tx_duration_seconds",
			Help:    "Duration of approval transactions",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementClaimsCreated() {
	m.ClaimsCreated.Inc()
}

// RecordDecision counts one decision. outcome is "ok" or the error code.
func (m *Metrics) RecordDecision(operation, outcome string) {
	m.Decisions.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) IncrementNotificationFailure(kind string) {
	m.NotificationFailures.WithLabelValues(kind).Inc()
}

// ObserveApproval records the duration of a transaction.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveApproval(operation string, start time.Time) {
	m.ApprovalDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
