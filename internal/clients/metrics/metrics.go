package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers the client aggregate: workflow moves, the payment ledger
// and rejected operations.
type Metrics struct {
	Transitions       *prometheus.CounterVec
	PaymentsRecorded  prometheus.Counter
	PaymentCents      prometheus.Counter
	Rejections        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

// New registers the metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "taxdesk_status_transitions_total",
			Help: "Workflow status changes by target status",
		}, []string{"to"}),
		PaymentsRecorded: f.NewCounter(prometheus.CounterOpts{
			Name: "taxdesk_payments_recorded_total",
			Help: "Payments appended to the ledger",
		}),
		PaymentCents: f.NewCounter(prometheus.CounterOpts{
			Name: "taxdesk_payment_cents_total",
			Help: "Sum of recorded payments in cents",
		}),
		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "taxdesk_client_rejections_total",
			Help: "Rejected client operations by operation and error code",
		}, []string{"operation", "code"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taxdesk_client_operation_duration_seconds",
			Help:    "Duration of client aggregate operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementTransition(to string) {
	m.Transitions.WithLabelValues(to).Inc()
}

func (m *Metrics) RecordPayment(cents int64) {
	m.PaymentsRecorded.Inc()
	m.PaymentCents.Add(float64(cents))
}

func (m *Metrics) IncrementRejection(operation, code string) {
	m.Rejections.WithLabelValues(operation, code).Inc()
}

// ObserveOperation records the duration since start.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
