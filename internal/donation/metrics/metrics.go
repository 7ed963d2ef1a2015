package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the donation pipeline.
type Metrics struct {
	DonationsProcessed *prometheus.CounterVec
	ValidationFailures prometheus.Counter
	WebhookEvents      *prometheus.CounterVec
	NotificationErrors prometheus.Counter
}

// New creates and registers all donation metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		DonationsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "givegate_donations_processed_total",
			Help: "Donations processed, labeled by payment method and outcome",
		}, []string{"method", "outcome"}),
		ValidationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "givegate_donation_validation_failures_total",
			Help: "Donation requests rejected by validation",
		}),
		WebhookEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "givegate_webhook_events_total",
			Help: "Webhook events received, labeled by vendor and event type",
		}, []string{"vendor", "event_type"}),
		NotificationErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "givegate_notification_errors_total",
			Help: "Confirmation emails that failed to send",
		}),
	}
}

// IncrementProcessed records one processed donation.
func (m *Metrics) IncrementProcessed(method string, success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.DonationsProcessed.WithLabelValues(method, outcome).Inc()
}
