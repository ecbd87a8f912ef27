package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec

	// Visit lifecycle metrics
	PatientsRegistered   prometheus.Counter
	ConsultationsStarted prometheus.Counter
	VisitsArchived       prometheus.Counter
	PartialCompletions   prometheus.Counter

	// Account metrics
	SignUps prometheus.Counter
	SignIns prometheus.Counter

	// Confirmation email metrics
	EmailsSent   prometheus.Counter
	EmailsFailed prometheus.Counter
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Time spent serving HTTP requests",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "path"}),
		PatientsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "patients_registered_total",
			Help:      "Total number of patients registered",
		}),
		ConsultationsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consultations_started_total",
			Help:      "Total number of consultations started",
		}),
		VisitsArchived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visits_archived_total",
			Help:      "Total number of visits archived into history",
		}),
		PartialCompletions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visit_partial_completions_total",
			Help:      "Total number of archival sequences that committed partway",
		}),
		SignUps: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_signups_total",
			Help:      "Total number of accounts created",
		}),
		SignIns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_signins_total",
			Help:      "Total number of successful sign-ins",
		}),
		EmailsSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirmation_emails_sent_total",
			Help:      "Total number of confirmation emails sent",
		}),
		EmailsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirmation_emails_failed_total",
			Help:      "Total number of confirmation emails that failed to send",
		}),
	}
}
