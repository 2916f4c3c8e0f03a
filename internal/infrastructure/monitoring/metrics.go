package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	LoansCreatedTotal      prometheus.Counter
	StatusTransitionsTotal *prometheus.CounterVec
	AgentAssignmentsTotal  prometheus.Counter
	PaymentsRecordedTotal  *prometheus.CounterVec
	NotificationsTotal     *prometheus.CounterVec
}

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loan_recovery_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		LoansCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "loan_recovery_loans_created_total",
				Help: "Total number of loan applications created.",
			},
		),
		StatusTransitionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loan_recovery_status_transitions_total",
				Help: "Total number of loan status transitions applied.",
			},
			[]string{"from", "to"},
		),
		AgentAssignmentsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "loan_recovery_agent_assignments_total",
				Help: "Total number of recovery agents assigned to loans.",
			},
		),
		PaymentsRecordedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loan_recovery_payments_recorded_total",
				Help: "Total number of payment recording attempts by outcome.",
			},
			[]string{"status"},
		),
		NotificationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loan_recovery_notifications_total",
				Help: "Total number of notification deliveries by outcome.",
			},
			[]string{"status"},
		),
	}
)

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordLoanCreated() {
	Business.LoansCreatedTotal.Inc()
}

func RecordStatusTransition(from, to string) {
	Business.StatusTransitionsTotal.WithLabelValues(from, to).Inc()
}

func RecordAgentAssignment() {
	Business.AgentAssignmentsTotal.Inc()
}

func RecordPayment(status string) {
	Business.PaymentsRecordedTotal.WithLabelValues(status).Inc()
}

func RecordNotification(status string) {
	Business.NotificationsTotal.WithLabelValues(status).Inc()
}
