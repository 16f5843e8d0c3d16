package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	assignmentsTotal     *prometheus.CounterVec
	assignmentLatency    prometheus.Histogram
	assignmentConflicts  prometheus.Counter
	notificationFailures prometheus.Counter
	movementLogFailures  prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, prometheus.Histogram, prometheus.Counter, prometheus.Counter, prometheus.Counter) {
	total := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_assignments_total",
			Help: "Number of order assignment attempts by outcome",
		},
		[]string{"outcome"},
	)
	lat := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "order_assignment_duration_seconds",
			Help:    "Duration of the assignment commit including side effects",
			Buckets: prometheus.DefBuckets,
		},
	)
	conflicts := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "order_assignment_conflicts_total",
			Help: "Number of assignments lost to a concurrent commit on the same driver",
		},
	)
	notif := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "driver_notification_failures_total",
			Help: "Number of best-effort driver notifications that failed",
		},
	)
	movelog := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "movement_log_failures_total",
			Help: "Number of movement log appends that failed after retry",
		},
	)
	return total, lat, conflicts, notif, movelog
}

func init() {
	assignmentsTotal, assignmentLatency, assignmentConflicts, notificationFailures, movementLogFailures = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(assignmentsTotal, assignmentLatency, assignmentConflicts, notificationFailures, movementLogFailures)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	assignmentsTotal, assignmentLatency, assignmentConflicts, notificationFailures, movementLogFailures = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
