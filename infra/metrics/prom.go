package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/avelot/fleetdispatch/core/metrics"
)

// PromSink records assignment and coverage events in Prometheus metrics.
type PromSink struct {
	assignments *prometheus.CounterVec
	scores      prometheus.Histogram
	coverage    *prometheus.GaugeVec
	overloaded  prometheus.Gauge
}

// NewPromSink registers metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assignment_events_total",
		Help: "Total number of assignment events by zone and success",
	}, []string{"zone", "success", "reason"})
	scores := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "assignment_score",
		Help:    "Score of the winning candidate",
		Buckets: prometheus.LinearBuckets(0, 25, 10),
	})
	coverage := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "zone_coverage_summary",
		Help: "Latest coverage aggregation counts by section",
	}, []string{"section"})
	overloaded := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "overloaded_drivers",
		Help: "Number of drivers above the overload threshold",
	})

	for _, c := range []prometheus.Collector{assignments, scores, coverage, overloaded} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return &PromSink{assignments: assignments, scores: scores, coverage: coverage, overloaded: overloaded}, nil
}

// RecordAssignment implements coremetrics.Sink.
func (s *PromSink) RecordAssignment(rec coremetrics.AssignmentRecord) error {
	s.assignments.WithLabelValues(rec.ZoneID, strconv.FormatBool(rec.Success), string(rec.Reason)).Inc()
	if rec.Success {
		s.scores.Observe(rec.Score)
	}
	return nil
}

// RecordCoverage implements coremetrics.CoverageRecorder.
func (s *PromSink) RecordCoverage(rec coremetrics.CoverageRecord) error {
	s.coverage.WithLabelValues("zones").Set(float64(rec.Zones))
	s.coverage.WithLabelValues("online_drivers").Set(float64(rec.OnlineDrivers))
	s.coverage.WithLabelValues("unassigned_drivers").Set(float64(rec.UnassignedDrivers))
	s.coverage.WithLabelValues("outstanding_orders").Set(float64(rec.OutstandingOrders))
	s.coverage.WithLabelValues("degraded_sections").Set(float64(rec.DegradedSections))
	return nil
}

// RecordWorkload implements coremetrics.WorkloadRecorder.
func (s *PromSink) RecordWorkload(rec coremetrics.WorkloadRecord) error {
	s.overloaded.Set(float64(rec.Overloaded))
	return nil
}
