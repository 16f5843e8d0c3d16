package metrics

import (
	"time"

	"github.com/avelot/fleetdispatch/core/model"
)

// AssignmentRecord represents one order-to-driver assignment attempt to be
// recorded for observability purposes.
type AssignmentRecord struct {
	OrderID    string
	DriverID   string
	ZoneID     string
	Score      float64
	Success    bool
	Reason     model.FailureReason
	Candidates int
	Time       time.Time
}

// Sink records assignment outcomes.
type Sink interface {
	RecordAssignment(rec AssignmentRecord) error
}

// CoverageRecord summarizes one coverage aggregation pass.
type CoverageRecord struct {
	Zones             int
	OnlineDrivers     int
	UnassignedDrivers int
	OutstandingOrders int
	DegradedSections  int
	Source            string
	Time              time.Time
}

// CoverageRecorder is implemented by sinks able to record coverage passes.
type CoverageRecorder interface {
	RecordCoverage(rec CoverageRecord) error
}

// WorkloadRecord captures a fleet utilization summary.
type WorkloadRecord struct {
	Drivers         int
	Overloaded      int
	MeanUtilization float64
	Time            time.Time
}

// WorkloadRecorder is implemented by sinks able to record workload summaries.
type WorkloadRecorder interface {
	RecordWorkload(rec WorkloadRecord) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordAssignment(AssignmentRecord) error { return nil }
func (NopSink) RecordCoverage(CoverageRecord) error     { return nil }
func (NopSink) RecordWorkload(WorkloadRecord) error     { return nil }
