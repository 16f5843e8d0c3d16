package metrics

import coremetrics "github.com/avelot/fleetdispatch/core/metrics"

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAssignment forwards the record to all sinks, returning the first error encountered.
func (m *MultiSink) RecordAssignment(rec coremetrics.AssignmentRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordAssignment(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordCoverage forwards coverage summaries to sinks that accept them.
func (m *MultiSink) RecordCoverage(rec coremetrics.CoverageRecord) error {
	for _, s := range m.Sinks {
		if cr, ok := s.(coremetrics.CoverageRecorder); ok {
			if err := cr.RecordCoverage(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordWorkload forwards workload summaries to sinks that accept them.
func (m *MultiSink) RecordWorkload(rec coremetrics.WorkloadRecord) error {
	for _, s := range m.Sinks {
		if wr, ok := s.(coremetrics.WorkloadRecorder); ok {
			if err := wr.RecordWorkload(rec); err != nil {
				return err
			}
		}
	}
	return nil
}
