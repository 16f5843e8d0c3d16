package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/avelot/fleetdispatch/core/metrics"
)

// countingSink records assignments only; coverage and workload records must
// skip it.
type countingSink struct {
	assignments int
	err         error
}

func (c *countingSink) RecordAssignment(coremetrics.AssignmentRecord) error {
	c.assignments++
	return c.err
}

// fullSink also accepts coverage and workload records.
type fullSink struct {
	countingSink
	coverage int
	workload int
}

func (f *fullSink) RecordCoverage(coremetrics.CoverageRecord) error {
	f.coverage++
	return nil
}

func (f *fullSink) RecordWorkload(coremetrics.WorkloadRecord) error {
	f.workload++
	return nil
}

func TestMultiSink_FansOut(t *testing.T) {
	a := &countingSink{}
	b := &fullSink{}
	m := NewMultiSink(a, b)

	require.NoError(t, m.RecordAssignment(coremetrics.AssignmentRecord{OrderID: "order-1"}))
	assert.Equal(t, 1, a.assignments)
	assert.Equal(t, 1, b.assignments)

	require.NoError(t, m.RecordCoverage(coremetrics.CoverageRecord{Zones: 2}))
	require.NoError(t, m.RecordWorkload(coremetrics.WorkloadRecord{Drivers: 3}))
	assert.Equal(t, 1, b.coverage)
	assert.Equal(t, 1, b.workload)
}

func TestMultiSink_FirstErrorWins(t *testing.T) {
	boom := errors.New("sink down")
	a := &countingSink{err: boom}
	b := &countingSink{}
	m := NewMultiSink(a, b)

	err := m.RecordAssignment(coremetrics.AssignmentRecord{})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, b.assignments, "fan-out stops at the first error")
}
