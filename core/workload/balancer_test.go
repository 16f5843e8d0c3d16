package workload

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelot/fleetdispatch/core/model"
	"github.com/avelot/fleetdispatch/infra/store/memory"
)

func putDriverWithOrders(mem *memory.MemStore, id string, capacity, active int) {
	mem.PutStatus(model.DriverStatusRecord{
		DriverID:    id,
		Status:      model.DriverDelivering,
		IsOnline:    true,
		MaxCapacity: capacity,
	})
	for i := 0; i < active; i++ {
		mem.PutOrder(model.Order{
			ID:             fmt.Sprintf("order-%s-%d", id, i),
			Status:         model.StatusOutForDelivery,
			AssignedDriver: id,
		})
	}
}

func TestBalancer_WorkloadDistribution(t *testing.T) {
	mem := memory.New()
	putDriverWithOrders(mem, "driver-hot", 5, 5)  // 100%
	putDriverWithOrders(mem, "driver-warm", 5, 3) // 60%
	putDriverWithOrders(mem, "driver-cold", 5, 0) // 0%

	b := NewBalancer(mem, Config{}, 0, nil)
	dist, err := b.WorkloadDistribution(context.Background())
	require.NoError(t, err)

	require.Len(t, dist.Drivers, 3)
	assert.Equal(t, "driver-hot", dist.Drivers[0].DriverID)
	assert.Equal(t, 100.0, dist.Drivers[0].Utilization)
	assert.True(t, dist.Drivers[0].IsOverloaded)
	assert.Equal(t, "driver-warm", dist.Drivers[1].DriverID)
	assert.False(t, dist.Drivers[1].IsOverloaded)
	assert.Equal(t, "driver-cold", dist.Drivers[2].DriverID)

	assert.InDelta(t, (100.0+60+0)/3, dist.MeanUtilization, 1e-9)
	assert.Greater(t, dist.StdDev, 0.0)
}

func TestBalancer_FallsBackToStatusCounts(t *testing.T) {
	mem := memory.New()
	mem.PutStatus(model.DriverStatusRecord{
		DriverID:     "driver-1",
		Status:       model.DriverDelivering,
		IsOnline:     true,
		ActiveOrders: 4,
		MaxCapacity:  5,
	})
	mem.Fail["ListOrders"] = errors.New("orders table unreachable")

	b := NewBalancer(mem, Config{}, 0, nil)
	dist, err := b.WorkloadDistribution(context.Background())
	require.NoError(t, err)
	require.Len(t, dist.Drivers, 1)
	assert.Equal(t, 4, dist.Drivers[0].ActiveOrders)
	assert.Equal(t, 80.0, dist.Drivers[0].Utilization)
}

func TestBalancer_DefaultCapacity(t *testing.T) {
	mem := memory.New()
	putDriverWithOrders(mem, "driver-1", 0, 2) // no declared capacity

	b := NewBalancer(mem, Config{}, 0, nil)
	dist, err := b.WorkloadDistribution(context.Background())
	require.NoError(t, err)
	require.Len(t, dist.Drivers, 1)
	assert.Equal(t, model.DefaultDriverCapacity, dist.Drivers[0].MaxCapacity)
	assert.Equal(t, 40.0, dist.Drivers[0].Utilization)
}

func TestBalancer_BalanceWorkload(t *testing.T) {
	mem := memory.New()
	putDriverWithOrders(mem, "driver-hot", 5, 5)    // 100%, overloaded
	putDriverWithOrders(mem, "driver-warm", 5, 3)   // 60%, neither side
	putDriverWithOrders(mem, "driver-cold", 5, 1)   // 20%, receiver
	putDriverWithOrders(mem, "driver-cooler", 5, 0) // 0%, idlest receiver

	b := NewBalancer(mem, Config{}, 0, nil)
	recs, err := b.BalanceWorkload(context.Background(), 0)
	require.NoError(t, err)

	require.Len(t, recs, 1)
	assert.Equal(t, "driver-hot", recs[0].FromDriverID)
	assert.Equal(t, "driver-cooler", recs[0].ToDriverID, "idlest driver receives first")
	assert.Contains(t, recs[0].Text, "driver-hot")
	assert.Contains(t, recs[0].Text, "100%")
}

func TestBalancer_BalanceWorkloadRunsOutOfReceivers(t *testing.T) {
	mem := memory.New()
	putDriverWithOrders(mem, "driver-a", 5, 5) // 100%
	putDriverWithOrders(mem, "driver-b", 5, 5) // 100%
	putDriverWithOrders(mem, "driver-c", 5, 1) // 20%, only receiver

	b := NewBalancer(mem, Config{}, 0, nil)
	recs, err := b.BalanceWorkload(context.Background(), 0)
	require.NoError(t, err)

	require.Len(t, recs, 1, "one receiver serves only one overloaded driver")
	assert.Equal(t, "driver-c", recs[0].ToDriverID)
}

func TestBalancer_CustomThreshold(t *testing.T) {
	mem := memory.New()
	putDriverWithOrders(mem, "driver-a", 5, 3) // 60%
	putDriverWithOrders(mem, "driver-b", 5, 0) // 0%

	b := NewBalancer(mem, Config{}, 0, nil)

	recs, err := b.BalanceWorkload(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "driver-a", recs[0].FromDriverID)

	recs, err = b.BalanceWorkload(context.Background(), 0) // default 80
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestPredictDriverAvailability(t *testing.T) {
	mem := memory.New()
	putDriverWithOrders(mem, "driver-idle", 5, 0)
	putDriverWithOrders(mem, "driver-light", 5, 2)
	putDriverWithOrders(mem, "driver-heavy", 5, 5)
	mem.PutStatus(model.DriverStatusRecord{DriverID: "driver-off", Status: model.DriverOffShift, IsOnline: false})

	b := NewBalancer(mem, Config{AverageDeliveryMinutes: 30}, 0, nil)
	ctx := context.Background()

	f, err := b.PredictDriverAvailability(ctx, "driver-idle", 1)
	require.NoError(t, err)
	assert.True(t, f.Available)
	assert.Equal(t, ConfidenceHigh, f.Confidence)
	assert.Zero(t, f.EstimatedFreeIn)

	f, err = b.PredictDriverAvailability(ctx, "driver-light", 2)
	require.NoError(t, err)
	assert.True(t, f.Available)
	assert.Equal(t, ConfidenceMedium, f.Confidence)
	assert.Equal(t, time.Hour, f.EstimatedFreeIn)

	f, err = b.PredictDriverAvailability(ctx, "driver-heavy", 1)
	require.NoError(t, err)
	assert.False(t, f.Available, "150 minutes of work does not fit a one hour horizon")
	assert.Equal(t, ConfidenceLow, f.Confidence)

	f, err = b.PredictDriverAvailability(ctx, "driver-off", 8)
	require.NoError(t, err)
	assert.False(t, f.Available)
	assert.Equal(t, ConfidenceLow, f.Confidence)

	_, err = b.PredictDriverAvailability(ctx, "driver-missing", 1)
	require.Error(t, err)
}
