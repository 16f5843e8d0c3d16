package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelot/fleetdispatch/core/model"
	"github.com/avelot/fleetdispatch/core/store"
)

func TestListDriverStatuses_Filters(t *testing.T) {
	m := New()
	m.PutStatus(model.DriverStatusRecord{DriverID: "driver-1", IsOnline: true, CurrentZoneID: "zone-a"})
	m.PutStatus(model.DriverStatusRecord{DriverID: "driver-2", IsOnline: false, CurrentZoneID: "zone-a"})
	m.PutStatus(model.DriverStatusRecord{DriverID: "driver-3", IsOnline: true, CurrentZoneID: "zone-b"})

	ctx := context.Background()

	all, err := m.ListDriverStatuses(ctx, store.StatusFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	online, err := m.ListDriverStatuses(ctx, store.StatusFilter{OnlyOnline: true})
	require.NoError(t, err)
	assert.Len(t, online, 2)

	zoneA, err := m.ListDriverStatuses(ctx, store.StatusFilter{ZoneID: "zone-a", OnlyOnline: true})
	require.NoError(t, err)
	require.Len(t, zoneA, 1)
	assert.Equal(t, "driver-1", zoneA[0].DriverID)
}

func TestListDriverZones_Filters(t *testing.T) {
	m := New()
	m.PutAssignment(model.DriverZoneAssignment{DriverID: "driver-1", ZoneID: "zone-a", Active: true})
	m.PutAssignment(model.DriverZoneAssignment{DriverID: "driver-1", ZoneID: "zone-b", Active: false})
	m.PutAssignment(model.DriverZoneAssignment{DriverID: "driver-2", ZoneID: "zone-a", Active: true})

	ctx := context.Background()

	active, err := m.ListDriverZones(ctx, store.AssignmentFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	byDriver, err := m.ListDriverZones(ctx, store.AssignmentFilter{DriverID: "driver-1"})
	require.NoError(t, err)
	assert.Len(t, byDriver, 2)

	byZone, err := m.ListDriverZones(ctx, store.AssignmentFilter{ZoneID: "zone-a", ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, byZone, 2)
}

func TestListDriverInventory_Filters(t *testing.T) {
	m := New()
	m.PutInventory(model.DriverInventoryRecord{DriverID: "driver-1", ProductID: "product-x", Quantity: 5})
	m.PutInventory(model.DriverInventoryRecord{DriverID: "driver-1", ProductID: "product-y", Quantity: 2})
	m.PutInventory(model.DriverInventoryRecord{DriverID: "driver-2", ProductID: "product-x", Quantity: 1})

	ctx := context.Background()

	forDriver, err := m.ListDriverInventory(ctx, store.InventoryFilter{DriverIDs: []string{"driver-1"}})
	require.NoError(t, err)
	assert.Len(t, forDriver, 2)

	forProduct, err := m.ListDriverInventory(ctx, store.InventoryFilter{ProductID: "product-x"})
	require.NoError(t, err)
	assert.Len(t, forProduct, 2)
}

func TestListOrders_Filters(t *testing.T) {
	m := New()
	m.PutOrder(model.Order{ID: "order-1", Status: model.StatusConfirmed, AssignedDriver: "driver-1"})
	m.PutOrder(model.Order{ID: "order-2", Status: model.StatusDelivered})

	ctx := context.Background()

	outstanding, err := m.ListOrders(ctx, store.OrderFilter{Statuses: model.OutstandingStatuses()})
	require.NoError(t, err)
	require.Len(t, outstanding, 1)
	assert.Equal(t, "order-1", outstanding[0].ID)

	byQuery, err := m.ListOrders(ctx, store.OrderFilter{Query: "driver-1"})
	require.NoError(t, err)
	assert.Len(t, byQuery, 1)
}

func TestUpdateOrder(t *testing.T) {
	m := New()
	m.PutOrder(model.Order{ID: "order-1", Status: model.StatusNew})

	ctx := context.Background()
	confirmed := model.StatusConfirmed
	driver := "driver-1"
	require.NoError(t, m.UpdateOrder(ctx, "order-1", store.OrderUpdate{Status: &confirmed, AssignedDriver: &driver}))

	o, ok := m.Order("order-1")
	require.True(t, ok)
	assert.Equal(t, model.StatusConfirmed, o.Status)
	assert.Equal(t, "driver-1", o.AssignedDriver)
	assert.False(t, o.StatusTimes[model.StatusConfirmed].IsZero())

	err := m.UpdateOrder(ctx, "order-missing", store.OrderUpdate{Status: &confirmed})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateDriverStatus(t *testing.T) {
	m := New()
	m.PutStatus(model.DriverStatusRecord{DriverID: "driver-1", Status: model.DriverAvailable, IsOnline: true})

	ctx := context.Background()
	require.NoError(t, m.UpdateDriverStatus(ctx, store.StatusUpdate{
		DriverID: "driver-1",
		Status:   model.DriverDelivering,
		ZoneID:   "zone-a",
		Note:     "heading out",
	}))

	s, ok := m.Status("driver-1")
	require.True(t, ok)
	assert.Equal(t, model.DriverDelivering, s.Status)
	assert.Equal(t, "zone-a", s.CurrentZoneID)
	assert.Equal(t, "heading out", s.Note)
	assert.False(t, s.UpdatedAt.IsZero())

	err := m.UpdateDriverStatus(ctx, store.StatusUpdate{DriverID: "driver-missing"})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateNotification(t *testing.T) {
	m := New()
	id, err := m.CreateNotification(context.Background(), store.Notification{RecipientID: "driver-1", Title: "New delivery"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	n, ok := m.Notifications()[id]
	require.True(t, ok)
	assert.Equal(t, "driver-1", n.RecipientID)
}

func TestFailureInjection(t *testing.T) {
	m := New()
	boom := errors.New("injected")
	m.Fail["ListDriverStatuses"] = boom

	_, err := m.ListDriverStatuses(context.Background(), store.StatusFilter{})
	require.ErrorIs(t, err, boom)
}

func TestCoverageStore_GetZoneCoverage(t *testing.T) {
	m := New()
	m.PutZone(model.Zone{ID: "zone-a", Active: true})
	m.PutZone(model.Zone{ID: "zone-b", Active: false})
	m.PutStatus(model.DriverStatusRecord{DriverID: "driver-1", Status: model.DriverAvailable, IsOnline: true, CurrentZoneID: "zone-a"})
	m.PutInventory(model.DriverInventoryRecord{DriverID: "driver-1", ProductID: "product-x", Quantity: 3})
	m.PutOrder(model.Order{ID: "order-1", Status: model.StatusReady, AssignedDriver: "driver-1"})

	cs := WithCoverage(m)
	ctx := context.Background()

	snaps, err := cs.GetZoneCoverage(ctx, store.CoverageFilter{IncludeOrders: true})
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Len(t, snaps[0].OnlineDrivers, 1)
	assert.Len(t, snaps[0].IdleDrivers, 1)
	assert.Len(t, snaps[0].Inventory, 1)
	assert.Len(t, snaps[0].OutstandingOrders, 1)

	activeOnly, err := cs.GetZoneCoverage(ctx, store.CoverageFilter{OnlyActive: true})
	require.NoError(t, err)
	require.Len(t, activeOnly, 1)
	assert.Equal(t, "zone-a", activeOnly[0].Zone.ID)

	noOrders, err := cs.GetZoneCoverage(ctx, store.CoverageFilter{ZoneID: "zone-a"})
	require.NoError(t, err)
	require.Len(t, noOrders, 1)
	assert.Empty(t, noOrders[0].OutstandingOrders)
}
