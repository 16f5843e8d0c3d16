package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelot/fleetdispatch/core/store"
)

func TestNewFromSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"zones": [{"id": "zone-a", "name": "North", "active": true}],
		"drivers": [{"driver_id": "driver-1", "status": "available", "is_online": true, "current_zone_id": "zone-a"}],
		"assignments": [{"driver_id": "driver-1", "zone_id": "zone-a", "active": true}],
		"inventory": [{"driver_id": "driver-1", "product_id": "product-x", "quantity": 4}],
		"orders": [{"id": "order-1", "status": "confirmed"}]
	}`), 0644))

	m, err := NewFromSeed(path)
	require.NoError(t, err)

	ctx := context.Background()
	statuses, err := m.ListDriverStatuses(ctx, store.StatusFilter{})
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, "driver-1", statuses[0].DriverID)

	zones, err := m.ListZones(ctx, store.ZoneFilter{})
	require.NoError(t, err)
	assert.Len(t, zones, 1)

	inv, err := m.ListDriverInventory(ctx, store.InventoryFilter{})
	require.NoError(t, err)
	require.Len(t, inv, 1)
	assert.Equal(t, 4, inv[0].Quantity)

	o, ok := m.Order("order-1")
	require.True(t, ok)
	assert.Equal(t, "confirmed", string(o.Status))
}

func TestNewFromSeed_Errors(t *testing.T) {
	_, err := NewFromSeed(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0644))
	_, err = NewFromSeed(bad)
	require.Error(t, err)
}
