package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelot/fleetdispatch/config"
	"github.com/avelot/fleetdispatch/core/coverage"
	"github.com/avelot/fleetdispatch/core/dispatch"
	"github.com/avelot/fleetdispatch/core/model"
	"github.com/avelot/fleetdispatch/infra/store/memory"
)

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"zones": [{"id": "zone-a", "name": "North", "active": true}],
		"drivers": [{"driver_id": "driver-1", "status": "available", "is_online": true, "current_zone_id": "zone-a"}],
		"assignments": [{"driver_id": "driver-1", "zone_id": "zone-a", "active": true}],
		"inventory": [{"driver_id": "driver-1", "product_id": "product-x", "quantity": 6}],
		"orders": [{"id": "order-1", "status": "new", "items": [{"product_id": "product-x", "quantity": 2}]}]
	}`), 0644))
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	var cfg config.Config
	cfg.Store.SeedPath = writeSeed(t)
	cfg.Dispatch.SetDefaults()
	cfg.Workload.SetDefaults()
	return &cfg
}

func TestNew_RequiresSeedPath(t *testing.T) {
	var cfg config.Config
	cfg.Dispatch.SetDefaults()
	_, err := New(&cfg)
	require.Error(t, err)
}

func TestNew_EndToEndAssignment(t *testing.T) {
	svc, err := New(testConfig(t))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	cs, ok := svc.Backend.(*memory.CoverageStore)
	require.True(t, ok, "seeded backend should carry the coverage capability")

	order, ok := cs.Order("order-1")
	require.True(t, ok)

	res, err := svc.Orchestrator.AssignOrder(context.Background(), order, "zone-a", dispatch.AssignOptions{})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "driver-1", res.DriverID)

	rep, err := svc.Coverage.Snapshot(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, rep.Coverage, 1)
	assert.Len(t, rep.Coverage[0].OnlineDrivers, 1)

	dist, err := svc.Workload.WorkloadDistribution(context.Background())
	require.NoError(t, err)
	require.Len(t, dist.Drivers, 1)
	assert.Equal(t, 1, dist.Drivers[0].ActiveOrders)
}

func TestNewWithBackend_FallbackCoverage(t *testing.T) {
	cfg := testConfig(t)
	mem := memory.New()
	mem.PutStatus(model.DriverStatusRecord{DriverID: "driver-1", Status: model.DriverAvailable, IsOnline: true})

	svc, err := NewWithBackend(cfg, mem)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	if _, ok := svc.Coverage.(*coverage.FallbackProvider); !ok {
		t.Fatalf("backend without the aggregate query should use the fallback provider, got %T", svc.Coverage)
	}
}

func TestService_AuditEnabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Audit.Enabled = true
	cfg.Audit.Path = filepath.Join(t.TempDir(), "assignments.jsonl")

	svc, err := New(cfg)
	require.NoError(t, err)

	cs := svc.Backend.(*memory.CoverageStore)
	order, _ := cs.Order("order-1")
	_, err = svc.Orchestrator.AssignOrder(context.Background(), order, "zone-a", dispatch.AssignOptions{SkipNotification: true})
	require.NoError(t, err)
	require.NoError(t, svc.Close())

	data, err := os.ReadFile(cfg.Audit.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"order_id":"order-1"`)
}
