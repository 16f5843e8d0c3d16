package memory

import (
	"context"

	"github.com/avelot/fleetdispatch/core/model"
	"github.com/avelot/fleetdispatch/core/store"
)

// CoverageStore adds the optimized aggregate coverage query on top of a
// MemStore, making the backend eligible for the direct coverage path.
type CoverageStore struct {
	*MemStore
}

// WithCoverage wraps the store so it implements store.CoverageReader.
func WithCoverage(m *MemStore) *CoverageStore {
	return &CoverageStore{MemStore: m}
}

// GetZoneCoverage implements store.CoverageReader. Snapshots are built per
// zone from the same rows the primitive queries expose, so direct and
// fallback aggregation agree on unchanged data.
func (c *CoverageStore) GetZoneCoverage(ctx context.Context, f store.CoverageFilter) ([]model.ZoneCoverageSnapshot, error) {
	if err := c.fail("GetZoneCoverage"); err != nil {
		return nil, err
	}

	zones, err := c.ListZones(ctx, store.ZoneFilter{})
	if err != nil {
		return nil, err
	}
	statuses, err := c.ListDriverStatuses(ctx, store.StatusFilter{OnlyOnline: true})
	if err != nil {
		return nil, err
	}
	assignments, err := c.ListDriverZones(ctx, store.AssignmentFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	var orders []model.Order
	if f.IncludeOrders {
		orders, err = c.ListOrders(ctx, store.OrderFilter{Statuses: model.OutstandingStatuses()})
		if err != nil {
			return nil, err
		}
	}

	byDriverOrders := make(map[string][]model.Order)
	for _, o := range orders {
		if o.AssignedDriver != "" {
			byDriverOrders[o.AssignedDriver] = append(byDriverOrders[o.AssignedDriver], o)
		}
	}

	var snaps []model.ZoneCoverageSnapshot
	for _, z := range zones {
		if f.ZoneID != "" && z.ID != f.ZoneID {
			continue
		}
		if f.OnlyActive && !z.Active {
			continue
		}
		snap := model.ZoneCoverageSnapshot{Zone: z}
		for _, s := range statuses {
			if s.CurrentZoneID != z.ID {
				continue
			}
			snap.OnlineDrivers = append(snap.OnlineDrivers, s)
			if s.Status == model.DriverAvailable {
				snap.IdleDrivers = append(snap.IdleDrivers, s)
			}
			inv, err := c.ListDriverInventory(ctx, store.InventoryFilter{DriverIDs: []string{s.DriverID}})
			if err != nil {
				return nil, err
			}
			snap.Inventory = append(snap.Inventory, inv...)
			snap.OutstandingOrders = append(snap.OutstandingOrders, byDriverOrders[s.DriverID]...)
		}
		for _, a := range assignments {
			if a.ZoneID == z.ID {
				snap.Assignments = append(snap.Assignments, a)
			}
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}
