package coverage

import (
	"context"
	"time"

	"github.com/avelot/fleetdispatch/core/events"
	"github.com/avelot/fleetdispatch/core/logger"
	"github.com/avelot/fleetdispatch/core/metrics"
	"github.com/avelot/fleetdispatch/core/model"
	"github.com/avelot/fleetdispatch/core/store"
	"github.com/avelot/fleetdispatch/internal/eventbus"
)

// FallbackProvider reconstructs the coverage report from primitive queries:
// zones, online statuses, active assignments, carried inventory and
// outstanding orders. The four non-zone queries are independent; when one
// fails its section degrades to empty and the failure is logged, counted and
// published so dashboards never mistake a degraded snapshot for ground truth.
type FallbackProvider struct {
	backend store.Backend
	log     logger.Logger
	sink    metrics.Sink
	bus     eventbus.EventBus
	timeout time.Duration
}

func (p *FallbackProvider) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, p.timeout)
}

// degrade records a failed section query.
func (p *FallbackProvider) degrade(section string, err error) {
	coverageSectionErrors.WithLabelValues(section).Inc()
	p.log.Errorf("coverage %s query failed, section degraded to empty: %v", section, err)
	if p.bus != nil {
		p.bus.Publish(events.CoverageDegradedEvent{Section: section, Err: err, Time: time.Now()})
	}
}

// Snapshot implements Provider.
//
//gocyclo:ignore
func (p *FallbackProvider) Snapshot(ctx context.Context, zoneID string) (model.CoverageReport, error) {
	zr, ok := p.backend.(store.ZoneReader)
	if !ok {
		return model.CoverageReport{}, &store.CapabilityError{Op: "ListZones"}
	}
	zctx, cancel := p.opCtx(ctx)
	zones, err := zr.ListZones(zctx, store.ZoneFilter{})
	cancel()
	if err != nil {
		return model.CoverageReport{}, err
	}
	if zoneID != "" {
		filtered := zones[:0]
		for _, z := range zones {
			if z.ID == zoneID {
				filtered = append(filtered, z)
			}
		}
		zones = filtered
	}

	degraded := 0

	sctx, cancel := p.opCtx(ctx)
	statuses, err := p.backend.ListDriverStatuses(sctx, store.StatusFilter{OnlyOnline: true})
	cancel()
	if err != nil {
		p.degrade("driver_statuses", err)
		degraded++
		statuses = nil
	}

	var assignments []model.DriverZoneAssignment
	if ar, ok := p.backend.(store.AssignmentReader); ok {
		actx, cancel := p.opCtx(ctx)
		assignments, err = ar.ListDriverZones(actx, store.AssignmentFilter{ActiveOnly: true})
		cancel()
		if err != nil {
			p.degrade("zone_assignments", err)
			degraded++
			assignments = nil
		}
	} else {
		p.degrade("zone_assignments", &store.CapabilityError{Op: "ListDriverZones"})
		degraded++
	}

	ids := make([]string, 0, len(statuses))
	for _, s := range statuses {
		ids = append(ids, s.DriverID)
	}
	var inventory []model.DriverInventoryRecord
	if ir, ok := p.backend.(store.InventoryReader); ok && len(ids) > 0 {
		ictx, cancel := p.opCtx(ctx)
		inventory, err = ir.ListDriverInventory(ictx, store.InventoryFilter{DriverIDs: ids})
		cancel()
		if err != nil {
			p.degrade("driver_inventory", err)
			degraded++
			inventory = nil
		}
	} else if !ok {
		p.degrade("driver_inventory", &store.CapabilityError{Op: "ListDriverInventory"})
		degraded++
	}

	var orders []model.Order
	if or, ok := p.backend.(store.OrderReader); ok {
		octx, cancel := p.opCtx(ctx)
		orders, err = or.ListOrders(octx, store.OrderFilter{Statuses: model.OutstandingStatuses()})
		cancel()
		if err != nil {
			p.degrade("orders", err)
			degraded++
			orders = nil
		}
	} else {
		p.degrade("orders", &store.CapabilityError{Op: "ListOrders"})
		degraded++
	}

	rep := buildReport(zones, statuses, assignments, inventory, orders)
	sortReport(&rep)
	recordPass(p.sink, p.log, rep, degraded, "fallback")
	return rep, nil
}

// buildReport assembles per-zone snapshots from the primitive rows.
func buildReport(zones []model.Zone, statuses []model.DriverStatusRecord, assignments []model.DriverZoneAssignment, inventory []model.DriverInventoryRecord, orders []model.Order) model.CoverageReport {
	byZoneStatus := make(map[string][]model.DriverStatusRecord)
	for _, s := range statuses {
		byZoneStatus[s.CurrentZoneID] = append(byZoneStatus[s.CurrentZoneID], s)
	}
	byZoneAssign := make(map[string][]model.DriverZoneAssignment)
	for _, a := range assignments {
		byZoneAssign[a.ZoneID] = append(byZoneAssign[a.ZoneID], a)
	}
	byDriverInv := make(map[string][]model.DriverInventoryRecord)
	for _, inv := range inventory {
		byDriverInv[inv.DriverID] = append(byDriverInv[inv.DriverID], inv)
	}
	byDriverOrders := make(map[string][]model.Order)
	for _, o := range orders {
		if o.AssignedDriver != "" && o.Status.Outstanding() {
			byDriverOrders[o.AssignedDriver] = append(byDriverOrders[o.AssignedDriver], o)
		}
	}

	rep := model.CoverageReport{Coverage: make([]model.ZoneCoverageSnapshot, 0, len(zones))}
	for _, z := range zones {
		online := byZoneStatus[z.ID]
		snap := model.ZoneCoverageSnapshot{
			Zone:          z,
			OnlineDrivers: online,
			Assignments:   byZoneAssign[z.ID],
		}
		for _, d := range online {
			if d.Status == model.DriverAvailable {
				snap.IdleDrivers = append(snap.IdleDrivers, d)
			}
			snap.Inventory = append(snap.Inventory, byDriverInv[d.DriverID]...)
			snap.OutstandingOrders = append(snap.OutstandingOrders, byDriverOrders[d.DriverID]...)
		}
		rep.Coverage = append(rep.Coverage, snap)
	}

	for _, s := range statuses {
		if s.CurrentZoneID == "" {
			rep.UnassignedDrivers = append(rep.UnassignedDrivers, s)
		}
	}
	rep.OutstandingOrders = unionOutstanding(rep.Coverage)
	return rep
}
