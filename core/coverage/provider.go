// Package coverage builds per-zone operational snapshots: online and idle
// drivers, active zone assignments, carried stock and outstanding orders.
//
// Two providers satisfy the same contract. DirectProvider uses the backend's
// optimized aggregate query when present; FallbackProvider reconstructs the
// same report from primitive queries. NewProvider probes the backend and
// picks the right one, so dashboards render identically either way.
package coverage

import (
	"context"
	"sort"
	"time"

	"github.com/avelot/fleetdispatch/core/logger"
	"github.com/avelot/fleetdispatch/core/metrics"
	"github.com/avelot/fleetdispatch/core/model"
	"github.com/avelot/fleetdispatch/core/store"
	"github.com/avelot/fleetdispatch/internal/eventbus"
)

// Provider produces a coverage report, optionally narrowed to one zone.
type Provider interface {
	Snapshot(ctx context.Context, zoneID string) (model.CoverageReport, error)
}

// NewProvider selects the direct provider when the backend exposes the
// aggregate coverage query and the fallback provider otherwise.
func NewProvider(backend store.Backend, log logger.Logger, sink metrics.Sink, bus eventbus.EventBus, timeout time.Duration) Provider {
	if log == nil {
		log = logger.NopLogger{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if cr, ok := backend.(store.CoverageReader); ok {
		return &DirectProvider{backend: backend, reader: cr, log: log, sink: sink, timeout: timeout}
	}
	return &FallbackProvider{backend: backend, log: log, sink: sink, bus: bus, timeout: timeout}
}

// recordPass reports one aggregation pass to the metrics sink.
func recordPass(sink metrics.Sink, log logger.Logger, rep model.CoverageReport, degraded int, source string) {
	coveragePasses.WithLabelValues(source).Inc()
	cr, ok := sink.(metrics.CoverageRecorder)
	if !ok {
		return
	}
	online := 0
	for _, snap := range rep.Coverage {
		online += len(snap.OnlineDrivers)
	}
	if err := cr.RecordCoverage(metrics.CoverageRecord{
		Zones:             len(rep.Coverage),
		OnlineDrivers:     online,
		UnassignedDrivers: len(rep.UnassignedDrivers),
		OutstandingOrders: len(rep.OutstandingOrders),
		DegradedSections:  degraded,
		Source:            source,
		Time:              time.Now(),
	}); err != nil {
		log.Errorf("coverage metrics error: %v", err)
	}
}

// sortReport gives every slice a deterministic order so repeated snapshots
// over unchanged data are structurally equal.
func sortReport(rep *model.CoverageReport) {
	sort.Slice(rep.Coverage, func(i, j int) bool { return rep.Coverage[i].Zone.ID < rep.Coverage[j].Zone.ID })
	for i := range rep.Coverage {
		snap := &rep.Coverage[i]
		sort.Slice(snap.OnlineDrivers, func(a, b int) bool { return snap.OnlineDrivers[a].DriverID < snap.OnlineDrivers[b].DriverID })
		sort.Slice(snap.IdleDrivers, func(a, b int) bool { return snap.IdleDrivers[a].DriverID < snap.IdleDrivers[b].DriverID })
		sort.Slice(snap.Assignments, func(a, b int) bool { return snap.Assignments[a].DriverID < snap.Assignments[b].DriverID })
		sort.Slice(snap.Inventory, func(a, b int) bool {
			if snap.Inventory[a].DriverID != snap.Inventory[b].DriverID {
				return snap.Inventory[a].DriverID < snap.Inventory[b].DriverID
			}
			return snap.Inventory[a].ProductID < snap.Inventory[b].ProductID
		})
		sort.Slice(snap.OutstandingOrders, func(a, b int) bool { return snap.OutstandingOrders[a].ID < snap.OutstandingOrders[b].ID })
	}
	sort.Slice(rep.UnassignedDrivers, func(i, j int) bool { return rep.UnassignedDrivers[i].DriverID < rep.UnassignedDrivers[j].DriverID })
	sort.Slice(rep.OutstandingOrders, func(i, j int) bool { return rep.OutstandingOrders[i].ID < rep.OutstandingOrders[j].ID })
}

// unionOutstanding de-duplicates per-zone outstanding orders by order id.
func unionOutstanding(snaps []model.ZoneCoverageSnapshot) []model.Order {
	seen := make(map[string]bool)
	var union []model.Order
	for _, snap := range snaps {
		for _, o := range snap.OutstandingOrders {
			if seen[o.ID] {
				continue
			}
			seen[o.ID] = true
			union = append(union, o)
		}
	}
	return union
}
