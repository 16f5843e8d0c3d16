package coverage

import (
	"context"
	"time"

	"github.com/avelot/fleetdispatch/core/logger"
	"github.com/avelot/fleetdispatch/core/metrics"
	"github.com/avelot/fleetdispatch/core/model"
	"github.com/avelot/fleetdispatch/core/store"
)

// DirectProvider serves the report from the backend's pre-aggregated coverage
// query and supplements the pieces that query cannot express: the top-level
// unassigned-driver list and, when the snapshots carry no orders at all, the
// outstanding orders recovered from the order list.
type DirectProvider struct {
	backend store.Backend
	reader  store.CoverageReader
	log     logger.Logger
	sink    metrics.Sink
	timeout time.Duration
}

func (p *DirectProvider) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, p.timeout)
}

// Snapshot implements Provider.
func (p *DirectProvider) Snapshot(ctx context.Context, zoneID string) (model.CoverageReport, error) {
	cctx, cancel := p.opCtx(ctx)
	snaps, err := p.reader.GetZoneCoverage(cctx, store.CoverageFilter{ZoneID: zoneID, IncludeOrders: true, OnlyActive: false})
	cancel()
	if err != nil {
		return model.CoverageReport{}, err
	}

	rep := model.CoverageReport{Coverage: snaps}

	covered := make(map[string]bool)
	for _, snap := range snaps {
		for _, d := range snap.OnlineDrivers {
			covered[d.DriverID] = true
		}
	}

	sctx, cancel := p.opCtx(ctx)
	statuses, err := p.backend.ListDriverStatuses(sctx, store.StatusFilter{OnlyOnline: true})
	cancel()
	if err != nil {
		return model.CoverageReport{}, err
	}
	for _, s := range statuses {
		if s.CurrentZoneID == "" && !covered[s.DriverID] {
			rep.UnassignedDrivers = append(rep.UnassignedDrivers, s)
		}
	}

	rep.OutstandingOrders = unionOutstanding(snaps)
	if len(rep.OutstandingOrders) == 0 {
		// Some coverage sources omit orders; recover them from the order list
		// scoped to drivers the snapshots know about.
		if or, ok := p.backend.(store.OrderReader); ok {
			octx, cancel := p.opCtx(ctx)
			orders, err := or.ListOrders(octx, store.OrderFilter{Statuses: model.OutstandingStatuses()})
			cancel()
			if err != nil {
				p.log.Errorf("coverage order supplement failed: %v", err)
			} else {
				for _, o := range orders {
					if o.AssignedDriver != "" && covered[o.AssignedDriver] {
						rep.OutstandingOrders = append(rep.OutstandingOrders, o)
					}
				}
			}
		}
	}

	sortReport(&rep)
	recordPass(p.sink, p.log, rep, 0, "direct")
	return rep, nil
}
