package dispatch

import (
	"context"
	"sort"
	"time"

	"github.com/avelot/fleetdispatch/core/logger"
	"github.com/avelot/fleetdispatch/core/model"
	"github.com/avelot/fleetdispatch/core/store"
)

// Evaluator builds and scores driver candidates for an order's item
// requirements. Scores combine zone preference, carried stock, driver status
// and item fulfillment; only fully matching candidates are eligible.
type Evaluator struct {
	backend store.Backend
	weights Weights
	timeout time.Duration
	log     logger.Logger
}

// NewEvaluator creates an Evaluator. A zero timeout defaults to five seconds.
func NewEvaluator(backend store.Backend, weights Weights, timeout time.Duration, log logger.Logger) *Evaluator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Evaluator{backend: backend, weights: weights, timeout: timeout, log: log}
}

func (e *Evaluator) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.timeout)
}

// FindEligibleDrivers returns the candidates that fully cover the order's
// items, sorted by score descending. Ties break on fewer active orders, then
// on driver id. An empty zoneID evaluates every online driver.
func (e *Evaluator) FindEligibleDrivers(ctx context.Context, zoneID string, items []model.OrderItem) ([]model.DriverCandidate, error) {
	all, err := e.EvaluateCandidates(ctx, zoneID, items)
	if err != nil {
		return nil, err
	}
	eligible := make([]model.DriverCandidate, 0, len(all))
	for _, c := range all {
		if c.Matches {
			eligible = append(eligible, c)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].Score != eligible[j].Score {
			return eligible[i].Score > eligible[j].Score
		}
		if eligible[i].Driver.ActiveOrders != eligible[j].Driver.ActiveOrders {
			return eligible[i].Driver.ActiveOrders < eligible[j].Driver.ActiveOrders
		}
		return eligible[i].Driver.DriverID < eligible[j].Driver.DriverID
	})
	return eligible, nil
}

// EvaluateCandidates scores every online driver against the required items,
// including drivers that do not fully match. Callers wanting the eligible
// list should use FindEligibleDrivers.
func (e *Evaluator) EvaluateCandidates(ctx context.Context, zoneID string, items []model.OrderItem) ([]model.DriverCandidate, error) {
	sctx, cancel := e.opCtx(ctx)
	statuses, err := e.backend.ListDriverStatuses(sctx, store.StatusFilter{ZoneID: zoneID, OnlyOnline: true})
	cancel()
	if err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		return nil, nil
	}

	ar, ok := e.backend.(store.AssignmentReader)
	if !ok {
		return nil, &store.CapabilityError{Op: "ListDriverZones"}
	}
	ir, ok := e.backend.(store.InventoryReader)
	if !ok {
		return nil, &store.CapabilityError{Op: "ListDriverInventory"}
	}

	ids := make([]string, 0, len(statuses))
	for _, s := range statuses {
		ids = append(ids, s.DriverID)
	}

	// Two independent queries merged in memory, not a join.
	actx, cancel := e.opCtx(ctx)
	assignments, err := ar.ListDriverZones(actx, store.AssignmentFilter{ActiveOnly: true})
	cancel()
	if err != nil {
		return nil, err
	}
	ictx, cancel := e.opCtx(ctx)
	inventory, err := ir.ListDriverInventory(ictx, store.InventoryFilter{DriverIDs: ids})
	cancel()
	if err != nil {
		return nil, err
	}

	byDriverAssign := make(map[string][]model.DriverZoneAssignment)
	for _, a := range assignments {
		byDriverAssign[a.DriverID] = append(byDriverAssign[a.DriverID], a)
	}
	byDriverInv := make(map[string][]model.DriverInventoryRecord)
	for _, inv := range inventory {
		byDriverInv[inv.DriverID] = append(byDriverInv[inv.DriverID], inv)
	}

	candidates := make([]model.DriverCandidate, 0, len(statuses))
	for _, s := range statuses {
		if !s.IsOnline {
			// Offline drivers must never become candidates, even if the
			// backend ignores the OnlyOnline filter.
			continue
		}
		c := e.evaluate(s, byDriverAssign[s.DriverID], byDriverInv[s.DriverID], zoneID, items)
		candidates = append(candidates, c)
	}
	e.log.Debugw("candidates evaluated", map[string]any{
		"zone":       zoneID,
		"drivers":    len(statuses),
		"candidates": len(candidates),
	})
	return candidates, nil
}

func (e *Evaluator) evaluate(s model.DriverStatusRecord, assignments []model.DriverZoneAssignment, inventory []model.DriverInventoryRecord, zoneID string, items []model.OrderItem) model.DriverCandidate {
	carried := make(map[string]int, len(inventory))
	for _, inv := range inventory {
		carried[inv.ProductID] += inv.Quantity
	}

	shortfalls := make([]model.ItemShortfall, 0, len(items))
	matches := true
	for _, it := range items {
		missing := it.Quantity - carried[it.ProductID]
		if missing < 0 {
			missing = 0
		}
		if missing > 0 {
			matches = false
		}
		shortfalls = append(shortfalls, model.ItemShortfall{ProductID: it.ProductID, Missing: missing})
	}

	c := model.DriverCandidate{
		Driver:      s,
		Assignments: assignments,
		Inventory:   inventory,
		Shortfalls:  shortfalls,
		Matches:     matches,
	}
	c.Score = e.score(c, zoneID)
	return c
}

func (e *Evaluator) score(c model.DriverCandidate, zoneID string) float64 {
	w := e.weights

	// No requested zone is treated as always-preferred; otherwise any active
	// assignment to the zone counts.
	zone := w.ZoneMiss
	if zoneID == "" || hasActiveAssignment(c.Assignments, zoneID) {
		zone = w.ZoneMatch
	}

	inv := float64(c.TotalCarriedUnits())
	if inv > w.InventoryCap {
		inv = w.InventoryCap
	}

	var status float64
	switch c.Driver.Status {
	case model.DriverAvailable:
		status = w.StatusAvailable
	case model.DriverOnBreak:
		status = w.StatusOnBreak
	}

	fulfillment := w.FullMatch
	if !c.Matches {
		fulfillment = w.PartialBase - w.MissingPenalty*float64(c.TotalMissingUnits())
		if fulfillment < 0 {
			fulfillment = 0
		}
	}

	return zone + inv + status + fulfillment
}

func hasActiveAssignment(assignments []model.DriverZoneAssignment, zoneID string) bool {
	for _, a := range assignments {
		if a.Active && a.ZoneID == zoneID {
			return true
		}
	}
	return false
}
