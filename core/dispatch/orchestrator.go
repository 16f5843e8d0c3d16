package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avelot/fleetdispatch/core/dispatch/audit"
	"github.com/avelot/fleetdispatch/core/events"
	"github.com/avelot/fleetdispatch/core/logger"
	"github.com/avelot/fleetdispatch/core/metrics"
	"github.com/avelot/fleetdispatch/core/model"
	"github.com/avelot/fleetdispatch/core/store"
	"github.com/avelot/fleetdispatch/internal/eventbus"
)

// MovementOrderAssigned tags the movement-log entry written for every
// successful assignment.
const MovementOrderAssigned = "order_assigned"

// AssignOptions tunes a single assignment. The zero value notifies the
// assigned driver and uses a generated note.
type AssignOptions struct {
	// SkipNotification suppresses the best-effort driver notification.
	SkipNotification bool
	// Note is attached to the driver status update and the movement log.
	Note string
}

// Orchestrator commits a ranked assignment: it runs the Evaluator, takes the
// top candidate, performs the order and driver mutations plus the movement
// log entry under a per-driver lease, and emits a best-effort notification.
type Orchestrator struct {
	backend   store.Backend
	evaluator *Evaluator
	logger    logger.Logger
	sink      metrics.Sink
	bus       eventbus.EventBus
	store     audit.Store
	notifier  store.NotificationWriter
	leases    *driverLeases
	timeout   time.Duration
}

// NewOrchestrator creates an Orchestrator. backend and evaluator are
// mandatory; a nil sink records nothing and a nil bus publishes nothing.
func NewOrchestrator(backend store.Backend, evaluator *Evaluator, log logger.Logger, sink metrics.Sink, bus eventbus.EventBus, timeout time.Duration) (*Orchestrator, error) {
	if backend == nil || evaluator == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to NewOrchestrator")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Orchestrator{
		backend:   backend,
		evaluator: evaluator,
		logger:    log,
		sink:      sink,
		bus:       bus,
		leases:    newDriverLeases(),
		timeout:   timeout,
	}, nil
}

// SetAuditStore configures the store used to persist assignment decisions.
func (o *Orchestrator) SetAuditStore(s audit.Store) {
	o.store = s
}

// SetNotifier overrides the backend's notification capability with an
// external writer, e.g. an MQTT publisher.
func (o *Orchestrator) SetNotifier(nw store.NotificationWriter) {
	o.notifier = nw
}

func (o *Orchestrator) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.timeout)
}

// AssignOrder assigns the order to the best eligible driver in zoneID (or
// anywhere, when zoneID is empty). On success the order is confirmed with the
// driver attached, the driver is marked delivering and a movement-log entry
// is appended. Exactly one of two concurrent calls targeting the same driver
// succeeds; the loser gets ReasonDriverAlreadyAssigned.
//
//gocyclo:ignore
func (o *Orchestrator) AssignOrder(ctx context.Context, order model.Order, zoneID string, opts AssignOptions) (model.AssignmentResult, error) {
	start := time.Now()
	candidates, err := o.evaluator.FindEligibleDrivers(ctx, zoneID, order.Items)
	if err != nil {
		res := model.AssignmentResult{Reason: model.ReasonError, ZoneID: zoneID}
		o.finish(order, res, len(candidates), start)
		return res, err
	}
	if len(candidates) == 0 {
		reason := model.ReasonNoZone
		if zoneID != "" {
			reason = model.ReasonNoCandidates
		}
		res := model.AssignmentResult{Reason: reason, ZoneID: zoneID}
		o.finish(order, res, 0, start)
		return res, nil
	}

	best := candidates[0]
	driverID := best.Driver.DriverID

	release := o.leases.acquire(driverID)
	defer release()

	if conflicted, err := o.driverTaken(ctx, driverID); err != nil {
		res := model.AssignmentResult{Reason: model.ReasonError, ZoneID: zoneID}
		o.finish(order, res, len(candidates), start)
		return res, err
	} else if conflicted {
		assignmentConflicts.Inc()
		if o.bus != nil {
			o.bus.Publish(events.ConflictEvent{OrderID: order.ID, DriverID: driverID, Time: time.Now()})
		}
		o.logger.Warnf("driver %s taken by concurrent assignment, order %s not assigned", driverID, order.ID)
		res := model.AssignmentResult{Reason: model.ReasonDriverAlreadyAssigned, DriverID: driverID, ZoneID: zoneID}
		o.finish(order, res, len(candidates), start)
		return res, nil
	}

	targetZone := zoneID
	if targetZone == "" {
		targetZone = best.Driver.CurrentZoneID
	}
	note := opts.Note
	if note == "" {
		note = fmt.Sprintf("assigned to order %s", order.ID)
	}

	if err := o.commit(ctx, order, driverID, targetZone, note); err != nil {
		reason := model.ReasonError
		if errors.Is(err, store.ErrPermissionDenied) {
			reason = model.ReasonPermissionDenied
		}
		res := model.AssignmentResult{Reason: reason, DriverID: driverID, ZoneID: targetZone}
		o.finish(order, res, len(candidates), start)
		return res, err
	}

	res := model.AssignmentResult{
		Success:  true,
		DriverID: driverID,
		ZoneID:   targetZone,
		Score:    best.Score,
	}
	if !opts.SkipNotification {
		res.NotificationID = o.notify(ctx, order, driverID)
	}
	o.logger.Infof("order %s assigned to driver %s (score %.0f)", order.ID, driverID, best.Score)
	o.finish(order, res, len(candidates), start)
	return res, nil
}

// driverTaken re-reads the driver's status row under the lease. A driver that
// went offline or started delivering since the eligibility check lost the
// race to a concurrent commit.
func (o *Orchestrator) driverTaken(ctx context.Context, driverID string) (bool, error) {
	sctx, cancel := o.opCtx(ctx)
	defer cancel()
	statuses, err := o.backend.ListDriverStatuses(sctx, store.StatusFilter{OnlyOnline: true})
	if err != nil {
		return false, err
	}
	for _, s := range statuses {
		if s.DriverID != driverID {
			continue
		}
		taken := !s.IsOnline || (s.Status != model.DriverAvailable && s.Status != model.DriverOnBreak)
		return taken, nil
	}
	return true, nil
}

// commit performs the three-step assignment with compensation: if the driver
// status update fails after the order was mutated, the order is reverted to
// its previous state.
func (o *Orchestrator) commit(ctx context.Context, order model.Order, driverID, zoneID, note string) error {
	ow, ok := o.backend.(store.OrderWriter)
	if !ok {
		return &store.CapabilityError{Op: "UpdateOrder"}
	}
	sw, ok := o.backend.(store.StatusWriter)
	if !ok {
		return &store.CapabilityError{Op: "UpdateDriverStatus"}
	}
	ml, ok := o.backend.(store.MovementLogger)
	if !ok {
		return &store.CapabilityError{Op: "LogDriverMovement"}
	}

	confirmed := model.StatusConfirmed
	octx, cancel := o.opCtx(ctx)
	err := ow.UpdateOrder(octx, order.ID, store.OrderUpdate{Status: &confirmed, AssignedDriver: &driverID})
	cancel()
	if err != nil {
		return fmt.Errorf("update order %s: %w", order.ID, err)
	}

	update := store.StatusUpdate{DriverID: driverID, Status: model.DriverDelivering, ZoneID: zoneID, Note: note}
	if err := o.withRetry(ctx, func(c context.Context) error { return sw.UpdateDriverStatus(c, update) }); err != nil {
		o.revertOrder(ctx, ow, order)
		return fmt.Errorf("update driver %s status: %w", driverID, err)
	}

	entry := store.MovementEntry{DriverID: driverID, ZoneID: zoneID, Action: MovementOrderAssigned, Details: note}
	if err := o.withRetry(ctx, func(c context.Context) error { return ml.LogDriverMovement(c, entry) }); err != nil {
		// The assignment itself is committed; losing the audit trail is not
		// worth unwinding two real-world mutations. Surface it loudly instead.
		movementLogFailures.Inc()
		o.logger.Errorf("movement log append failed for driver %s: %v", driverID, err)
	}
	return nil
}

// withRetry runs fn with a per-call timeout and retries once on failure.
func (o *Orchestrator) withRetry(ctx context.Context, fn func(context.Context) error) error {
	c, cancel := o.opCtx(ctx)
	err := fn(c)
	cancel()
	if err == nil {
		return nil
	}
	c, cancel = o.opCtx(ctx)
	defer cancel()
	return fn(c)
}

// revertOrder undoes the order mutation after a failed driver update.
func (o *Orchestrator) revertOrder(ctx context.Context, ow store.OrderWriter, order model.Order) {
	prev := order.Status
	cleared := order.AssignedDriver
	err := o.withRetry(ctx, func(c context.Context) error {
		return ow.UpdateOrder(c, order.ID, store.OrderUpdate{Status: &prev, AssignedDriver: &cleared})
	})
	if err != nil {
		o.logger.Errorf("compensation failed, order %s left assigned without driver update: %v", order.ID, err)
	}
}

// notify creates the driver notification. Failures are logged and swallowed;
// they never affect the assignment outcome.
func (o *Orchestrator) notify(ctx context.Context, order model.Order, driverID string) string {
	nw := o.notifier
	if nw == nil {
		var ok bool
		nw, ok = o.backend.(store.NotificationWriter)
		if !ok {
			o.logger.Debugf("notification skipped: backend has no notification support")
			return ""
		}
	}
	nctx, cancel := o.opCtx(ctx)
	defer cancel()
	id, err := nw.CreateNotification(nctx, store.Notification{
		RecipientID: driverID,
		Title:       "New delivery",
		Message:     fmt.Sprintf("Order %s has been assigned to you", order.ID),
		Type:        "order_assigned",
		ActionURL:   "/orders/" + order.ID,
	})
	if o.bus != nil {
		o.bus.Publish(events.NotificationEvent{DriverID: driverID, NotificationID: id, Err: err})
	}
	if err != nil {
		notificationFailures.Inc()
		o.logger.Warnf("notification to driver %s failed: %v", driverID, err)
		return ""
	}
	return id
}

// finish records the attempt on the metrics sink, the event bus and the
// audit store.
func (o *Orchestrator) finish(order model.Order, res model.AssignmentResult, candidates int, start time.Time) {
	outcome := string(res.Reason)
	if res.Success {
		outcome = "success"
	}
	assignmentsTotal.WithLabelValues(outcome).Inc()
	assignmentLatency.Observe(time.Since(start).Seconds())

	if err := o.sink.RecordAssignment(metrics.AssignmentRecord{
		OrderID:    order.ID,
		DriverID:   res.DriverID,
		ZoneID:     res.ZoneID,
		Score:      res.Score,
		Success:    res.Success,
		Reason:     res.Reason,
		Candidates: candidates,
		Time:       time.Now(),
	}); err != nil {
		o.logger.Errorf("metrics error: %v", err)
	}
	if o.bus != nil {
		o.bus.Publish(events.AssignmentEvent{
			OrderID:  order.ID,
			DriverID: res.DriverID,
			ZoneID:   res.ZoneID,
			Score:    res.Score,
			Success:  res.Success,
			Reason:   res.Reason,
			Time:     time.Now(),
		})
	}
	if o.store != nil {
		_ = o.store.Append(context.Background(), audit.Record{
			Timestamp:      time.Now(),
			OrderID:        order.ID,
			DriverID:       res.DriverID,
			ZoneID:         res.ZoneID,
			Score:          res.Score,
			Success:        res.Success,
			Reason:         string(res.Reason),
			Candidates:     candidates,
			NotificationID: res.NotificationID,
		})
	}
}
