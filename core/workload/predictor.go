package workload

import (
	"context"
	"fmt"
	"time"

	"github.com/avelot/fleetdispatch/core/model"
	"github.com/avelot/fleetdispatch/core/store"
)

// Confidence qualifies an availability forecast.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// AvailabilityForecast estimates when a driver frees up. It is a heuristic
// based on active order count and the configured average delivery time, not a
// statistical model.
type AvailabilityForecast struct {
	DriverID        string        `json:"driver_id"`
	Available       bool          `json:"available"`
	EstimatedFreeIn time.Duration `json:"estimated_free_in"`
	Confidence      Confidence    `json:"confidence"`
	Reason          string        `json:"reason"`
}

// PredictDriverAvailability estimates whether the driver will be free within
// hoursAhead. Free-by time is activeOrders * averageDeliveryMinutes.
func (b *Balancer) PredictDriverAvailability(ctx context.Context, driverID string, hoursAhead float64) (AvailabilityForecast, error) {
	sctx, cancel := b.opCtx(ctx)
	statuses, err := b.backend.ListDriverStatuses(sctx, store.StatusFilter{})
	cancel()
	if err != nil {
		return AvailabilityForecast{}, err
	}
	var rec *model.DriverStatusRecord
	for i := range statuses {
		if statuses[i].DriverID == driverID {
			rec = &statuses[i]
			break
		}
	}
	if rec == nil {
		return AvailabilityForecast{}, fmt.Errorf("workload: unknown driver %s", driverID)
	}

	f := AvailabilityForecast{DriverID: driverID}
	if !rec.IsOnline || rec.Status == model.DriverOffShift {
		f.Confidence = ConfidenceLow
		f.Reason = fmt.Sprintf("driver %s is off shift; no return time is known", driverID)
		return f, nil
	}

	counts, haveOrders := b.activeOrderCounts(ctx)
	active := rec.ActiveOrders
	if haveOrders {
		active = counts[driverID]
	}

	horizon := time.Duration(hoursAhead * float64(time.Hour))
	freeIn := time.Duration(active*b.cfg.AverageDeliveryMinutes) * time.Minute
	f.EstimatedFreeIn = freeIn
	f.Available = freeIn <= horizon

	cap := rec.Capacity()
	switch {
	case active == 0:
		f.Confidence = ConfidenceHigh
		f.Reason = fmt.Sprintf("driver %s has no active orders and is %s", driverID, rec.Status)
	case active*2 <= cap:
		f.Confidence = ConfidenceMedium
		f.Reason = fmt.Sprintf("driver %s has %d active orders, estimated free in %s", driverID, active, freeIn)
	default:
		f.Confidence = ConfidenceLow
		f.Reason = fmt.Sprintf("driver %s is heavily loaded with %d active orders, estimated free in %s", driverID, active, freeIn)
	}
	return f, nil
}
