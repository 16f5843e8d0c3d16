// Package workload provides read-only analytics over driver and order data:
// per-driver utilization, textual rebalancing recommendations and a heuristic
// time-to-availability forecast. It is reporting, not a control loop; nothing
// here reassigns orders.
package workload

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/avelot/fleetdispatch/core/logger"
	"github.com/avelot/fleetdispatch/core/model"
	"github.com/avelot/fleetdispatch/core/store"
)

// DefaultOverloadThreshold is the utilization percentage above which a driver
// counts as overloaded.
const DefaultOverloadThreshold = 80.0

// underloadedCeiling caps the utilization of a driver eligible to receive
// work in a rebalancing recommendation.
const underloadedCeiling = 50.0

// Config defines workload analytics settings.
type Config struct {
	// AverageDeliveryMinutes is the assumed time one active order keeps a
	// driver busy.
	AverageDeliveryMinutes int `json:"average_delivery_minutes"`
	// OverloadThreshold overrides DefaultOverloadThreshold when positive.
	OverloadThreshold float64 `json:"overload_threshold"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.AverageDeliveryMinutes <= 0 {
		c.AverageDeliveryMinutes = 30
	}
	if c.OverloadThreshold <= 0 {
		c.OverloadThreshold = DefaultOverloadThreshold
	}
}

// DriverWorkload is one driver's utilization snapshot.
type DriverWorkload struct {
	DriverID     string  `json:"driver_id"`
	ActiveOrders int     `json:"active_orders"`
	MaxCapacity  int     `json:"max_capacity"`
	Utilization  float64 `json:"utilization"`
	IsOverloaded bool    `json:"is_overloaded"`
}

// Distribution is the fleet-wide utilization picture with summary statistics.
type Distribution struct {
	Drivers         []DriverWorkload `json:"drivers"`
	MeanUtilization float64          `json:"mean_utilization"`
	StdDev          float64          `json:"std_dev"`
}

// Recommendation suggests moving work between two drivers. It is advisory
// text for an operator, never an automatic reassignment.
type Recommendation struct {
	FromDriverID string `json:"from_driver_id"`
	ToDriverID   string `json:"to_driver_id"`
	Text         string `json:"text"`
}

// Balancer computes workload analytics from the persistence port.
type Balancer struct {
	backend store.Backend
	cfg     Config
	timeout time.Duration
	log     logger.Logger
}

// NewBalancer creates a Balancer. A zero timeout defaults to five seconds.
func NewBalancer(backend store.Backend, cfg Config, timeout time.Duration, log logger.Logger) *Balancer {
	cfg.SetDefaults()
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Balancer{backend: backend, cfg: cfg, timeout: timeout, log: log}
}

func (b *Balancer) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, b.timeout)
}

// WorkloadDistribution returns per-driver utilization for every online
// driver, sorted by utilization descending. Active order counts come from the
// order list when the backend can serve it and from the status records
// otherwise.
func (b *Balancer) WorkloadDistribution(ctx context.Context) (Distribution, error) {
	sctx, cancel := b.opCtx(ctx)
	statuses, err := b.backend.ListDriverStatuses(sctx, store.StatusFilter{OnlyOnline: true})
	cancel()
	if err != nil {
		return Distribution{}, err
	}

	counts, haveOrders := b.activeOrderCounts(ctx)

	dist := Distribution{Drivers: make([]DriverWorkload, 0, len(statuses))}
	utils := make([]float64, 0, len(statuses))
	for _, s := range statuses {
		active := s.ActiveOrders
		if haveOrders {
			active = counts[s.DriverID]
		}
		cap := s.Capacity()
		w := DriverWorkload{
			DriverID:     s.DriverID,
			ActiveOrders: active,
			MaxCapacity:  cap,
			Utilization:  float64(active) / float64(cap) * 100,
		}
		w.IsOverloaded = w.Utilization > b.cfg.OverloadThreshold
		dist.Drivers = append(dist.Drivers, w)
		utils = append(utils, w.Utilization)
	}
	sort.Slice(dist.Drivers, func(i, j int) bool {
		if dist.Drivers[i].Utilization != dist.Drivers[j].Utilization {
			return dist.Drivers[i].Utilization > dist.Drivers[j].Utilization
		}
		return dist.Drivers[i].DriverID < dist.Drivers[j].DriverID
	})
	if len(utils) > 0 {
		dist.MeanUtilization = stat.Mean(utils, nil)
	}
	if len(utils) > 1 {
		dist.StdDev = stat.StdDev(utils, nil)
	}
	return dist, nil
}

// activeOrderCounts counts outstanding orders per assigned driver. The second
// return is false when the backend cannot list orders.
func (b *Balancer) activeOrderCounts(ctx context.Context) (map[string]int, bool) {
	or, ok := b.backend.(store.OrderReader)
	if !ok {
		return nil, false
	}
	octx, cancel := b.opCtx(ctx)
	orders, err := or.ListOrders(octx, store.OrderFilter{Statuses: model.OutstandingStatuses()})
	cancel()
	if err != nil {
		b.log.Warnf("order list failed, using status-record order counts: %v", err)
		return nil, false
	}
	counts := make(map[string]int)
	for _, o := range orders {
		if o.AssignedDriver != "" {
			counts[o.AssignedDriver]++
		}
	}
	return counts, true
}

// BalanceWorkload pairs each driver above the threshold with the
// least-utilized driver under 50% and emits a textual recommendation. A
// non-positive threshold uses the configured one.
func (b *Balancer) BalanceWorkload(ctx context.Context, threshold float64) ([]Recommendation, error) {
	if threshold <= 0 {
		threshold = b.cfg.OverloadThreshold
	}
	dist, err := b.WorkloadDistribution(ctx)
	if err != nil {
		return nil, err
	}

	var receivers []DriverWorkload
	for _, w := range dist.Drivers {
		if w.Utilization < underloadedCeiling {
			receivers = append(receivers, w)
		}
	}
	// Least utilized first so each overloaded driver pairs with the idlest
	// remaining receiver.
	sort.Slice(receivers, func(i, j int) bool {
		if receivers[i].Utilization != receivers[j].Utilization {
			return receivers[i].Utilization < receivers[j].Utilization
		}
		return receivers[i].DriverID < receivers[j].DriverID
	})

	var recs []Recommendation
	next := 0
	for _, w := range dist.Drivers {
		if w.Utilization <= threshold {
			continue
		}
		if next >= len(receivers) {
			b.log.Infof("driver %s overloaded (%.0f%%) but no under-utilized driver left to recommend", w.DriverID, w.Utilization)
			break
		}
		r := receivers[next]
		next++
		recs = append(recs, Recommendation{
			FromDriverID: w.DriverID,
			ToDriverID:   r.DriverID,
			Text: fmt.Sprintf("driver %s is at %.0f%% utilization (%d orders); consider moving work to %s at %.0f%% (%d orders)",
				w.DriverID, w.Utilization, w.ActiveOrders, r.DriverID, r.Utilization, r.ActiveOrders),
		})
	}
	return recs, nil
}
