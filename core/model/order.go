package model

import "time"

// OrderStatus is the lifecycle state of an order. Statuses form an ordered
// progression from StatusNew to StatusDelivered; StatusCancelled is a
// terminal side state reachable from any point before delivery.
type OrderStatus string

const (
	StatusNew            OrderStatus = "new"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPreparing      OrderStatus = "preparing"
	StatusReady          OrderStatus = "ready"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

// statusRank orders the lifecycle. Cancelled sits outside the progression.
var statusRank = map[OrderStatus]int{
	StatusNew:            0,
	StatusConfirmed:      1,
	StatusPreparing:      2,
	StatusReady:          3,
	StatusOutForDelivery: 4,
	StatusDelivered:      5,
}

// Rank returns the position of the status in the lifecycle, or -1 for
// cancelled and unknown statuses.
func (s OrderStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// Outstanding reports whether an order in this status is assigned but not yet
// completed: confirmed up to and including out_for_delivery.
func (s OrderStatus) Outstanding() bool {
	r := s.Rank()
	return r >= statusRank[StatusConfirmed] && r <= statusRank[StatusOutForDelivery]
}

// OutstandingStatuses lists the statuses considered in-flight, in lifecycle order.
func OutstandingStatuses() []OrderStatus {
	return []OrderStatus{StatusConfirmed, StatusPreparing, StatusReady, StatusOutForDelivery}
}

// OrderItem is one required product line of an order.
type OrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Order represents a customer order as seen by the dispatch subsystem.
// AssignedDriver holds a driver identifier, not a foreign-key object; it is
// set exactly when the order is at or past StatusConfirmed outside of an
// explicit unassignment flow.
type Order struct {
	ID             string                    `json:"id"`
	Status         OrderStatus               `json:"status"`
	Items          []OrderItem               `json:"items"`
	AssignedDriver string                    `json:"assigned_driver,omitempty"`
	ZoneID         string                    `json:"zone_id,omitempty"`
	Dropoff        *GeoPoint                 `json:"dropoff,omitempty"`
	StatusTimes    map[OrderStatus]time.Time `json:"status_times,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
}

// TotalUnits returns the sum of required quantities across all items.
func (o Order) TotalUnits() int {
	total := 0
	for _, it := range o.Items {
		total += it.Quantity
	}
	return total
}
