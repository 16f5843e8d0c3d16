package model

import "time"

// DriverStatus is the availability state a driver reports.
type DriverStatus string

const (
	DriverAvailable  DriverStatus = "available"
	DriverOnBreak    DriverStatus = "on_break"
	DriverDelivering DriverStatus = "delivering"
	DriverOffShift   DriverStatus = "off_shift"
)

// DriverStatusRecord is the last known state of a driver, updated by the
// driver's own status and location pushes. A record with IsOnline false must
// never surface as a dispatch candidate.
type DriverStatusRecord struct {
	DriverID      string       `json:"driver_id"`
	Status        DriverStatus `json:"status"`
	IsOnline      bool         `json:"is_online"`
	CurrentZoneID string       `json:"current_zone_id,omitempty"`
	Location      *GeoPoint    `json:"location,omitempty"`
	Rating        float64      `json:"rating,omitempty"`
	ActiveOrders  int          `json:"active_orders,omitempty"`
	MaxCapacity   int          `json:"max_capacity,omitempty"`
	Note          string       `json:"note,omitempty"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Capacity returns the driver's concurrent order capacity, defaulting to
// DefaultDriverCapacity when the record carries none.
func (r DriverStatusRecord) Capacity() int {
	if r.MaxCapacity > 0 {
		return r.MaxCapacity
	}
	return DefaultDriverCapacity
}

// DefaultDriverCapacity is assumed when a status record does not declare one.
const DefaultDriverCapacity = 5

// Zone is a geographic dispatch partition drivers can be assigned to.
// Tenant scoping happens outside this subsystem.
type Zone struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region,omitempty"`
	City   string `json:"city,omitempty"`
	Active bool   `json:"active"`
}

// DriverZoneAssignment links a driver to a zone. A driver may hold several
// rows; only rows with Active true count toward zone preference, and any
// active match to the requested zone makes the driver zone-preferred.
type DriverZoneAssignment struct {
	DriverID  string    `json:"driver_id"`
	ZoneID    string    `json:"zone_id"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DriverInventoryRecord is one product line of the stock a driver physically
// carries, distinct from warehouse inventory. Quantity is never negative.
type DriverInventoryRecord struct {
	DriverID  string    `json:"driver_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	ZoneID    string    `json:"zone_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
