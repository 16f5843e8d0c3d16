// Package store defines the persistence port the dispatch core depends on.
// Each operation family lives in its own interface so that backends can
// implement only what they support; callers probe capabilities with type
// assertions and surface missing ones as a CapabilityError instead of a
// silent empty result.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/avelot/fleetdispatch/core/model"
)

// ErrNotFound is returned by writers when the target row does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrPermissionDenied is returned when the backend rejects a write for
// authorization reasons.
var ErrPermissionDenied = errors.New("store: permission denied")

// CapabilityError reports that a backend does not implement a port operation.
type CapabilityError struct {
	Op string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("store: operation %s not supported by backend", e.Op)
}

// StatusFilter narrows ListDriverStatuses.
type StatusFilter struct {
	ZoneID     string
	OnlyOnline bool
}

// AssignmentFilter narrows ListDriverZones.
type AssignmentFilter struct {
	ZoneID     string
	DriverID   string
	ActiveOnly bool
}

// InventoryFilter narrows ListDriverInventory. An empty DriverIDs slice
// matches every driver.
type InventoryFilter struct {
	DriverIDs []string
	ProductID string
}

// ZoneFilter narrows ListZones.
type ZoneFilter struct {
	BusinessID string
	City       string
	Region     string
}

// OrderFilter narrows ListOrders. Statuses empty means all statuses.
type OrderFilter struct {
	Statuses []model.OrderStatus
	Query    string
}

// CoverageFilter narrows GetZoneCoverage.
type CoverageFilter struct {
	ZoneID        string
	IncludeOrders bool
	OnlyActive    bool
}

// OrderUpdate is a partial update applied to an order. Nil fields are left
// untouched; AssignedDriver pointing at an empty string clears the field.
type OrderUpdate struct {
	Status         *model.OrderStatus
	AssignedDriver *string
}

// StatusUpdate mutates a driver's status row.
type StatusUpdate struct {
	DriverID string
	Status   model.DriverStatus
	ZoneID   string
	IsOnline *bool
	Note     string
}

// MovementEntry is one append-only movement-log record: zone joins/leaves,
// status changes, inventory changes and order assignments.
type MovementEntry struct {
	DriverID       string
	ZoneID         string
	ProductID      string
	QuantityChange int
	Action         string
	Details        string
}

// Notification is a message addressed to a driver.
type Notification struct {
	RecipientID string
	Title       string
	Message     string
	Type        string
	ActionURL   string
}

// Backend is the minimal surface every dispatch backend provides. All other
// capabilities are optional and probed with type assertions against the same
// value.
type Backend interface {
	StatusReader
}

// StatusReader lists driver status records.
type StatusReader interface {
	ListDriverStatuses(ctx context.Context, f StatusFilter) ([]model.DriverStatusRecord, error)
}

// AssignmentReader lists driver/zone assignment rows.
type AssignmentReader interface {
	ListDriverZones(ctx context.Context, f AssignmentFilter) ([]model.DriverZoneAssignment, error)
}

// InventoryReader lists the stock drivers carry.
type InventoryReader interface {
	ListDriverInventory(ctx context.Context, f InventoryFilter) ([]model.DriverInventoryRecord, error)
}

// ZoneReader lists zones.
type ZoneReader interface {
	ListZones(ctx context.Context, f ZoneFilter) ([]model.Zone, error)
}

// OrderReader lists orders.
type OrderReader interface {
	ListOrders(ctx context.Context, f OrderFilter) ([]model.Order, error)
}

// OrderWriter applies partial updates to orders.
type OrderWriter interface {
	UpdateOrder(ctx context.Context, id string, u OrderUpdate) error
}

// StatusWriter mutates driver status rows.
type StatusWriter interface {
	UpdateDriverStatus(ctx context.Context, u StatusUpdate) error
}

// MovementLogger appends movement-log entries.
type MovementLogger interface {
	LogDriverMovement(ctx context.Context, e MovementEntry) error
}

// NotificationWriter creates driver notifications and returns their id.
type NotificationWriter interface {
	CreateNotification(ctx context.Context, n Notification) (string, error)
}

// CoverageReader is the optional optimized aggregate query. Backends without
// it are served by the fallback coverage provider instead.
type CoverageReader interface {
	GetZoneCoverage(ctx context.Context, f CoverageFilter) ([]model.ZoneCoverageSnapshot, error)
}
