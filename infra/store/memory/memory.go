// Package memory provides an in-memory implementation of the persistence
// port. It backs the CLI and the test suites; real deployments wire the port
// to the application's managed database instead.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avelot/fleetdispatch/core/model"
	"github.com/avelot/fleetdispatch/core/store"
)

// MemStore keeps every table in process memory. All methods are safe for
// concurrent use. Fail maps an operation name to an error returned instead of
// executing it, mirroring how the test doubles in this codebase inject
// failures. MemStore deliberately does not implement store.CoverageReader;
// wrap it in a CoverageStore to exercise the direct aggregation path.
type MemStore struct {
	mu            sync.RWMutex
	statuses      map[string]model.DriverStatusRecord
	zones         map[string]model.Zone
	assignments   []model.DriverZoneAssignment
	inventory     []model.DriverInventoryRecord
	orders        map[string]model.Order
	movements     []store.MovementEntry
	notifications map[string]store.Notification

	Fail map[string]error
}

// New creates an empty MemStore.
func New() *MemStore {
	return &MemStore{
		statuses:      make(map[string]model.DriverStatusRecord),
		zones:         make(map[string]model.Zone),
		orders:        make(map[string]model.Order),
		notifications: make(map[string]store.Notification),
		Fail:          make(map[string]error),
	}
}

func (m *MemStore) fail(op string) error {
	if err, ok := m.Fail[op]; ok {
		return err
	}
	return nil
}

// PutStatus upserts a driver status record.
func (m *MemStore) PutStatus(s model.DriverStatusRecord) {
	m.mu.Lock()
	m.statuses[s.DriverID] = s
	m.mu.Unlock()
}

// PutZone upserts a zone.
func (m *MemStore) PutZone(z model.Zone) {
	m.mu.Lock()
	m.zones[z.ID] = z
	m.mu.Unlock()
}

// PutAssignment appends a driver/zone assignment row.
func (m *MemStore) PutAssignment(a model.DriverZoneAssignment) {
	m.mu.Lock()
	m.assignments = append(m.assignments, a)
	m.mu.Unlock()
}

// PutInventory appends a driver inventory row.
func (m *MemStore) PutInventory(r model.DriverInventoryRecord) {
	m.mu.Lock()
	m.inventory = append(m.inventory, r)
	m.mu.Unlock()
}

// PutOrder upserts an order.
func (m *MemStore) PutOrder(o model.Order) {
	m.mu.Lock()
	m.orders[o.ID] = o
	m.mu.Unlock()
}

// Order returns a stored order by id.
func (m *MemStore) Order(id string) (model.Order, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	return o, ok
}

// Status returns a stored driver status by id.
func (m *MemStore) Status(driverID string) (model.DriverStatusRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.statuses[driverID]
	return s, ok
}

// Movements returns a copy of the movement log.
func (m *MemStore) Movements() []store.MovementEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]store.MovementEntry(nil), m.movements...)
}

// Notifications returns a copy of the created notifications keyed by id.
func (m *MemStore) Notifications() map[string]store.Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := make(map[string]store.Notification, len(m.notifications))
	for k, v := range m.notifications {
		cp[k] = v
	}
	return cp
}

// ListDriverStatuses implements store.StatusReader. Results are sorted by
// driver id for deterministic iteration.
func (m *MemStore) ListDriverStatuses(ctx context.Context, f store.StatusFilter) ([]model.DriverStatusRecord, error) {
	if err := m.fail("ListDriverStatuses"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]model.DriverStatusRecord, 0, len(m.statuses))
	for _, s := range m.statuses {
		if f.OnlyOnline && !s.IsOnline {
			continue
		}
		if f.ZoneID != "" && s.CurrentZoneID != f.ZoneID {
			continue
		}
		res = append(res, s)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].DriverID < res[j].DriverID })
	return res, nil
}

// ListDriverZones implements store.AssignmentReader.
func (m *MemStore) ListDriverZones(ctx context.Context, f store.AssignmentFilter) ([]model.DriverZoneAssignment, error) {
	if err := m.fail("ListDriverZones"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []model.DriverZoneAssignment
	for _, a := range m.assignments {
		if f.ActiveOnly && !a.Active {
			continue
		}
		if f.ZoneID != "" && a.ZoneID != f.ZoneID {
			continue
		}
		if f.DriverID != "" && a.DriverID != f.DriverID {
			continue
		}
		res = append(res, a)
	}
	return res, nil
}

// ListDriverInventory implements store.InventoryReader.
func (m *MemStore) ListDriverInventory(ctx context.Context, f store.InventoryFilter) ([]model.DriverInventoryRecord, error) {
	if err := m.fail("ListDriverInventory"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	wanted := make(map[string]bool, len(f.DriverIDs))
	for _, id := range f.DriverIDs {
		wanted[id] = true
	}
	var res []model.DriverInventoryRecord
	for _, r := range m.inventory {
		if len(f.DriverIDs) > 0 && !wanted[r.DriverID] {
			continue
		}
		if f.ProductID != "" && r.ProductID != f.ProductID {
			continue
		}
		res = append(res, r)
	}
	return res, nil
}

// ListZones implements store.ZoneReader. Results are sorted by zone id.
func (m *MemStore) ListZones(ctx context.Context, f store.ZoneFilter) ([]model.Zone, error) {
	if err := m.fail("ListZones"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]model.Zone, 0, len(m.zones))
	for _, z := range m.zones {
		if f.City != "" && z.City != f.City {
			continue
		}
		if f.Region != "" && z.Region != f.Region {
			continue
		}
		res = append(res, z)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

// ListOrders implements store.OrderReader. Results are sorted by order id.
func (m *MemStore) ListOrders(ctx context.Context, f store.OrderFilter) ([]model.Order, error) {
	if err := m.fail("ListOrders"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	statuses := make(map[model.OrderStatus]bool, len(f.Statuses))
	for _, s := range f.Statuses {
		statuses[s] = true
	}
	res := make([]model.Order, 0, len(m.orders))
	for _, o := range m.orders {
		if len(f.Statuses) > 0 && !statuses[o.Status] {
			continue
		}
		if f.Query != "" && !strings.Contains(o.ID, f.Query) && !strings.Contains(o.AssignedDriver, f.Query) {
			continue
		}
		res = append(res, o)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

// UpdateOrder implements store.OrderWriter.
func (m *MemStore) UpdateOrder(ctx context.Context, id string, u store.OrderUpdate) error {
	if err := m.fail("UpdateOrder"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return store.ErrNotFound
	}
	if u.Status != nil {
		o.Status = *u.Status
		if o.StatusTimes == nil {
			o.StatusTimes = make(map[model.OrderStatus]time.Time)
		}
		o.StatusTimes[*u.Status] = time.Now()
	}
	if u.AssignedDriver != nil {
		o.AssignedDriver = *u.AssignedDriver
	}
	m.orders[id] = o
	return nil
}

// UpdateDriverStatus implements store.StatusWriter.
func (m *MemStore) UpdateDriverStatus(ctx context.Context, u store.StatusUpdate) error {
	if err := m.fail("UpdateDriverStatus"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.statuses[u.DriverID]
	if !ok {
		return store.ErrNotFound
	}
	s.Status = u.Status
	if u.ZoneID != "" {
		s.CurrentZoneID = u.ZoneID
	}
	if u.IsOnline != nil {
		s.IsOnline = *u.IsOnline
	}
	if u.Note != "" {
		s.Note = u.Note
	}
	s.UpdatedAt = time.Now()
	m.statuses[u.DriverID] = s
	return nil
}

// LogDriverMovement implements store.MovementLogger.
func (m *MemStore) LogDriverMovement(ctx context.Context, e store.MovementEntry) error {
	if err := m.fail("LogDriverMovement"); err != nil {
		return err
	}
	m.mu.Lock()
	m.movements = append(m.movements, e)
	m.mu.Unlock()
	return nil
}

// CreateNotification implements store.NotificationWriter.
func (m *MemStore) CreateNotification(ctx context.Context, n store.Notification) (string, error) {
	if err := m.fail("CreateNotification"); err != nil {
		return "", err
	}
	id := uuid.NewString()
	m.mu.Lock()
	m.notifications[id] = n
	m.mu.Unlock()
	return id, nil
}
