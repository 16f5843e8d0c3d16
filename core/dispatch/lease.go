package dispatch

import "sync"

// driverLeases serializes assignment commits per driver. The commit spanning
// order update, driver status update and movement log is not atomic on the
// backend, so two concurrent assignments could otherwise both pass the
// eligibility check and double-book a driver.
type driverLeases struct {
	mu     sync.Mutex
	leases map[string]*sync.Mutex
}

func newDriverLeases() *driverLeases {
	return &driverLeases{leases: make(map[string]*sync.Mutex)}
}

// acquire locks the lease for the driver and returns its release function.
// Leases are kept for the lifetime of the orchestrator; the map is bounded
// by the number of distinct drivers seen.
func (l *driverLeases) acquire(driverID string) func() {
	l.mu.Lock()
	m, ok := l.leases[driverID]
	if !ok {
		m = &sync.Mutex{}
		l.leases[driverID] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}
