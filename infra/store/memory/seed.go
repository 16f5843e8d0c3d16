package memory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/avelot/fleetdispatch/core/model"
)

// Seed is the JSON fixture format the CLI loads a MemStore from.
type Seed struct {
	Zones       []model.Zone                  `json:"zones"`
	Drivers     []model.DriverStatusRecord    `json:"drivers"`
	Assignments []model.DriverZoneAssignment  `json:"assignments"`
	Inventory   []model.DriverInventoryRecord `json:"inventory"`
	Orders      []model.Order                 `json:"orders"`
}

// NewFromSeed loads a MemStore from a JSON seed file.
func NewFromSeed(path string) (*MemStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("memory: read seed %s: %w", path, err)
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("memory: parse seed %s: %w", path, err)
	}
	m := New()
	for _, z := range seed.Zones {
		m.PutZone(z)
	}
	for _, d := range seed.Drivers {
		m.PutStatus(d)
	}
	for _, a := range seed.Assignments {
		m.PutAssignment(a)
	}
	for _, r := range seed.Inventory {
		m.PutInventory(r)
	}
	for _, o := range seed.Orders {
		m.PutOrder(o)
	}
	return m, nil
}
