package model

// ItemShortfall records how many units of a required product a candidate
// driver does not carry. Missing is zero when the driver covers the line.
type ItemShortfall struct {
	ProductID string `json:"product_id"`
	Missing   int    `json:"missing"`
}

// DriverCandidate is the result of evaluating one driver against an order's
// item requirements. It is derived on every call and never persisted.
type DriverCandidate struct {
	Driver      DriverStatusRecord      `json:"driver"`
	Assignments []DriverZoneAssignment  `json:"assignments,omitempty"`
	Inventory   []DriverInventoryRecord `json:"inventory,omitempty"`
	Shortfalls  []ItemShortfall         `json:"shortfalls,omitempty"`
	Matches     bool                    `json:"matches"`
	Score       float64                 `json:"score"`
}

// TotalCarriedUnits sums the candidate's carried stock across all products.
func (c DriverCandidate) TotalCarriedUnits() int {
	total := 0
	for _, inv := range c.Inventory {
		total += inv.Quantity
	}
	return total
}

// TotalMissingUnits sums the shortfalls across all required items.
func (c DriverCandidate) TotalMissingUnits() int {
	total := 0
	for _, s := range c.Shortfalls {
		total += s.Missing
	}
	return total
}

// ZoneCoverageSnapshot is a per-zone operational summary: who is online, who
// is idle, the active assignments, the stock those drivers carry and the
// orders they are still working. Derived fresh on every call.
type ZoneCoverageSnapshot struct {
	Zone              Zone                    `json:"zone"`
	OnlineDrivers     []DriverStatusRecord    `json:"online_drivers"`
	IdleDrivers       []DriverStatusRecord    `json:"idle_drivers"`
	Assignments       []DriverZoneAssignment  `json:"assignments"`
	Inventory         []DriverInventoryRecord `json:"inventory"`
	OutstandingOrders []Order                 `json:"outstanding_orders"`
}

// CoverageReport is the full output of a coverage aggregation pass.
// UnassignedDrivers are online drivers attached to no zone. OutstandingOrders
// is the de-duplicated union of the per-zone outstanding orders.
type CoverageReport struct {
	Coverage          []ZoneCoverageSnapshot `json:"coverage"`
	UnassignedDrivers []DriverStatusRecord   `json:"unassigned_drivers"`
	OutstandingOrders []Order                `json:"outstanding_orders"`
}
