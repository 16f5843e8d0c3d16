// Package dispatch implements the core logic for matching orders to drivers
// in a zone-partitioned delivery fleet.
//
// An order carries a list of required items; drivers carry mobile stock,
// report an availability status, and may hold active assignments to zones.
// The package evaluates which online drivers can fully serve an order, ranks
// them, and commits the winning assignment with its side effects.
//
// Key components:
//   - Evaluator: builds and scores driver candidates for an order's items.
//   - Orchestrator: picks the top candidate and performs the assignment
//     (order mutation, driver status mutation, movement log, notification)
//     under a per-driver lease so concurrent assignments cannot double-book
//     a driver.
//   - Search: an alternate geodistance-aware ranking used when customer
//     coordinates are known, factoring rating, current load and proximity.
//
// All persistence goes through the interfaces in core/store; optional
// backend capabilities are probed with type assertions and their absence is
// reported as a typed error rather than an empty result.
package dispatch
