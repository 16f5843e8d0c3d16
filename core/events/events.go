// Package events defines the typed events the dispatch core publishes on the
// event bus for dashboard and audit consumers.
package events

import (
	"time"

	"github.com/avelot/fleetdispatch/core/model"
)

// AssignmentEvent is published after every assignment attempt, successful or not.
type AssignmentEvent struct {
	OrderID  string
	DriverID string
	ZoneID   string
	Score    float64
	Success  bool
	Reason   model.FailureReason
	Time     time.Time
}

// ConflictEvent is published when a commit loses the race for a driver.
type ConflictEvent struct {
	OrderID  string
	DriverID string
	Time     time.Time
}

// NotificationEvent reports the best-effort notification attempt for an
// assignment. Err is nil when the notification was created.
type NotificationEvent struct {
	DriverID       string
	NotificationID string
	Err            error
}

// CoverageDegradedEvent is published when one of the fallback coverage
// queries fails and its section is served empty.
type CoverageDegradedEvent struct {
	Section string
	Err     error
	Time    time.Time
}
