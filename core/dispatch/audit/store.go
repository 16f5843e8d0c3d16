// Package audit persists assignment decisions to an append-only store so
// operators can review who was dispatched, why, and with what score.
package audit

import (
	"context"
	"time"
)

// Record captures one assignment decision and its outcome.
type Record struct {
	Timestamp      time.Time `json:"timestamp"`
	OrderID        string    `json:"order_id"`
	DriverID       string    `json:"driver_id,omitempty"`
	ZoneID         string    `json:"zone_id,omitempty"`
	Score          float64   `json:"score,omitempty"`
	Success        bool      `json:"success"`
	Reason         string    `json:"reason,omitempty"`
	Candidates     int       `json:"candidates"`
	NotificationID string    `json:"notification_id,omitempty"`
}

// Query defines filters for retrieving records.
type Query struct {
	Start    time.Time
	End      time.Time
	OrderID  string
	DriverID string
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}
