// Package journal persists the dispatch engine's decision trail. Every
// committed transition, refused request and lost concurrency race is appended
// as one Record. The journal is observability on top of the entity store,
// not the store of record.
package journal

import (
	"context"
	"time"

	"github.com/ananya-001/FleetFlow/core/fleet"
)

// Outcome values for a Record.
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
	OutcomeConflict = "conflict"
)

// Record captures one engine decision.
type Record struct {
	Time      time.Time        `json:"time"`
	TripID    string           `json:"trip_id"`
	VehicleID string           `json:"vehicle_id,omitempty"`
	DriverID  string           `json:"driver_id,omitempty"`
	Op        string           `json:"op"`
	From      fleet.TripStatus `json:"from,omitempty"`
	To        fleet.TripStatus `json:"to,omitempty"`
	Actor     string           `json:"actor,omitempty"`
	Attempts  int              `json:"attempts,omitempty"`
	Outcome   string           `json:"outcome"`
	// Rule names the refusing validation rule on rejected records.
	Rule string `json:"rule,omitempty"`
	// Detail carries the error text on rejected and conflict records.
	Detail string `json:"detail,omitempty"`
}

// Query defines filters for retrieving records.
type Query struct {
	Start  time.Time
	End    time.Time
	TripID string
	Op     string
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}
