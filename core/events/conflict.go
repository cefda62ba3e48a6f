package events

import "time"

// ConflictEvent is published when a commit loses an optimistic concurrency
// race. Resolved reports whether the single retry landed.
type ConflictEvent struct {
	TripID   string
	Op       string
	Resolved bool
	At       time.Time
}

// Kind implements Event.
func (ConflictEvent) Kind() string { return "conflict" }
