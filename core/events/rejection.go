package events

import "time"

// RejectionEvent is published when a trip request or transition is refused.
// Rule carries the validation rule name, or "transition" when the state
// machine refused the move.
type RejectionEvent struct {
	TripID    string // empty when the request never produced a trip
	VehicleID string
	DriverID  string
	Rule      string
	Reason    string
	At        time.Time
}

// Kind implements Event.
func (RejectionEvent) Kind() string { return "rejection" }
