package events

import (
	"time"

	"github.com/ananya-001/FleetFlow/core/fleet"
)

// Event is implemented by every event published on the fleet bus.
type Event interface {
	Kind() string
}

// TransitionEvent is published for each applied trip lifecycle transition.
type TransitionEvent struct {
	TripID    string
	VehicleID string
	DriverID  string
	From      fleet.TripStatus
	To        fleet.TripStatus
	Actor     string
	Attempts  int
	At        time.Time
}

// Kind implements Event.
func (TransitionEvent) Kind() string { return "transition" }
