package fleet

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TripStatus is a step in the trip lifecycle.
type TripStatus string

const (
	TripDraft      TripStatus = "draft"
	TripAssigned   TripStatus = "assigned"
	TripDispatched TripStatus = "dispatched"
	TripCompleted  TripStatus = "completed"
	TripCancelled  TripStatus = "cancelled"
)

// tripTransitions is the allowed transition graph. Transitions are
// one-directional; cancel is reachable from every non-terminal state and both
// terminal states reject everything, including repeats of themselves.
var tripTransitions = map[TripStatus][]TripStatus{
	TripDraft:      {TripAssigned, TripCancelled},
	TripAssigned:   {TripDispatched, TripCancelled},
	TripDispatched: {TripCompleted, TripCancelled},
	TripCompleted:  {},
	TripCancelled:  {},
}

// CanTransition reports whether from -> to is an allowed lifecycle step.
func CanTransition(from, to TripStatus) bool {
	for _, s := range tripTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Active reports whether the status holds a vehicle and driver. Draft trips
// hold nothing yet; terminal trips have released everything.
func (s TripStatus) Active() bool {
	return s == TripAssigned || s == TripDispatched
}

// Terminal reports whether the status admits no further transitions.
func (s TripStatus) Terminal() bool {
	return s == TripCompleted || s == TripCancelled
}

// Trip is a single cargo movement linking one vehicle and one driver.
type Trip struct {
	ID        string
	VehicleID string
	DriverID  string
	CargoKg   int // cargo weight in kilograms
	StartDate time.Time
	Status    TripStatus
	Version   uint64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TripRequest is a caller's ask for a new trip, before any entity is touched.
type TripRequest struct {
	VehicleID string
	DriverID  string
	CargoKg   int
	StartDate time.Time
}

// Validate checks the request fields. Reference existence is the store's job.
func (r TripRequest) Validate() error {
	if strings.TrimSpace(r.VehicleID) == "" {
		return fmt.Errorf("vehicle id is required")
	}
	if strings.TrimSpace(r.DriverID) == "" {
		return fmt.Errorf("driver id is required")
	}
	if r.CargoKg <= 0 {
		return fmt.Errorf("cargo weight must be positive, got %d", r.CargoKg)
	}
	if r.StartDate.IsZero() {
		return fmt.Errorf("start date is required")
	}
	return nil
}

// NewTrip builds a draft trip from a request.
func NewTrip(r TripRequest) (Trip, error) {
	if err := r.Validate(); err != nil {
		return Trip{}, err
	}
	return Trip{
		ID:        uuid.NewString(),
		VehicleID: strings.TrimSpace(r.VehicleID),
		DriverID:  strings.TrimSpace(r.DriverID),
		CargoKg:   r.CargoKg,
		StartDate: r.StartDate,
		Status:    TripDraft,
	}, nil
}
