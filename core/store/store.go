// Package store defines the entity store contract shared by the in-memory
// and SQLite implementations. The store owns the vehicle, driver and trip
// collections; the engine holds no copies beyond the snapshot of a single
// decision.
package store

import (
	"context"
	"time"

	"github.com/ananya-001/FleetFlow/core/fleet"
)

// Store is the durable home of fleet entities.
//
// Every operation is atomic with respect to every other: no caller ever
// observes a partial write. Mutations are optimistic: the caller passes the
// entity version it read, and the store fails with fleet.ErrStaleWrite when
// the stored version has moved on. Creates enforce uniqueness
// (fleet.ErrDuplicateKey on plate or license number reuse) and referential
// integrity (fleet.ErrNotFound for unknown vehicle/driver on CreateTrip,
// fleet.ErrVehicleUnavailable for a retired one).
type Store interface {
	CreateVehicle(ctx context.Context, v fleet.Vehicle) (fleet.Vehicle, error)
	CreateDriver(ctx context.Context, d fleet.Driver) (fleet.Driver, error)
	CreateTrip(ctx context.Context, t fleet.Trip) (fleet.Trip, error)

	Vehicle(ctx context.Context, id string) (fleet.Vehicle, error)
	Driver(ctx context.Context, id string) (fleet.Driver, error)
	Trip(ctx context.Context, id string) (fleet.Trip, error)

	// ActiveTripsForVehicle and ActiveTripsForDriver list the trips in
	// assigned or dispatched status holding the given entity.
	ActiveTripsForVehicle(ctx context.Context, vehicleID string) ([]fleet.Trip, error)
	ActiveTripsForDriver(ctx context.Context, driverID string) ([]fleet.Trip, error)

	// UpdateTripStatus is the single-entity commit: trip only, no vehicle.
	UpdateTripStatus(ctx context.Context, id string, version uint64, to fleet.TripStatus) (fleet.Trip, error)

	// UpdateVehicleStatus moves a vehicle between available and maintenance.
	UpdateVehicleStatus(ctx context.Context, id string, version uint64, to fleet.VehicleStatus) (fleet.Vehicle, error)

	// CommitTrip applies one lifecycle commit atomically: the trip's next
	// status plus, when the transition takes or releases a vehicle, the
	// vehicle's next status. Either both land or neither does.
	CommitTrip(ctx context.Context, c TripCommit) (fleet.Trip, error)

	// Snapshot returns a consistent point-in-time view of all collections,
	// safe to read while writers proceed.
	Snapshot(ctx context.Context) (Snapshot, error)

	Close() error
}

// TripCommit is the unit of multi-entity atomicity. Versions are the
// caller's observed versions; a mismatch on either entity fails the whole
// commit with fleet.ErrStaleWrite.
type TripCommit struct {
	TripID      string
	TripVersion uint64
	TripStatus  fleet.TripStatus

	// Vehicle side, applied only when UpdateVehicle is set (assign takes the
	// vehicle, complete/cancel release it; dispatch leaves it alone).
	UpdateVehicle  bool
	VehicleID      string
	VehicleVersion uint64
	VehicleStatus  fleet.VehicleStatus
}

// Snapshot is an immutable copy of the store contents.
type Snapshot struct {
	TakenAt  time.Time
	Vehicles []fleet.Vehicle
	Drivers  []fleet.Driver
	Trips    []fleet.Trip
}
