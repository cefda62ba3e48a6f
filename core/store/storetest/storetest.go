// Package storetest runs the behavioral contract every store.Store
// implementation must satisfy. Implementations call Run from their own test
// package with a factory producing a fresh, empty store.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ananya-001/FleetFlow/core/fleet"
	"github.com/ananya-001/FleetFlow/core/store"
)

// Factory hands out a fresh, empty store wired for one subtest.
type Factory func(t *testing.T) store.Store

func seed(t *testing.T, s store.Store) (fleet.Vehicle, fleet.Driver) {
	t.Helper()
	veh, err := fleet.NewVehicle("Van-05", "MH12AB1234", 500)
	if err != nil {
		t.Fatalf("NewVehicle: %v", err)
	}
	if veh, err = s.CreateVehicle(context.Background(), veh); err != nil {
		t.Fatalf("CreateVehicle: %v", err)
	}
	drv, err := fleet.NewDriver("Alex", "DL1234567", time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	if drv, err = s.CreateDriver(context.Background(), drv); err != nil {
		t.Fatalf("CreateDriver: %v", err)
	}
	return veh, drv
}

func submitTrip(t *testing.T, s store.Store, vehicleID, driverID string) fleet.Trip {
	t.Helper()
	tr, err := fleet.NewTrip(fleet.TripRequest{
		VehicleID: vehicleID,
		DriverID:  driverID,
		CargoKg:   450,
		StartDate: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("NewTrip: %v", err)
	}
	if tr, err = s.CreateTrip(context.Background(), tr); err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}
	return tr
}

// Run exercises the store contract against fresh stores from the factory.
func Run(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("UniquePlate", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)
		dup, err := fleet.NewVehicle("Van-06", "MH12AB1234", 800)
		if err != nil {
			t.Fatalf("NewVehicle: %v", err)
		}
		if _, err := s.CreateVehicle(ctx, dup); !errors.Is(err, fleet.ErrDuplicateKey) {
			t.Fatalf("expected ErrDuplicateKey, got %v", err)
		}
	})

	t.Run("UniqueLicense", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)
		dup, err := fleet.NewDriver("Sam", "DL1234567", time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatalf("NewDriver: %v", err)
		}
		if _, err := s.CreateDriver(ctx, dup); !errors.Is(err, fleet.ErrDuplicateKey) {
			t.Fatalf("expected ErrDuplicateKey, got %v", err)
		}
	})

	t.Run("TripReferences", func(t *testing.T) {
		s := newStore(t)
		veh, drv := seed(t, s)

		tr, err := fleet.NewTrip(fleet.TripRequest{
			VehicleID: "missing", DriverID: drv.ID, CargoKg: 100, StartDate: time.Now(),
		})
		if err != nil {
			t.Fatalf("NewTrip: %v", err)
		}
		if _, err := s.CreateTrip(ctx, tr); !errors.Is(err, fleet.ErrNotFound) {
			t.Fatalf("unknown vehicle: expected ErrNotFound, got %v", err)
		}
		tr.VehicleID = veh.ID
		tr.DriverID = "missing"
		if _, err := s.CreateTrip(ctx, tr); !errors.Is(err, fleet.ErrNotFound) {
			t.Fatalf("unknown driver: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("RetiredVehicleRefused", func(t *testing.T) {
		s := newStore(t)
		veh, drv := seed(t, s)
		if _, err := s.UpdateVehicleStatus(ctx, veh.ID, veh.Version, fleet.VehicleMaintenance); err != nil {
			t.Fatalf("UpdateVehicleStatus: %v", err)
		}
		tr, err := fleet.NewTrip(fleet.TripRequest{
			VehicleID: veh.ID, DriverID: drv.ID, CargoKg: 100, StartDate: time.Now(),
		})
		if err != nil {
			t.Fatalf("NewTrip: %v", err)
		}
		if _, err := s.CreateTrip(ctx, tr); !errors.Is(err, fleet.ErrVehicleUnavailable) {
			t.Fatalf("expected ErrVehicleUnavailable, got %v", err)
		}
	})

	t.Run("EntityRoundTrip", func(t *testing.T) {
		s := newStore(t)
		veh, drv := seed(t, s)
		trip := submitTrip(t, s, veh.ID, drv.ID)

		gotV, err := s.Vehicle(ctx, veh.ID)
		if err != nil {
			t.Fatalf("Vehicle: %v", err)
		}
		if gotV.Name != "Van-05" || gotV.Plate != "MH12AB1234" || gotV.MaxLoadKg != 500 ||
			gotV.Status != fleet.VehicleAvailable || gotV.Version != 1 {
			t.Fatalf("vehicle did not round-trip: %+v", gotV)
		}
		if gotV.CreatedAt.IsZero() || gotV.UpdatedAt.IsZero() {
			t.Fatalf("vehicle timestamps not set: %+v", gotV)
		}

		gotD, err := s.Driver(ctx, drv.ID)
		if err != nil {
			t.Fatalf("Driver: %v", err)
		}
		if gotD.LicenseNumber != "DL1234567" || !gotD.LicenseExpiry.Equal(drv.LicenseExpiry) {
			t.Fatalf("driver did not round-trip: %+v", gotD)
		}

		gotT, err := s.Trip(ctx, trip.ID)
		if err != nil {
			t.Fatalf("Trip: %v", err)
		}
		if gotT.CargoKg != 450 || gotT.Status != fleet.TripDraft || !gotT.StartDate.Equal(trip.StartDate) {
			t.Fatalf("trip did not round-trip: %+v", gotT)
		}

		if _, err := s.Trip(ctx, "missing"); !errors.Is(err, fleet.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("StaleTripWrite", func(t *testing.T) {
		s := newStore(t)
		veh, drv := seed(t, s)
		trip := submitTrip(t, s, veh.ID, drv.ID)

		got, err := s.UpdateTripStatus(ctx, trip.ID, trip.Version, fleet.TripCancelled)
		if err != nil {
			t.Fatalf("UpdateTripStatus: %v", err)
		}
		if got.Version != trip.Version+1 || got.Status != fleet.TripCancelled {
			t.Fatalf("unexpected trip after update: %+v", got)
		}
		if _, err := s.UpdateTripStatus(ctx, trip.ID, trip.Version, fleet.TripAssigned); !errors.Is(err, fleet.ErrStaleWrite) {
			t.Fatalf("expected ErrStaleWrite, got %v", err)
		}
	})

	t.Run("StaleVehicleWrite", func(t *testing.T) {
		s := newStore(t)
		veh, _ := seed(t, s)
		if _, err := s.UpdateVehicleStatus(ctx, veh.ID, veh.Version+3, fleet.VehicleMaintenance); !errors.Is(err, fleet.ErrStaleWrite) {
			t.Fatalf("expected ErrStaleWrite, got %v", err)
		}
	})

	t.Run("AtomicCommit", func(t *testing.T) {
		s := newStore(t)
		veh, drv := seed(t, s)
		trip := submitTrip(t, s, veh.ID, drv.ID)

		got, err := s.CommitTrip(ctx, store.TripCommit{
			TripID: trip.ID, TripVersion: trip.Version, TripStatus: fleet.TripAssigned,
			UpdateVehicle: true, VehicleID: veh.ID, VehicleVersion: veh.Version,
			VehicleStatus: fleet.VehicleAssigned,
		})
		if err != nil {
			t.Fatalf("CommitTrip: %v", err)
		}
		if got.Status != fleet.TripAssigned {
			t.Fatalf("expected assigned trip, got %+v", got)
		}
		v, err := s.Vehicle(ctx, veh.ID)
		if err != nil {
			t.Fatalf("Vehicle: %v", err)
		}
		if v.Status != fleet.VehicleAssigned || v.Version != veh.Version+1 {
			t.Fatalf("vehicle not committed with the trip: %+v", v)
		}
	})

	t.Run("AtomicCommitRollsBackOnStaleVehicle", func(t *testing.T) {
		s := newStore(t)
		veh, drv := seed(t, s)
		trip := submitTrip(t, s, veh.ID, drv.ID)

		_, err := s.CommitTrip(ctx, store.TripCommit{
			TripID: trip.ID, TripVersion: trip.Version, TripStatus: fleet.TripAssigned,
			UpdateVehicle: true, VehicleID: veh.ID, VehicleVersion: veh.Version + 7,
			VehicleStatus: fleet.VehicleAssigned,
		})
		if !errors.Is(err, fleet.ErrStaleWrite) {
			t.Fatalf("expected ErrStaleWrite, got %v", err)
		}
		got, err := s.Trip(ctx, trip.ID)
		if err != nil {
			t.Fatalf("Trip: %v", err)
		}
		if got.Status != fleet.TripDraft || got.Version != trip.Version {
			t.Fatalf("trip mutated by failed commit: %+v", got)
		}
	})

	t.Run("ActiveTripFilters", func(t *testing.T) {
		s := newStore(t)
		veh, drv := seed(t, s)
		active := submitTrip(t, s, veh.ID, drv.ID)
		if _, err := s.UpdateTripStatus(ctx, active.ID, active.Version, fleet.TripAssigned); err != nil {
			t.Fatalf("UpdateTripStatus: %v", err)
		}
		done := submitTrip(t, s, veh.ID, drv.ID)
		if _, err := s.UpdateTripStatus(ctx, done.ID, done.Version, fleet.TripCancelled); err != nil {
			t.Fatalf("UpdateTripStatus: %v", err)
		}
		submitTrip(t, s, veh.ID, drv.ID) // draft, not active

		forVeh, err := s.ActiveTripsForVehicle(ctx, veh.ID)
		if err != nil {
			t.Fatalf("ActiveTripsForVehicle: %v", err)
		}
		if len(forVeh) != 1 || forVeh[0].ID != active.ID {
			t.Fatalf("expected only %s active, got %+v", active.ID, forVeh)
		}
		forDrv, err := s.ActiveTripsForDriver(ctx, drv.ID)
		if err != nil {
			t.Fatalf("ActiveTripsForDriver: %v", err)
		}
		if len(forDrv) != 1 || forDrv[0].ID != active.ID {
			t.Fatalf("expected only %s active for driver, got %+v", active.ID, forDrv)
		}
	})

	t.Run("Snapshot", func(t *testing.T) {
		s := newStore(t)
		veh, drv := seed(t, s)
		submitTrip(t, s, veh.ID, drv.ID)

		snap, err := s.Snapshot(ctx)
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if len(snap.Vehicles) != 1 || len(snap.Drivers) != 1 || len(snap.Trips) != 1 {
			t.Fatalf("unexpected snapshot sizes: %d/%d/%d",
				len(snap.Vehicles), len(snap.Drivers), len(snap.Trips))
		}
		if snap.TakenAt.IsZero() {
			t.Fatal("expected TakenAt to be set")
		}
	})
}
