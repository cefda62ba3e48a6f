package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ananya-001/FleetFlow/core/fleet"
	"github.com/ananya-001/FleetFlow/core/store"
	"github.com/ananya-001/FleetFlow/core/store/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}

func seedVehicle(t *testing.T, s *Store, name, plate string) fleet.Vehicle {
	t.Helper()
	v, err := fleet.NewVehicle(name, plate, 500)
	if err != nil {
		t.Fatalf("NewVehicle: %v", err)
	}
	v, err = s.CreateVehicle(context.Background(), v)
	if err != nil {
		t.Fatalf("CreateVehicle: %v", err)
	}
	return v
}

func seedDriver(t *testing.T, s *Store, name, license string) fleet.Driver {
	t.Helper()
	d, err := fleet.NewDriver(name, license, time.Now().AddDate(1, 0, 0))
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	d, err = s.CreateDriver(context.Background(), d)
	if err != nil {
		t.Fatalf("CreateDriver: %v", err)
	}
	return d
}

func seedTrip(t *testing.T, s *Store, vehicleID, driverID string) fleet.Trip {
	t.Helper()
	tr, err := fleet.NewTrip(fleet.TripRequest{
		VehicleID: vehicleID,
		DriverID:  driverID,
		CargoKg:   100,
		StartDate: time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("NewTrip: %v", err)
	}
	tr, err = s.CreateTrip(context.Background(), tr)
	if err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}
	return tr
}

func TestCreateVehicleSetsVersionAndRejectsDuplicatePlate(t *testing.T) {
	s := New()
	v := seedVehicle(t, s, "Van-01", "KA01AB1234")
	if v.Version != 1 {
		t.Fatalf("expected version 1, got %d", v.Version)
	}
	if v.CreatedAt.IsZero() || !v.CreatedAt.Equal(v.UpdatedAt) {
		t.Fatalf("expected matching create/update timestamps, got %v / %v", v.CreatedAt, v.UpdatedAt)
	}

	dup, err := fleet.NewVehicle("Van-02", "KA01AB1234", 800)
	if err != nil {
		t.Fatalf("NewVehicle: %v", err)
	}
	if _, err := s.CreateVehicle(context.Background(), dup); !errors.Is(err, fleet.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestCreateDriverRejectsDuplicateLicense(t *testing.T) {
	s := New()
	seedDriver(t, s, "Alex", "DL1234567")

	dup, err := fleet.NewDriver("Sam", "DL1234567", time.Now().AddDate(2, 0, 0))
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	if _, err := s.CreateDriver(context.Background(), dup); !errors.Is(err, fleet.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestCreateTripChecksReferences(t *testing.T) {
	s := New()
	veh := seedVehicle(t, s, "Van-01", "KA01AB1234")
	drv := seedDriver(t, s, "Alex", "DL1234567")

	tr, err := fleet.NewTrip(fleet.TripRequest{
		VehicleID: "missing",
		DriverID:  drv.ID,
		CargoKg:   100,
		StartDate: time.Now(),
	})
	if err != nil {
		t.Fatalf("NewTrip: %v", err)
	}
	if _, err := s.CreateTrip(context.Background(), tr); !errors.Is(err, fleet.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown vehicle, got %v", err)
	}

	tr.VehicleID = veh.ID
	tr.DriverID = "missing"
	if _, err := s.CreateTrip(context.Background(), tr); !errors.Is(err, fleet.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown driver, got %v", err)
	}
}

func TestCreateTripRejectsRetiredVehicle(t *testing.T) {
	s := New()
	veh := seedVehicle(t, s, "Van-01", "KA01AB1234")
	drv := seedDriver(t, s, "Alex", "DL1234567")

	if _, err := s.UpdateVehicleStatus(context.Background(), veh.ID, veh.Version, fleet.VehicleMaintenance); err != nil {
		t.Fatalf("UpdateVehicleStatus: %v", err)
	}

	tr, err := fleet.NewTrip(fleet.TripRequest{
		VehicleID: veh.ID,
		DriverID:  drv.ID,
		CargoKg:   100,
		StartDate: time.Now(),
	})
	if err != nil {
		t.Fatalf("NewTrip: %v", err)
	}
	if _, err := s.CreateTrip(context.Background(), tr); !errors.Is(err, fleet.ErrVehicleUnavailable) {
		t.Fatalf("expected ErrVehicleUnavailable, got %v", err)
	}
}

func TestUpdateTripStatusStaleVersion(t *testing.T) {
	s := New()
	veh := seedVehicle(t, s, "Van-01", "KA01AB1234")
	drv := seedDriver(t, s, "Alex", "DL1234567")
	tr := seedTrip(t, s, veh.ID, drv.ID)

	got, err := s.UpdateTripStatus(context.Background(), tr.ID, tr.Version, fleet.TripCancelled)
	if err != nil {
		t.Fatalf("UpdateTripStatus: %v", err)
	}
	if got.Version != tr.Version+1 || got.Status != fleet.TripCancelled {
		t.Fatalf("unexpected trip after update: %+v", got)
	}

	if _, err := s.UpdateTripStatus(context.Background(), tr.ID, tr.Version, fleet.TripAssigned); !errors.Is(err, fleet.ErrStaleWrite) {
		t.Fatalf("expected ErrStaleWrite, got %v", err)
	}
}

func TestCommitTripAppliesBothEntities(t *testing.T) {
	s := New()
	veh := seedVehicle(t, s, "Van-01", "KA01AB1234")
	drv := seedDriver(t, s, "Alex", "DL1234567")
	tr := seedTrip(t, s, veh.ID, drv.ID)

	got, err := s.CommitTrip(context.Background(), store.TripCommit{
		TripID:         tr.ID,
		TripVersion:    tr.Version,
		TripStatus:     fleet.TripAssigned,
		UpdateVehicle:  true,
		VehicleID:      veh.ID,
		VehicleVersion: veh.Version,
		VehicleStatus:  fleet.VehicleAssigned,
	})
	if err != nil {
		t.Fatalf("CommitTrip: %v", err)
	}
	if got.Status != fleet.TripAssigned || got.Version != tr.Version+1 {
		t.Fatalf("unexpected trip after commit: %+v", got)
	}
	v, err := s.Vehicle(context.Background(), veh.ID)
	if err != nil {
		t.Fatalf("Vehicle: %v", err)
	}
	if v.Status != fleet.VehicleAssigned || v.Version != veh.Version+1 {
		t.Fatalf("unexpected vehicle after commit: %+v", v)
	}
}

func TestCommitTripStaleVehicleLeavesTripUntouched(t *testing.T) {
	s := New()
	veh := seedVehicle(t, s, "Van-01", "KA01AB1234")
	drv := seedDriver(t, s, "Alex", "DL1234567")
	tr := seedTrip(t, s, veh.ID, drv.ID)

	_, err := s.CommitTrip(context.Background(), store.TripCommit{
		TripID:         tr.ID,
		TripVersion:    tr.Version,
		TripStatus:     fleet.TripAssigned,
		UpdateVehicle:  true,
		VehicleID:      veh.ID,
		VehicleVersion: veh.Version + 5,
		VehicleStatus:  fleet.VehicleAssigned,
	})
	if !errors.Is(err, fleet.ErrStaleWrite) {
		t.Fatalf("expected ErrStaleWrite, got %v", err)
	}

	got, err := s.Trip(context.Background(), tr.ID)
	if err != nil {
		t.Fatalf("Trip: %v", err)
	}
	if got.Status != fleet.TripDraft || got.Version != tr.Version {
		t.Fatalf("trip mutated by failed commit: %+v", got)
	}
}

func TestActiveTripsFiltering(t *testing.T) {
	s := New()
	veh := seedVehicle(t, s, "Van-01", "KA01AB1234")
	drv := seedDriver(t, s, "Alex", "DL1234567")

	draft := seedTrip(t, s, veh.ID, drv.ID)
	active := seedTrip(t, s, veh.ID, drv.ID)
	if _, err := s.UpdateTripStatus(context.Background(), active.ID, active.Version, fleet.TripAssigned); err != nil {
		t.Fatalf("UpdateTripStatus: %v", err)
	}
	done := seedTrip(t, s, veh.ID, drv.ID)
	if _, err := s.UpdateTripStatus(context.Background(), done.ID, done.Version, fleet.TripCancelled); err != nil {
		t.Fatalf("UpdateTripStatus: %v", err)
	}

	trips, err := s.ActiveTripsForVehicle(context.Background(), veh.ID)
	if err != nil {
		t.Fatalf("ActiveTripsForVehicle: %v", err)
	}
	if len(trips) != 1 || trips[0].ID != active.ID {
		t.Fatalf("expected only trip %s active, got %+v", active.ID, trips)
	}
	_ = draft

	trips, err = s.ActiveTripsForDriver(context.Background(), drv.ID)
	if err != nil {
		t.Fatalf("ActiveTripsForDriver: %v", err)
	}
	if len(trips) != 1 || trips[0].ID != active.ID {
		t.Fatalf("expected only trip %s active for driver, got %+v", active.ID, trips)
	}
}

func TestSnapshotIsDetachedAndSorted(t *testing.T) {
	s := New()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	s.SetNow(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	})

	vb := seedVehicle(t, s, "Van-02", "MH12AB1234")
	va := seedVehicle(t, s, "Van-01", "KA01AB1234")
	drv := seedDriver(t, s, "Alex", "DL1234567")
	seedTrip(t, s, vb.ID, drv.ID)

	snap, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Vehicles) != 2 || len(snap.Drivers) != 1 || len(snap.Trips) != 1 {
		t.Fatalf("unexpected snapshot sizes: %d vehicles, %d drivers, %d trips",
			len(snap.Vehicles), len(snap.Drivers), len(snap.Trips))
	}
	if snap.TakenAt.IsZero() {
		t.Fatal("expected TakenAt to be set")
	}
	wantFirst := va.ID
	if vb.ID < va.ID {
		wantFirst = vb.ID
	}
	if snap.Vehicles[0].ID != wantFirst {
		t.Fatalf("expected vehicles sorted by ID, got %s first", snap.Vehicles[0].ID)
	}

	// The snapshot hands out copies, never the stored values.
	snap.Vehicles[0].Status = fleet.VehicleMaintenance
	stored, err := s.Vehicle(context.Background(), snap.Vehicles[0].ID)
	if err != nil {
		t.Fatalf("Vehicle: %v", err)
	}
	if stored.Status == fleet.VehicleMaintenance {
		t.Fatal("snapshot mutation leaked into the store")
	}
}
