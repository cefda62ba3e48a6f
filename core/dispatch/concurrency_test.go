package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ananya-001/FleetFlow/core/events"
	"github.com/ananya-001/FleetFlow/core/fleet"
)

// TestConcurrentAssignsSingleWinner races several assigns over one vehicle.
// Exactly one commit may land; every loser must come back as a double
// booking, either rejected up front or after its stale-write retry re-reads
// the winner's commit.
func TestConcurrentAssignsSingleWinner(t *testing.T) {
	const contenders = 6

	rig := newTestRig(t)
	ctx := context.Background()
	veh, err := fleet.NewVehicle("Van-05", "MH12AB1234", 500)
	if err != nil {
		t.Fatalf("NewVehicle: %v", err)
	}
	if veh, err = rig.store.CreateVehicle(ctx, veh); err != nil {
		t.Fatalf("CreateVehicle: %v", err)
	}

	trips := make([]fleet.Trip, contenders)
	for i := range trips {
		drv, err := fleet.NewDriver(fmt.Sprintf("Driver-%d", i), fmt.Sprintf("DL%07d", i), time.Now().AddDate(1, 0, 0))
		if err != nil {
			t.Fatalf("NewDriver: %v", err)
		}
		if drv, err = rig.store.CreateDriver(ctx, drv); err != nil {
			t.Fatalf("CreateDriver: %v", err)
		}
		trips[i] = rig.submit(t, veh.ID, drv.ID, 100)
	}

	start := make(chan struct{})
	errs := make(chan error, contenders)
	var wg sync.WaitGroup
	for _, trip := range trips {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			<-start
			_, err := rig.eng.Assign(ctx, id, "dispatcher-1")
			errs <- err
		}(trip.ID)
	}
	close(start)
	wg.Wait()
	close(errs)

	var wins, doubleBooked int
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, fleet.ErrDoubleBooking):
			doubleBooked++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || doubleBooked != contenders-1 {
		t.Fatalf("expected 1 winner and %d double bookings, got %d and %d",
			contenders-1, wins, doubleBooked)
	}

	v, err := rig.store.Vehicle(ctx, veh.ID)
	if err != nil {
		t.Fatalf("Vehicle: %v", err)
	}
	if v.Status != fleet.VehicleAssigned || v.Version != veh.Version+1 {
		t.Fatalf("vehicle committed more than once: %+v", v)
	}

	var assigned int
	for _, trip := range trips {
		got, err := rig.store.Trip(ctx, trip.ID)
		if err != nil {
			t.Fatalf("Trip: %v", err)
		}
		if got.Status == fleet.TripAssigned {
			assigned++
		} else if got.Status != fleet.TripDraft {
			t.Fatalf("trip %s in unexpected status %s", got.ID, got.Status)
		}
	}
	if assigned != 1 {
		t.Fatalf("expected exactly 1 assigned trip, got %d", assigned)
	}

	var rejections int
	for _, ev := range drainEvents(rig.events) {
		if _, ok := ev.(events.RejectionEvent); ok {
			rejections++
		}
	}
	if rejections != contenders-1 {
		t.Fatalf("expected %d rejection events, got %d", contenders-1, rejections)
	}
}

// TestConcurrentCompletesReleaseVehicleOnce races two completes of the same
// dispatched trip. The vehicle must be released exactly once and the loser
// must see the terminal state, not a double release.
func TestConcurrentCompletesReleaseVehicleOnce(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	veh, drv := rig.seedFleet(t)
	trip := rig.submit(t, veh.ID, drv.ID, 100)

	if _, err := rig.eng.Assign(ctx, trip.ID, "dispatcher-1"); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if _, err := rig.eng.Dispatch(ctx, trip.ID, "dispatcher-1"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	vehBefore, err := rig.store.Vehicle(ctx, veh.ID)
	if err != nil {
		t.Fatalf("Vehicle: %v", err)
	}

	start := make(chan struct{})
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := rig.eng.Complete(ctx, trip.ID, "dispatcher-1")
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	var wins, invalid int
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, fleet.ErrInvalidTransition):
			invalid++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || invalid != 1 {
		t.Fatalf("expected 1 completion and 1 invalid transition, got %d and %d", wins, invalid)
	}

	v, err := rig.store.Vehicle(ctx, veh.ID)
	if err != nil {
		t.Fatalf("Vehicle: %v", err)
	}
	if v.Status != fleet.VehicleAvailable || v.Version != vehBefore.Version+1 {
		t.Fatalf("vehicle released more than once: %+v", v)
	}
}
