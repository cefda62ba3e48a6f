package scenarios

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ananya-001/FleetFlow/core/dispatch"
	"github.com/ananya-001/FleetFlow/core/fleet"
	coremetrics "github.com/ananya-001/FleetFlow/core/metrics"
	"github.com/ananya-001/FleetFlow/infra/logger"
	"github.com/ananya-001/FleetFlow/infra/memstore"
	"github.com/ananya-001/FleetFlow/infra/metrics"
)

// RunScenario registers the declared fleet, walks the steps in order and
// checks every expected outcome against the store.
func RunScenario(t *testing.T, sc *Scenario) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	st := memstore.New()
	eng, err := dispatch.NewEngine(st, logger.NopLogger{}, sink, nil, nil, nil)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	defer func() {
		if err := eng.Close(); err != nil {
			t.Errorf("engine close: %v", err)
		}
	}()

	vehicles := make(map[string]fleet.Vehicle, len(sc.Vehicles))
	for _, def := range sc.Vehicles {
		v, err := fleet.NewVehicle(def.Name, def.Plate, def.MaxLoadKg)
		if err != nil {
			t.Fatalf("vehicle %s: %v", def.Name, err)
		}
		stored, err := st.CreateVehicle(ctx, v)
		if err != nil {
			t.Fatalf("vehicle %s: %v", def.Name, err)
		}
		if def.Retired {
			if stored, err = st.UpdateVehicleStatus(ctx, stored.ID, stored.Version, fleet.VehicleMaintenance); err != nil {
				t.Fatalf("retire %s: %v", def.Name, err)
			}
		}
		vehicles[def.Name] = stored
	}

	drivers := make(map[string]fleet.Driver, len(sc.Drivers))
	for _, def := range sc.Drivers {
		expiry, err := parseDate(def.Expires)
		if err != nil {
			t.Fatalf("driver %s: %v", def.Name, err)
		}
		d, err := fleet.NewDriver(def.Name, def.License, expiry)
		if err != nil {
			t.Fatalf("driver %s: %v", def.Name, err)
		}
		stored, err := st.CreateDriver(ctx, d)
		if err != nil {
			t.Fatalf("driver %s: %v", def.Name, err)
		}
		drivers[def.Name] = stored
	}

	tripDefs := make(map[string]TripDef, len(sc.Trips))
	for _, def := range sc.Trips {
		tripDefs[def.Name] = def
	}
	tripIDs := make(map[string]string)

	for i, step := range sc.Steps {
		err := runStep(ctx, t, eng, step, tripDefs, vehicles, drivers, tripIDs)
		if step.Error == "" {
			if err != nil {
				t.Errorf("step %d (%s %s): %v", i, step.Op, step.Trip, err)
			}
			continue
		}
		want, ok := errorKinds[step.Error]
		if !ok {
			t.Fatalf("step %d: unknown error kind %q", i, step.Error)
		}
		if !errors.Is(err, want) {
			t.Errorf("step %d (%s %s): got %v, want %s", i, step.Op, step.Trip, err, step.Error)
		}
	}

	for handle, want := range sc.Expected.Trips {
		id, ok := tripIDs[handle]
		if !ok {
			t.Errorf("expected trip %s was never submitted", handle)
			continue
		}
		trip, err := st.Trip(ctx, id)
		if err != nil {
			t.Errorf("trip %s: %v", handle, err)
			continue
		}
		if string(trip.Status) != want {
			t.Errorf("trip %s status = %s, want %s", handle, trip.Status, want)
		}
	}
	for name, want := range sc.Expected.Vehicles {
		ref, ok := vehicles[name]
		if !ok {
			t.Errorf("expected vehicle %s is not declared", name)
			continue
		}
		v, err := st.Vehicle(ctx, ref.ID)
		if err != nil {
			t.Errorf("vehicle %s: %v", name, err)
			continue
		}
		if string(v.Status) != want {
			t.Errorf("vehicle %s status = %s, want %s", name, v.Status, want)
		}
	}
}

func runStep(
	ctx context.Context,
	t *testing.T,
	eng *dispatch.Engine,
	step StepDef,
	tripDefs map[string]TripDef,
	vehicles map[string]fleet.Vehicle,
	drivers map[string]fleet.Driver,
	tripIDs map[string]string,
) error {
	if step.Op == "submit" {
		def, ok := tripDefs[step.Trip]
		if !ok {
			t.Fatalf("step references undeclared trip %q", step.Trip)
		}
		veh, ok := vehicles[def.Vehicle]
		if !ok {
			t.Fatalf("trip %s references undeclared vehicle %q", def.Name, def.Vehicle)
		}
		drv, ok := drivers[def.Driver]
		if !ok {
			t.Fatalf("trip %s references undeclared driver %q", def.Name, def.Driver)
		}
		start, err := parseDate(def.Start)
		if err != nil {
			t.Fatalf("trip %s: %v", def.Name, err)
		}
		trip, err := eng.SubmitRequest(ctx, fleet.TripRequest{
			VehicleID: veh.ID,
			DriverID:  drv.ID,
			CargoKg:   def.CargoKg,
			StartDate: start,
		})
		if err == nil {
			tripIDs[step.Trip] = trip.ID
		}
		return err
	}

	id, ok := tripIDs[step.Trip]
	if !ok {
		t.Fatalf("step %s on trip %q before a successful submit", step.Op, step.Trip)
	}
	switch step.Op {
	case "assign":
		_, err := eng.Assign(ctx, id, "qa")
		return err
	case "dispatch":
		_, err := eng.Dispatch(ctx, id, "qa")
		return err
	case "complete":
		_, err := eng.Complete(ctx, id, "qa")
		return err
	case "cancel":
		_, err := eng.Cancel(ctx, id, "qa")
		return err
	default:
		t.Fatalf("unknown op %q", step.Op)
		return nil
	}
}
