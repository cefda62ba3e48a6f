// Package simulator drives synthetic assignment contention against the
// dispatch engine and verifies the fleet invariants afterwards. It is the
// load-side counterpart of the scenario runner: scenarios check single
// decisions, the simulator checks what survives a storm of them.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ananya-001/FleetFlow/core/dispatch"
	"github.com/ananya-001/FleetFlow/core/fleet"
	"github.com/ananya-001/FleetFlow/core/store"
	"github.com/ananya-001/FleetFlow/infra/logger"
	"github.com/ananya-001/FleetFlow/infra/memstore"
)

// Config sizes one simulation run.
type Config struct {
	Vehicles int
	Drivers  int
	Trips    int
	Seed     int64 // rng seed for vehicle picks; 0 derives one from the clock
}

// Validate checks the run dimensions.
func (c Config) Validate() error {
	if c.Vehicles <= 0 {
		return fmt.Errorf("vehicles must be positive, got %d", c.Vehicles)
	}
	if c.Drivers <= 0 {
		return fmt.Errorf("drivers must be positive, got %d", c.Drivers)
	}
	if c.Trips <= 0 {
		return fmt.Errorf("trips must be positive, got %d", c.Trips)
	}
	return nil
}

// Result tallies the outcome of every concurrent assign.
type Result struct {
	Assigned     int
	DoubleBooked int
	Conflicts    int // commits that lost the retry budget
	Failed       int // anything else, carried in FirstFailure
	FirstFailure error

	Elapsed       time.Duration
	MeanLatency   time.Duration
	MedianLatency time.Duration
	P90Latency    time.Duration

	// Violations lists fleet invariants broken after the storm. Empty means
	// the store came out consistent.
	Violations []string
}

// Run seeds a fleet in memory, submits cfg.Trips draft trips spread over the
// vehicles, fires every assign at once and reports the tally. Drivers are
// dealt round-robin, so driver contention appears once Trips exceeds Drivers.
func Run(ctx context.Context, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	st := memstore.New()
	defer st.Close()
	eng, err := dispatch.NewEngine(st, logger.NopLogger{}, nil, nil, nil, nil)
	if err != nil {
		return Result{}, err
	}
	defer eng.Close()

	vehicles := make([]fleet.Vehicle, cfg.Vehicles)
	for i := range vehicles {
		v, err := fleet.NewVehicle(
			fmt.Sprintf("Van-%02d", i+1),
			fmt.Sprintf("MH12AB%04d", i+1),
			500+(i%3)*100,
		)
		if err != nil {
			return Result{}, err
		}
		if vehicles[i], err = st.CreateVehicle(ctx, v); err != nil {
			return Result{}, err
		}
	}
	drivers := make([]fleet.Driver, cfg.Drivers)
	for i := range drivers {
		d, err := fleet.NewDriver(
			fmt.Sprintf("Driver-%02d", i+1),
			fmt.Sprintf("DL%07d", i+1),
			time.Now().AddDate(1, 0, 0),
		)
		if err != nil {
			return Result{}, err
		}
		if drivers[i], err = st.CreateDriver(ctx, d); err != nil {
			return Result{}, err
		}
	}

	trips := make([]fleet.Trip, cfg.Trips)
	for i := range trips {
		veh := vehicles[rng.Intn(len(vehicles))]
		drv := drivers[i%len(drivers)]
		trip, err := eng.SubmitRequest(ctx, fleet.TripRequest{
			VehicleID: veh.ID,
			DriverID:  drv.ID,
			CargoKg:   100 + rng.Intn(400), // always within the smallest van
			StartDate: time.Now().AddDate(0, 0, 1+rng.Intn(30)),
		})
		if err != nil {
			return Result{}, err
		}
		trips[i] = trip
	}

	type outcome struct {
		err     error
		latency time.Duration
	}
	outcomes := make([]outcome, cfg.Trips)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, trip := range trips {
		wg.Add(1)
		go func(i int, tripID string) {
			defer wg.Done()
			<-start
			began := time.Now()
			_, err := eng.Assign(ctx, tripID, fmt.Sprintf("sim-%d", i))
			outcomes[i] = outcome{err: err, latency: time.Since(began)}
		}(i, trip.ID)
	}
	stormStart := time.Now()
	close(start)
	wg.Wait()

	res := Result{Elapsed: time.Since(stormStart)}
	latencies := make([]float64, 0, cfg.Trips)
	for _, out := range outcomes {
		latencies = append(latencies, float64(out.latency))
		switch {
		case out.err == nil:
			res.Assigned++
		case errors.Is(out.err, fleet.ErrDoubleBooking):
			res.DoubleBooked++
		case errors.Is(out.err, fleet.ErrConcurrentModification):
			res.Conflicts++
		default:
			res.Failed++
			if res.FirstFailure == nil {
				res.FirstFailure = out.err
			}
		}
	}
	sort.Float64s(latencies)
	res.MeanLatency = time.Duration(stat.Mean(latencies, nil))
	res.MedianLatency = time.Duration(stat.Quantile(0.5, stat.Empirical, latencies, nil))
	res.P90Latency = time.Duration(stat.Quantile(0.9, stat.Empirical, latencies, nil))

	res.Violations, err = checkInvariants(ctx, st, res.Assigned)
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// checkInvariants re-reads the store and reports every broken fleet
// invariant: one active trip per vehicle at most, vehicle status matching its
// active trip count, and the assigned tally matching the stored trips.
func checkInvariants(ctx context.Context, st store.Store, assigned int) ([]string, error) {
	snap, err := st.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var violations []string
	activeByVehicle := make(map[string]int)
	activeByDriver := make(map[string]int)
	storedAssigned := 0
	for _, t := range snap.Trips {
		if t.Status == fleet.TripAssigned {
			storedAssigned++
		}
		if t.Status.Active() {
			activeByVehicle[t.VehicleID]++
			activeByDriver[t.DriverID]++
		}
	}

	for _, v := range snap.Vehicles {
		n := activeByVehicle[v.ID]
		if n > 1 {
			violations = append(violations, fmt.Sprintf("vehicle %s holds %d active trips", v.ID, n))
		}
		switch {
		case n == 1 && v.Status != fleet.VehicleAssigned:
			violations = append(violations, fmt.Sprintf("vehicle %s has an active trip but status %s", v.ID, v.Status))
		case n == 0 && v.Status == fleet.VehicleAssigned:
			violations = append(violations, fmt.Sprintf("vehicle %s is assigned with no active trip", v.ID))
		}
	}
	for id, n := range activeByDriver {
		if n > 1 {
			violations = append(violations, fmt.Sprintf("driver %s holds %d active trips", id, n))
		}
	}
	if storedAssigned != assigned {
		violations = append(violations, fmt.Sprintf("store has %d assigned trips, engine reported %d wins", storedAssigned, assigned))
	}
	return violations, nil
}
