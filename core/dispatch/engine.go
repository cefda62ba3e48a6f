package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ananya-001/FleetFlow/core/dispatch/journal"
	"github.com/ananya-001/FleetFlow/core/events"
	"github.com/ananya-001/FleetFlow/core/fleet"
	"github.com/ananya-001/FleetFlow/core/logger"
	"github.com/ananya-001/FleetFlow/core/metrics"
	"github.com/ananya-001/FleetFlow/core/store"
	"github.com/ananya-001/FleetFlow/core/validate"
	"github.com/ananya-001/FleetFlow/internal/eventbus"
)

// Engine operation names, used in metrics, events and journal records.
const (
	OpSubmit   = "submit"
	OpAssign   = "assign"
	OpDispatch = "dispatch"
	OpComplete = "complete"
	OpCancel   = "cancel"
	OpRetire   = "retire"
	OpRestore  = "restore"
)

// maxCommitAttempts bounds optimistic commits: the first try plus one retry
// on a fresh snapshot.
const maxCommitAttempts = 2

var transitionTargets = map[string]fleet.TripStatus{
	OpAssign:   fleet.TripAssigned,
	OpDispatch: fleet.TripDispatched,
	OpComplete: fleet.TripCompleted,
	OpCancel:   fleet.TripCancelled,
}

// Engine owns every trip lifecycle mutation and the vehicle status moves
// that go with them. It holds no entity state of its own: each operation
// reads fresh entities from the store, validates against them, and commits
// with the observed versions.
type Engine struct {
	store    store.Store
	journal  journal.Store
	logger   logger.Logger
	metrics  metrics.MetricsSink
	bus      *eventbus.Bus[events.Event]
	notifier Notifier
	now      func() time.Time
}

// NewEngine creates a new engine. Store and logger are required; a nil sink
// falls back to NopSink, and bus, journal and notifier may be nil.
func NewEngine(st store.Store, log logger.Logger, sink metrics.MetricsSink, bus *eventbus.Bus[events.Event], jr journal.Store, n Notifier) (*Engine, error) {
	if st == nil || log == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to NewEngine")
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Engine{
		store:    st,
		journal:  jr,
		logger:   log,
		metrics:  sink,
		bus:      bus,
		notifier: n,
		now:      time.Now,
	}, nil
}

// SetNow overrides the engine clock. Call before the first operation.
func (e *Engine) SetNow(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// SubmitRequest creates a draft trip from the request. The store enforces
// that vehicle and driver exist and that the vehicle is not retired; no
// assignment rules run until Assign.
func (e *Engine) SubmitRequest(ctx context.Context, r fleet.TripRequest) (fleet.Trip, error) {
	trip, err := fleet.NewTrip(r)
	if err != nil {
		return fleet.Trip{}, err
	}
	created, err := e.store.CreateTrip(ctx, trip)
	if err != nil {
		return fleet.Trip{}, err
	}
	e.logger.Infof("trip %s submitted: vehicle %s driver %s cargo %dkg",
		created.ID, created.VehicleID, created.DriverID, created.CargoKg)
	e.journalRecord(ctx, journal.Record{
		Time:      e.now(),
		TripID:    created.ID,
		VehicleID: created.VehicleID,
		DriverID:  created.DriverID,
		Op:        OpSubmit,
		To:        fleet.TripDraft,
		Attempts:  1,
		Outcome:   journal.OutcomeApplied,
	})
	return created, nil
}

// Assign moves a draft trip to assigned after running the full rule chain,
// taking the vehicle in the same commit.
func (e *Engine) Assign(ctx context.Context, tripID, actor string) (fleet.Trip, error) {
	return e.transition(ctx, OpAssign, tripID, actor)
}

// Dispatch moves an assigned trip to dispatched. The vehicle stays taken.
func (e *Engine) Dispatch(ctx context.Context, tripID, actor string) (fleet.Trip, error) {
	return e.transition(ctx, OpDispatch, tripID, actor)
}

// Complete moves a dispatched trip to completed and releases the vehicle.
func (e *Engine) Complete(ctx context.Context, tripID, actor string) (fleet.Trip, error) {
	return e.transition(ctx, OpComplete, tripID, actor)
}

// Cancel moves a non-terminal trip to cancelled. A trip that held its
// vehicle releases it; cancelling a draft touches only the trip.
func (e *Engine) Cancel(ctx context.Context, tripID, actor string) (fleet.Trip, error) {
	return e.transition(ctx, OpCancel, tripID, actor)
}

// transition drives one lifecycle operation with the optimistic commit
// discipline: read, validate, commit with observed versions, and on a stale
// write retry exactly once on a fresh snapshot before giving up with
// ErrConcurrentModification.
func (e *Engine) transition(ctx context.Context, op, tripID, actor string) (fleet.Trip, error) {
	target, ok := transitionTargets[op]
	if !ok {
		return fleet.Trip{}, fmt.Errorf("dispatch: unknown operation %s", op)
	}
	start := e.now()
	for attempt := 1; attempt <= maxCommitAttempts; attempt++ {
		trip, err := e.store.Trip(ctx, tripID)
		if err != nil {
			return fleet.Trip{}, err
		}
		if !fleet.CanTransition(trip.Status, target) {
			err := fmt.Errorf("%s trip %s in status %s: %w", op, tripID, trip.Status, fleet.ErrInvalidTransition)
			e.reject(ctx, trip, op, "transition", err)
			return trip, err
		}
		commit, err := e.buildCommit(ctx, op, trip, target)
		if err != nil {
			return trip, err
		}
		committed, err := e.store.CommitTrip(ctx, commit)
		if err == nil {
			if attempt > 1 {
				e.publish(events.ConflictEvent{TripID: tripID, Op: op, Resolved: true, At: e.now()})
			}
			e.applied(ctx, op, trip, committed, actor, attempt, e.now().Sub(start))
			return committed, nil
		}
		if !errors.Is(err, fleet.ErrStaleWrite) {
			return trip, err
		}
		commitRetries.Inc()
		e.logger.Warnf("%s trip %s hit a stale write on attempt %d", op, tripID, attempt)
	}
	err := fmt.Errorf("%s trip %s: %w", op, tripID, fleet.ErrConcurrentModification)
	e.publish(events.ConflictEvent{TripID: tripID, Op: op, Resolved: false, At: e.now()})
	e.journalRecord(ctx, journal.Record{
		Time:     e.now(),
		TripID:   tripID,
		Op:       op,
		Actor:    actor,
		Attempts: maxCommitAttempts,
		Outcome:  journal.OutcomeConflict,
		Detail:   err.Error(),
	})
	e.logger.Errorf("%v", err)
	return fleet.Trip{}, err
}

// buildCommit assembles the store commit for one operation against the
// trip's current snapshot. Assign runs the rule chain and takes the vehicle;
// complete and cancel release it when the trip held it.
func (e *Engine) buildCommit(ctx context.Context, op string, trip fleet.Trip, target fleet.TripStatus) (store.TripCommit, error) {
	c := store.TripCommit{TripID: trip.ID, TripVersion: trip.Version, TripStatus: target}
	switch op {
	case OpAssign:
		veh, err := e.store.Vehicle(ctx, trip.VehicleID)
		if err != nil {
			return store.TripCommit{}, err
		}
		drv, err := e.store.Driver(ctx, trip.DriverID)
		if err != nil {
			return store.TripCommit{}, err
		}
		vehTrips, err := e.store.ActiveTripsForVehicle(ctx, trip.VehicleID)
		if err != nil {
			return store.TripCommit{}, err
		}
		drvTrips, err := e.store.ActiveTripsForDriver(ctx, trip.DriverID)
		if err != nil {
			return store.TripCommit{}, err
		}
		res := validate.Validate(validate.Input{
			Trip:         trip,
			Vehicle:      veh,
			Driver:       drv,
			VehicleTrips: vehTrips,
			DriverTrips:  drvTrips,
		})
		if !res.Ok() {
			e.reject(ctx, trip, op, res.Rule, res.Err)
			return store.TripCommit{}, res.Err
		}
		c.UpdateVehicle = true
		c.VehicleID = veh.ID
		c.VehicleVersion = veh.Version
		c.VehicleStatus = fleet.VehicleAssigned
	case OpComplete, OpCancel:
		if trip.Status.Active() {
			veh, err := e.store.Vehicle(ctx, trip.VehicleID)
			if err != nil {
				return store.TripCommit{}, err
			}
			// A vehicle parked in maintenance mid-trip stays parked.
			if !veh.Retired() {
				c.UpdateVehicle = true
				c.VehicleID = veh.ID
				c.VehicleVersion = veh.Version
				c.VehicleStatus = fleet.VehicleAvailable
			}
		}
	}
	return c, nil
}

// RetireVehicle parks the vehicle in maintenance. Retiring an already
// retired vehicle is a no-op; a vehicle holding an active trip is refused.
func (e *Engine) RetireVehicle(ctx context.Context, vehicleID string) (fleet.Vehicle, error) {
	for attempt := 1; attempt <= maxCommitAttempts; attempt++ {
		veh, err := e.store.Vehicle(ctx, vehicleID)
		if err != nil {
			return fleet.Vehicle{}, err
		}
		if veh.Status == fleet.VehicleMaintenance {
			return veh, nil
		}
		active, err := e.store.ActiveTripsForVehicle(ctx, vehicleID)
		if err != nil {
			return fleet.Vehicle{}, err
		}
		if len(active) > 0 {
			return veh, fmt.Errorf("%s vehicle %s holding an active trip: %w", OpRetire, vehicleID, fleet.ErrDoubleBooking)
		}
		updated, err := e.store.UpdateVehicleStatus(ctx, vehicleID, veh.Version, fleet.VehicleMaintenance)
		if err == nil {
			e.logger.Infof("vehicle %s retired to maintenance", vehicleID)
			return updated, nil
		}
		if !errors.Is(err, fleet.ErrStaleWrite) {
			return veh, err
		}
		commitRetries.Inc()
	}
	return fleet.Vehicle{}, fmt.Errorf("%s vehicle %s: %w", OpRetire, vehicleID, fleet.ErrConcurrentModification)
}

// RestoreVehicle returns a retired vehicle to available. Restoring a vehicle
// that is not in maintenance is a no-op for available vehicles and refused
// for assigned ones.
func (e *Engine) RestoreVehicle(ctx context.Context, vehicleID string) (fleet.Vehicle, error) {
	for attempt := 1; attempt <= maxCommitAttempts; attempt++ {
		veh, err := e.store.Vehicle(ctx, vehicleID)
		if err != nil {
			return fleet.Vehicle{}, err
		}
		switch veh.Status {
		case fleet.VehicleAvailable:
			return veh, nil
		case fleet.VehicleAssigned:
			return veh, fmt.Errorf("%s vehicle %s holding an active trip: %w", OpRestore, vehicleID, fleet.ErrDoubleBooking)
		}
		updated, err := e.store.UpdateVehicleStatus(ctx, vehicleID, veh.Version, fleet.VehicleAvailable)
		if err == nil {
			e.logger.Infof("vehicle %s restored to available", vehicleID)
			return updated, nil
		}
		if !errors.Is(err, fleet.ErrStaleWrite) {
			return veh, err
		}
		commitRetries.Inc()
	}
	return fleet.Vehicle{}, fmt.Errorf("%s vehicle %s: %w", OpRestore, vehicleID, fleet.ErrConcurrentModification)
}

// applied records a committed transition everywhere it is observed: package
// metrics, the sink, the event bus, the journal and the notifier.
func (e *Engine) applied(ctx context.Context, op string, before, after fleet.Trip, actor string, attempts int, latency time.Duration) {
	transitionsTotal.WithLabelValues(op).Inc()
	opLatency.WithLabelValues(op).Observe(latency.Seconds())
	e.logger.Infof("trip %s %s: %s -> %s", after.ID, op, before.Status, after.Status)
	now := e.now()
	if err := e.metrics.RecordTransition(metrics.TransitionRecord{
		TripID:    after.ID,
		VehicleID: after.VehicleID,
		DriverID:  after.DriverID,
		From:      before.Status,
		To:        after.Status,
		Actor:     actor,
		Attempts:  attempts,
		Latency:   latency,
		Time:      now,
	}); err != nil {
		e.logger.Errorf("metrics error: %v", err)
	}
	ev := events.TransitionEvent{
		TripID:    after.ID,
		VehicleID: after.VehicleID,
		DriverID:  after.DriverID,
		From:      before.Status,
		To:        after.Status,
		Actor:     actor,
		Attempts:  attempts,
		At:        now,
	}
	e.publish(ev)
	e.journalRecord(ctx, journal.Record{
		Time:      now,
		TripID:    after.ID,
		VehicleID: after.VehicleID,
		DriverID:  after.DriverID,
		Op:        op,
		From:      before.Status,
		To:        after.Status,
		Actor:     actor,
		Attempts:  attempts,
		Outcome:   journal.OutcomeApplied,
	})
	if e.notifier != nil {
		if err := e.notifier.NotifyTransition(ctx, ev); err != nil {
			notifyFailure.Inc()
			e.logger.Errorf("notify error: %v", err)
		} else {
			notifySuccess.Inc()
		}
	}
}

// reject records a refused request on the log, the bus and the journal. The
// trip is left untouched.
func (e *Engine) reject(ctx context.Context, trip fleet.Trip, op, rule string, err error) {
	e.logger.Warnf("%s trip %s rejected by %s: %v", op, trip.ID, rule, err)
	e.publish(events.RejectionEvent{
		TripID:    trip.ID,
		VehicleID: trip.VehicleID,
		DriverID:  trip.DriverID,
		Rule:      rule,
		Reason:    err.Error(),
		At:        e.now(),
	})
	e.journalRecord(ctx, journal.Record{
		Time:      e.now(),
		TripID:    trip.ID,
		VehicleID: trip.VehicleID,
		DriverID:  trip.DriverID,
		Op:        op,
		From:      trip.Status,
		Outcome:   journal.OutcomeRejected,
		Rule:      rule,
		Detail:    err.Error(),
	})
}

func (e *Engine) publish(ev events.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}

func (e *Engine) journalRecord(ctx context.Context, rec journal.Record) {
	if e.journal == nil {
		return
	}
	if err := e.journal.Append(ctx, rec); err != nil {
		e.logger.Errorf("journal append: %v", err)
	}
}

// Close releases resources held by the engine.
func (e *Engine) Close() error {
	if e.bus != nil {
		e.bus.Close()
	}
	if e.journal != nil {
		return e.journal.Close()
	}
	return nil
}
