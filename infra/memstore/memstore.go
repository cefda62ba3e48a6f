// Package memstore implements the entity store contract in memory. It backs
// tests, the simulator and single-process runs that need no durability.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ananya-001/FleetFlow/core/fleet"
	"github.com/ananya-001/FleetFlow/core/store"
)

// Store is a mutex-guarded in-memory implementation of store.Store. Entities
// are value types, so every read hands out an independent copy.
type Store struct {
	mu       sync.RWMutex
	vehicles map[string]fleet.Vehicle
	drivers  map[string]fleet.Driver
	trips    map[string]fleet.Trip
	plates   map[string]string // plate -> vehicle ID
	licenses map[string]string // license number -> driver ID
	now      func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		vehicles: make(map[string]fleet.Vehicle),
		drivers:  make(map[string]fleet.Driver),
		trips:    make(map[string]fleet.Trip),
		plates:   make(map[string]string),
		licenses: make(map[string]string),
		now:      time.Now,
	}
}

// SetNow overrides the commit clock. Call before the first write.
func (s *Store) SetNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Store) CreateVehicle(_ context.Context, v fleet.Vehicle) (fleet.Vehicle, error) {
	if err := v.Validate(); err != nil {
		return fleet.Vehicle{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vehicles[v.ID]; ok {
		return fleet.Vehicle{}, fmt.Errorf("vehicle id %s: %w", v.ID, fleet.ErrDuplicateKey)
	}
	if _, ok := s.plates[v.Plate]; ok {
		return fleet.Vehicle{}, fmt.Errorf("vehicle plate %s: %w", v.Plate, fleet.ErrDuplicateKey)
	}
	now := s.now()
	v.Version = 1
	v.CreatedAt = now
	v.UpdatedAt = now
	s.vehicles[v.ID] = v
	s.plates[v.Plate] = v.ID
	return v, nil
}

func (s *Store) CreateDriver(_ context.Context, d fleet.Driver) (fleet.Driver, error) {
	if err := d.Validate(); err != nil {
		return fleet.Driver{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drivers[d.ID]; ok {
		return fleet.Driver{}, fmt.Errorf("driver id %s: %w", d.ID, fleet.ErrDuplicateKey)
	}
	if _, ok := s.licenses[d.LicenseNumber]; ok {
		return fleet.Driver{}, fmt.Errorf("driver license %s: %w", d.LicenseNumber, fleet.ErrDuplicateKey)
	}
	now := s.now()
	d.Version = 1
	d.CreatedAt = now
	d.UpdatedAt = now
	s.drivers[d.ID] = d
	s.licenses[d.LicenseNumber] = d.ID
	return d, nil
}

func (s *Store) CreateTrip(_ context.Context, t fleet.Trip) (fleet.Trip, error) {
	if t.Status != fleet.TripDraft {
		return fleet.Trip{}, fmt.Errorf("trip %s enters the store as draft, not %s", t.ID, t.Status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trips[t.ID]; ok {
		return fleet.Trip{}, fmt.Errorf("trip id %s: %w", t.ID, fleet.ErrDuplicateKey)
	}
	veh, ok := s.vehicles[t.VehicleID]
	if !ok {
		return fleet.Trip{}, fmt.Errorf("vehicle %s: %w", t.VehicleID, fleet.ErrNotFound)
	}
	if veh.Retired() {
		return fleet.Trip{}, fmt.Errorf("vehicle %s is retired: %w", t.VehicleID, fleet.ErrVehicleUnavailable)
	}
	if _, ok := s.drivers[t.DriverID]; !ok {
		return fleet.Trip{}, fmt.Errorf("driver %s: %w", t.DriverID, fleet.ErrNotFound)
	}
	now := s.now()
	t.Version = 1
	t.CreatedAt = now
	t.UpdatedAt = now
	s.trips[t.ID] = t
	return t, nil
}

func (s *Store) Vehicle(_ context.Context, id string) (fleet.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vehicles[id]
	if !ok {
		return fleet.Vehicle{}, fmt.Errorf("vehicle %s: %w", id, fleet.ErrNotFound)
	}
	return v, nil
}

func (s *Store) Driver(_ context.Context, id string) (fleet.Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drivers[id]
	if !ok {
		return fleet.Driver{}, fmt.Errorf("driver %s: %w", id, fleet.ErrNotFound)
	}
	return d, nil
}

func (s *Store) Trip(_ context.Context, id string) (fleet.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trips[id]
	if !ok {
		return fleet.Trip{}, fmt.Errorf("trip %s: %w", id, fleet.ErrNotFound)
	}
	return t, nil
}

func (s *Store) ActiveTripsForVehicle(_ context.Context, vehicleID string) ([]fleet.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []fleet.Trip
	for _, t := range s.trips {
		if t.VehicleID == vehicleID && t.Status.Active() {
			res = append(res, t)
		}
	}
	sortTrips(res)
	return res, nil
}

func (s *Store) ActiveTripsForDriver(_ context.Context, driverID string) ([]fleet.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []fleet.Trip
	for _, t := range s.trips {
		if t.DriverID == driverID && t.Status.Active() {
			res = append(res, t)
		}
	}
	sortTrips(res)
	return res, nil
}

func (s *Store) UpdateTripStatus(_ context.Context, id string, version uint64, to fleet.TripStatus) (fleet.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[id]
	if !ok {
		return fleet.Trip{}, fmt.Errorf("trip %s: %w", id, fleet.ErrNotFound)
	}
	if t.Version != version {
		return fleet.Trip{}, fmt.Errorf("trip %s version %d, stored %d: %w", id, version, t.Version, fleet.ErrStaleWrite)
	}
	t.Status = to
	t.Version++
	t.UpdatedAt = s.now()
	s.trips[id] = t
	return t, nil
}

func (s *Store) UpdateVehicleStatus(_ context.Context, id string, version uint64, to fleet.VehicleStatus) (fleet.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return fleet.Vehicle{}, fmt.Errorf("vehicle %s: %w", id, fleet.ErrNotFound)
	}
	if v.Version != version {
		return fleet.Vehicle{}, fmt.Errorf("vehicle %s version %d, stored %d: %w", id, version, v.Version, fleet.ErrStaleWrite)
	}
	v.Status = to
	v.Version++
	v.UpdatedAt = s.now()
	s.vehicles[id] = v
	return v, nil
}

// CommitTrip applies the trip and vehicle writes under one lock hold; a
// version mismatch on either entity leaves both untouched.
func (s *Store) CommitTrip(_ context.Context, c store.TripCommit) (fleet.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[c.TripID]
	if !ok {
		return fleet.Trip{}, fmt.Errorf("trip %s: %w", c.TripID, fleet.ErrNotFound)
	}
	if t.Version != c.TripVersion {
		return fleet.Trip{}, fmt.Errorf("trip %s version %d, stored %d: %w", c.TripID, c.TripVersion, t.Version, fleet.ErrStaleWrite)
	}
	var v fleet.Vehicle
	if c.UpdateVehicle {
		v, ok = s.vehicles[c.VehicleID]
		if !ok {
			return fleet.Trip{}, fmt.Errorf("vehicle %s: %w", c.VehicleID, fleet.ErrNotFound)
		}
		if v.Version != c.VehicleVersion {
			return fleet.Trip{}, fmt.Errorf("vehicle %s version %d, stored %d: %w", c.VehicleID, c.VehicleVersion, v.Version, fleet.ErrStaleWrite)
		}
	}
	now := s.now()
	t.Status = c.TripStatus
	t.Version++
	t.UpdatedAt = now
	s.trips[t.ID] = t
	if c.UpdateVehicle {
		v.Status = c.VehicleStatus
		v.Version++
		v.UpdatedAt = now
		s.vehicles[v.ID] = v
	}
	return t, nil
}

func (s *Store) Snapshot(_ context.Context) (store.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := store.Snapshot{
		TakenAt:  s.now(),
		Vehicles: make([]fleet.Vehicle, 0, len(s.vehicles)),
		Drivers:  make([]fleet.Driver, 0, len(s.drivers)),
		Trips:    make([]fleet.Trip, 0, len(s.trips)),
	}
	for _, v := range s.vehicles {
		snap.Vehicles = append(snap.Vehicles, v)
	}
	for _, d := range s.drivers {
		snap.Drivers = append(snap.Drivers, d)
	}
	for _, t := range s.trips {
		snap.Trips = append(snap.Trips, t)
	}
	sort.Slice(snap.Vehicles, func(i, j int) bool { return snap.Vehicles[i].ID < snap.Vehicles[j].ID })
	sort.Slice(snap.Drivers, func(i, j int) bool { return snap.Drivers[i].ID < snap.Drivers[j].ID })
	sortTrips(snap.Trips)
	return snap, nil
}

func (s *Store) Close() error { return nil }

// sortTrips orders by creation time, then ID for a stable tie-break.
func sortTrips(trips []fleet.Trip) {
	sort.Slice(trips, func(i, j int) bool {
		if trips[i].CreatedAt.Equal(trips[j].CreatedAt) {
			return trips[i].ID < trips[j].ID
		}
		return trips[i].CreatedAt.Before(trips[j].CreatedAt)
	})
}
