// Package query serves the read side: dashboard counters, capacity figures
// and the fleet listing. Every call reads one store snapshot, so the numbers
// in a single response are mutually consistent even while the engine commits.
package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ananya-001/FleetFlow/core/fleet"
	"github.com/ananya-001/FleetFlow/core/store"
)

// Snapshotter is the slice of the store the facade reads from.
type Snapshotter interface {
	Snapshot(ctx context.Context) (store.Snapshot, error)
}

// Facade answers read-only questions about the fleet.
type Facade struct {
	store Snapshotter
}

// NewFacade creates a facade over the given snapshot source.
func NewFacade(st Snapshotter) (*Facade, error) {
	if st == nil {
		return nil, fmt.Errorf("query: nil store provided to NewFacade")
	}
	return &Facade{store: st}, nil
}

// DashboardStats are the headline counters of the operations dashboard.
type DashboardStats struct {
	TotalVehicles     int
	TotalDrivers      int
	MaintenanceAlerts int
	ActiveTrips       int
	TakenAt           time.Time
}

// DashboardStats counts vehicles, drivers, vehicles parked in maintenance
// and trips currently holding a vehicle.
func (f *Facade) DashboardStats(ctx context.Context) (DashboardStats, error) {
	snap, err := f.store.Snapshot(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	stats := DashboardStats{
		TotalVehicles: len(snap.Vehicles),
		TotalDrivers:  len(snap.Drivers),
		TakenAt:       snap.TakenAt,
	}
	for _, v := range snap.Vehicles {
		if v.Status == fleet.VehicleMaintenance {
			stats.MaintenanceAlerts++
		}
	}
	for _, t := range snap.Trips {
		if t.Status.Active() {
			stats.ActiveTrips++
		}
	}
	return stats, nil
}

// CapacityReport describes how much cargo the fleet can move and how that
// capacity is distributed across vehicles.
type CapacityReport struct {
	TotalCapacityKg       int
	AvailableCapacityKg   int
	AssignedCapacityKg    int
	MaintenanceCapacityKg int
	// Utilization is the share of total capacity currently out on trips,
	// zero for an empty fleet.
	Utilization      float64
	MeanCapacityKg   float64
	MedianCapacityKg float64
	P90CapacityKg    float64
	TakenAt          time.Time
}

// CapacityReport sums capacity per vehicle status and computes the capacity
// distribution over the whole fleet.
func (f *Facade) CapacityReport(ctx context.Context) (CapacityReport, error) {
	snap, err := f.store.Snapshot(ctx)
	if err != nil {
		return CapacityReport{}, err
	}
	rep := CapacityReport{TakenAt: snap.TakenAt}
	caps := make([]float64, 0, len(snap.Vehicles))
	for _, v := range snap.Vehicles {
		rep.TotalCapacityKg += v.MaxLoadKg
		caps = append(caps, float64(v.MaxLoadKg))
		switch v.Status {
		case fleet.VehicleAvailable:
			rep.AvailableCapacityKg += v.MaxLoadKg
		case fleet.VehicleAssigned:
			rep.AssignedCapacityKg += v.MaxLoadKg
		case fleet.VehicleMaintenance:
			rep.MaintenanceCapacityKg += v.MaxLoadKg
		}
	}
	if rep.TotalCapacityKg > 0 {
		rep.Utilization = float64(rep.AssignedCapacityKg) / float64(rep.TotalCapacityKg)
	}
	if len(caps) > 0 {
		sort.Float64s(caps)
		rep.MeanCapacityKg = stat.Mean(caps, nil)
		rep.MedianCapacityKg = stat.Quantile(0.5, stat.Empirical, caps, nil)
		rep.P90CapacityKg = stat.Quantile(0.9, stat.Empirical, caps, nil)
	}
	return rep, nil
}

// FleetVehicle is one line of the fleet status listing.
type FleetVehicle struct {
	ID           string
	Name         string
	Plate        string
	MaxLoadKg    int
	Status       fleet.VehicleStatus
	ActiveTripID string // empty when the vehicle is idle
	DriverName   string // driver of the active trip, if any
}

// FleetStatus lists every vehicle with its current assignment, sorted by
// vehicle name.
func (f *Facade) FleetStatus(ctx context.Context) ([]FleetVehicle, error) {
	snap, err := f.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	drivers := make(map[string]string, len(snap.Drivers))
	for _, d := range snap.Drivers {
		drivers[d.ID] = d.Name
	}
	activeByVehicle := make(map[string]fleet.Trip)
	for _, t := range snap.Trips {
		if t.Status.Active() {
			activeByVehicle[t.VehicleID] = t
		}
	}
	out := make([]FleetVehicle, 0, len(snap.Vehicles))
	for _, v := range snap.Vehicles {
		line := FleetVehicle{
			ID:        v.ID,
			Name:      v.Name,
			Plate:     v.Plate,
			MaxLoadKg: v.MaxLoadKg,
			Status:    v.Status,
		}
		if t, ok := activeByVehicle[v.ID]; ok {
			line.ActiveTripID = t.ID
			line.DriverName = drivers[t.DriverID]
		}
		out = append(out, line)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
