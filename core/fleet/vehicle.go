package fleet

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// VehicleStatus tracks where a vehicle sits in the dispatch cycle.
type VehicleStatus string

const (
	// VehicleAvailable means the vehicle can take a new trip.
	VehicleAvailable VehicleStatus = "available"
	// VehicleAssigned means the vehicle is held by an active trip.
	VehicleAssigned VehicleStatus = "assigned"
	// VehicleMaintenance parks the vehicle out of service. Vehicles are never
	// hard-deleted; maintenance doubles as soft retirement.
	VehicleMaintenance VehicleStatus = "maintenance"
)

// Vehicle is a fleet asset that can be assigned to trips.
type Vehicle struct {
	ID        string
	Name      string // model name, e.g. "Van-05"
	Plate     string // license plate, unique across the fleet
	MaxLoadKg int    // maximum cargo weight in kilograms
	Status    VehicleStatus
	Version   uint64 // bumped by the store on every committed write
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewVehicle builds an available vehicle with a fresh ID. The store assigns
// the initial version on create.
func NewVehicle(name, plate string, maxLoadKg int) (Vehicle, error) {
	v := Vehicle{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Plate:     strings.TrimSpace(plate),
		MaxLoadKg: maxLoadKg,
		Status:    VehicleAvailable,
	}
	if err := v.Validate(); err != nil {
		return Vehicle{}, err
	}
	return v, nil
}

// Validate checks that the vehicle record is sound.
func (v Vehicle) Validate() error {
	if v.Name == "" {
		return fmt.Errorf("vehicle name is required")
	}
	if v.Plate == "" {
		return fmt.Errorf("license plate is required")
	}
	if v.MaxLoadKg <= 0 {
		return fmt.Errorf("max load must be positive, got %d", v.MaxLoadKg)
	}
	switch v.Status {
	case VehicleAvailable, VehicleAssigned, VehicleMaintenance:
	default:
		return fmt.Errorf("unknown vehicle status %q", v.Status)
	}
	return nil
}

// Retired reports whether the vehicle is parked out of service.
func (v Vehicle) Retired() bool { return v.Status == VehicleMaintenance }

// CanCarry reports whether the vehicle capacity covers the cargo weight.
func (v Vehicle) CanCarry(cargoKg int) bool { return cargoKg <= v.MaxLoadKg }
