package scenarios

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ananya-001/FleetFlow/core/fleet"
)

// VehicleDef declares one fleet vehicle by name. Names are scenario-local
// handles; IDs are generated on registration.
type VehicleDef struct {
	Name      string `yaml:"name"`
	Plate     string `yaml:"plate"`
	MaxLoadKg int    `yaml:"max_load_kg"`
	Retired   bool   `yaml:"retired,omitempty"`
}

// DriverDef declares one driver. Expires is the license expiry date in
// YYYY-MM-DD form.
type DriverDef struct {
	Name    string `yaml:"name"`
	License string `yaml:"license"`
	Expires string `yaml:"expires"`
}

// TripDef declares a trip request, referencing vehicle and driver by their
// scenario names.
type TripDef struct {
	Name    string `yaml:"name"`
	Vehicle string `yaml:"vehicle"`
	Driver  string `yaml:"driver"`
	CargoKg int    `yaml:"cargo_kg"`
	Start   string `yaml:"start"`
}

// StepDef is one lifecycle operation on a named trip. An empty error means
// the step must apply; otherwise it must fail with the named kind.
type StepDef struct {
	Trip  string `yaml:"trip"`
	Op    string `yaml:"op"`
	Error string `yaml:"error,omitempty"`
}

// Expected pins the final statuses the store must hold once every step ran.
type Expected struct {
	Trips    map[string]string `yaml:"trips,omitempty"`
	Vehicles map[string]string `yaml:"vehicles,omitempty"`
}

// Scenario is one declarative dispatch exercise.
type Scenario struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Vehicles    []VehicleDef `yaml:"vehicles"`
	Drivers     []DriverDef  `yaml:"drivers"`
	Trips       []TripDef    `yaml:"trips"`
	Steps       []StepDef    `yaml:"steps"`
	Expected    Expected     `yaml:"expected"`
}

// Load reads and parses one scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// errorKinds maps the error names usable in step defs to their sentinels.
var errorKinds = map[string]error{
	"duplicate_key":       fleet.ErrDuplicateKey,
	"not_found":           fleet.ErrNotFound,
	"vehicle_unavailable": fleet.ErrVehicleUnavailable,
	"over_capacity":       fleet.ErrOverCapacity,
	"license_expired":     fleet.ErrLicenseExpired,
	"double_booking":      fleet.ErrDoubleBooking,
	"invalid_transition":  fleet.ErrInvalidTransition,
	"conflict":            fleet.ErrConcurrentModification,
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", s, err)
	}
	return t, nil
}
