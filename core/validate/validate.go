// Package validate holds the pure assignment checks. No store access, no
// clock, no side effects: callers hand in the snapshot they already read and
// get back a rule-tagged result, so every rule is testable with fabricated
// inputs.
package validate

import (
	"fmt"

	"github.com/ananya-001/FleetFlow/core/fleet"
)

// Rule names, also used as journal/metric labels.
const (
	RuleVehicleAvailable    = "vehicle_available"
	RuleCargoWithinCapacity = "cargo_within_capacity"
	RuleLicenseValid        = "license_valid"
	RuleNoDoubleBooking     = "no_double_booking"
)

// Input is the snapshot a single assignment decision is judged against.
type Input struct {
	Trip    fleet.Trip
	Vehicle fleet.Vehicle
	Driver  fleet.Driver
	// VehicleTrips and DriverTrips are the active trips currently held by the
	// vehicle and driver respectively.
	VehicleTrips []fleet.Trip
	DriverTrips  []fleet.Trip
}

// Result tags the outcome with the rule that rejected the assignment.
type Result struct {
	Rule string
	Err  error
}

// Ok reports whether every check passed.
func (r Result) Ok() bool { return r.Err == nil }

// Check pairs a rule name with its predicate.
type Check struct {
	Name string
	Fn   func(Input) error
}

// Checks returns the rules in evaluation order. Validate short-circuits on
// the first failure, so order is part of the contract: a maintenance vehicle
// reports VehicleUnavailable even if the cargo would not fit either.
func Checks() []Check {
	return []Check{
		{RuleVehicleAvailable, VehicleAvailable},
		{RuleCargoWithinCapacity, CargoWithinCapacity},
		{RuleLicenseValid, LicenseValid},
		{RuleNoDoubleBooking, NoDoubleBooking},
	}
}

// Validate runs the ordered checks and returns the first failure, if any.
func Validate(in Input) Result {
	for _, c := range Checks() {
		if err := c.Fn(in); err != nil {
			return Result{Rule: c.Name, Err: err}
		}
	}
	return Result{}
}

// VehicleAvailable rejects vehicles parked in maintenance. An assigned
// vehicle passes here; holding an active trip is the double-booking rule's
// business.
func VehicleAvailable(in Input) error {
	if in.Vehicle.Retired() {
		return fmt.Errorf("vehicle %s (%s): %w", in.Vehicle.ID, in.Vehicle.Plate, fleet.ErrVehicleUnavailable)
	}
	return nil
}

// CargoWithinCapacity rejects cargo heavier than the vehicle's max load.
func CargoWithinCapacity(in Input) error {
	if !in.Vehicle.CanCarry(in.Trip.CargoKg) {
		return fmt.Errorf("cargo %dkg against %dkg max load: %w",
			in.Trip.CargoKg, in.Vehicle.MaxLoadKg, fleet.ErrOverCapacity)
	}
	return nil
}

// LicenseValid rejects drivers whose license lapses before the trip starts.
func LicenseValid(in Input) error {
	if !in.Driver.LicenseValidOn(in.Trip.StartDate) {
		return fmt.Errorf("license %s expires %s, trip starts %s: %w",
			in.Driver.LicenseNumber,
			in.Driver.LicenseExpiry.Format("2006-01-02"),
			in.Trip.StartDate.Format("2006-01-02"),
			fleet.ErrLicenseExpired)
	}
	return nil
}

// NoDoubleBooking rejects the assignment if the vehicle or driver already
// holds an active trip.
func NoDoubleBooking(in Input) error {
	if id := firstActive(in.VehicleTrips, in.Trip.ID); id != "" {
		return fmt.Errorf("vehicle %s held by trip %s: %w", in.Vehicle.ID, id, fleet.ErrDoubleBooking)
	}
	if id := firstActive(in.DriverTrips, in.Trip.ID); id != "" {
		return fmt.Errorf("driver %s held by trip %s: %w", in.Driver.ID, id, fleet.ErrDoubleBooking)
	}
	return nil
}

func firstActive(trips []fleet.Trip, exclude string) string {
	for _, t := range trips {
		if t.ID != exclude && t.Status.Active() {
			return t.ID
		}
	}
	return ""
}
