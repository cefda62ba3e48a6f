// Package auth implements the capability check gating engine operations.
// Callers state their role; there are no sessions, credentials or tokens,
// only the role-to-capability table.
package auth

import (
	"errors"
	"fmt"
	"strings"
)

// Role is a caller identity class.
type Role string

const (
	// RoleManager administers the fleet and sees every report.
	RoleManager Role = "manager"
	// RoleDispatcher runs the trip lifecycle but cannot alter the fleet.
	RoleDispatcher Role = "dispatcher"
)

// Capability names one gated operation.
type Capability string

const (
	CapRegisterVehicle Capability = "register_vehicle"
	CapRegisterDriver  Capability = "register_driver"
	CapRetireVehicle   Capability = "retire_vehicle"
	CapRestoreVehicle  Capability = "restore_vehicle"
	CapSubmitTrip      Capability = "submit_trip"
	CapAssignTrip      Capability = "assign_trip"
	CapDispatchTrip    Capability = "dispatch_trip"
	CapCompleteTrip    Capability = "complete_trip"
	CapCancelTrip      Capability = "cancel_trip"
	CapViewReports     Capability = "view_reports"
)

// ErrForbidden is returned when a role lacks the capability for an operation.
var ErrForbidden = errors.New("forbidden")

var dispatcherGrants = map[Capability]bool{
	CapSubmitTrip:   true,
	CapAssignTrip:   true,
	CapDispatchTrip: true,
	CapCompleteTrip: true,
	CapCancelTrip:   true,
	CapViewReports:  true,
}

// Allowed reports whether the role holds the capability. Managers hold every
// capability; dispatchers hold the trip lifecycle and the reports.
func Allowed(role Role, cap Capability) bool {
	switch role {
	case RoleManager:
		return true
	case RoleDispatcher:
		return dispatcherGrants[cap]
	default:
		return false
	}
}

// Check returns nil when the role holds the capability and a wrapped
// ErrForbidden otherwise.
func Check(role Role, cap Capability) error {
	if Allowed(role, cap) {
		return nil
	}
	return fmt.Errorf("role %s lacks %s: %w", role, cap, ErrForbidden)
}

// ParseRole maps a config or flag value onto a Role.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleManager:
		return RoleManager, nil
	case RoleDispatcher:
		return RoleDispatcher, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}
