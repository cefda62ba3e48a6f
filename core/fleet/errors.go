package fleet

import "errors"

// The dispatch error taxonomy. Callers match with errors.Is; lower layers
// wrap these with context rather than inventing new kinds.
var (
	// ErrDuplicateKey is returned when a plate or license number is reused.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrNotFound is returned for unknown entity IDs.
	ErrNotFound = errors.New("not found")
	// ErrVehicleUnavailable means the vehicle is retired or otherwise not
	// eligible for new work.
	ErrVehicleUnavailable = errors.New("vehicle unavailable")
	// ErrOverCapacity means the cargo weight exceeds the vehicle's max load.
	ErrOverCapacity = errors.New("cargo exceeds vehicle capacity")
	// ErrLicenseExpired means the driver's license lapses before the trip
	// start date.
	ErrLicenseExpired = errors.New("driver license expired")
	// ErrDoubleBooking means the vehicle or driver already has an active trip.
	ErrDoubleBooking = errors.New("vehicle or driver already booked")
	// ErrInvalidTransition means the requested lifecycle step is not allowed
	// from the trip's current status.
	ErrInvalidTransition = errors.New("invalid trip transition")
	// ErrConcurrentModification is surfaced after the engine's single retry
	// still hits a version conflict.
	ErrConcurrentModification = errors.New("concurrent modification")
	// ErrStaleWrite is the store-level version conflict. It stays internal:
	// the engine either retries past it or converts it to
	// ErrConcurrentModification.
	ErrStaleWrite = errors.New("stale write")
)
