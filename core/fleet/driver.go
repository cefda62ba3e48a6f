package fleet

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Driver is a person licensed to run trips. Drivers carry no status column;
// whether a driver is booked is derived from their active trips.
type Driver struct {
	ID            string
	Name          string
	LicenseNumber string // unique across drivers
	LicenseExpiry time.Time
	Version       uint64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewDriver builds a driver with a fresh ID.
func NewDriver(name, licenseNumber string, licenseExpiry time.Time) (Driver, error) {
	d := Driver{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(name),
		LicenseNumber: strings.TrimSpace(licenseNumber),
		LicenseExpiry: licenseExpiry,
	}
	if err := d.Validate(); err != nil {
		return Driver{}, err
	}
	return d, nil
}

// Validate checks that the driver record is sound.
func (d Driver) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("driver name is required")
	}
	if d.LicenseNumber == "" {
		return fmt.Errorf("license number is required")
	}
	if d.LicenseExpiry.IsZero() {
		return fmt.Errorf("license expiry is required")
	}
	return nil
}

// LicenseValidOn reports whether the license covers the given date. Expiry
// dates carry no meaningful time of day, so both sides compare at day
// precision in UTC.
func (d Driver) LicenseValidOn(date time.Time) bool {
	expiry := truncateToDay(d.LicenseExpiry)
	return !truncateToDay(date).After(expiry)
}

func truncateToDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
