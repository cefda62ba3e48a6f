// Package sqlstore implements the entity store contract on SQLite via
// database/sql and the modernc driver. Commits use version-checked UPDATEs
// inside transactions, so a concurrent writer surfaces as a stale write
// rather than a lost update.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ananya-001/FleetFlow/core/fleet"
	"github.com/ananya-001/FleetFlow/core/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS vehicles (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    plate TEXT NOT NULL UNIQUE,
    max_load_kg INTEGER NOT NULL,
    status TEXT NOT NULL,
    version INTEGER NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS drivers (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    license_number TEXT NOT NULL UNIQUE,
    license_expiry INTEGER NOT NULL,
    version INTEGER NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS trips (
    id TEXT PRIMARY KEY,
    vehicle_id TEXT NOT NULL REFERENCES vehicles(id),
    driver_id TEXT NOT NULL REFERENCES drivers(id),
    cargo_kg INTEGER NOT NULL,
    start_date INTEGER NOT NULL,
    status TEXT NOT NULL,
    version INTEGER NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trips_vehicle ON trips(vehicle_id, status);
CREATE INDEX IF NOT EXISTS idx_trips_driver ON trips(driver_id, status);
`

// Store is a SQLite-backed store.Store. The connection pool is capped at a
// single connection, so a transaction owns the database for its duration.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New opens or creates the database at path and ensures the schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

// SetNow overrides the commit clock. Call before the first write.
func (s *Store) SetNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Store) CreateVehicle(ctx context.Context, v fleet.Vehicle) (fleet.Vehicle, error) {
	if err := v.Validate(); err != nil {
		return fleet.Vehicle{}, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fleet.Vehicle{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vehicles WHERE id = ? OR plate = ?`, v.ID, v.Plate).Scan(&n); err != nil {
		return fleet.Vehicle{}, err
	}
	if n > 0 {
		return fleet.Vehicle{}, fmt.Errorf("vehicle plate %s: %w", v.Plate, fleet.ErrDuplicateKey)
	}
	now := s.now()
	v.Version = 1
	v.CreatedAt = now
	v.UpdatedAt = now
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO vehicles (id, name, plate, max_load_kg, status, version, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Name, v.Plate, v.MaxLoadKg, string(v.Status), v.Version,
		now.UnixNano(), now.UnixNano()); err != nil {
		return fleet.Vehicle{}, err
	}
	if err := tx.Commit(); err != nil {
		return fleet.Vehicle{}, err
	}
	return v, nil
}

func (s *Store) CreateDriver(ctx context.Context, d fleet.Driver) (fleet.Driver, error) {
	if err := d.Validate(); err != nil {
		return fleet.Driver{}, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fleet.Driver{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM drivers WHERE id = ? OR license_number = ?`, d.ID, d.LicenseNumber).Scan(&n); err != nil {
		return fleet.Driver{}, err
	}
	if n > 0 {
		return fleet.Driver{}, fmt.Errorf("driver license %s: %w", d.LicenseNumber, fleet.ErrDuplicateKey)
	}
	now := s.now()
	d.Version = 1
	d.CreatedAt = now
	d.UpdatedAt = now
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO drivers (id, name, license_number, license_expiry, version, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.LicenseNumber, d.LicenseExpiry.UnixNano(), d.Version,
		now.UnixNano(), now.UnixNano()); err != nil {
		return fleet.Driver{}, err
	}
	if err := tx.Commit(); err != nil {
		return fleet.Driver{}, err
	}
	return d, nil
}

func (s *Store) CreateTrip(ctx context.Context, t fleet.Trip) (fleet.Trip, error) {
	if t.Status != fleet.TripDraft {
		return fleet.Trip{}, fmt.Errorf("trip %s enters the store as draft, not %s", t.ID, t.Status)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fleet.Trip{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var vehStatus string
	err = tx.QueryRowContext(ctx, `SELECT status FROM vehicles WHERE id = ?`, t.VehicleID).Scan(&vehStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return fleet.Trip{}, fmt.Errorf("vehicle %s: %w", t.VehicleID, fleet.ErrNotFound)
	}
	if err != nil {
		return fleet.Trip{}, err
	}
	if fleet.VehicleStatus(vehStatus) == fleet.VehicleMaintenance {
		return fleet.Trip{}, fmt.Errorf("vehicle %s is retired: %w", t.VehicleID, fleet.ErrVehicleUnavailable)
	}
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM drivers WHERE id = ?`, t.DriverID).Scan(&n); err != nil {
		return fleet.Trip{}, err
	}
	if n == 0 {
		return fleet.Trip{}, fmt.Errorf("driver %s: %w", t.DriverID, fleet.ErrNotFound)
	}
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM trips WHERE id = ?`, t.ID).Scan(&n); err != nil {
		return fleet.Trip{}, err
	}
	if n > 0 {
		return fleet.Trip{}, fmt.Errorf("trip id %s: %w", t.ID, fleet.ErrDuplicateKey)
	}

	now := s.now()
	t.Version = 1
	t.CreatedAt = now
	t.UpdatedAt = now
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO trips (id, vehicle_id, driver_id, cargo_kg, start_date, status, version, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.VehicleID, t.DriverID, t.CargoKg, t.StartDate.UnixNano(), string(t.Status),
		t.Version, now.UnixNano(), now.UnixNano()); err != nil {
		return fleet.Trip{}, err
	}
	if err := tx.Commit(); err != nil {
		return fleet.Trip{}, err
	}
	return t, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVehicle(row rowScanner) (fleet.Vehicle, error) {
	var v fleet.Vehicle
	var status string
	var created, updated int64
	if err := row.Scan(&v.ID, &v.Name, &v.Plate, &v.MaxLoadKg, &status, &v.Version, &created, &updated); err != nil {
		return fleet.Vehicle{}, err
	}
	v.Status = fleet.VehicleStatus(status)
	v.CreatedAt = time.Unix(0, created)
	v.UpdatedAt = time.Unix(0, updated)
	return v, nil
}

func scanDriver(row rowScanner) (fleet.Driver, error) {
	var d fleet.Driver
	var expiry, created, updated int64
	if err := row.Scan(&d.ID, &d.Name, &d.LicenseNumber, &expiry, &d.Version, &created, &updated); err != nil {
		return fleet.Driver{}, err
	}
	d.LicenseExpiry = time.Unix(0, expiry)
	d.CreatedAt = time.Unix(0, created)
	d.UpdatedAt = time.Unix(0, updated)
	return d, nil
}

func scanTrip(row rowScanner) (fleet.Trip, error) {
	var t fleet.Trip
	var status string
	var start, created, updated int64
	if err := row.Scan(&t.ID, &t.VehicleID, &t.DriverID, &t.CargoKg, &start, &status, &t.Version, &created, &updated); err != nil {
		return fleet.Trip{}, err
	}
	t.Status = fleet.TripStatus(status)
	t.StartDate = time.Unix(0, start)
	t.CreatedAt = time.Unix(0, created)
	t.UpdatedAt = time.Unix(0, updated)
	return t, nil
}

const (
	vehicleCols = `id, name, plate, max_load_kg, status, version, created_at, updated_at`
	driverCols  = `id, name, license_number, license_expiry, version, created_at, updated_at`
	tripCols    = `id, vehicle_id, driver_id, cargo_kg, start_date, status, version, created_at, updated_at`
)

func (s *Store) Vehicle(ctx context.Context, id string) (fleet.Vehicle, error) {
	v, err := scanVehicle(s.db.QueryRowContext(ctx,
		`SELECT `+vehicleCols+` FROM vehicles WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return fleet.Vehicle{}, fmt.Errorf("vehicle %s: %w", id, fleet.ErrNotFound)
	}
	return v, err
}

func (s *Store) Driver(ctx context.Context, id string) (fleet.Driver, error) {
	d, err := scanDriver(s.db.QueryRowContext(ctx,
		`SELECT `+driverCols+` FROM drivers WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return fleet.Driver{}, fmt.Errorf("driver %s: %w", id, fleet.ErrNotFound)
	}
	return d, err
}

func (s *Store) Trip(ctx context.Context, id string) (fleet.Trip, error) {
	t, err := scanTrip(s.db.QueryRowContext(ctx,
		`SELECT `+tripCols+` FROM trips WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return fleet.Trip{}, fmt.Errorf("trip %s: %w", id, fleet.ErrNotFound)
	}
	return t, err
}

func (s *Store) activeTrips(ctx context.Context, col, id string) ([]fleet.Trip, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tripCols+` FROM trips WHERE `+col+` = ? AND status IN (?, ?) ORDER BY created_at, id`,
		id, string(fleet.TripAssigned), string(fleet.TripDispatched))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []fleet.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (s *Store) ActiveTripsForVehicle(ctx context.Context, vehicleID string) ([]fleet.Trip, error) {
	return s.activeTrips(ctx, "vehicle_id", vehicleID)
}

func (s *Store) ActiveTripsForDriver(ctx context.Context, driverID string) ([]fleet.Trip, error) {
	return s.activeTrips(ctx, "driver_id", driverID)
}

// casTrip runs the version-checked trip UPDATE inside tx and reports whether
// it landed. Zero rows means the caller's version is stale or the trip is
// gone; the follow-up SELECT tells the two apart.
func (s *Store) casTrip(ctx context.Context, tx *sql.Tx, id string, version uint64, to fleet.TripStatus, now time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE trips SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`,
		string(to), now.UnixNano(), id, version)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}
	var stored uint64
	err = tx.QueryRowContext(ctx, `SELECT version FROM trips WHERE id = ?`, id).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("trip %s: %w", id, fleet.ErrNotFound)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("trip %s version %d, stored %d: %w", id, version, stored, fleet.ErrStaleWrite)
}

func (s *Store) casVehicle(ctx context.Context, tx *sql.Tx, id string, version uint64, to fleet.VehicleStatus, now time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE vehicles SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`,
		string(to), now.UnixNano(), id, version)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}
	var stored uint64
	err = tx.QueryRowContext(ctx, `SELECT version FROM vehicles WHERE id = ?`, id).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("vehicle %s: %w", id, fleet.ErrNotFound)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("vehicle %s version %d, stored %d: %w", id, version, stored, fleet.ErrStaleWrite)
}

func (s *Store) UpdateTripStatus(ctx context.Context, id string, version uint64, to fleet.TripStatus) (fleet.Trip, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fleet.Trip{}, err
	}
	defer func() { _ = tx.Rollback() }()
	if err := s.casTrip(ctx, tx, id, version, to, s.now()); err != nil {
		return fleet.Trip{}, err
	}
	t, err := scanTrip(tx.QueryRowContext(ctx, `SELECT `+tripCols+` FROM trips WHERE id = ?`, id))
	if err != nil {
		return fleet.Trip{}, err
	}
	if err := tx.Commit(); err != nil {
		return fleet.Trip{}, err
	}
	return t, nil
}

func (s *Store) UpdateVehicleStatus(ctx context.Context, id string, version uint64, to fleet.VehicleStatus) (fleet.Vehicle, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fleet.Vehicle{}, err
	}
	defer func() { _ = tx.Rollback() }()
	if err := s.casVehicle(ctx, tx, id, version, to, s.now()); err != nil {
		return fleet.Vehicle{}, err
	}
	v, err := scanVehicle(tx.QueryRowContext(ctx, `SELECT `+vehicleCols+` FROM vehicles WHERE id = ?`, id))
	if err != nil {
		return fleet.Vehicle{}, err
	}
	if err := tx.Commit(); err != nil {
		return fleet.Vehicle{}, err
	}
	return v, nil
}

// CommitTrip applies the trip and vehicle writes in one transaction; a stale
// version on either entity rolls back both.
func (s *Store) CommitTrip(ctx context.Context, c store.TripCommit) (fleet.Trip, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fleet.Trip{}, err
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now()
	if err := s.casTrip(ctx, tx, c.TripID, c.TripVersion, c.TripStatus, now); err != nil {
		return fleet.Trip{}, err
	}
	if c.UpdateVehicle {
		if err := s.casVehicle(ctx, tx, c.VehicleID, c.VehicleVersion, c.VehicleStatus, now); err != nil {
			return fleet.Trip{}, err
		}
	}
	t, err := scanTrip(tx.QueryRowContext(ctx, `SELECT `+tripCols+` FROM trips WHERE id = ?`, c.TripID))
	if err != nil {
		return fleet.Trip{}, err
	}
	if err := tx.Commit(); err != nil {
		return fleet.Trip{}, err
	}
	return t, nil
}

func (s *Store) Snapshot(ctx context.Context) (store.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return store.Snapshot{}, err
	}
	defer func() { _ = tx.Rollback() }()

	snap := store.Snapshot{TakenAt: s.now()}
	rows, err := tx.QueryContext(ctx, `SELECT `+vehicleCols+` FROM vehicles ORDER BY id`)
	if err != nil {
		return store.Snapshot{}, err
	}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			_ = rows.Close()
			return store.Snapshot{}, err
		}
		snap.Vehicles = append(snap.Vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return store.Snapshot{}, err
	}
	_ = rows.Close()

	rows, err = tx.QueryContext(ctx, `SELECT `+driverCols+` FROM drivers ORDER BY id`)
	if err != nil {
		return store.Snapshot{}, err
	}
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			_ = rows.Close()
			return store.Snapshot{}, err
		}
		snap.Drivers = append(snap.Drivers, d)
	}
	if err := rows.Err(); err != nil {
		return store.Snapshot{}, err
	}
	_ = rows.Close()

	rows, err = tx.QueryContext(ctx, `SELECT `+tripCols+` FROM trips ORDER BY created_at, id`)
	if err != nil {
		return store.Snapshot{}, err
	}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			_ = rows.Close()
			return store.Snapshot{}, err
		}
		snap.Trips = append(snap.Trips, t)
	}
	if err := rows.Err(); err != nil {
		return store.Snapshot{}, err
	}
	_ = rows.Close()

	return snap, tx.Commit()
}

func (s *Store) Close() error { return s.db.Close() }
