// Package app assembles the dispatch service from configuration: store,
// journal, metrics sinks, event bus, engine, query facade and the optional
// MQTT notifier. Callers construct a Service, optionally Run its background
// loops, and Close it when done.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ananya-001/FleetFlow/config"
	"github.com/ananya-001/FleetFlow/core/auth"
	"github.com/ananya-001/FleetFlow/core/dispatch"
	"github.com/ananya-001/FleetFlow/core/dispatch/journal"
	"github.com/ananya-001/FleetFlow/core/events"
	"github.com/ananya-001/FleetFlow/core/fleet"
	coremetrics "github.com/ananya-001/FleetFlow/core/metrics"
	"github.com/ananya-001/FleetFlow/core/query"
	"github.com/ananya-001/FleetFlow/core/store"
	"github.com/ananya-001/FleetFlow/infra/logger"
	"github.com/ananya-001/FleetFlow/infra/memstore"
	inframetrics "github.com/ananya-001/FleetFlow/infra/metrics"
	"github.com/ananya-001/FleetFlow/infra/notify"
	"github.com/ananya-001/FleetFlow/infra/sqlstore"
	"github.com/ananya-001/FleetFlow/internal/eventbus"
)

const (
	eventBufferSize         = 128
	defaultSnapshotInterval = 30 * time.Second
)

// Service is the composed dispatch application. Every operation is gated by
// the configured role before it reaches the engine or the query facade.
type Service struct {
	engine *dispatch.Engine
	facade *query.Facade

	store    store.Store
	bus      *eventbus.Bus[events.Event]
	sink     coremetrics.MetricsSink
	notifier *notify.MQTTNotifier
	log      logger.Logger

	role  auth.Role
	actor string

	promAddr      string
	snapshotEvery time.Duration
}

// New builds a Service from cfg. Run starts the background loops; Close
// releases every resource New acquired.
func New(cfg *config.Config) (*Service, error) {
	role, err := auth.ParseRole(cfg.Auth.Role)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	st, err := newStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	jr, err := OpenJournal(cfg.Journal)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}
	bus := eventbus.New[events.Event](eventBufferSize)

	var notifier *notify.MQTTNotifier
	var engineNotifier dispatch.Notifier
	if cfg.Notifier.Enabled {
		notifier, err = notify.NewMQTTNotifier(cfg.Notifier.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt notifier: %w", err)
		}
		engineNotifier = notifier
	}

	eng, err := dispatch.NewEngine(st, logger.New("dispatch"), sink, bus, jr, engineNotifier)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	facade, err := query.NewFacade(st)
	if err != nil {
		return nil, fmt.Errorf("query facade: %w", err)
	}

	every := defaultSnapshotInterval
	if cfg.Metrics.SnapshotIntervalSeconds > 0 {
		every = time.Duration(cfg.Metrics.SnapshotIntervalSeconds) * time.Second
	}

	return &Service{
		engine:        eng,
		facade:        facade,
		store:         st,
		bus:           bus,
		sink:          sink,
		notifier:      notifier,
		log:           logger.New("service"),
		role:          role,
		actor:         string(role),
		promAddr:      cfg.Metrics.PromAddr,
		snapshotEvery: every,
	}, nil
}

func newStore(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "memory":
		return memstore.New(), nil
	case "sqlite":
		return sqlstore.New(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// OpenJournal builds the journal store named by cfg. Backend "none" yields a
// nil store, which the engine treats as journaling disabled.
func OpenJournal(cfg config.JournalConfig) (journal.Store, error) {
	switch cfg.Backend {
	case "jsonl":
		if cfg.MaxSizeMB > 0 {
			return journal.NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
		}
		return journal.NewJSONLStore(cfg.Path)
	case "sqlite":
		return journal.NewSQLiteStore(cfg.Path)
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown journal backend %q", cfg.Backend)
	}
}

// SetActor overrides the audit identity recorded on transitions. It defaults
// to the configured role name.
func (s *Service) SetActor(actor string) {
	if actor != "" {
		s.actor = actor
	}
}

// Events exposes the bus for additional subscribers. Subscribe before Run so
// no event is missed.
func (s *Service) Events() *eventbus.Bus[events.Event] { return s.bus }

// Run starts the metrics endpoint, the event collector and the fleet gauge
// refresher, then blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.promAddr != "" {
		go func() {
			if err := inframetrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prometheus server: %v", err)
			}
		}()
	}
	inframetrics.StartEventCollector(ctx, s.bus, s.sink)
	if rec, ok := s.sink.(coremetrics.FleetCountsRecorder); ok {
		go s.refreshFleetCounts(ctx, rec)
	}
	<-ctx.Done()
	return nil
}

func (s *Service) refreshFleetCounts(ctx context.Context, rec coremetrics.FleetCountsRecorder) {
	ticker := time.NewTicker(s.snapshotEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats, err := s.facade.DashboardStats(ctx)
			if err != nil {
				s.log.Errorf("fleet counts snapshot: %v", err)
				continue
			}
			if err := rec.RecordFleetCounts(coremetrics.FleetCounts{
				Vehicles:    stats.TotalVehicles,
				Drivers:     stats.TotalDrivers,
				ActiveTrips: stats.ActiveTrips,
				Maintenance: stats.MaintenanceAlerts,
				Time:        stats.TakenAt,
			}); err != nil {
				s.log.Errorf("fleet counts record: %v", err)
			}
		}
	}
}

// Close releases the engine, the notifier and the store.
func (s *Service) Close() error {
	if s.notifier != nil {
		s.notifier.Close()
	}
	err := s.engine.Close()
	if cerr := s.store.Close(); err == nil {
		err = cerr
	}
	return err
}

// RegisterVehicle adds a vehicle to the fleet roster.
func (s *Service) RegisterVehicle(ctx context.Context, name, plate string, maxLoadKg int) (fleet.Vehicle, error) {
	if err := auth.Check(s.role, auth.CapRegisterVehicle); err != nil {
		return fleet.Vehicle{}, err
	}
	v, err := fleet.NewVehicle(name, plate, maxLoadKg)
	if err != nil {
		return fleet.Vehicle{}, err
	}
	return s.store.CreateVehicle(ctx, v)
}

// RegisterDriver adds a driver to the roster.
func (s *Service) RegisterDriver(ctx context.Context, name, license string, expiry time.Time) (fleet.Driver, error) {
	if err := auth.Check(s.role, auth.CapRegisterDriver); err != nil {
		return fleet.Driver{}, err
	}
	d, err := fleet.NewDriver(name, license, expiry)
	if err != nil {
		return fleet.Driver{}, err
	}
	return s.store.CreateDriver(ctx, d)
}

// SubmitTrip records a draft trip for the requested vehicle and driver.
func (s *Service) SubmitTrip(ctx context.Context, r fleet.TripRequest) (fleet.Trip, error) {
	if err := auth.Check(s.role, auth.CapSubmitTrip); err != nil {
		return fleet.Trip{}, err
	}
	return s.engine.SubmitRequest(ctx, r)
}

// AssignTrip validates the draft trip and takes its vehicle.
func (s *Service) AssignTrip(ctx context.Context, tripID string) (fleet.Trip, error) {
	if err := auth.Check(s.role, auth.CapAssignTrip); err != nil {
		return fleet.Trip{}, err
	}
	return s.engine.Assign(ctx, tripID, s.actor)
}

// DispatchTrip puts an assigned trip on the road.
func (s *Service) DispatchTrip(ctx context.Context, tripID string) (fleet.Trip, error) {
	if err := auth.Check(s.role, auth.CapDispatchTrip); err != nil {
		return fleet.Trip{}, err
	}
	return s.engine.Dispatch(ctx, tripID, s.actor)
}

// CompleteTrip finishes a dispatched trip and releases its vehicle.
func (s *Service) CompleteTrip(ctx context.Context, tripID string) (fleet.Trip, error) {
	if err := auth.Check(s.role, auth.CapCompleteTrip); err != nil {
		return fleet.Trip{}, err
	}
	return s.engine.Complete(ctx, tripID, s.actor)
}

// CancelTrip aborts a trip from any non-terminal status.
func (s *Service) CancelTrip(ctx context.Context, tripID string) (fleet.Trip, error) {
	if err := auth.Check(s.role, auth.CapCancelTrip); err != nil {
		return fleet.Trip{}, err
	}
	return s.engine.Cancel(ctx, tripID, s.actor)
}

// RetireVehicle parks an idle vehicle in maintenance.
func (s *Service) RetireVehicle(ctx context.Context, vehicleID string) (fleet.Vehicle, error) {
	if err := auth.Check(s.role, auth.CapRetireVehicle); err != nil {
		return fleet.Vehicle{}, err
	}
	return s.engine.RetireVehicle(ctx, vehicleID)
}

// RestoreVehicle returns a maintenance vehicle to service.
func (s *Service) RestoreVehicle(ctx context.Context, vehicleID string) (fleet.Vehicle, error) {
	if err := auth.Check(s.role, auth.CapRestoreVehicle); err != nil {
		return fleet.Vehicle{}, err
	}
	return s.engine.RestoreVehicle(ctx, vehicleID)
}

// Vehicle returns one vehicle by ID.
func (s *Service) Vehicle(ctx context.Context, id string) (fleet.Vehicle, error) {
	if err := auth.Check(s.role, auth.CapViewReports); err != nil {
		return fleet.Vehicle{}, err
	}
	return s.store.Vehicle(ctx, id)
}

// Trip returns one trip by ID.
func (s *Service) Trip(ctx context.Context, id string) (fleet.Trip, error) {
	if err := auth.Check(s.role, auth.CapViewReports); err != nil {
		return fleet.Trip{}, err
	}
	return s.store.Trip(ctx, id)
}

// DashboardStats reports headline fleet counts.
func (s *Service) DashboardStats(ctx context.Context) (query.DashboardStats, error) {
	if err := auth.Check(s.role, auth.CapViewReports); err != nil {
		return query.DashboardStats{}, err
	}
	return s.facade.DashboardStats(ctx)
}

// CapacityReport aggregates cargo capacity across the fleet.
func (s *Service) CapacityReport(ctx context.Context) (query.CapacityReport, error) {
	if err := auth.Check(s.role, auth.CapViewReports); err != nil {
		return query.CapacityReport{}, err
	}
	return s.facade.CapacityReport(ctx)
}

// FleetStatus lists every vehicle with its active trip and driver.
func (s *Service) FleetStatus(ctx context.Context) ([]query.FleetVehicle, error) {
	if err := auth.Check(s.role, auth.CapViewReports); err != nil {
		return nil, err
	}
	return s.facade.FleetStatus(ctx)
}
