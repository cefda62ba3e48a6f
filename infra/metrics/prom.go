package metrics

import (
	"strconv"

	coremetrics "github.com/ananya-001/FleetFlow/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records fleet dispatch activity in Prometheus metrics.
type PromSink struct {
	transitions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	conflicts   *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	vehicles    prometheus.Gauge
	drivers     prometheus.Gauge
	activeTrips prometheus.Gauge
	maintenance prometheus.Gauge
}

// NewPromSink registers fleet metrics on the default Prometheus registerer.
// The Prometheus server is started separately from cfg.PromAddr.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_trip_transitions_total",
			Help: "Total number of applied trip lifecycle transitions",
		}, []string{"from", "to", "actor"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_rejections_total",
			Help: "Total number of trip requests refused by a validation rule",
		}, []string{"rule"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_conflicts_total",
			Help: "Total number of optimistic concurrency races",
		}, []string{"op", "resolved"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fleet_commit_latency_seconds",
			Help:    "Time between transition request and committed write",
			Buckets: prometheus.DefBuckets,
		}, []string{"to"}),
		vehicles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_vehicles_total",
			Help: "Number of registered vehicles",
		}),
		drivers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_drivers_total",
			Help: "Number of registered drivers",
		}),
		activeTrips: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_active_trips_total",
			Help: "Number of trips in assigned or dispatched status",
		}),
		maintenance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_maintenance_vehicles_total",
			Help: "Number of vehicles parked in maintenance",
		}),
	}

	if err := registerCounterVec(reg, &s.transitions); err != nil {
		return nil, err
	}
	if err := registerCounterVec(reg, &s.rejections); err != nil {
		return nil, err
	}
	if err := registerCounterVec(reg, &s.conflicts); err != nil {
		return nil, err
	}
	if err := reg.Register(s.latency); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			s.latency = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	for _, g := range []*prometheus.Gauge{&s.vehicles, &s.drivers, &s.activeTrips, &s.maintenance} {
		if err := reg.Register(*g); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				*g = are.ExistingCollector.(prometheus.Gauge)
			} else {
				return nil, err
			}
		}
	}
	return s, nil
}

func registerCounterVec(reg prometheus.Registerer, cv **prometheus.CounterVec) error {
	if err := reg.Register(*cv); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			*cv = are.ExistingCollector.(*prometheus.CounterVec)
			return nil
		}
		return err
	}
	return nil
}

// RecordTransition increments the transition counter and observes commit
// latency.
func (s *PromSink) RecordTransition(rec coremetrics.TransitionRecord) error {
	s.transitions.WithLabelValues(string(rec.From), string(rec.To), rec.Actor).Inc()
	s.latency.WithLabelValues(string(rec.To)).Observe(rec.Latency.Seconds())
	return nil
}

// RecordRejection increments the rejection counter for the failing rule.
func (s *PromSink) RecordRejection(rec coremetrics.RejectionRecord) error {
	s.rejections.WithLabelValues(rec.Rule).Inc()
	return nil
}

// RecordConflict increments the conflict counter.
func (s *PromSink) RecordConflict(rec coremetrics.ConflictRecord) error {
	s.conflicts.WithLabelValues(rec.Op, strconv.FormatBool(rec.Resolved)).Inc()
	return nil
}

// RecordFleetCounts sets the census gauges.
func (s *PromSink) RecordFleetCounts(c coremetrics.FleetCounts) error {
	s.vehicles.Set(float64(c.Vehicles))
	s.drivers.Set(float64(c.Drivers))
	s.activeTrips.Set(float64(c.ActiveTrips))
	s.maintenance.Set(float64(c.Maintenance))
	return nil
}
