package metrics

import "github.com/ananya-001/FleetFlow/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PromAddr is the listen address of the Prometheus endpoint, empty to
	// disable the server.
	PromAddr string `json:"prom_addr"`
	// SnapshotIntervalSeconds sets how often the fleet count gauges are
	// refreshed from a store snapshot. Zero falls back to 30 seconds.
	SnapshotIntervalSeconds int `json:"snapshot_interval_seconds"`
}
