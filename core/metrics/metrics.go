package metrics

import (
	"time"

	"github.com/ananya-001/FleetFlow/core/fleet"
)

// TransitionRecord represents one applied trip lifecycle transition.
type TransitionRecord struct {
	TripID    string
	VehicleID string
	DriverID  string
	From      fleet.TripStatus
	To        fleet.TripStatus
	Actor     string
	Attempts  int
	Latency   time.Duration
	Time      time.Time
}

// MetricsSink records applied transitions for observability purposes.
type MetricsSink interface {
	RecordTransition(rec TransitionRecord) error
}

// RejectionRecord captures a trip request or transition refused by a rule.
type RejectionRecord struct {
	Rule string
	Time time.Time
}

// RejectionRecorder is implemented by sinks able to record rejections.
type RejectionRecorder interface {
	RecordRejection(rec RejectionRecord) error
}

// ConflictRecord captures a commit caught in an optimistic concurrency race.
type ConflictRecord struct {
	Op       string
	Resolved bool
	Time     time.Time
}

// ConflictRecorder is implemented by sinks able to record conflicts.
type ConflictRecorder interface {
	RecordConflict(rec ConflictRecord) error
}

// FleetCounts is a point-in-time census of the stored collections.
type FleetCounts struct {
	Vehicles    int
	Drivers     int
	ActiveTrips int
	Maintenance int
	Time        time.Time
}

// FleetCountsRecorder records fleet level gauges.
type FleetCountsRecorder interface {
	RecordFleetCounts(c FleetCounts) error
}

// NopSink implements MetricsSink and every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordTransition(TransitionRecord) error { return nil }
func (NopSink) RecordRejection(RejectionRecord) error   { return nil }
func (NopSink) RecordConflict(ConflictRecord) error     { return nil }
func (NopSink) RecordFleetCounts(FleetCounts) error     { return nil }
