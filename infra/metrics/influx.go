package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/ananya-001/FleetFlow/core/metrics"
	"github.com/ananya-001/FleetFlow/infra/logger"
)

// InfluxSink writes fleet dispatch activity to an InfluxDB instance using
// the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and returns
// a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordTransition writes the transition as a line protocol point.
func (s *InfluxSink) RecordTransition(rec coremetrics.TransitionRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("trip_transition").
		AddTag("trip_id", rec.TripID).
		AddTag("vehicle_id", rec.VehicleID).
		AddTag("from", string(rec.From)).
		AddTag("to", string(rec.To)).
		AddTag("actor", rec.Actor).
		AddTag("component", "dispatch_engine").
		AddField("attempts", rec.Attempts).
		AddField("latency_ms", round3(rec.Latency.Seconds()*1000)).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRejection persists a refused request.
func (s *InfluxSink) RecordRejection(rec coremetrics.RejectionRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("trip_rejection").
		AddTag("rule", rec.Rule).
		AddTag("component", "dispatch_engine").
		AddField("count", 1).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordConflict persists an optimistic concurrency race.
func (s *InfluxSink) RecordConflict(rec coremetrics.ConflictRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("trip_conflict").
		AddTag("op", rec.Op).
		AddTag("resolved", strconv.FormatBool(rec.Resolved)).
		AddTag("component", "dispatch_engine").
		AddField("count", 1).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordFleetCounts persists the fleet census.
func (s *InfluxSink) RecordFleetCounts(c coremetrics.FleetCounts) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("fleet_counts").
		AddTag("component", "query_facade").
		AddField("vehicles", c.Vehicles).
		AddField("drivers", c.Drivers).
		AddField("active_trips", c.ActiveTrips).
		AddField("maintenance", c.Maintenance).
		SetTime(c.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
