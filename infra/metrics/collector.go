package metrics

import (
	"context"

	"github.com/ananya-001/FleetFlow/core/events"
	coremetrics "github.com/ananya-001/FleetFlow/core/metrics"
	"github.com/ananya-001/FleetFlow/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records rejection and
// conflict events on the sink. Transitions are recorded synchronously by the
// engine, which knows the commit latency; the collector covers the events
// the engine only publishes. It stops when the context is canceled.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[events.Event], sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				switch e := ev.(type) {
				case events.RejectionEvent:
					if r, ok := sink.(coremetrics.RejectionRecorder); ok {
						_ = r.RecordRejection(coremetrics.RejectionRecord{Rule: e.Rule, Time: e.At})
					}
				case events.ConflictEvent:
					if r, ok := sink.(coremetrics.ConflictRecorder); ok {
						_ = r.RecordConflict(coremetrics.ConflictRecord{Op: e.Op, Resolved: e.Resolved, Time: e.At})
					}
				}
			}
		}
	}()
}
