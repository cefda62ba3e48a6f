package dispatch

import (
	"context"

	"github.com/ananya-001/FleetFlow/core/events"
)

// Notifier pushes applied transitions to external consumers. Implementations
// live in infra; a failed notification is logged and counted, never allowed
// to fail the transition itself.
type Notifier interface {
	NotifyTransition(ctx context.Context, ev events.TransitionEvent) error
}
