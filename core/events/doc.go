// Package events defines the fleet events emitted on the event bus.
//
// Available event types:
//   - TransitionEvent: applied trip lifecycle transition
//   - RejectionEvent: trip request refused by a validation rule or guard
//   - ConflictEvent: commit caught in an optimistic concurrency race
package events
