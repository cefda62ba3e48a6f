package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ananya-001/FleetFlow/core/fleet"
)

func TestJSONLStore_AppendQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	store, err := NewJSONLStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()

	now := time.Now()
	recs := []Record{
		{Time: now, TripID: "t1", Op: "assign", From: fleet.TripDraft, To: fleet.TripAssigned, Outcome: OutcomeApplied},
		{Time: now.Add(time.Second), TripID: "t2", Op: "cancel", From: fleet.TripDraft, To: fleet.TripCancelled, Outcome: OutcomeApplied},
		{Time: now.Add(2 * time.Second), TripID: "t1", Op: "dispatch", Outcome: OutcomeRejected, Rule: "transition"},
	}
	for _, r := range recs {
		if err := store.Append(context.Background(), r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	out, err := store.Query(context.Background(), Query{TripID: "t1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records for t1, got %d", len(out))
	}

	out, err = store.Query(context.Background(), Query{Op: "cancel"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 1 || out[0].TripID != "t2" {
		t.Fatalf("unexpected cancel records: %+v", out)
	}

	out, err = store.Query(context.Background(), Query{Start: now.Add(1500 * time.Millisecond)})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 1 || out[0].Outcome != OutcomeRejected {
		t.Fatalf("unexpected range records: %+v", out)
	}
}
