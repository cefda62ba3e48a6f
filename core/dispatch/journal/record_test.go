package journal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ananya-001/FleetFlow/core/fleet"
)

func TestRecord_JSON(t *testing.T) {
	rec := Record{
		Time:      time.Unix(0, 0),
		TripID:    "t1",
		VehicleID: "v1",
		DriverID:  "d1",
		Op:        "assign",
		From:      fleet.TripDraft,
		To:        fleet.TripAssigned,
		Actor:     "dispatcher",
		Attempts:  1,
		Outcome:   OutcomeApplied,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	keys := []string{"time", "trip_id", "op", "from", "to", "outcome"}
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			t.Errorf("missing key %s", k)
		}
	}
	if _, ok := m["rule"]; ok {
		t.Errorf("empty rule should be omitted")
	}
}
