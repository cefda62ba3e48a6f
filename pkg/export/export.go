// Package export renders journal records for external consumption: JSON for
// machines, CSV for the spreadsheets ops actually live in.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/ananya-001/FleetFlow/core/dispatch/journal"
)

// WriteJSON writes the records to w as a JSON array.
func WriteJSON(w io.Writer, recs []journal.Record) error {
	enc := json.NewEncoder(w)
	return enc.Encode(recs)
}

// WriteCSV writes the records to w with a header row.
func WriteCSV(w io.Writer, recs []journal.Record) error {
	cw := csv.NewWriter(w)
	header := []string{"time", "trip_id", "vehicle_id", "driver_id", "op", "from", "to", "actor", "attempts", "outcome", "rule", "detail"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range recs {
		row := []string{
			r.Time.Format(time.RFC3339),
			r.TripID,
			r.VehicleID,
			r.DriverID,
			r.Op,
			string(r.From),
			string(r.To),
			r.Actor,
			strconv.Itoa(r.Attempts),
			r.Outcome,
			r.Rule,
			r.Detail,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
