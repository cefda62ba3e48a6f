package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ananya-001/FleetFlow/app"
	"github.com/ananya-001/FleetFlow/config"
	"github.com/ananya-001/FleetFlow/core/dispatch/journal"
	"github.com/ananya-001/FleetFlow/pkg/export"
)

var (
	journalFormat string
	journalTrip   string
	journalOp     string
	journalSince  time.Duration
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Audit journal commands",
}

var journalExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write journal records to stdout",
	RunE:  runJournalExport,
}

func init() {
	journalExportCmd.Flags().StringVar(&journalFormat, "format", "json", "output format: json or csv")
	journalExportCmd.Flags().StringVar(&journalTrip, "trip", "", "filter by trip id")
	journalExportCmd.Flags().StringVar(&journalOp, "op", "", "filter by operation")
	journalExportCmd.Flags().DurationVar(&journalSince, "since", 0, "only records newer than this, e.g. 24h")
	journalCmd.AddCommand(journalExportCmd)
	rootCmd.AddCommand(journalCmd)
}

func runJournalExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	jr, err := app.OpenJournal(cfg.Journal)
	if err != nil {
		return err
	}
	if jr == nil {
		return fmt.Errorf("journal backend is %q, nothing to export", cfg.Journal.Backend)
	}
	defer func() {
		if err := jr.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "journal close: %v\n", err)
		}
	}()

	q := journal.Query{TripID: journalTrip, Op: journalOp}
	if journalSince > 0 {
		q.Start = time.Now().Add(-journalSince)
	}
	recs, err := jr.Query(cmd.Context(), q)
	if err != nil {
		return err
	}

	switch journalFormat {
	case "json":
		return export.WriteJSON(os.Stdout, recs)
	case "csv":
		return export.WriteCSV(os.Stdout, recs)
	default:
		return fmt.Errorf("unknown format %q", journalFormat)
	}
}
