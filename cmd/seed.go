package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ananya-001/FleetFlow/core/fleet"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo fixtures and drive one trip to dispatched",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	// Seeding registers roster entries, which needs the manager role.
	if roleFlag == "" {
		roleFlag = "manager"
	}
	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	ctx := cmd.Context()
	v, err := svc.RegisterVehicle(ctx, "Van-05", "MH12AB1234", 500)
	if err != nil {
		return fmt.Errorf("seed vehicle: %w", err)
	}
	d, err := svc.RegisterDriver(ctx, "Alex", "DL1234567", time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return fmt.Errorf("seed driver: %w", err)
	}
	trip, err := svc.SubmitTrip(ctx, fleet.TripRequest{
		VehicleID: v.ID,
		DriverID:  d.ID,
		CargoKg:   450,
		StartDate: time.Now().AddDate(0, 0, 7),
	})
	if err != nil {
		return fmt.Errorf("seed trip: %w", err)
	}
	if trip, err = svc.AssignTrip(ctx, trip.ID); err != nil {
		return fmt.Errorf("seed assign: %w", err)
	}
	if trip, err = svc.DispatchTrip(ctx, trip.ID); err != nil {
		return fmt.Errorf("seed dispatch: %w", err)
	}

	fmt.Printf("vehicle %s\n", v.ID)
	fmt.Printf("driver  %s\n", d.ID)
	fmt.Printf("trip    %s %s\n", trip.ID, trip.Status)
	return nil
}
