package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ananya-001/FleetFlow/core/fleet"
)

var (
	tripVehicleID string
	tripDriverID  string
	tripCargoKg   int
	tripStart     string
)

var tripCmd = &cobra.Command{
	Use:   "trip",
	Short: "Trip lifecycle commands",
}

var tripSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Record a draft trip request",
	RunE:  runTripSubmit,
}

var tripAssignCmd = &cobra.Command{
	Use:   "assign ID",
	Short: "Validate a draft trip and take its vehicle",
	Args:  cobra.ExactArgs(1),
	RunE:  runTripAssign,
}

var tripDispatchCmd = &cobra.Command{
	Use:   "dispatch ID",
	Short: "Put an assigned trip on the road",
	Args:  cobra.ExactArgs(1),
	RunE:  runTripDispatch,
}

var tripCompleteCmd = &cobra.Command{
	Use:   "complete ID",
	Short: "Finish a dispatched trip and release its vehicle",
	Args:  cobra.ExactArgs(1),
	RunE:  runTripComplete,
}

var tripCancelCmd = &cobra.Command{
	Use:   "cancel ID",
	Short: "Abort a trip from any non-terminal status",
	Args:  cobra.ExactArgs(1),
	RunE:  runTripCancel,
}

var tripShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Print one trip",
	Args:  cobra.ExactArgs(1),
	RunE:  runTripShow,
}

func init() {
	tripSubmitCmd.Flags().StringVar(&tripVehicleID, "vehicle", "", "vehicle id")
	tripSubmitCmd.Flags().StringVar(&tripDriverID, "driver", "", "driver id")
	tripSubmitCmd.Flags().IntVar(&tripCargoKg, "cargo", 0, "cargo weight in kg")
	tripSubmitCmd.Flags().StringVar(&tripStart, "start", "", "start date (YYYY-MM-DD)")
	tripCmd.AddCommand(tripSubmitCmd, tripAssignCmd, tripDispatchCmd, tripCompleteCmd, tripCancelCmd, tripShowCmd)
	rootCmd.AddCommand(tripCmd)
}

func runTripSubmit(cmd *cobra.Command, args []string) error {
	start, err := time.Parse("2006-01-02", tripStart)
	if err != nil {
		return fmt.Errorf("start date: %w", err)
	}
	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)
	trip, err := svc.SubmitTrip(cmd.Context(), fleet.TripRequest{
		VehicleID: tripVehicleID,
		DriverID:  tripDriverID,
		CargoKg:   tripCargoKg,
		StartDate: start,
	})
	if err != nil {
		return err
	}
	fmt.Println(trip.ID)
	return nil
}

func runTripAssign(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)
	trip, err := svc.AssignTrip(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", trip.ID, trip.Status)
	return nil
}

func runTripDispatch(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)
	trip, err := svc.DispatchTrip(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", trip.ID, trip.Status)
	return nil
}

func runTripComplete(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)
	trip, err := svc.CompleteTrip(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", trip.ID, trip.Status)
	return nil
}

func runTripCancel(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)
	trip, err := svc.CancelTrip(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", trip.ID, trip.Status)
	return nil
}

func runTripShow(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)
	trip, err := svc.Trip(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s  vehicle=%s driver=%s cargo=%dkg start=%s v%d\n",
		trip.ID, trip.Status, trip.VehicleID, trip.DriverID, trip.CargoKg,
		trip.StartDate.Format("2006-01-02"), trip.Version)
	return nil
}
