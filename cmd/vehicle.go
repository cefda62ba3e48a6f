package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var vehicleCmd = &cobra.Command{
	Use:   "vehicle",
	Short: "Vehicle roster commands",
}

var vehicleRegisterCmd = &cobra.Command{
	Use:   "register NAME PLATE MAX_LOAD_KG",
	Short: "Add a vehicle to the roster",
	Args:  cobra.ExactArgs(3),
	RunE:  runVehicleRegister,
}

var vehicleRetireCmd = &cobra.Command{
	Use:   "retire ID",
	Short: "Park an idle vehicle in maintenance",
	Args:  cobra.ExactArgs(1),
	RunE:  runVehicleRetire,
}

var vehicleRestoreCmd = &cobra.Command{
	Use:   "restore ID",
	Short: "Return a maintenance vehicle to service",
	Args:  cobra.ExactArgs(1),
	RunE:  runVehicleRestore,
}

var vehicleLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List vehicles with their active trips",
	RunE:  runVehicleLs,
}

func init() {
	vehicleCmd.AddCommand(vehicleRegisterCmd, vehicleRetireCmd, vehicleRestoreCmd, vehicleLsCmd)
	rootCmd.AddCommand(vehicleCmd)
}

func runVehicleRegister(cmd *cobra.Command, args []string) error {
	maxLoad, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("max load: %w", err)
	}
	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)
	v, err := svc.RegisterVehicle(cmd.Context(), args[0], args[1], maxLoad)
	if err != nil {
		return err
	}
	fmt.Println(v.ID)
	return nil
}

func runVehicleRetire(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)
	v, err := svc.RetireVehicle(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", v.ID, v.Status)
	return nil
}

func runVehicleRestore(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)
	v, err := svc.RestoreVehicle(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", v.ID, v.Status)
	return nil
}

func runVehicleLs(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)
	fleet, err := svc.FleetStatus(cmd.Context())
	if err != nil {
		return err
	}
	for _, v := range fleet {
		line := fmt.Sprintf("%s  %s  %s  %dkg  %s", v.ID, v.Name, v.Plate, v.MaxLoadKg, v.Status)
		if v.ActiveTripID != "" {
			line += fmt.Sprintf("  trip=%s driver=%s", v.ActiveTripID, v.DriverName)
		}
		fmt.Println(line)
	}
	return nil
}
