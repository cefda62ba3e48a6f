package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var driverCmd = &cobra.Command{
	Use:   "driver",
	Short: "Driver roster commands",
}

var driverRegisterCmd = &cobra.Command{
	Use:   "register NAME LICENSE EXPIRY",
	Short: "Add a driver to the roster; EXPIRY is the license expiry date (YYYY-MM-DD)",
	Args:  cobra.ExactArgs(3),
	RunE:  runDriverRegister,
}

func init() {
	driverCmd.AddCommand(driverRegisterCmd)
	rootCmd.AddCommand(driverCmd)
}

func runDriverRegister(cmd *cobra.Command, args []string) error {
	expiry, err := time.Parse("2006-01-02", args[2])
	if err != nil {
		return fmt.Errorf("expiry date: %w", err)
	}
	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)
	d, err := svc.RegisterDriver(cmd.Context(), args[0], args[1], expiry)
	if err != nil {
		return err
	}
	fmt.Println(d.ID)
	return nil
}
