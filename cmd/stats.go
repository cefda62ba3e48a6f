package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print fleet dashboard and capacity figures",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	ctx := cmd.Context()
	stats, err := svc.DashboardStats(ctx)
	if err != nil {
		return err
	}
	report, err := svc.CapacityReport(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("vehicles:       %d (%d in maintenance)\n", stats.TotalVehicles, stats.MaintenanceAlerts)
	fmt.Printf("drivers:        %d\n", stats.TotalDrivers)
	fmt.Printf("active trips:   %d\n", stats.ActiveTrips)
	fmt.Printf("capacity:       %dkg total, %dkg available, %dkg assigned, %dkg in maintenance\n",
		report.TotalCapacityKg, report.AvailableCapacityKg, report.AssignedCapacityKg, report.MaintenanceCapacityKg)
	fmt.Printf("utilization:    %.1f%%\n", report.Utilization*100)
	fmt.Printf("per vehicle:    mean %.0fkg, median %.0fkg, p90 %.0fkg\n",
		report.MeanCapacityKg, report.MedianCapacityKg, report.P90CapacityKg)
	return nil
}
