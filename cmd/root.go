package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ananya-001/FleetFlow/app"
	"github.com/ananya-001/FleetFlow/config"
	"github.com/ananya-001/FleetFlow/infra/logger"
)

var (
	cfgPath   string
	roleFlag  string
	actorFlag string
)

var rootCmd = &cobra.Command{
	Use:   "fleetflow",
	Short: "Fleet trip dispatch service",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.PersistentFlags().StringVar(&roleFlag, "role", "", "override the configured role (manager or dispatcher)")
	rootCmd.PersistentFlags().StringVar(&actorFlag, "actor", "", "audit identity recorded on transitions")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// newService loads the configuration and assembles the application for a
// single command invocation.
func newService() (*app.Service, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if roleFlag != "" {
		cfg.Auth.Role = roleFlag
	}
	svc, err := app.New(cfg)
	if err != nil {
		return nil, err
	}
	svc.SetActor(actorFlag)
	return svc, nil
}

func closeService(svc *app.Service) {
	if err := svc.Close(); err != nil {
		logger.New("cli").Errorf("service close: %v", err)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)
	return svc.Run(ctx)
}
