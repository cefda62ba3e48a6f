package main

import (
	"os"

	"github.com/ananya-001/FleetFlow/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
