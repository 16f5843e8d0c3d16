package main

import (
	"os"

	"github.com/avelot/fleetdispatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
