package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avelot/fleetdispatch/app"
	"github.com/avelot/fleetdispatch/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "fleetdispatch",
	Short: "Order-to-driver dispatch toolbox",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// newService builds the service from the configured seed store.
func newService() (*app.Service, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.New(cfg)
}
