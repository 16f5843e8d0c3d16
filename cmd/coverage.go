package cmd

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var coverageZone string

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Print the zone coverage report",
	RunE:  runCoverage,
}

func init() {
	coverageCmd.Flags().StringVarP(&coverageZone, "zone", "z", "", "restrict the report to this zone")
	rootCmd.AddCommand(coverageCmd)
}

func runCoverage(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	rep, err := svc.Coverage.Snapshot(context.Background(), coverageZone)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
