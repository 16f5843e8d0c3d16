package cmd

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var workloadThreshold float64

var workloadCmd = &cobra.Command{
	Use:   "workload",
	Short: "Print the fleet workload distribution and rebalancing advice",
	RunE:  runWorkload,
}

func init() {
	workloadCmd.Flags().Float64Var(&workloadThreshold, "threshold", 0, "overload threshold percentage (0 uses the configured one)")
	rootCmd.AddCommand(workloadCmd)
}

func runWorkload(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	ctx := context.Background()
	dist, err := svc.Workload.WorkloadDistribution(ctx)
	if err != nil {
		return err
	}
	recs, err := svc.Workload.BalanceWorkload(ctx, workloadThreshold)
	if err != nil {
		return err
	}
	out := struct {
		Distribution    any `json:"distribution"`
		Recommendations any `json:"recommendations"`
	}{dist, recs}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
