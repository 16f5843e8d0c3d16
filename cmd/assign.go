package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avelot/fleetdispatch/core/dispatch"
	"github.com/avelot/fleetdispatch/infra/store/memory"
)

var (
	assignZone   string
	assignNote   string
	assignNoPing bool
)

var assignCmd = &cobra.Command{
	Use:   "assign <order-id>",
	Short: "Assign an order to the best eligible driver",
	Args:  cobra.ExactArgs(1),
	RunE:  runAssign,
}

func init() {
	assignCmd.Flags().StringVarP(&assignZone, "zone", "z", "", "restrict candidates to this zone")
	assignCmd.Flags().StringVar(&assignNote, "note", "", "note attached to the driver status update")
	assignCmd.Flags().BoolVar(&assignNoPing, "no-notify", false, "skip the driver notification")
	rootCmd.AddCommand(assignCmd)
}

func runAssign(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	cs, ok := svc.Backend.(*memory.CoverageStore)
	if !ok {
		return fmt.Errorf("assign: backend is not the seeded in-memory store")
	}
	order, found := cs.Order(args[0])
	if !found {
		return fmt.Errorf("assign: unknown order %s", args[0])
	}

	res, err := svc.Orchestrator.AssignOrder(context.Background(), order, assignZone, dispatch.AssignOptions{
		SkipNotification: assignNoPing,
		Note:             assignNote,
	})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
