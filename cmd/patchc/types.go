package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"patchc/internal/types"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the type table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		busOnly, err := cmd.Flags().GetBool("bus")
		if err != nil {
			return fmt.Errorf("failed to get bus flag: %w", err)
		}
		listTypes(cmd.OutOrStdout(), types.NewRegistry(), busOnly)
		return nil
	},
}

func init() {
	typesCmd.Flags().Bool("bus", false, "only list bus-eligible types")
}

func listTypes(out io.Writer, reg *types.Registry, busOnly bool) {
	for _, t := range reg.All() {
		if busOnly && !t.BusEligible {
			continue
		}
		bus := ""
		if t.BusEligible {
			bus = "bus"
		}
		fmt.Fprintf(out, "%4d  %-24s arity=%d %-8s %s\n", reg.ID(t), t.Key(), t.BundleArity, t.Category, bus)
	}
}
