package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"patchc/internal/adapter"
	"patchc/internal/types"
)

var adaptersCmd = &cobra.Command{
	Use:   "adapters [from to]",
	Short: "List adapters or show how one type converts to another",
	Long: `Without arguments adapters lists the registered conversion steps. With two
type keys (for example signal:phase signal:number) it prints the tier and
the chain the resolver would choose, plus every candidate chain.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("expected zero or two type arguments, got %d", len(args))
		}
		return nil
	},
	RunE: runAdapters,
}

func init() {
	adaptersCmd.Flags().String("context", "wire", "conversion context (wire|publisher|listener)")
}

func runAdapters(cmd *cobra.Command, args []string) error {
	reg := adapter.Default()
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		listAdapters(out, reg)
		return nil
	}

	ctxStr, err := cmd.Flags().GetString("context")
	if err != nil {
		return fmt.Errorf("failed to get context flag: %w", err)
	}
	ctx, err := parseAdapterContext(ctxStr)
	if err != nil {
		return err
	}
	typeReg := types.NewRegistry()
	from, err := typeReg.Resolve(args[0])
	if err != nil {
		return err
	}
	to, err := typeReg.Resolve(args[1])
	if err != nil {
		return err
	}

	r := adapter.NewResolver(reg)
	describeResolution(out, r, r.FindPath(from, to, ctx))
	return nil
}

func parseAdapterContext(s string) (adapter.Context, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "wire":
		return adapter.ContextWire, nil
	case "publisher", "publish":
		return adapter.ContextPublisher, nil
	case "listener", "listen":
		return adapter.ContextListener, nil
	}
	return 0, fmt.Errorf("invalid context %q (expected wire|publisher|listener)", s)
}

func listAdapters(out io.Writer, reg *adapter.Registry) {
	for _, a := range reg.All() {
		fmt.Fprintf(out, "%-28s %-16s -> %-16s %-10s cost=%g\n", a.ID, a.From.Key(), a.To.Key(), a.Policy, a.Cost)
	}
}

func describeResolution(out io.Writer, r *adapter.Resolver, res adapter.Result) {
	fmt.Fprintf(out, "%s -> %s (%s): %s\n", res.From.Key(), res.To.Key(), res.Context, res.Tier())
	if res.Direct {
		return
	}
	if best := res.Best(); best != nil {
		fmt.Fprintf(out, "best: %s\n", best)
	}
	candidates := r.Candidates(res.From, res.To)
	if len(candidates) == 0 {
		fmt.Fprintln(out, "no adapter chain")
		return
	}
	for _, p := range candidates {
		fmt.Fprintf(out, "  %-8s %s\n", p.Tier, p)
	}
}
