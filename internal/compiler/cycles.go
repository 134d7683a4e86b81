package compiler

import (
	"slices"
	"strings"

	"patchc/internal/diag"
	"patchc/internal/graph"
)

// validateCycles reports every strongly connected component that does not
// pass through a state boundary. One diagnostic per component.
func (c *compilation) validateCycles() {
	dg := c.deps
	for _, comp := range graph.StronglyConnected(dg.g) {
		if !graph.Nontrivial(dg.g, comp) {
			continue
		}
		var owners []string
		legal := false
		for _, n := range comp {
			blk := dg.nodeBlock[n]
			if blk == "" {
				continue
			}
			if !slices.Contains(owners, blk) {
				owners = append(owners, blk)
			}
			if c.typed.blocks[c.norm.blockIx[blk]].Def.StateBoundary {
				legal = true
			}
		}
		if legal {
			continue
		}
		slices.Sort(owners)
		members := dg.index.Names(comp)
		b := c.errorf(diag.CycleDetected, diag.AtBlock(owners[0]),
			"cycle without a state boundary through %s", strings.Join(owners, ", "))
		b.WithNote(diag.Location{}, "nodes: "+strings.Join(members, ", "))
		b.WithNote(diag.Location{}, "insert a Delay or Integrator to break the cycle")
		b.Emit()
	}
}
