package compiler

import (
	"strings"

	"patchc/internal/diag"
	"patchc/internal/ir"
	"patchc/internal/patch"
)

type timeTopology struct {
	root  string
	model ir.TimeModel
}

// resolveTimeTopology finds the single time root and derives the time model.
func (c *compilation) resolveTimeTopology() {
	var roots []*tBlock
	for i := range c.typed.blocks {
		b := &c.typed.blocks[i]
		if b.Def.Capability == ir.CapTime {
			roots = append(roots, b)
		}
	}

	switch len(roots) {
	case 0:
		c.errorf(diag.MissingTimeRoot, diag.Location{}, "patch has no time root").
			WithNote(diag.Location{}, "add one of InfiniteTimeRoot, FiniteTimeRoot or CycleTimeRoot").Emit()
		c.stopOnErrors()
	case 1:
	default:
		ids := make([]string, len(roots))
		for i, r := range roots {
			ids[i] = r.ID
		}
		b := c.errorf(diag.MultipleTimeRoots, diag.AtBlock(roots[1].ID), "patch has %d time roots: %s", len(roots), strings.Join(ids, ", "))
		for _, r := range roots {
			b.WithNote(diag.AtBlock(r.ID), r.Type+" declared here")
		}
		b.Emit()
		c.stopOnErrors()
	}

	root := roots[0]
	model, err := root.Def.TimeModel(root.Config)
	if err != nil {
		c.errorf(diag.InvalidTimeRootConfig, diag.AtBlock(root.ID), "%s: %v", root.Type, err).Emit()
		c.stopOnErrors()
	}
	model.Root = root.ID

	// A bus fed by the time root must not mix in other clocks.
	publishers := make(map[string][]*tEdge)
	for _, e := range c.typed.edges {
		if e.Kind == patch.EdgePublish {
			publishers[e.To.Bus] = append(publishers[e.To.Bus], e)
		}
	}
	for _, b := range c.typed.buses {
		pubs := publishers[b.ID]
		fromRoot, fromOthers := false, []string(nil)
		for _, e := range pubs {
			if e.From.Port.Block == root.ID {
				fromRoot = true
			} else {
				fromOthers = append(fromOthers, e.From.Port.Block)
			}
		}
		if fromRoot && len(fromOthers) > 0 {
			c.errorf(diag.ConflictingTimeTopology, diag.AtBus(b.ID),
				"bus %s carries time root %s together with %s", b.ID, root.ID, strings.Join(fromOthers, ", ")).Emit()
		}
	}
	c.stopOnErrors()

	c.time = &timeTopology{root: root.ID, model: model}
}
