package compiler

import (
	"slices"
	"strings"

	"patchc/internal/diag"
	"patchc/internal/graph"
	"patchc/internal/ir"
	"patchc/internal/version"
)

// schedule orders slots so every operand is evaluated before its user. State
// reads take no operands, which is what cuts legal feedback loops.
func (c *compilation) schedule() {
	prog := c.prog
	g := graph.New(len(prog.Slots))
	for i, s := range prog.Slots {
		for _, a := range s.Args {
			g.AddEdge(graph.NodeID(a), graph.ToID(i))
		}
	}
	topo := graph.ToposortKahn(g)
	if topo.Cyclic {
		var owners []string
		for _, id := range topo.Cycles {
			o := prog.Slots[id].Owner
			if !slices.Contains(owners, o) {
				owners = append(owners, o)
			}
		}
		slices.Sort(owners)
		c.errorf(diag.ScheduleFailed, diag.Location{}, "%d slots could not be ordered", len(topo.Cycles)).
			WithNote(diag.Location{}, "involved: "+strings.Join(owners, ", ")).Emit()
		return
	}

	prog.Schedule = make([]ir.SlotID, len(topo.Order))
	for i, id := range topo.Order {
		prog.Schedule[i] = ir.SlotID(id)
	}
	prog.Format = version.IRFormat
	prog.Time = c.time.model
	prog.BlockOrder = make([]string, len(c.deps.order))
	for i, ix := range c.deps.order {
		prog.BlockOrder[i] = c.typed.blocks[ix].ID
	}
}
