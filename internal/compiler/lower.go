package compiler

import (
	"errors"
	"fmt"

	"patchc/internal/blocks"
	"patchc/internal/diag"
	"patchc/internal/ir"
	"patchc/internal/trace"
	"patchc/internal/types"
)

// lowerBlocks runs every block's lowering function in block order.
func (c *compilation) lowerBlocks() {
	c.frags = make([]*ir.Fragment, len(c.typed.blocks))
	tracer := trace.FromContext(c.ctx)
	parent := trace.ParentFromContext(c.ctx)
	for _, ix := range c.deps.order {
		b := &c.typed.blocks[ix]
		span := trace.Begin(tracer, trace.ScopeBlock, b.ID, parent).WithExtra("type", b.Type)
		frag := c.lowerBlock(b)
		if frag == nil {
			span.End("failed")
			continue
		}
		span.WithExtra("nodes", fmt.Sprint(len(frag.Nodes))).End("")
		c.frags[ix] = frag
	}
}

func (c *compilation) lowerBlock(b *tBlock) (frag *ir.Fragment) {
	loc := diag.AtBlock(b.ID)
	var connected []string
	for _, p := range b.Def.Inputs {
		if _, ok := c.deps.inbound[b.ID+"."+p.ID]; ok {
			connected = append(connected, p.ID)
		}
	}
	lc := blocks.NewLowerCtx(b.ID, c.cc.Seed, connected...)
	fb := ir.NewFragmentBuilder(b.Def.Capability)

	defer func() {
		if r := recover(); r != nil {
			c.errorf(diag.LoweringFailed, loc, "lowering %s panicked: %v", b.Type, r).Emit()
			frag = nil
		}
	}()

	if err := b.Def.Lower(lc, fb, b.Config); err != nil {
		var ce *blocks.ConfigError
		if errors.As(err, &ce) {
			c.errorf(diag.InvalidBlockConfig, loc, "%s: %v", b.Type, err).Emit()
		} else {
			c.errorf(diag.LoweringFailed, loc, "%s: %v", b.Type, err).Emit()
		}
		return nil
	}
	frag, violations := fb.Finish()
	for _, v := range violations {
		c.errorf(diag.PureBlockViolation, loc,
			"block type %s emits %s, which needs the %s capability it does not declare", b.Type, v.Op, v.Need).Emit()
	}
	if !c.checkFragment(b, frag) || len(violations) > 0 {
		return nil
	}
	return frag
}

// checkFragment verifies operands and output bindings against the block's
// declared ports.
func (c *compilation) checkFragment(b *tBlock, frag *ir.Fragment) bool {
	ok := true
	checkOperand := func(op ir.Operand) {
		if op.IsInput() {
			if _, found := b.Def.Input(op.Port); !found {
				c.errorf(diag.LoweringFailed, diag.AtBlock(b.ID), "%s reads undeclared input %q", b.Type, op.Port).Emit()
				ok = false
			}
		} else if op.Node < 0 || op.Node >= len(frag.Nodes) {
			c.errorf(diag.LoweringFailed, diag.AtBlock(b.ID), "%s references node %d of %d", b.Type, op.Node, len(frag.Nodes)).Emit()
			ok = false
		}
	}
	for _, n := range frag.Nodes {
		for _, a := range n.Args {
			checkOperand(a)
		}
	}
	for _, o := range frag.Outputs {
		loc := diag.AtPort(b.ID, o.Port)
		port, found := b.Def.Output(o.Port)
		if !found {
			c.errorf(diag.LoweringFailed, loc, "%s binds undeclared output %q", b.Type, o.Port).Emit()
			ok = false
			continue
		}
		checkOperand(o.Operand)
		if !ok {
			continue
		}
		var got types.TypeDesc
		if o.Operand.IsInput() {
			in, _ := b.Def.Input(o.Operand.Port)
			got = in.Type
		} else {
			got = frag.Nodes[o.Operand.Node].Type
		}
		if got.World != port.Type.World || !types.Compatible(got, port.Type) {
			c.errorf(diag.ArtifactTypeMismatch, loc, "output %s produces %s, port is declared %s", o.Port, got.Key(), port.Type.Key()).Emit()
			ok = false
		}
	}
	return ok
}
