package blocks

import (
	"patchc/internal/ir"
	"patchc/internal/types"
)

func lowerRenderCircles(_ *LowerCtx, b *ir.FragmentBuilder, _ Config) error {
	n := b.Emit(ir.Node{
		Op:   ir.OpRender,
		Type: types.SignalRender,
		Args: []ir.Operand{b.Input("positions"), b.Input("radius"), b.Input("color")},
	})
	b.Output("out", n)
	return nil
}

func lowerSink(_ *LowerCtx, b *ir.FragmentBuilder, _ Config) error {
	b.Output("out", b.Emit(ir.Node{Op: ir.OpSink, Type: types.SignalNumber, Args: []ir.Operand{b.Input("value")}}))
	return nil
}

func lowerEventInput(lc *LowerCtx, b *ir.FragmentBuilder, cfg Config) error {
	name, err := cfg.String("name", lc.BlockID)
	if err != nil {
		return err
	}
	if name == "" {
		return configErr("name", "must not be empty")
	}
	b.Output("out", b.Emit(ir.Node{Op: ir.OpEventInput, Type: types.EventTrigger, Str: name}))
	return nil
}

func lowerEventSink(_ *LowerCtx, b *ir.FragmentBuilder, _ Config) error {
	b.Emit(ir.Node{Op: ir.OpEventSink, Type: types.EventTrigger, Args: []ir.Operand{b.Input("in")}})
	return nil
}
