package blocks

import (
	"patchc/internal/ir"
	"patchc/internal/types"
	"patchc/internal/value"
)

func lowerConstant(_ *LowerCtx, b *ir.FragmentBuilder, cfg Config) error {
	v, err := cfg.Number("value", 0)
	if err != nil {
		return err
	}
	b.Output("out", b.Const(types.SignalNumber, value.Num(v)))
	return nil
}

func lowerConstVec2(_ *LowerCtx, b *ir.FragmentBuilder, cfg Config) error {
	x, err := cfg.Number("x", 0)
	if err != nil {
		return err
	}
	y, err := cfg.Number("y", 0)
	if err != nil {
		return err
	}
	b.Output("out", b.Const(types.SignalVec2, value.Vec2(x, y)))
	return nil
}

func lowerScalarConst(_ *LowerCtx, b *ir.FragmentBuilder, cfg Config) error {
	v, err := cfg.Number("value", 0)
	if err != nil {
		return err
	}
	b.Output("out", b.Const(types.ScalarNumber, value.Num(v)))
	return nil
}

// Param forwards its input when connected (pass-through mode) and otherwise
// provides its configured value (provider mode).
func lowerParam(lc *LowerCtx, b *ir.FragmentBuilder, cfg Config) error {
	v, err := cfg.Number("value", 0)
	if err != nil {
		return err
	}
	if lc.Connected("in") {
		b.Output("out", b.Input("in"))
		return nil
	}
	b.Output("out", b.Const(types.SignalNumber, value.Num(v)))
	return nil
}

func lowerBinary(op ir.Op) LowerFunc {
	return func(_ *LowerCtx, b *ir.FragmentBuilder, _ Config) error {
		n := b.Emit(ir.Node{Op: op, Type: types.SignalNumber, Args: []ir.Operand{b.Input("a"), b.Input("b")}})
		b.Output("out", n)
		return nil
	}
}

func lowerClamp(_ *LowerCtx, b *ir.FragmentBuilder, cfg Config) error {
	lo, err := cfg.Number("min", 0)
	if err != nil {
		return err
	}
	hi, err := cfg.Number("max", 1)
	if err != nil {
		return err
	}
	if lo > hi {
		return configErr("min", "min %g is greater than max %g", lo, hi)
	}
	n := b.Emit(ir.Node{Op: ir.OpClamp, Type: types.SignalNumber, Args: []ir.Operand{b.Input("in")}, Params: []float64{lo, hi}})
	b.Output("out", n)
	return nil
}

// Oscillator shapes.
const (
	ShapeSine     = "sine"
	ShapeTriangle = "triangle"
	ShapeSaw      = "saw"
	ShapeSquare   = "square"
)

func lowerOscillator(_ *LowerCtx, b *ir.FragmentBuilder, cfg Config) error {
	shape, err := cfg.String("shape", ShapeSine, ShapeSine, ShapeTriangle, ShapeSaw, ShapeSquare)
	if err != nil {
		return err
	}
	n := b.Emit(ir.Node{
		Op:   ir.OpOscillator,
		Type: types.SignalNumber,
		Args: []ir.Operand{b.Input("phase"), b.Input("amplitude")},
		Str:  shape,
	})
	b.Output("out", n)
	return nil
}

func lowerVec2(_ *LowerCtx, b *ir.FragmentBuilder, _ Config) error {
	b.Output("out", b.Emit(ir.Node{Op: ir.OpVec2, Type: types.SignalVec2, Args: []ir.Operand{b.Input("x"), b.Input("y")}}))
	return nil
}

func lowerHue(_ *LowerCtx, b *ir.FragmentBuilder, _ Config) error {
	b.Output("out", b.Emit(ir.Node{Op: ir.OpHueColor, Type: types.SignalColor, Args: []ir.Operand{b.Input("hue")}}))
	return nil
}
