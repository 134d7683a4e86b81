package blocks

import (
	"hash/fnv"
	"math/rand/v2"

	"patchc/internal/ir"
	"patchc/internal/types"
)

const maxFieldElements = 1 << 16

func lowerGrid(_ *LowerCtx, b *ir.FragmentBuilder, cfg Config) error {
	rows, err := cfg.Count("rows", 4)
	if err != nil {
		return err
	}
	cols, err := cfg.Count("cols", 4)
	if err != nil {
		return err
	}
	if rows*cols > maxFieldElements {
		return configErr("rows", "grid of %dx%d exceeds %d elements", rows, cols, maxFieldElements)
	}
	spacing, err := cfg.Number("spacing", 20)
	if err != nil {
		return err
	}
	x, err := cfg.Number("x", 0)
	if err != nil {
		return err
	}
	y, err := cfg.Number("y", 0)
	if err != nil {
		return err
	}
	n := b.Emit(ir.Node{
		Op:     ir.OpGrid,
		Type:   types.FieldVec2,
		Params: []float64{float64(rows), float64(cols), spacing, x, y},
	})
	b.Output("positions", n)
	return nil
}

// RandomStream returns the generator for block id under seed. The stream is
// a function of both, so renaming or reseeding changes the values and
// nothing else does.
func RandomStream(seed uint64, blockID string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(blockID))
	return rand.New(rand.NewPCG(seed, h.Sum64()))
}

func lowerRandomField(lc *LowerCtx, b *ir.FragmentBuilder, cfg Config) error {
	count, err := cfg.Count("count", 16)
	if err != nil {
		return err
	}
	if count > maxFieldElements {
		return configErr("count", "%d exceeds %d elements", count, maxFieldElements)
	}
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
	rng := RandomStream(lc.Seed, lc.BlockID)
	vals := make([]float64, count)
	for i := range vals {
		vals[i] = lo + rng.Float64()*(hi-lo)
	}
	b.Output("out", b.Emit(ir.Node{Op: ir.OpRandomField, Type: types.FieldNumber, Params: vals}))
	return nil
}

func lowerFieldBinary(op ir.Op, t types.TypeDesc, a, c string) LowerFunc {
	return func(_ *LowerCtx, b *ir.FragmentBuilder, _ Config) error {
		b.Output("out", b.Emit(ir.Node{Op: op, Type: t, Args: []ir.Operand{b.Input(a), b.Input(c)}}))
		return nil
	}
}
