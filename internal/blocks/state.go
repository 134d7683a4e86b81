package blocks

import (
	"patchc/internal/ir"
	"patchc/internal/types"
	"patchc/internal/value"
)

// State update modes carried by OpStateWrite.
const (
	StateIntegrate = "integrate" // cell += in * dt / 1000
	StateDelay     = "delay"     // cell = in
	StateCount     = "count"     // cell += number of events
)

// lowerStateful emits the read/write pair of a state boundary. The output is
// the value committed by the previous frame, so nothing downstream depends
// on the same-frame input and feedback through the block is legal.
func lowerStateful(input, output, mode string) LowerFunc {
	return func(_ *LowerCtx, b *ir.FragmentBuilder, cfg Config) error {
		init, err := cfg.Number("initial", 0)
		if err != nil {
			return err
		}
		cell := b.State(types.SignalNumber, value.Num(init))
		b.Output(output, b.StateRead(cell))
		b.StateWrite(cell, mode, b.Input(input))
		return nil
	}
}
