package testkit

import (
	"strings"
	"testing"

	"patchc/internal/ir"
	"patchc/internal/types"
	"patchc/internal/value"
)

func delayProgram() *ir.Program {
	return &ir.Program{
		Format: 1,
		Consts: []value.Value{value.Num(42)},
		Slots: []ir.Slot{
			{Op: ir.OpConst, Type: types.SignalNumber, Const: 0, State: -1, Owner: "k"},
			{Op: ir.OpStateRead, Type: types.SignalNumber, Const: -1, State: 0, Owner: "d"},
			{Op: ir.OpAdd, Type: types.SignalNumber, Args: []ir.SlotID{0, 1}, Const: -1, State: -1, Owner: "edge:w1"},
			{Op: ir.OpStateWrite, Type: types.SignalNumber, Args: []ir.SlotID{2}, Const: -1, State: 0, Str: "delay", Owner: "d"},
		},
		States:     []ir.StateCell{{Owner: "d", Type: types.SignalNumber, Init: value.Num(0)}},
		Schedule:   []ir.SlotID{0, 1, 2, 3},
		Output:     2,
		HasOutput:  true,
		Time:       ir.TimeModel{Kind: ir.TimeInfinite, WindowMs: 10000, Root: "time"},
		BlockOrder: []string{"d", "k", "time"},
	}
}

func TestCheckProgramInvariants(t *testing.T) {
	if err := CheckProgramInvariants(delayProgram()); err != nil {
		t.Fatalf("well-formed program rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(p *ir.Program)
		want   string
	}{
		{"unknown owner", func(p *ir.Program) { p.Slots[0].Owner = "ghost" }, `owner "ghost" is not a block`},
		{"empty edge owner", func(p *ir.Program) { p.Slots[2].Owner = "edge:" }, "empty owner id"},
		{"duplicate block", func(p *ir.Program) { p.BlockOrder = append(p.BlockOrder, "k") }, "listed twice"},
		{"state owner", func(p *ir.Program) { p.States[0].Owner = "k2" }, `state 0: owner "k2"`},
		{"time root", func(p *ir.Program) { p.Time.Root = "clock" }, `time root "clock"`},
		{"validate", func(p *ir.Program) { p.Schedule = []ir.SlotID{2, 0, 1, 3} }, "runs before its operand"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := delayProgram()
			tt.mutate(p)
			err := CheckProgramInvariants(p)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestCheckProgramInvariantsNil(t *testing.T) {
	if err := CheckProgramInvariants(nil); err == nil {
		t.Fatal("nil program accepted")
	}
}

func TestDiffPrograms(t *testing.T) {
	diff, err := DiffPrograms(delayProgram(), delayProgram())
	if err != nil || diff != "" {
		t.Fatalf("identical programs: diff=%q err=%v", diff, err)
	}
	other := delayProgram()
	other.Consts[0] = value.Num(7)
	diff, err = DiffPrograms(delayProgram(), other)
	if err != nil {
		t.Fatalf("DiffPrograms: %v", err)
	}
	if diff == "" {
		t.Fatal("different programs reported equal")
	}
}
