package ir

import (
	"fmt"

	"patchc/internal/types"
	"patchc/internal/value"
)

// Operand references either a node of the same fragment or one of the
// block's inputs by port id.
type Operand struct {
	Port string // input port; empty for a local node
	Node int
}

// IsInput reports whether the operand is a block input.
func (o Operand) IsInput() bool { return o.Port != "" }

func (o Operand) String() string {
	if o.IsInput() {
		return "in:" + o.Port
	}
	return fmt.Sprintf("%%%d", o.Node)
}

// Node is one expression of a fragment.
type Node struct {
	Op     Op
	Type   types.TypeDesc
	Args   []Operand
	Const  int // index into Fragment.Consts, OpConst only
	Params []float64
	Str    string
	State  int // index into Fragment.States, state ops only
}

// FragmentOutput binds an output port to an operand.
type FragmentOutput struct {
	Port    string
	Operand Operand
}

// Violation records a capability-gated op emitted without the capability.
type Violation struct {
	Op   Op
	Need Capability
}

// Fragment is the lowering of one block.
type Fragment struct {
	Nodes   []Node
	Consts  []value.Value
	States  []StateCell
	Outputs []FragmentOutput
}

// Output returns the operand bound to port.
func (f *Fragment) Output(port string) (Operand, bool) {
	for _, o := range f.Outputs {
		if o.Port == port {
			return o.Operand, true
		}
	}
	return Operand{}, false
}

// FragmentBuilder collects the nodes of one block lowering.
type FragmentBuilder struct {
	declared   Capability
	frag       Fragment
	violations []Violation
}

// NewFragmentBuilder starts a fragment for a block declaring cap.
func NewFragmentBuilder(declared Capability) *FragmentBuilder {
	return &FragmentBuilder{declared: declared}
}

// Input references the value arriving at an input port.
func (b *FragmentBuilder) Input(port string) Operand {
	return Operand{Port: port}
}

// Const emits a constant node.
func (b *FragmentBuilder) Const(t types.TypeDesc, v value.Value) Operand {
	b.frag.Consts = append(b.frag.Consts, v)
	return b.Emit(Node{Op: OpConst, Type: t, Const: len(b.frag.Consts) - 1})
}

// Emit appends n and returns a reference to it. Ops gated by a capability the
// block did not declare are recorded as violations.
func (b *FragmentBuilder) Emit(n Node) Operand {
	if need := n.Op.Capability(); need != CapPure && need != b.declared {
		b.violations = append(b.violations, Violation{Op: n.Op, Need: need})
	}
	if n.Op != OpConst {
		n.Const = -1
	}
	if n.Op != OpStateRead && n.Op != OpStateWrite {
		n.State = -1
	}
	b.frag.Nodes = append(b.frag.Nodes, n)
	return Operand{Node: len(b.frag.Nodes) - 1}
}

// Output binds port to op. Binding an input operand forwards that input
// unchanged.
func (b *FragmentBuilder) Output(port string, op Operand) {
	b.frag.Outputs = append(b.frag.Outputs, FragmentOutput{Port: port, Operand: op})
}

// State allocates a state cell holding init before the first frame.
func (b *FragmentBuilder) State(t types.TypeDesc, init value.Value) int {
	b.frag.States = append(b.frag.States, StateCell{Type: t, Init: init})
	return len(b.frag.States) - 1
}

// StateRead emits a read of the previous frame's value of cell.
func (b *FragmentBuilder) StateRead(cell int) Operand {
	return b.Emit(Node{Op: OpStateRead, Type: b.cellType(cell), State: cell})
}

// StateWrite emits the update of cell from in using mode.
func (b *FragmentBuilder) StateWrite(cell int, mode string, in Operand) Operand {
	return b.Emit(Node{Op: OpStateWrite, Type: b.cellType(cell), State: cell, Str: mode, Args: []Operand{in}})
}

func (b *FragmentBuilder) cellType(cell int) types.TypeDesc {
	if cell < 0 || cell >= len(b.frag.States) {
		panic(fmt.Sprintf("state cell %d out of range", cell))
	}
	return b.frag.States[cell].Type
}

// Finish returns the fragment and any capability violations.
func (b *FragmentBuilder) Finish() (*Fragment, []Violation) {
	f := b.frag
	return &f, b.violations
}
