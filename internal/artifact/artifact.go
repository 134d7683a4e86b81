// Package artifact models the compiled value produced at an output port.
//
// Artifact is a closed sum grouped by world: Scalar, Signal, Field, Events
// and the Error marker. Consumers switch on the concrete type.
package artifact

import (
	"fmt"

	"patchc/internal/types"
	"patchc/internal/value"
)

// Viewport is the drawing surface the renderer hands to the program.
type Viewport struct {
	Width, Height float64
}

// RuntimeCtx is passed to every evaluation of a frame.
type RuntimeCtx struct {
	Viewport Viewport
	Frame    uint64
	PrevTMs  float64
	DeltaMs  float64
	Inbox    []value.Event
}

// Artifact is implemented only by the types in this package.
type Artifact interface {
	Type() types.TypeDesc
	sealed()
}

// Scalar is a compile-time constant.
type Scalar struct {
	T types.TypeDesc
	V value.Value
}

// Signal produces one value per frame.
type Signal struct {
	T    types.TypeDesc
	Eval func(tMs float64, rc *RuntimeCtx) value.Value
}

// Field produces one value per element per frame.
type Field struct {
	T    types.TypeDesc
	Eval func(tMs float64, rc *RuntimeCtx) []value.Value
}

// Events produces the occurrences of a frame.
type Events struct {
	T    types.TypeDesc
	Eval func(tMs float64, rc *RuntimeCtx) []value.Event
}

// Error marks an output that failed to compile.
type Error struct {
	T   types.TypeDesc
	Err error
}

func (a Scalar) Type() types.TypeDesc { return a.T }
func (a Signal) Type() types.TypeDesc { return a.T }
func (a Field) Type() types.TypeDesc  { return a.T }
func (a Events) Type() types.TypeDesc { return a.T }
func (a Error) Type() types.TypeDesc  { return a.T }

func (Scalar) sealed() {}
func (Signal) sealed() {}
func (Field) sealed()  {}
func (Events) sealed() {}
func (Error) sealed()  {}

// Constant builds an artifact that always yields v, shaped for t's world.
// A field constant has a single element.
func Constant(t types.TypeDesc, v value.Value) (Artifact, error) {
	switch t.World {
	case types.WorldScalar, types.WorldConfig:
		return Scalar{T: t, V: v}, nil
	case types.WorldSignal:
		return Signal{T: t, Eval: func(float64, *RuntimeCtx) value.Value { return v }}, nil
	case types.WorldField:
		return Field{T: t, Eval: func(float64, *RuntimeCtx) []value.Value { return []value.Value{v} }}, nil
	case types.WorldEvent:
		return Events{T: t, Eval: func(float64, *RuntimeCtx) []value.Event { return nil }}, nil
	}
	return nil, fmt.Errorf("no constant form for world %s", t.World)
}

// CheckType verifies that a matches the port type want: same world and a
// compatible domain. Mismatches are never coerced.
func CheckType(a Artifact, want types.TypeDesc) error {
	if a == nil {
		return fmt.Errorf("no artifact for %s", want.Key())
	}
	if e, ok := a.(Error); ok {
		return e.Err
	}
	got := a.Type()
	if worldOf(a) != got.World {
		return fmt.Errorf("artifact %T tagged %s", a, got.Key())
	}
	if !types.Compatible(got, want) {
		return fmt.Errorf("artifact is %s, port expects %s", got.Key(), want.Key())
	}
	return nil
}

func worldOf(a Artifact) types.World {
	switch a.(type) {
	case Scalar:
		if a.Type().World == types.WorldConfig {
			return types.WorldConfig
		}
		return types.WorldScalar
	case Signal:
		return types.WorldSignal
	case Field:
		return types.WorldField
	case Events:
		return types.WorldEvent
	}
	return a.Type().World
}

// SampleSignal evaluates any artifact as a single value: scalars return their
// constant, signals are evaluated, fields yield their first element.
func SampleSignal(a Artifact, tMs float64, rc *RuntimeCtx) value.Value {
	switch x := a.(type) {
	case Scalar:
		return x.V
	case Signal:
		return x.Eval(tMs, rc)
	case Field:
		if f := x.Eval(tMs, rc); len(f) > 0 {
			return f[0]
		}
	}
	return value.ZeroOf(a.Type().Domain)
}
