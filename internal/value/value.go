// Package value holds the runtime values that flow through compiled programs.
package value

import (
	"fmt"
	"math"
	"strconv"

	"patchc/internal/types"
)

// Kind is the runtime representation of a domain.
type Kind uint8

const (
	KindUnit Kind = iota
	KindNumber
	KindVec2
	KindVec3
	KindColor
	KindBool
	KindString
	KindRender
)

func (k Kind) String() string {
	switch k {
	case KindUnit:
		return "unit"
	case KindNumber:
		return "number"
	case KindVec2:
		return "vec2"
	case KindVec3:
		return "vec3"
	case KindColor:
		return "color"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindRender:
		return "render"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// KindOf maps a domain to its runtime representation. Phase, time and
// duration are numbers; point is a vec2; trigger payloads are units.
func KindOf(d types.Domain) Kind {
	switch d {
	case types.DomainNumber, types.DomainPhase, types.DomainTime, types.DomainDuration:
		return KindNumber
	case types.DomainVec2, types.DomainPoint:
		return KindVec2
	case types.DomainVec3:
		return KindVec3
	case types.DomainColor:
		return KindColor
	case types.DomainBoolean:
		return KindBool
	case types.DomainString:
		return KindString
	case types.DomainRenderTree:
		return KindRender
	}
	return KindUnit
}

// Value is one runtime value. Numeric kinds use the leading components of N.
type Value struct {
	Kind   Kind        `msgpack:"k"`
	N      [4]float64  `msgpack:"n"`
	S      string      `msgpack:"s,omitempty"`
	Render *RenderTree `msgpack:"r,omitempty"`
}

func Unit() Value                   { return Value{Kind: KindUnit} }
func Num(x float64) Value           { return Value{Kind: KindNumber, N: [4]float64{x}} }
func Vec2(x, y float64) Value       { return Value{Kind: KindVec2, N: [4]float64{x, y}} }
func Vec3(x, y, z float64) Value    { return Value{Kind: KindVec3, N: [4]float64{x, y, z}} }
func RGBA(r, g, b, a float64) Value { return Value{Kind: KindColor, N: [4]float64{r, g, b, a}} }
func Str(s string) Value            { return Value{Kind: KindString, S: s} }
func Render(t *RenderTree) Value    { return Value{Kind: KindRender, Render: t} }

func Bool(b bool) Value {
	if b {
		return Value{Kind: KindBool, N: [4]float64{1}}
	}
	return Value{Kind: KindBool}
}

// Zero is the additive identity of kind k.
func Zero(k Kind) Value {
	return Value{Kind: k}
}

// ZeroOf is the zero value of domain d.
func ZeroOf(d types.Domain) Value {
	return Zero(KindOf(d))
}

// Float returns the first numeric component.
func (v Value) Float() float64 { return v.N[0] }

// Truthy interprets v as a boolean (non-zero first component).
func (v Value) Truthy() bool { return v.N[0] != 0 }

func (v Value) components() int {
	switch v.Kind {
	case KindNumber, KindBool:
		return 1
	case KindVec2:
		return 2
	case KindVec3:
		return 3
	case KindColor:
		return 4
	}
	return 0
}

// Numeric reports whether v has numeric components.
func (v Value) Numeric() bool { return v.components() > 0 }

// Map applies f to every numeric component of v.
func (v Value) Map(f func(float64) float64) Value {
	n := v.components()
	for i := 0; i < n; i++ {
		v.N[i] = f(v.N[i])
	}
	return v
}

// Zip combines two values of the same kind component-wise. a's kind wins.
func Zip(a, b Value, f func(x, y float64) float64) Value {
	n := a.components()
	for i := 0; i < n; i++ {
		a.N[i] = f(a.N[i], b.N[i])
	}
	return a
}

func Add(a, b Value) Value { return Zip(a, b, func(x, y float64) float64 { return x + y }) }
func Min(a, b Value) Value { return Zip(a, b, math.Min) }
func Max(a, b Value) Value { return Zip(a, b, math.Max) }

// Scale multiplies every component by f.
func Scale(v Value, f float64) Value {
	return v.Map(func(x float64) float64 { return x * f })
}

// Equal compares kind, components and string payloads. Render trees compare
// by pointer.
func Equal(a, b Value) bool {
	return a.Kind == b.Kind && a.N == b.N && a.S == b.S && a.Render == b.Render
}

func (v Value) String() string {
	f := func(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }
	switch v.Kind {
	case KindNumber:
		return f(v.N[0])
	case KindBool:
		return strconv.FormatBool(v.Truthy())
	case KindVec2:
		return fmt.Sprintf("(%s, %s)", f(v.N[0]), f(v.N[1]))
	case KindVec3:
		return fmt.Sprintf("(%s, %s, %s)", f(v.N[0]), f(v.N[1]), f(v.N[2]))
	case KindColor:
		return fmt.Sprintf("rgba(%s, %s, %s, %s)", f(v.N[0]), f(v.N[1]), f(v.N[2]), f(v.N[3]))
	case KindString:
		return strconv.Quote(v.S)
	case KindRender:
		if v.Render == nil {
			return "render<nil>"
		}
		return fmt.Sprintf("render<%d circles>", len(v.Render.Circles))
	}
	return "()"
}

// Event is one discrete occurrence.
type Event struct {
	Name    string  `msgpack:"name"`
	TimeMs  float64 `msgpack:"t"`
	Payload Value   `msgpack:"payload"`
}

// Circle is one drawable element.
type Circle struct {
	X, Y, R float64
	Color   [4]float64
}

// RenderTree is the drawable output of a frame.
type RenderTree struct {
	Width, Height float64
	Circles       []Circle
}
