package program

import (
	"math"

	"patchc/internal/adapter"
	"patchc/internal/artifact"
	"patchc/internal/blocks"
	"patchc/internal/ir"
	"patchc/internal/types"
	"patchc/internal/value"
)

func (p *Program) eval(id ir.SlotID, t float64, rc *artifact.RuntimeCtx) {
	s := &p.ir.Slots[id]
	r := &p.regs[id]
	arg := func(i int) *register { return &p.regs[s.Args[i]] }

	switch s.Op {
	case ir.OpConst:
		c := p.ir.Consts[s.Const]
		switch s.Type.World {
		case types.WorldField:
			r.f = []value.Value{c}
		case types.WorldEvent:
			r.ev = nil
		default:
			r.v = c
		}

	case ir.OpTime:
		r.v = value.Num(t)
	case ir.OpFiniteTime:
		r.v = value.Num(clamp(t, 0, s.Params[0]))
	case ir.OpProgress:
		r.v = value.Num(clamp(t/s.Params[0], 0, 1))
	case ir.OpEndEvent:
		r.ev = nil
		if d := s.Params[0]; rc.PrevTMs < d && d <= t {
			r.ev = []value.Event{{Name: "end", TimeMs: d, Payload: value.Unit()}}
		}
	case ir.OpCycleTime:
		r.v = value.Num(cycleTime(t, s.Params[0], s.Str))
	case ir.OpCyclePhase:
		r.v = value.Num(cycleTime(t, s.Params[0], s.Str) / s.Params[0])
	case ir.OpWrapEvent:
		r.ev = nil
		period := s.Params[0]
		if t > rc.PrevTMs && math.Floor(rc.PrevTMs/period) != math.Floor(t/period) {
			r.ev = []value.Event{{Name: "wrap", TimeMs: math.Floor(t/period) * period, Payload: value.Unit()}}
		}

	case ir.OpAdd:
		p.binary(s, r, value.Add)
	case ir.OpMul:
		p.binary(s, r, func(a, b value.Value) value.Value {
			return value.Zip(a, b, func(x, y float64) float64 { return x * y })
		})
	case ir.OpClamp:
		lo, hi := s.Params[0], s.Params[1]
		r.v = arg(0).v.Map(func(x float64) float64 { return clamp(x, lo, hi) })
	case ir.OpOscillator:
		r.v = value.Num(oscillate(s.Str, arg(0).v.Float()) * arg(1).v.Float())
	case ir.OpVec2:
		r.v = value.Vec2(arg(0).v.Float(), arg(1).v.Float())
	case ir.OpHueColor:
		r.v = adapter.HueToRGBA(arg(0).v)

	case ir.OpAdapt:
		adapt(p.adapters[id], arg(0), r)
	case ir.OpLens:
		f := func(v value.Value) value.Value { return applyLens(s.Str, s.Params, s.Type.Domain, v) }
		src := arg(0)
		switch s.Type.World {
		case types.WorldField:
			r.f = mapField(src.f, f)
		default:
			r.v = f(src.v)
		}

	case ir.OpBusCombine:
		p.evalBus(id, s, r, t, rc)

	case ir.OpStateRead:
		r.v = p.cells[s.State]
	case ir.OpStateWrite:
		p.pending[s.State] = stateUpdate(s.Str, p.cells[s.State], arg(0), rc.DeltaMs)
		r.v = p.pending[s.State]

	case ir.OpGrid, ir.OpRandomField:
		r.f = p.fixed[id]

	case ir.OpRender:
		r.v = value.Render(render(arg(0).f, arg(1).f, arg(2).f, rc.Viewport))
	case ir.OpSink, ir.OpEventSink:
		*r = *arg(0)

	case ir.OpEventInput:
		r.ev = nil
		for _, e := range rc.Inbox {
			if e.Name == s.Str {
				r.ev = append(r.ev, e)
			}
		}
	}
}

func (p *Program) evalBus(id ir.SlotID, s *ir.Slot, r *register, t float64, rc *artifact.RuntimeCtx) {
	art := p.combine[id]
	if art == nil {
		// scalar buses fold the current constants
		var err error
		art, err = p.busArtifact(s)
		if err != nil {
			r.v = p.ir.Consts[s.Const]
			return
		}
	}
	switch a := art.(type) {
	case artifact.Scalar:
		r.v = a.V
	case artifact.Signal:
		r.v = a.Eval(t, rc)
	case artifact.Field:
		r.f = a.Eval(t, rc)
	case artifact.Events:
		r.ev = a.Eval(t, rc)
	}
}

// binary applies f per value, or per element for fields. A one-element
// field broadcasts; a missing element of the shorter field is zero.
func (p *Program) binary(s *ir.Slot, r *register, f func(a, b value.Value) value.Value) {
	a, b := &p.regs[s.Args[0]], &p.regs[s.Args[1]]
	if s.Type.World != types.WorldField {
		r.v = f(a.v, b.v)
		return
	}
	n := max(len(a.f), len(b.f))
	out := make([]value.Value, n)
	for i := range out {
		x, okx := element(a.f, i)
		y, oky := element(b.f, i)
		switch {
		case !okx:
			x = value.Zero(y.Kind)
		case !oky:
			y = value.Zero(x.Kind)
		}
		out[i] = f(x, y)
	}
	r.f = out
}

// element returns f[i], broadcasting single-element fields.
func element(f []value.Value, i int) (value.Value, bool) {
	switch {
	case len(f) == 1:
		return f[0], true
	case i < len(f):
		return f[i], true
	}
	return value.Value{}, false
}

func mapField(f []value.Value, fn func(value.Value) value.Value) []value.Value {
	out := make([]value.Value, len(f))
	for i, v := range f {
		out[i] = fn(v)
	}
	return out
}

func adapt(a *adapter.Adapter, src, dst *register) {
	switch a.Kind {
	case adapter.KindLift:
		dst.v = a.Apply(src.v)
	case adapter.KindBroadcast:
		dst.f = []value.Value{a.Apply(src.v)}
	case adapter.KindReduce:
		dst.v = a.Apply(mean(src.f, value.KindOf(a.From.Domain)))
	default:
		switch a.From.World {
		case types.WorldField:
			dst.f = mapField(src.f, a.Apply)
		case types.WorldEvent:
			dst.ev = make([]value.Event, len(src.ev))
			for i, e := range src.ev {
				e.Payload = a.Apply(e.Payload)
				dst.ev[i] = e
			}
		default:
			dst.v = a.Apply(src.v)
		}
	}
}

func mean(f []value.Value, k value.Kind) value.Value {
	acc := value.Zero(k)
	if len(f) == 0 {
		return acc
	}
	for _, v := range f {
		acc = value.Add(acc, v)
	}
	return value.Scale(acc, 1/float64(len(f)))
}

func applyLens(kind string, params []float64, d types.Domain, v value.Value) value.Value {
	switch kind {
	case "scale":
		return value.Scale(v, params[0])
	case "offset":
		return v.Map(func(x float64) float64 { return x + params[0] })
	case "clamp":
		return v.Map(func(x float64) float64 { return clamp(x, params[0], params[1]) })
	case "invert":
		if d == types.DomainPhase {
			return v.Map(func(x float64) float64 { return 1 - x })
		}
		return v.Map(func(x float64) float64 { return -x })
	case "quantize":
		return v.Map(func(x float64) float64 { return math.Round(x/params[0]) * params[0] })
	}
	return v
}

func stateUpdate(mode string, old value.Value, in *register, deltaMs float64) value.Value {
	switch mode {
	case blocks.StateIntegrate:
		return value.Num(old.Float() + in.v.Float()*max(0, deltaMs)/1000)
	case blocks.StateDelay:
		return in.v
	case blocks.StateCount:
		return value.Num(old.Float() + float64(len(in.ev)))
	}
	return old
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func fract(x float64) float64 { return x - math.Floor(x) }

// cycleTime folds t into one period; pingpong runs back down every other
// period.
func cycleTime(t, period float64, mode string) float64 {
	if mode == "pingpong" {
		u := fract(t/(2*period)) * 2
		if u > 1 {
			u = 2 - u
		}
		return u * period
	}
	return fract(t/period) * period
}

func oscillate(shape string, phase float64) float64 {
	p := fract(phase)
	switch shape {
	case blocks.ShapeTriangle:
		return 1 - 4*math.Abs(p-0.5)
	case blocks.ShapeSaw:
		return 2*p - 1
	case blocks.ShapeSquare:
		if p < 0.5 {
			return 1
		}
		return -1
	}
	return math.Sin(2 * math.Pi * p)
}

func render(pos, radius, color []value.Value, vp artifact.Viewport) *value.RenderTree {
	tree := &value.RenderTree{Width: vp.Width, Height: vp.Height, Circles: make([]value.Circle, len(pos))}
	for i, p := range pos {
		c := value.Circle{X: p.N[0], Y: p.N[1], Color: [4]float64{1, 1, 1, 1}}
		if r, ok := element(radius, i); ok {
			c.R = r.Float()
		}
		if col, ok := element(color, i); ok {
			c.Color = col.N
		}
		tree.Circles[i] = c
	}
	return tree
}

// grid lays out rows*cols points row by row from (x, y).
func grid(params []float64) []value.Value {
	rows, cols, spacing, x, y := int(params[0]), int(params[1]), params[2], params[3], params[4]
	out := make([]value.Value, 0, rows*cols)
	for r := range rows {
		for c := range cols {
			out = append(out, value.Vec2(x+float64(c)*spacing, y+float64(r)*spacing))
		}
	}
	return out
}
