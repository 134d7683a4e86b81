package bus

import (
	"fmt"
	"sort"

	"patchc/internal/artifact"
	"patchc/internal/types"
	"patchc/internal/value"
)

// Publisher is one contribution to a bus.
type Publisher struct {
	ID       string
	SortKey  int
	Artifact artifact.Artifact
}

// Rank returns publishers sorted by ascending SortKey, ties by ascending ID.
// The input slice is not modified.
func Rank(pubs []Publisher) []Publisher {
	out := append([]Publisher(nil), pubs...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortKey != out[j].SortKey {
			return out[i].SortKey < out[j].SortKey
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Combine folds publishers into one artifact of the bus type t.
//
// Zero publishers yield a constant built from def; a single publisher is
// returned unchanged. Otherwise publishers are ranked and folded by mode.
func Combine(t types.TypeDesc, pubs []Publisher, mode Mode, def value.Value) (artifact.Artifact, error) {
	if err := CheckMode(t, mode); err != nil {
		return nil, err
	}
	if len(pubs) == 0 {
		return artifact.Constant(t, def)
	}
	for _, p := range pubs {
		if err := artifact.CheckType(p.Artifact, t); err != nil {
			return nil, fmt.Errorf("publisher %s: %w", p.ID, err)
		}
	}
	if len(pubs) == 1 {
		return pubs[0].Artifact, nil
	}
	ranked := Rank(pubs)

	switch t.World {
	case types.WorldScalar:
		return combineScalar(t, ranked, mode), nil
	case types.WorldSignal:
		return CombineSignalArtifacts(t, ranked, mode, def)
	case types.WorldField:
		return CombineFieldArtifacts(t, ranked, mode, def)
	case types.WorldEvent:
		return combineEvents(t, ranked, mode), nil
	}
	return nil, &UnsupportedModeError{World: t.World, Mode: mode}
}

func combineScalar(t types.TypeDesc, ranked []Publisher, mode Mode) artifact.Artifact {
	if mode == ModeLast {
		return ranked[len(ranked)-1].Artifact
	}
	acc := value.ZeroOf(t.Domain)
	for _, p := range ranked {
		acc = value.Add(acc, p.Artifact.(artifact.Scalar).V)
	}
	return artifact.Scalar{T: t, V: acc}
}

// CombineSignalArtifacts folds signal publishers. Evaluation is lazy: the
// returned signal samples its publishers on every call.
func CombineSignalArtifacts(t types.TypeDesc, pubs []Publisher, mode Mode, def value.Value) (artifact.Artifact, error) {
	if t.World != types.WorldSignal {
		return nil, fmt.Errorf("CombineSignalArtifacts on %s bus", t.World)
	}
	if err := CheckMode(t, mode); err != nil {
		return nil, err
	}
	switch len(pubs) {
	case 0:
		return artifact.Constant(t, def)
	case 1:
		return pubs[0].Artifact, nil
	}
	ranked := Rank(pubs)
	evals := make([]func(float64, *artifact.RuntimeCtx) value.Value, len(ranked))
	for i, p := range ranked {
		s, ok := p.Artifact.(artifact.Signal)
		if !ok {
			return nil, fmt.Errorf("publisher %s is %T, not a signal", p.ID, p.Artifact)
		}
		evals[i] = s.Eval
	}

	if mode == ModeLast {
		return ranked[len(ranked)-1].Artifact, nil
	}
	zero := value.ZeroOf(t.Domain)
	return artifact.Signal{T: t, Eval: func(tMs float64, rc *artifact.RuntimeCtx) value.Value {
		acc := zero
		for _, ev := range evals {
			acc = value.Add(acc, ev(tMs, rc))
		}
		return acc
	}}, nil
}

// CombineFieldArtifacts folds field publishers per element index. Fields may
// differ in length: sum and average treat missing indices as zero, min and
// max only consider present values, and average divides by the number of
// contributing fields.
func CombineFieldArtifacts(t types.TypeDesc, pubs []Publisher, mode Mode, def value.Value) (artifact.Artifact, error) {
	if t.World != types.WorldField {
		return nil, fmt.Errorf("CombineFieldArtifacts on %s bus", t.World)
	}
	if err := CheckMode(t, mode); err != nil {
		return nil, err
	}
	switch len(pubs) {
	case 0:
		return artifact.Constant(t, def)
	case 1:
		return pubs[0].Artifact, nil
	}
	ranked := Rank(pubs)
	evals := make([]func(float64, *artifact.RuntimeCtx) []value.Value, len(ranked))
	for i, p := range ranked {
		f, ok := p.Artifact.(artifact.Field)
		if !ok {
			return nil, fmt.Errorf("publisher %s is %T, not a field", p.ID, p.Artifact)
		}
		evals[i] = f.Eval
	}
	if mode == ModeLast {
		return ranked[len(ranked)-1].Artifact, nil
	}

	zero := value.ZeroOf(t.Domain)
	count := float64(len(evals))
	return artifact.Field{T: t, Eval: func(tMs float64, rc *artifact.RuntimeCtx) []value.Value {
		fields := make([][]value.Value, len(evals))
		n := 0
		for i, ev := range evals {
			fields[i] = ev(tMs, rc)
			n = max(n, len(fields[i]))
		}
		out := make([]value.Value, n)
		for idx := 0; idx < n; idx++ {
			switch mode {
			case ModeSum, ModeAverage:
				acc := zero
				for _, f := range fields {
					if idx < len(f) {
						acc = value.Add(acc, f[idx])
					}
				}
				if mode == ModeAverage {
					acc = value.Scale(acc, 1/count)
				}
				out[idx] = acc
			case ModeMin, ModeMax:
				first := true
				var acc value.Value
				for _, f := range fields {
					if idx >= len(f) {
						continue
					}
					switch {
					case first:
						acc, first = f[idx], false
					case mode == ModeMin:
						acc = value.Min(acc, f[idx])
					default:
						acc = value.Max(acc, f[idx])
					}
				}
				out[idx] = acc
			}
		}
		return out
	}}, nil
}

// combineEvents: last keeps the top-ranked publisher's events, sum merges
// every publisher's events in rank order.
func combineEvents(t types.TypeDesc, ranked []Publisher, mode Mode) artifact.Artifact {
	if mode == ModeLast {
		return ranked[len(ranked)-1].Artifact
	}
	evals := make([]func(float64, *artifact.RuntimeCtx) []value.Event, len(ranked))
	for i, p := range ranked {
		evals[i] = p.Artifact.(artifact.Events).Eval
	}
	return artifact.Events{T: t, Eval: func(tMs float64, rc *artifact.RuntimeCtx) []value.Event {
		var out []value.Event
		for _, ev := range evals {
			out = append(out, ev(tMs, rc)...)
		}
		return out
	}}
}
