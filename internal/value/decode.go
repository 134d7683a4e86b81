package value

import (
	"fmt"
	"strconv"
	"strings"

	"patchc/internal/types"
)

// Decode converts a configuration or default value (as produced by the patch
// loaders: float64, int, bool, string, []any, map[string]any) into a Value of
// domain d.
func Decode(d types.Domain, raw any) (Value, error) {
	switch KindOf(d) {
	case KindNumber:
		x, err := ToFloat(raw)
		if err != nil {
			return Value{}, err
		}
		return Num(x), nil
	case KindBool:
		switch b := raw.(type) {
		case bool:
			return Bool(b), nil
		default:
			x, err := ToFloat(raw)
			if err != nil {
				return Value{}, fmt.Errorf("expected boolean, got %T", raw)
			}
			return Bool(x != 0), nil
		}
	case KindVec2:
		xs, err := components(raw, 2, []string{"x", "y"})
		if err != nil {
			return Value{}, err
		}
		return Vec2(xs[0], xs[1]), nil
	case KindVec3:
		xs, err := components(raw, 3, []string{"x", "y", "z"})
		if err != nil {
			return Value{}, err
		}
		return Vec3(xs[0], xs[1], xs[2]), nil
	case KindColor:
		if s, ok := raw.(string); ok {
			return ParseHexColor(s)
		}
		xs, err := components(raw, 4, []string{"r", "g", "b", "a"})
		if err != nil {
			return Value{}, err
		}
		return RGBA(xs[0], xs[1], xs[2], xs[3]), nil
	case KindString:
		s, ok := raw.(string)
		if !ok {
			return Value{}, fmt.Errorf("expected string, got %T", raw)
		}
		return Str(s), nil
	case KindUnit:
		return Unit(), nil
	}
	return Value{}, fmt.Errorf("domain %s has no literal form", d)
}

// ToFloat accepts any Go numeric type.
func ToFloat(raw any) (float64, error) {
	switch x := raw.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int8:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint8:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("expected number, got %q", x)
		}
		return f, nil
	}
	return 0, fmt.Errorf("expected number, got %T", raw)
}

// components reads n numbers from a list or from a map keyed by names.
// A color given with three components gets alpha 1.
func components(raw any, n int, names []string) ([]float64, error) {
	out := make([]float64, n)
	switch v := raw.(type) {
	case []any:
		if len(v) != n && !(n == 4 && len(v) == 3) {
			return nil, fmt.Errorf("expected %d components, got %d", n, len(v))
		}
		for i := range v {
			x, err := ToFloat(v[i])
			if err != nil {
				return nil, fmt.Errorf("component %d: %w", i, err)
			}
			out[i] = x
		}
		if len(v) == 3 && n == 4 {
			out[3] = 1
		}
	case []float64:
		if len(v) != n {
			return nil, fmt.Errorf("expected %d components, got %d", n, len(v))
		}
		copy(out, v)
	case map[string]any:
		for i, name := range names {
			rawc, ok := v[name]
			if !ok {
				if name == "a" {
					out[i] = 1
					continue
				}
				return nil, fmt.Errorf("missing component %q", name)
			}
			x, err := ToFloat(rawc)
			if err != nil {
				return nil, fmt.Errorf("component %q: %w", name, err)
			}
			out[i] = x
		}
	default:
		x, err := ToFloat(raw)
		if err != nil {
			return nil, fmt.Errorf("expected %d components, got %T", n, raw)
		}
		for i := range out {
			out[i] = x
		}
		if n == 4 {
			out[3] = 1
		}
	}
	return out, nil
}

// ParseHexColor parses "#rrggbb" or "#rrggbbaa" into 0..1 components.
func ParseHexColor(s string) (Value, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 && len(h) != 8 {
		return Value{}, fmt.Errorf("invalid color %q", s)
	}
	if len(h) == 6 {
		h += "ff"
	}
	var c [4]float64
	for i := 0; i < 4; i++ {
		b, err := strconv.ParseUint(h[2*i:2*i+2], 16, 8)
		if err != nil {
			return Value{}, fmt.Errorf("invalid color %q", s)
		}
		c[i] = float64(b) / 255
	}
	return RGBA(c[0], c[1], c[2], c[3]), nil
}
