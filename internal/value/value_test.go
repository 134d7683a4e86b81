package value

import (
	"testing"

	"patchc/internal/types"
)

func TestDecodeShapes(t *testing.T) {
	cases := []struct {
		name string
		dom  types.Domain
		raw  any
		want Value
	}{
		{"int number", types.DomainNumber, 42, Num(42)},
		{"phase is number", types.DomainPhase, 0.25, Num(0.25)},
		{"vec2 list", types.DomainVec2, []any{1.0, 2}, Vec2(1, 2)},
		{"point map", types.DomainPoint, map[string]any{"x": 3, "y": 4.5}, Vec2(3, 4.5)},
		{"vec2 splat", types.DomainVec2, 7, Vec2(7, 7)},
		{"hex color", types.DomainColor, "#ff000080", RGBA(1, 0, 0, 128.0/255)},
		{"rgb list", types.DomainColor, []any{0.5, 0.5, 0.5}, RGBA(0.5, 0.5, 0.5, 1)},
		{"bool", types.DomainBoolean, true, Bool(true)},
	}
	for _, tc := range cases {
		got, err := Decode(tc.dom, tc.raw)
		if err != nil {
			t.Errorf("%s: %v", tc.name, err)
			continue
		}
		if !Equal(got, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode(types.DomainNumber, "abc"); err == nil {
		t.Fatalf("expected error for non-numeric string")
	}
	if _, err := Decode(types.DomainVec2, []any{1.0}); err == nil {
		t.Fatalf("expected error for short vector")
	}
	if _, err := Decode(types.DomainRenderTree, 1); err == nil {
		t.Fatalf("render trees have no literal form")
	}
}

func TestComponentWiseArithmetic(t *testing.T) {
	if got := Add(Vec2(1, 2), Vec2(10, 20)); !Equal(got, Vec2(11, 22)) {
		t.Fatalf("add: %v", got)
	}
	if got := Scale(Vec3(1, 2, 3), 2); !Equal(got, Vec3(2, 4, 6)) {
		t.Fatalf("scale: %v", got)
	}
	if got := Min(Num(3), Num(-1)); got.Float() != -1 {
		t.Fatalf("min: %v", got)
	}
	if got := Add(Str("a"), Str("b")); got.S != "a" {
		t.Fatalf("strings are not additive, got %v", got)
	}
}
