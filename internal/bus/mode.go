// Package bus folds the artifacts of a bus's publishers into the single
// artifact its listeners see.
package bus

import (
	"fmt"
	"strings"

	"patchc/internal/types"
)

// Mode is a combine mode.
type Mode string

const (
	ModeLast    Mode = "last"
	ModeSum     Mode = "sum"
	ModeAverage Mode = "average"
	ModeMin     Mode = "min"
	ModeMax     Mode = "max"
)

// ParseMode accepts a mode name; the empty string means last.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeLast, nil
	case ModeLast, ModeSum, ModeAverage, ModeMin, ModeMax:
		return m, nil
	}
	return "", fmt.Errorf("unknown combine mode %q", s)
}

// SupportedModes lists the legal modes of a world in a fixed order.
func SupportedModes(w types.World) []Mode {
	switch w {
	case types.WorldSignal, types.WorldScalar, types.WorldEvent:
		return []Mode{ModeLast, ModeSum}
	case types.WorldField:
		return []Mode{ModeLast, ModeSum, ModeAverage, ModeMin, ModeMax}
	}
	return nil
}

// UnsupportedModeError names the mode and the modes the world supports.
type UnsupportedModeError struct {
	World     types.World
	Domain    types.Domain
	Mode      Mode
	Supported []Mode
	Reason    string
}

func (e *UnsupportedModeError) Error() string {
	names := make([]string, len(e.Supported))
	for i, m := range e.Supported {
		names[i] = string(m)
	}
	msg := fmt.Sprintf("combine mode %q is not supported for %s buses (supported: %s)",
		e.Mode, e.World, strings.Join(names, ", "))
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// CheckMode validates mode against the bus type.
func CheckMode(t types.TypeDesc, mode Mode) error {
	supported := SupportedModes(t.World)
	ok := false
	for _, m := range supported {
		if m == mode {
			ok = true
			break
		}
	}
	if !ok {
		return &UnsupportedModeError{World: t.World, Domain: t.Domain, Mode: mode, Supported: supported}
	}
	numeric := mode == ModeSum || mode == ModeAverage || mode == ModeMin || mode == ModeMax
	if numeric && t.World != types.WorldEvent && !t.Domain.Additive() {
		return &UnsupportedModeError{
			World: t.World, Domain: t.Domain, Mode: mode, Supported: []Mode{ModeLast},
			Reason: fmt.Sprintf("domain %s is not additive", t.Domain),
		}
	}
	return nil
}
