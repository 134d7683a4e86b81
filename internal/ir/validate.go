package ir

import (
	"errors"
	"fmt"
)

// Validate checks the structural invariants of a linked program: operands
// and tables are in range, the schedule is a permutation of the slots that
// evaluates every operand before its user, and every state cell read is
// also written exactly once.
func Validate(p *Program) error {
	var errs []error
	n := len(p.Slots)

	writes := make([]int, len(p.States))
	reads := make([]int, len(p.States))
	for i := range p.Slots {
		s := &p.Slots[i]
		if !s.Op.Valid() {
			errs = append(errs, fmt.Errorf("slot %d: invalid op %d", i, s.Op))
		}
		for _, a := range s.Args {
			if int(a) >= n {
				errs = append(errs, fmt.Errorf("slot %d: operand %d out of range", i, a))
			}
		}
		if s.Op == OpConst || (s.Op == OpBusCombine && s.Const >= 0) {
			if s.Const < 0 || int(s.Const) >= len(p.Consts) {
				errs = append(errs, fmt.Errorf("slot %d: const %d out of range", i, s.Const))
			}
		}
		switch s.Op {
		case OpStateRead, OpStateWrite:
			if s.State < 0 || int(s.State) >= len(p.States) {
				errs = append(errs, fmt.Errorf("slot %d: state %d out of range", i, s.State))
				continue
			}
			if s.Op == OpStateRead {
				reads[s.State]++
			} else {
				writes[s.State]++
			}
		case OpBusCombine:
			if len(s.Names) != len(s.Args) {
				errs = append(errs, fmt.Errorf("slot %d: %d publishers named for %d operands", i, len(s.Names), len(s.Args)))
			}
		}
	}
	for c := range p.States {
		if reads[c] > 0 && writes[c] != 1 {
			errs = append(errs, fmt.Errorf("state %d (%s): %d writes", c, p.States[c].Owner, writes[c]))
		}
	}

	if len(p.Schedule) != n {
		errs = append(errs, fmt.Errorf("schedule has %d entries for %d slots", len(p.Schedule), n))
	}
	pos := make([]int, n)
	for i := range pos {
		pos[i] = -1
	}
	for i, id := range p.Schedule {
		if int(id) >= n {
			errs = append(errs, fmt.Errorf("schedule[%d]: slot %d out of range", i, id))
			continue
		}
		if pos[id] >= 0 {
			errs = append(errs, fmt.Errorf("schedule[%d]: slot %d scheduled twice", i, id))
			continue
		}
		pos[id] = i
	}
	for i := range p.Slots {
		if pos[i] < 0 {
			continue
		}
		for _, a := range p.Slots[i].Args {
			if int(a) < n && pos[a] >= 0 && pos[a] > pos[i] {
				errs = append(errs, fmt.Errorf("slot %d runs before its operand %d", i, a))
			}
		}
	}

	if p.HasOutput && int(p.Output) >= n {
		errs = append(errs, fmt.Errorf("output slot %d out of range", p.Output))
	}
	for _, b := range p.EventInputs {
		if int(b.Slot) >= n || p.Slots[b.Slot].Op != OpEventInput {
			errs = append(errs, fmt.Errorf("event input %q: slot %d is not an event input", b.Name, b.Slot))
		}
	}
	for _, b := range p.EventSinks {
		if int(b.Slot) >= n || p.Slots[b.Slot].Op != OpEventSink {
			errs = append(errs, fmt.Errorf("event sink %s: slot %d is not an event sink", b.Block, b.Slot))
		}
	}
	return errors.Join(errs...)
}
