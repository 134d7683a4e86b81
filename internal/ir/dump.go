package ir

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Dump writes a human-readable listing of p in schedule order.
func Dump(w io.Writer, p *Program) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "program format=%d seed=%d time=%s\n", p.Format, p.Seed, p.Time)
	if len(p.Consts) > 0 {
		sb.WriteString("consts:\n")
		for i, c := range p.Consts {
			fmt.Fprintf(&sb, "  c%d = %s\n", i, c)
		}
	}
	if len(p.States) > 0 {
		sb.WriteString("states:\n")
		for i, s := range p.States {
			fmt.Fprintf(&sb, "  s%d %s init=%s (%s)\n", i, s.Type.Key(), s.Init, s.Owner)
		}
	}
	sb.WriteString("schedule:\n")
	for _, id := range p.Schedule {
		if int(id) >= len(p.Slots) {
			fmt.Fprintf(&sb, "  %%%d <out of range>\n", id)
			continue
		}
		sb.WriteString("  ")
		sb.WriteString(formatSlot(id, &p.Slots[id]))
		sb.WriteByte('\n')
	}
	if p.HasOutput {
		fmt.Fprintf(&sb, "output: %%%d\n", p.Output)
	} else {
		sb.WriteString("output: none\n")
	}
	for _, b := range p.EventInputs {
		fmt.Fprintf(&sb, "event %q -> %%%d\n", b.Name, b.Slot)
	}
	for _, b := range p.EventSinks {
		fmt.Fprintf(&sb, "sink %s <- %%%d\n", b.Block, b.Slot)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func formatSlot(id SlotID, s *Slot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%%%d = %s", id, s.Op)
	if s.Str != "" {
		sb.WriteString("." + s.Str)
	}
	if len(s.Args) > 0 {
		args := make([]string, len(s.Args))
		for i, a := range s.Args {
			args[i] = "%" + strconv.FormatUint(uint64(a), 10)
		}
		sb.WriteString("(" + strings.Join(args, ", ") + ")")
	}
	switch {
	case s.Op == OpConst:
		fmt.Fprintf(&sb, " c%d", s.Const)
	case s.State >= 0:
		fmt.Fprintf(&sb, " s%d", s.State)
	}
	if len(s.Params) > 0 && s.Op != OpRandomField {
		ps := make([]string, len(s.Params))
		for i, p := range s.Params {
			ps[i] = strconv.FormatFloat(p, 'g', -1, 64)
		}
		sb.WriteString(" [" + strings.Join(ps, " ") + "]")
	}
	fmt.Fprintf(&sb, " : %s", s.Type.Key())
	if s.Owner != "" {
		sb.WriteString("  ; " + s.Owner)
	}
	return sb.String()
}
