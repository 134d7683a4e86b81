package testkit

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"

	"patchc/internal/ir"
)

// CheckProgramInvariants runs ir.Validate plus the invariants a linked
// program must hold beyond its own structure:
// 1) BlockOrder names every block exactly once
// 2) every slot is owned by a listed block, a "bus:<id>" or an "edge:<id>"
// 3) every state cell is owned by a listed block
// 4) the time root is a listed block
// 5) Decode(Encode(p)) re-encodes to the same bytes
func CheckProgramInvariants(p *ir.Program) error {
	if p == nil {
		return fmt.Errorf("nil program")
	}
	var errs []error
	if err := ir.Validate(p); err != nil {
		errs = append(errs, err)
	}

	blocks := make(map[string]bool, len(p.BlockOrder))
	for _, id := range p.BlockOrder {
		if blocks[id] {
			errs = append(errs, fmt.Errorf("block %q listed twice in block order", id))
		}
		blocks[id] = true
	}

	for i := range p.Slots {
		owner := p.Slots[i].Owner
		switch {
		case strings.HasPrefix(owner, "bus:"), strings.HasPrefix(owner, "edge:"):
			if len(owner) == strings.IndexByte(owner, ':')+1 {
				errs = append(errs, fmt.Errorf("slot %d: empty owner id %q", i, owner))
			}
		case !blocks[owner]:
			errs = append(errs, fmt.Errorf("slot %d: owner %q is not a block", i, owner))
		}
	}
	for c, cell := range p.States {
		if !blocks[cell.Owner] {
			errs = append(errs, fmt.Errorf("state %d: owner %q is not a block", c, cell.Owner))
		}
	}
	if p.Time.Kind != 0 && !blocks[p.Time.Root] {
		errs = append(errs, fmt.Errorf("time root %q is not a block", p.Time.Root))
	}

	if err := checkRoundTrip(p); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func checkRoundTrip(p *ir.Program) error {
	first, err := ir.Encode(p)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	decoded, err := ir.Decode(first)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	second, err := ir.Encode(decoded)
	if err != nil {
		return fmt.Errorf("re-encode: %w", err)
	}
	if !bytes.Equal(first, second) {
		return fmt.Errorf("encoding is not stable across a round trip")
	}
	return nil
}

// DiffPrograms returns "" when both programs encode to identical bytes,
// otherwise a diff of their text dumps.
func DiffPrograms(a, b *ir.Program) (string, error) {
	ea, err := ir.Encode(a)
	if err != nil {
		return "", err
	}
	eb, err := ir.Encode(b)
	if err != nil {
		return "", err
	}
	if bytes.Equal(ea, eb) {
		return "", nil
	}
	var da, db bytes.Buffer
	if err := ir.Dump(&da, a); err != nil {
		return "", err
	}
	if err := ir.Dump(&db, b); err != nil {
		return "", err
	}
	if diff := cmp.Diff(da.String(), db.String()); diff != "" {
		return diff, nil
	}
	return "programs dump identically but encode differently", nil
}
