package types

import (
	"fmt"
	"strings"
)

var worldByName = map[string]World{
	"signal": WorldSignal,
	"field":  WorldField,
	"scalar": WorldScalar,
	"event":  WorldEvent,
	"config": WorldConfig,
}

// ParseWorld resolves a world name.
func ParseWorld(s string) (World, error) {
	if w, ok := worldByName[strings.ToLower(strings.TrimSpace(s))]; ok {
		return w, nil
	}
	return WorldInvalid, fmt.Errorf("unknown world %q", s)
}

// ParseDomain resolves a domain name.
func ParseDomain(s string) (Domain, error) {
	s = strings.TrimSpace(s)
	for d := DomainNumber; d <= DomainUnit; d++ {
		if domainNames[d] == s {
			return d, nil
		}
	}
	return DomainInvalid, fmt.Errorf("unknown domain %q", s)
}

// ParseTypeDesc parses "world:domain" with an optional "[unit]" suffix, for
// example "signal:number" or "signal:duration[ms]".
func ParseTypeDesc(s string) (TypeDesc, error) {
	raw := strings.TrimSpace(s)
	unit := ""
	if i := strings.IndexByte(raw, '['); i >= 0 {
		if !strings.HasSuffix(raw, "]") {
			return TypeDesc{}, fmt.Errorf("type %q: unterminated unit", s)
		}
		unit = raw[i+1 : len(raw)-1]
		raw = raw[:i]
	}
	wname, dname, ok := strings.Cut(raw, ":")
	if !ok {
		return TypeDesc{}, fmt.Errorf("type %q: expected world:domain", s)
	}
	w, err := ParseWorld(wname)
	if err != nil {
		return TypeDesc{}, fmt.Errorf("type %q: %w", s, err)
	}
	d, err := ParseDomain(dname)
	if err != nil {
		return TypeDesc{}, fmt.Errorf("type %q: %w", s, err)
	}
	return Make(w, d).WithUnit(unit), nil
}

// MustParse is ParseTypeDesc for static tables.
func MustParse(s string) TypeDesc {
	t, err := ParseTypeDesc(s)
	if err != nil {
		panic(err)
	}
	return t
}
