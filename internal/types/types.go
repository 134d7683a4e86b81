package types

import "fmt"

// World says how a value exists over time.
type World uint8

const (
	WorldInvalid World = iota
	WorldSignal        // one value per frame
	WorldField         // one value per element per frame
	WorldScalar        // compile-time constant
	WorldEvent         // discrete occurrences
	WorldConfig        // block configuration only, never carried by ports at runtime
)

func (w World) String() string {
	switch w {
	case WorldSignal:
		return "signal"
	case WorldField:
		return "field"
	case WorldScalar:
		return "scalar"
	case WorldEvent:
		return "event"
	case WorldConfig:
		return "config"
	default:
		return fmt.Sprintf("World(%d)", w)
	}
}

// Domain is the kind of value a port carries.
type Domain uint8

const (
	DomainInvalid Domain = iota
	DomainNumber
	DomainVec2
	DomainVec3
	DomainColor
	DomainBoolean
	DomainPoint
	DomainPhase
	DomainTime
	DomainDuration
	DomainRenderTree
	DomainTrigger
	DomainString
	DomainUnit
)

var domainNames = [...]string{
	DomainInvalid:    "invalid",
	DomainNumber:     "number",
	DomainVec2:       "vec2",
	DomainVec3:       "vec3",
	DomainColor:      "color",
	DomainBoolean:    "boolean",
	DomainPoint:      "point",
	DomainPhase:      "phase",
	DomainTime:       "time",
	DomainDuration:   "duration",
	DomainRenderTree: "renderTree",
	DomainTrigger:    "trigger",
	DomainString:     "string",
	DomainUnit:       "unit",
}

func (d Domain) String() string {
	if int(d) < len(domainNames) {
		return domainNames[d]
	}
	return fmt.Sprintf("Domain(%d)", d)
}

// Additive reports whether values of d can be summed component-wise.
func (d Domain) Additive() bool {
	switch d {
	case DomainNumber, DomainPhase, DomainTime, DomainDuration,
		DomainVec2, DomainPoint, DomainVec3, DomainColor:
		return true
	}
	return false
}

// Arity is the number of numeric components of d (0 for non-numeric domains).
func (d Domain) Arity() uint8 {
	switch d {
	case DomainNumber, DomainPhase, DomainTime, DomainDuration, DomainBoolean:
		return 1
	case DomainVec2, DomainPoint:
		return 2
	case DomainVec3:
		return 3
	case DomainColor:
		return 4
	}
	return 0
}

// Category separates user-facing types from compiler-internal ones.
type Category uint8

const (
	CategoryCore Category = iota
	CategoryInternal
)

func (c Category) String() string {
	if c == CategoryInternal {
		return "internal"
	}
	return "core"
}

// TypeDesc is the single description of what a port or bus carries.
type TypeDesc struct {
	World       World    `msgpack:"world"`
	Domain      Domain   `msgpack:"domain"`
	Category    Category `msgpack:"category"`
	BusEligible bool     `msgpack:"bus_eligible"`
	BundleArity uint8    `msgpack:"bundle_arity"`
	Semantics   string   `msgpack:"semantics,omitempty"`
	Unit        string   `msgpack:"unit,omitempty"`
}

// Make builds the canonical descriptor for world and domain: bus eligibility
// and bundle arity are derived, category is core.
func Make(w World, d Domain) TypeDesc {
	return TypeDesc{
		World:       w,
		Domain:      d,
		Category:    CategoryCore,
		BusEligible: busEligible(w, d),
		BundleArity: d.Arity(),
	}
}

func busEligible(w World, d Domain) bool {
	switch w {
	case WorldSignal, WorldField, WorldScalar, WorldEvent:
	default:
		return false
	}
	switch d {
	case DomainRenderTree, DomainString, DomainUnit, DomainInvalid:
		return false
	}
	return true
}

// Key is the stable "world:domain" form used in patches and memo keys.
// Internal types carry a "!internal" suffix.
func (t TypeDesc) Key() string {
	k := t.World.String() + ":" + t.Domain.String()
	if t.Category == CategoryInternal {
		k += "!internal"
	}
	return k
}

func (t TypeDesc) String() string {
	s := t.Key()
	if t.Unit != "" {
		s += "[" + t.Unit + "]"
	}
	return s
}

// IsZero reports whether t is the zero descriptor.
func (t TypeDesc) IsZero() bool {
	return t.World == WorldInvalid && t.Domain == DomainInvalid
}

// WithUnit returns t annotated with a unit.
func (t TypeDesc) WithUnit(unit string) TypeDesc {
	t.Unit = unit
	return t
}

// WithSemantics returns t annotated with a semantic tag.
func (t TypeDesc) WithSemantics(sem string) TypeDesc {
	t.Semantics = sem
	return t
}

// Common descriptors used by the block library.
var (
	SignalNumber = Make(WorldSignal, DomainNumber)
	SignalPhase  = Make(WorldSignal, DomainPhase)
	SignalTime   = Make(WorldSignal, DomainTime)
	SignalVec2   = Make(WorldSignal, DomainVec2)
	SignalColor  = Make(WorldSignal, DomainColor)
	SignalRender = Make(WorldSignal, DomainRenderTree)
	ScalarNumber = Make(WorldScalar, DomainNumber)
	FieldNumber  = Make(WorldField, DomainNumber)
	FieldVec2    = Make(WorldField, DomainVec2)
	FieldColor   = Make(WorldField, DomainColor)
	EventTrigger = Make(WorldEvent, DomainTrigger)
)
