package types

// Compatible is the one compatibility rule of the compiler: a value of type
// from may flow into a port of type to without an adapter.
//
// Types are compatible when world, domain and category match, or when the
// domains form a declared-compatible pair within the same world. Units and
// semantics only matter when both sides declare them.
func Compatible(from, to TypeDesc) bool {
	if from.World != to.World || from.Category != to.Category {
		return false
	}
	if from.Unit != "" && to.Unit != "" && from.Unit != to.Unit {
		return false
	}
	if from.Semantics != "" && to.Semantics != "" && from.Semantics != to.Semantics {
		return false
	}
	if from.Domain == to.Domain {
		return true
	}
	return declaredCompatible(from.Domain, to.Domain)
}

// point and vec2 share a representation and are interchangeable.
func declaredCompatible(a, b Domain) bool {
	return (a == DomainPoint && b == DomainVec2) || (a == DomainVec2 && b == DomainPoint)
}

// SameShape reports whether two descriptors match by world, domain and
// category; adapters are looked up this way.
func SameShape(a, b TypeDesc) bool {
	return a.World == b.World && a.Domain == b.Domain && a.Category == b.Category
}
