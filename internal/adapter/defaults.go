package adapter

import (
	"math"

	"patchc/internal/types"
	"patchc/internal/value"
)

// Default returns the built-in catalogue.
//
// Ids follow "Name/world" for same-world conversions and "Name.domain" for
// world-changing ones.
func Default() *Registry {
	var list []Adapter

	liftable := []types.Domain{
		types.DomainNumber, types.DomainVec2, types.DomainVec3, types.DomainColor,
		types.DomainPhase, types.DomainBoolean, types.DomainDuration,
	}
	for _, d := range liftable {
		list = append(list,
			Adapter{
				ID: "ScalarToSignal." + d.String(), Kind: KindLift,
				From: types.Make(types.WorldScalar, d), To: types.Make(types.WorldSignal, d),
				Policy: PolicyAuto, Cost: 1,
			},
			Adapter{
				ID: "BroadcastScalar." + d.String(), Kind: KindBroadcast,
				From: types.Make(types.WorldScalar, d), To: types.Make(types.WorldField, d),
				Policy: PolicyAuto, Cost: 2,
			},
			Adapter{
				ID: "BroadcastSignal." + d.String(), Kind: KindBroadcast,
				From: types.Make(types.WorldSignal, d), To: types.Make(types.WorldField, d),
				Policy: PolicyAuto, Cost: 2,
			},
		)
	}
	for _, d := range []types.Domain{types.DomainNumber, types.DomainVec2, types.DomainVec3, types.DomainColor} {
		list = append(list, Adapter{
			ID: "ReduceFieldMean." + d.String(), Kind: KindReduce,
			From: types.Make(types.WorldField, d), To: types.Make(types.WorldSignal, d),
			Policy: PolicySuggest, Cost: 8,
		})
	}

	for _, w := range []types.World{types.WorldSignal, types.WorldField, types.WorldScalar} {
		list = append(list, domainAdapters(w)...)
	}
	list = append(list, Adapter{
		ID:   "TriggerToNumber/event",
		From: types.Make(types.WorldEvent, types.DomainTrigger), To: types.Make(types.WorldEvent, types.DomainNumber),
		Policy: PolicyAuto, Cost: 1,
		Map: func(value.Value) value.Value { return value.Num(1) },
	})
	return MustRegistry(list...)
}

func domainAdapters(w types.World) []Adapter {
	mk := func(name string, from, to types.Domain, p Policy, cost float64, f func(value.Value) value.Value) Adapter {
		return Adapter{
			ID:   name + "/" + w.String(),
			From: types.Make(w, from), To: types.Make(w, to),
			Policy: p, Cost: cost, Kind: KindMap, Map: f,
		}
	}
	return []Adapter{
		mk("PhaseToNumber", types.DomainPhase, types.DomainNumber, PolicyAuto, 1, nil),
		mk("NumberToPhase", types.DomainNumber, types.DomainPhase, PolicySuggest, 1, func(v value.Value) value.Value {
			x := v.Float()
			return value.Num(x - math.Floor(x))
		}),
		mk("TimeToNumber", types.DomainTime, types.DomainNumber, PolicyAuto, 1, nil),
		mk("DurationToNumber", types.DomainDuration, types.DomainNumber, PolicyAuto, 1, nil),
		mk("NumberToDuration", types.DomainNumber, types.DomainDuration, PolicyExplicit, 1, nil),
		mk("BoolToNumber", types.DomainBoolean, types.DomainNumber, PolicyAuto, 1, func(v value.Value) value.Value {
			return value.Num(v.Float())
		}),
		mk("NumberToBool", types.DomainNumber, types.DomainBoolean, PolicySuggest, 1, func(v value.Value) value.Value {
			return value.Bool(v.Float() > 0.5)
		}),
		mk("NumberToVec2", types.DomainNumber, types.DomainVec2, PolicyAuto, 2, func(v value.Value) value.Value {
			return value.Vec2(v.Float(), v.Float())
		}),
		mk("Vec2Length", types.DomainVec2, types.DomainNumber, PolicySuggest, 3, func(v value.Value) value.Value {
			return value.Num(math.Hypot(v.N[0], v.N[1]))
		}),
		mk("NumberToGray", types.DomainNumber, types.DomainColor, PolicyAuto, 2, func(v value.Value) value.Value {
			x := v.Float()
			return value.RGBA(x, x, x, 1)
		}),
		mk("HueToColor", types.DomainNumber, types.DomainColor, PolicyExplicit, 3, HueToRGBA),
		mk("Vec3ToColor", types.DomainVec3, types.DomainColor, PolicyAuto, 1, func(v value.Value) value.Value {
			return value.RGBA(v.N[0], v.N[1], v.N[2], 1)
		}),
		mk("ColorToVec3", types.DomainColor, types.DomainVec3, PolicyAuto, 1, func(v value.Value) value.Value {
			return value.Vec3(v.N[0], v.N[1], v.N[2])
		}),
		mk("StringToNumber", types.DomainString, types.DomainNumber, PolicyForbidden, 1, nil),
	}
}

// HueToRGBA maps a hue in turns (0..1, wrapping) to a saturated colour.
func HueToRGBA(v value.Value) value.Value {
	h := v.Float()
	h -= math.Floor(h)
	channel := func(offset float64) float64 {
		k := math.Mod(offset+h*6, 6)
		return 1 - math.Max(0, math.Min(math.Min(k, 4-k), 1))
	}
	return value.RGBA(channel(5), channel(3), channel(1), 1)
}
