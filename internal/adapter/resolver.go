package adapter

import (
	"fmt"
	"sort"
	"strings"

	"patchc/internal/types"
)

// HeavyCostThreshold is the total chain cost at which an otherwise automatic
// chain is only suggested. It is the same for every context.
const HeavyCostThreshold = 5.0

// MaxHops caps chain length.
const MaxHops = 2

// Context is where a conversion happens.
type Context uint8

const (
	ContextWire Context = iota + 1
	ContextPublisher
	ContextListener
)

func (c Context) String() string {
	switch c {
	case ContextWire:
		return "wire"
	case ContextPublisher:
		return "publisher"
	case ContextListener:
		return "listener"
	}
	return "unknown"
}

// Tier classifies a chain by how it may be applied.
type Tier uint8

const (
	TierNone Tier = iota
	TierDirect
	TierAuto
	TierSuggest
	TierExplicit
)

func (t Tier) String() string {
	switch t {
	case TierDirect:
		return "direct"
	case TierAuto:
		return "auto"
	case TierSuggest:
		return "suggest"
	case TierExplicit:
		return "explicit"
	}
	return "none"
}

// Path is one candidate chain.
type Path struct {
	Steps []*Adapter
	Cost  float64
	Score float64
	Tier  Tier
}

// IDs returns the adapter ids in order.
func (p *Path) IDs() []string {
	if p == nil {
		return nil
	}
	ids := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		ids[i] = s.ID
	}
	return ids
}

// Key is the "|"-joined id chain used to break score ties.
func (p *Path) Key() string {
	return strings.Join(p.IDs(), "|")
}

func (p *Path) String() string {
	if p == nil {
		return "<none>"
	}
	return fmt.Sprintf("[%s] cost=%g score=%g", strings.Join(p.IDs(), " -> "), p.Cost, p.Score)
}

// Result is the outcome of FindPath. Direct means the types are compatible
// and no chain is needed; otherwise the best chain of each tier is reported.
type Result struct {
	From, To types.TypeDesc
	Context  Context
	Direct   bool
	Auto     *Path
	Suggest  *Path
	Explicit *Path
}

// Tier returns the best applicable tier.
func (r Result) Tier() Tier {
	switch {
	case r.Direct:
		return TierDirect
	case r.Auto != nil:
		return TierAuto
	case r.Suggest != nil:
		return TierSuggest
	case r.Explicit != nil:
		return TierExplicit
	}
	return TierNone
}

// Applicable reports whether the conversion can happen without confirmation.
func (r Result) Applicable() bool {
	return r.Direct || r.Auto != nil
}

// Chain returns the steps to insert when Applicable.
func (r Result) Chain() []*Adapter {
	if r.Auto == nil {
		return nil
	}
	return r.Auto.Steps
}

// Best returns the highest-tier non-direct chain, if any.
func (r Result) Best() *Path {
	switch {
	case r.Auto != nil:
		return r.Auto
	case r.Suggest != nil:
		return r.Suggest
	}
	return r.Explicit
}

type memoKey struct {
	ctx      Context
	from, to string
}

// Resolver finds adapter chains over a registry snapshot. Results are
// memoised by (context, from, to). A Resolver belongs to one compile and is
// not safe for concurrent use.
type Resolver struct {
	reg    *Registry
	memo   map[memoKey]Result
	hits   int
	misses int
}

func NewResolver(reg *Registry) *Resolver {
	return &Resolver{reg: reg, memo: make(map[memoKey]Result)}
}

// Registry returns the catalogue the resolver reads.
func (r *Resolver) Registry() *Registry { return r.reg }

// Stats returns memo hits and misses.
func (r *Resolver) Stats() (hits, misses int) { return r.hits, r.misses }

func fullKey(t types.TypeDesc) string {
	return t.Key() + "[" + t.Unit + "]" + t.Semantics
}

// FindPath resolves a conversion from -> to in ctx.
func (r *Resolver) FindPath(from, to types.TypeDesc, ctx Context) Result {
	key := memoKey{ctx: ctx, from: fullKey(from), to: fullKey(to)}
	if res, ok := r.memo[key]; ok {
		r.hits++
		return res
	}
	r.misses++
	res := r.search(from, to, ctx)
	r.memo[key] = res
	return res
}

func (r *Resolver) search(from, to types.TypeDesc, ctx Context) Result {
	res := Result{From: from, To: to, Context: ctx}
	if types.Compatible(from, to) {
		res.Direct = true
		return res
	}

	candidates := r.enumerate(from, to)

	for _, p := range candidates {
		switch p.Tier {
		case TierAuto:
			res.Auto = better(res.Auto, p)
		case TierSuggest:
			res.Suggest = better(res.Suggest, p)
		case TierExplicit:
			res.Explicit = better(res.Explicit, p)
		}
	}
	return res
}

func newPath(steps ...*Adapter) *Path {
	p := &Path{Steps: steps}
	worldHops := 0
	worst := PolicyAuto
	for _, s := range steps {
		p.Cost += s.Cost
		if s.WorldChanging() {
			worldHops++
		}
		if s.Policy > worst {
			worst = s.Policy
		}
	}
	p.Score = p.Cost + 0.5*float64(len(steps)) + 5*float64(worldHops)
	switch worst {
	case PolicyExplicit:
		p.Tier = TierExplicit
	case PolicySuggest:
		p.Tier = TierSuggest
	default:
		if p.Cost >= HeavyCostThreshold {
			p.Tier = TierSuggest
		} else {
			p.Tier = TierAuto
		}
	}
	return p
}

// better returns the lower-scored path; ties go to the lexicographically
// smaller id chain.
func better(cur, cand *Path) *Path {
	if cur == nil {
		return cand
	}
	if cand.Score != cur.Score {
		if cand.Score < cur.Score {
			return cand
		}
		return cur
	}
	if cand.Key() < cur.Key() {
		return cand
	}
	return cur
}

// ChainError explains why a confirmed chain cannot be used.
type ChainError struct {
	Unknown   string // id not in the registry
	Forbidden string // id of a forbidden step
	Reason    string
}

func (e *ChainError) Error() string {
	switch {
	case e.Unknown != "":
		return fmt.Sprintf("unknown adapter %q", e.Unknown)
	case e.Forbidden != "":
		return fmt.Sprintf("adapter %q is forbidden", e.Forbidden)
	}
	return e.Reason
}

// ValidateChain checks a user-confirmed chain: every id is registered and not
// forbidden, consecutive steps connect, and the chain leads from -> to.
func (r *Resolver) ValidateChain(from, to types.TypeDesc, ids []string) (*Path, error) {
	if len(ids) > MaxHops {
		return nil, &ChainError{Reason: fmt.Sprintf("chain has %d steps, at most %d allowed", len(ids), MaxHops)}
	}
	steps := make([]*Adapter, 0, len(ids))
	cur := from
	for _, id := range ids {
		a, ok := r.reg.Lookup(id)
		if !ok {
			return nil, &ChainError{Unknown: id}
		}
		if a.Policy == PolicyForbidden {
			return nil, &ChainError{Forbidden: id}
		}
		if !types.Compatible(cur, a.From) {
			return nil, &ChainError{Reason: fmt.Sprintf("adapter %q expects %s, got %s", id, a.From.Key(), cur.Key())}
		}
		steps = append(steps, a)
		cur = a.To
	}
	if !types.Compatible(cur, to) {
		return nil, &ChainError{Reason: fmt.Sprintf("chain ends at %s, port expects %s", cur.Key(), to.Key())}
	}
	if len(steps) == 0 {
		return &Path{Tier: TierDirect}, nil
	}
	return newPath(steps...), nil
}

// Candidates lists every non-forbidden chain from -> to sorted by tier,
// score and id chain. Used by `patchc adapters`.
func (r *Resolver) Candidates(from, to types.TypeDesc) []*Path {
	out := r.enumerate(from, to)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Tier != out[j].Tier {
			return out[i].Tier < out[j].Tier
		}
		if out[i].Score != out[j].Score {
			return out[i].Score < out[j].Score
		}
		return out[i].Key() < out[j].Key()
	})
	return out
}

// enumerate lists every 1- and 2-hop chain without forbidden steps whose
// endpoints line up with from and to.
func (r *Resolver) enumerate(from, to types.TypeDesc) []*Path {
	var out []*Path
	for _, first := range r.reg.from(from) {
		if first.Policy == PolicyForbidden {
			continue
		}
		if types.Compatible(first.To, to) {
			out = append(out, newPath(first))
		}
		for _, second := range r.reg.from(first.To) {
			if second.Policy == PolicyForbidden || second == first {
				continue
			}
			if types.Compatible(second.To, to) {
				out = append(out, newPath(first, second))
			}
		}
	}
	return out
}
