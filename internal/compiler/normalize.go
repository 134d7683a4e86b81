package compiler

import (
	"sort"

	"golang.org/x/text/unicode/norm"

	"patchc/internal/blocks"
	"patchc/internal/diag"
	"patchc/internal/patch"
)

type nBlock struct {
	ID     string
	Type   string
	Config blocks.Config
}

type nBus struct {
	ID      string
	Type    string
	Combine string
	Default any
}

type nEdge struct {
	ID       string
	Kind     patch.EdgeKind
	From, To patch.Endpoint
	SortKey  int
	Adapters []string
	Lenses   []patch.Lens
	Dangling bool
}

// danglingRef is an edge endpoint naming a block or bus that is not in the
// patch. Reported by the dependency pass.
type danglingRef struct {
	Edge  string
	Block string
	Port  string
	Bus   string
}

// normalized is the patch with canonical ids, sorted tables and dense block
// and bus indices.
type normalized struct {
	blocks   []nBlock
	blockIx  map[string]int
	buses    []nBus
	busIx    map[string]int
	edges    []nEdge
	defaults map[string]any // "block.port"
	output   *patch.PortRef
	dangling []danglingRef
}

func canonicalID(s string) string { return norm.NFC.String(s) }

func canonicalEndpoint(ep patch.Endpoint) patch.Endpoint {
	if ep.Port != nil {
		ref := patch.PortRef{Block: canonicalID(ep.Port.Block), Port: canonicalID(ep.Port.Port)}
		return patch.Endpoint{Port: &ref, Bus: canonicalID(ep.Bus)}
	}
	return patch.Endpoint{Bus: canonicalID(ep.Bus)}
}

func (c *compilation) normalize() {
	p := c.src
	if p == nil || len(p.Blocks) == 0 {
		c.errorf(diag.EmptyPatch, diag.Location{}, "patch has no blocks").Emit()
		c.stopOnErrors()
	}
	n := &normalized{
		blockIx:  make(map[string]int, len(p.Blocks)),
		busIx:    make(map[string]int, len(p.Buses)),
		defaults: make(map[string]any, len(p.DefaultSources)),
	}

	for _, b := range p.Blocks {
		id := canonicalID(b.ID)
		if id == "" {
			c.errorf(diag.BlockMissing, diag.Location{}, "block of type %s has no id", b.Type).Emit()
			continue
		}
		if _, dup := n.blockIx[id]; dup {
			c.errorf(diag.DuplicateBlock, diag.AtBlock(id), "block id %q is used more than once", id).Emit()
			continue
		}
		n.blockIx[id] = -1
		n.blocks = append(n.blocks, nBlock{ID: id, Type: b.Type, Config: blocks.Config(b.Config)})
	}
	sort.Slice(n.blocks, func(i, j int) bool { return n.blocks[i].ID < n.blocks[j].ID })
	for i, b := range n.blocks {
		n.blockIx[b.ID] = i
	}

	for _, b := range p.Buses {
		id := canonicalID(b.ID)
		if id == "" {
			c.errorf(diag.BusMissing, diag.Location{}, "bus of type %s has no id", b.Type).Emit()
			continue
		}
		if _, dup := n.busIx[id]; dup {
			c.errorf(diag.DuplicateBus, diag.AtBus(id), "bus id %q is used more than once", id).Emit()
			continue
		}
		n.busIx[id] = -1
		n.buses = append(n.buses, nBus{ID: id, Type: b.Type, Combine: b.Combine, Default: b.Default})
	}
	sort.Slice(n.buses, func(i, j int) bool { return n.buses[i].ID < n.buses[j].ID })
	for i, b := range n.buses {
		n.busIx[b.ID] = i
	}

	seenEdge := make(map[string]bool, len(p.Edges))
	for _, e := range p.Edges {
		id := canonicalID(e.ID)
		if id == "" {
			c.errorf(diag.InvalidEdge, diag.Location{}, "edge %s -> %s has no id", e.From, e.To).Emit()
			continue
		}
		if seenEdge[id] {
			c.errorf(diag.DuplicateEdge, diag.AtEdge(id), "edge id %q is used more than once", id).Emit()
			continue
		}
		seenEdge[id] = true
		if err := e.ValidateShape(); err != nil {
			c.errorf(diag.InvalidEdge, diag.AtEdge(id), "%v", err).Emit()
			continue
		}
		ne := nEdge{
			ID:       id,
			Kind:     e.Kind(),
			From:     canonicalEndpoint(e.From),
			To:       canonicalEndpoint(e.To),
			SortKey:  e.SortKey,
			Adapters: e.Adapters,
			Lenses:   e.Lenses,
		}
		for _, ep := range []patch.Endpoint{ne.From, ne.To} {
			if ep.IsPort() {
				if _, ok := n.blockIx[ep.Port.Block]; !ok {
					n.dangling = append(n.dangling, danglingRef{Edge: id, Block: ep.Port.Block, Port: ep.Port.Port})
					ne.Dangling = true
				}
			} else if _, ok := n.busIx[ep.Bus]; !ok {
				n.dangling = append(n.dangling, danglingRef{Edge: id, Bus: ep.Bus})
				ne.Dangling = true
			}
		}
		n.edges = append(n.edges, ne)
	}
	sort.Slice(n.edges, func(i, j int) bool { return n.edges[i].ID < n.edges[j].ID })

	keys := make([]string, 0, len(p.DefaultSources))
	for k := range p.DefaultSources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ck := canonicalID(k)
		if _, dup := n.defaults[ck]; !dup {
			n.defaults[ck] = p.DefaultSources[k]
		}
	}
	if p.Output != nil {
		n.output = &patch.PortRef{Block: canonicalID(p.Output.Block), Port: canonicalID(p.Output.Port)}
	}

	c.norm = n
	c.stopOnErrors()
}
