package compiler

import (
	"sort"
	"strings"

	"patchc/internal/diag"
	"patchc/internal/graph"
	"patchc/internal/patch"
)

// depGraph is the (block, port) + bus graph and the block order derived
// from it.
type depGraph struct {
	index     graph.Index
	g         *graph.Graph
	nodeBlock []string // owning block per node; "" for buses

	inbound    map[string]*tEdge   // "block.port" -> wire or listen edge
	publishers map[string][]*tEdge // bus id -> publish edges
	order      []int               // block indices, dependencies first
}

func busNode(id string) string { return "bus:" + id }

func (c *compilation) buildDepGraph() {
	for _, d := range c.norm.dangling {
		if d.Bus != "" {
			c.errorf(diag.BusMissing, diag.AtEdge(d.Edge), "edge %s references missing bus %s", d.Edge, d.Bus).Emit()
		} else {
			c.errorf(diag.BlockMissing, diag.AtEdge(d.Edge), "edge %s references missing block %s", d.Edge, d.Block).Emit()
		}
	}

	dg := &depGraph{
		inbound:    make(map[string]*tEdge),
		publishers: make(map[string][]*tEdge),
	}
	writers := make(map[string][]*tEdge)
	for _, e := range c.typed.edges {
		switch e.Kind {
		case patch.EdgeWire, patch.EdgeListen:
			key := e.To.Port.String()
			writers[key] = append(writers[key], e)
		case patch.EdgePublish:
			dg.publishers[e.To.Bus] = append(dg.publishers[e.To.Bus], e)
		}
	}
	keys := make([]string, 0, len(writers))
	for k := range writers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		ws := writers[key]
		if len(ws) > 1 {
			ids := make([]string, len(ws))
			for i, e := range ws {
				ids[i] = e.ID
			}
			to := ws[0].To.Port
			c.errorf(diag.MultipleWriters, diag.AtPort(to.Block, to.Port),
				"input %s has %d incoming edges (%s); use a bus to merge values", key, len(ws), strings.Join(ids, ", ")).Emit()
			continue
		}
		dg.inbound[key] = ws[0]
	}
	c.stopOnErrors()

	// port-level graph
	owner := make(map[string]string)
	var names []string
	for _, b := range c.typed.blocks {
		for _, p := range b.Def.Inputs {
			n := b.ID + "." + p.ID
			names = append(names, n)
			owner[n] = b.ID
		}
		for _, p := range b.Def.Outputs {
			n := b.ID + "." + p.ID
			names = append(names, n)
			owner[n] = b.ID
		}
	}
	for _, b := range c.typed.buses {
		names = append(names, busNode(b.ID))
	}
	dg.index = graph.BuildIndex(names)
	dg.g = graph.New(len(dg.index.IDToName))
	dg.nodeBlock = make([]string, len(dg.index.IDToName))
	for i, n := range dg.index.IDToName {
		dg.nodeBlock[i] = owner[n]
	}
	id := func(name string) graph.NodeID { return dg.index.NameToID[name] }

	for _, b := range c.typed.blocks {
		for _, in := range b.Def.Inputs {
			for _, out := range b.Def.Outputs {
				dg.g.AddEdge(id(b.ID+"."+in.ID), id(b.ID+"."+out.ID))
			}
		}
	}
	for _, e := range c.typed.edges {
		from, to := e.From.String(), e.To.String()
		if e.From.IsBus() {
			from = busNode(e.From.Bus)
		}
		if e.To.IsBus() {
			to = busNode(e.To.Bus)
		}
		dg.g.AddEdge(id(from), id(to))
	}

	dg.order = c.blockOrder(dg)
	c.deps = dg
}

// blockOrder is Kahn over blocks with edges into state boundaries cut, the
// frontier sorted by block id. Blocks left in a cycle are appended in id
// order; the cycle pass reports them.
func (c *compilation) blockOrder(dg *depGraph) []int {
	blocks := c.typed.blocks
	g := graph.New(len(blocks))
	ix := c.norm.blockIx
	link := func(from, to string) {
		if blocks[ix[to]].Def.StateBoundary {
			return
		}
		g.AddEdge(graph.ToID(ix[from]), graph.ToID(ix[to]))
	}

	listeners := make(map[string][]string)
	for _, e := range c.typed.edges {
		switch e.Kind {
		case patch.EdgeWire:
			link(e.From.Port.Block, e.To.Port.Block)
		case patch.EdgeListen:
			listeners[e.From.Bus] = append(listeners[e.From.Bus], e.To.Port.Block)
		}
	}
	for busID, pubs := range dg.publishers {
		for _, p := range pubs {
			for _, l := range listeners[busID] {
				link(p.From.Port.Block, l)
			}
		}
	}

	topo := graph.ToposortKahn(g)
	order := make([]int, 0, len(blocks))
	for _, id := range topo.Order {
		order = append(order, int(id))
	}
	for _, id := range topo.Cycles {
		order = append(order, int(id))
	}
	return order
}
