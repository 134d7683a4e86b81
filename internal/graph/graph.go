package graph

import "slices"

type Graph struct {
	Edges   [][]NodeID // Edges[from] = []to, sorted, без дублей
	Indeg   []int      // входящие степени для Kahn (только присутствующие узлы)
	Present []bool     // узел реально существует
}

// New creates a graph of n present nodes without edges.
func New(n int) *Graph {
	g := &Graph{
		Edges:   make([][]NodeID, n),
		Indeg:   make([]int, n),
		Present: make([]bool, n),
	}
	for i := range g.Present {
		g.Present[i] = true
	}
	return g
}

// Len returns the node count.
func (g *Graph) Len() int { return len(g.Edges) }

// AddEdge adds from -> to once. Self-loops are kept so cycle detection sees
// them.
func (g *Graph) AddEdge(from, to NodeID) {
	list := g.Edges[int(from)]
	i, found := slices.BinarySearch(list, to)
	if found {
		return
	}
	g.Edges[int(from)] = slices.Insert(list, i, to)
	if g.Present[int(to)] {
		g.Indeg[int(to)]++
	}
}

// HasEdge reports whether from -> to exists.
func (g *Graph) HasEdge(from, to NodeID) bool {
	_, found := slices.BinarySearch(g.Edges[int(from)], to)
	return found
}

// Without returns a copy of g minus the edges drop selects.
func (g *Graph) Without(drop func(from, to NodeID) bool) *Graph {
	out := &Graph{
		Edges:   make([][]NodeID, len(g.Edges)),
		Indeg:   make([]int, len(g.Indeg)),
		Present: slices.Clone(g.Present),
	}
	for from, list := range g.Edges {
		for _, to := range list {
			if drop(ToID(from), to) {
				continue
			}
			out.Edges[from] = append(out.Edges[from], to)
			if out.Present[int(to)] {
				out.Indeg[int(to)]++
			}
		}
	}
	return out
}
