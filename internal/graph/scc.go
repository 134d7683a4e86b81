package graph

import "slices"

// StronglyConnected returns the strongly connected components of g (Tarjan).
// Members of each component are sorted and components are ordered by their
// smallest member, independent of traversal order.
func StronglyConnected(g *Graph) [][]NodeID {
	n := len(g.Edges)
	const unvisited = -1
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = unvisited
	}
	var (
		stack  []NodeID
		comps  [][]NodeID
		nextIx int
	)

	var connect func(v NodeID)
	connect = func(v NodeID) {
		index[v] = nextIx
		low[v] = nextIx
		nextIx++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.Edges[int(v)] {
			if !g.Present[int(w)] {
				continue
			}
			if index[w] == unvisited {
				connect(w)
				low[v] = min(low[v], low[w])
			} else if onStack[w] {
				low[v] = min(low[v], index[w])
			}
		}

		if low[v] == index[v] {
			var comp []NodeID
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			slices.Sort(comp)
			comps = append(comps, comp)
		}
	}

	for i := range n {
		if g.Present[i] && index[i] == unvisited {
			connect(ToID(i))
		}
	}
	slices.SortFunc(comps, func(a, b []NodeID) int { return int(a[0]) - int(b[0]) })
	return comps
}

// Nontrivial reports whether comp is a real cycle: more than one node, or a
// single node with a self-loop.
func Nontrivial(g *Graph, comp []NodeID) bool {
	if len(comp) > 1 {
		return true
	}
	return len(comp) == 1 && g.HasEdge(comp[0], comp[0])
}
