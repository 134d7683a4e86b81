package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func buildGraph(t *testing.T, names []string, edges [][2]string) (Index, *Graph) {
	t.Helper()
	idx := BuildIndex(names)
	g := New(len(idx.IDToName))
	for _, e := range edges {
		from, ok := idx.NameToID[e[0]]
		if !ok {
			t.Fatalf("unknown node %q", e[0])
		}
		to, ok := idx.NameToID[e[1]]
		if !ok {
			t.Fatalf("unknown node %q", e[1])
		}
		g.AddEdge(from, to)
	}
	return idx, g
}

func TestBuildIndexSortsAndDedups(t *testing.T) {
	idx := BuildIndex([]string{"c", "a", "b", "a", ""})
	if diff := cmp.Diff([]string{"a", "b", "c"}, idx.IDToName); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if idx.NameToID["c"] != 2 {
		t.Fatalf("id(c) = %d, want 2", idx.NameToID["c"])
	}
}

func TestAddEdgeIgnoresDuplicates(t *testing.T) {
	_, g := buildGraph(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"a", "b"}})
	if g.Indeg[1] != 1 {
		t.Fatalf("indeg(b) = %d, want 1", g.Indeg[1])
	}
	if len(g.Edges[0]) != 1 {
		t.Fatalf("edges(a) = %v, want one edge", g.Edges[0])
	}
}

func TestToposortKahnBatches(t *testing.T) {
	idx, g := buildGraph(t,
		[]string{"time", "osc", "add", "render", "lonely"},
		[][2]string{{"time", "osc"}, {"osc", "add"}, {"time", "add"}, {"add", "render"}},
	)
	topo := ToposortKahn(g)
	if topo.Cyclic {
		t.Fatalf("unexpected cycle: %v", idx.Names(topo.Cycles))
	}
	got := idx.Names(topo.Order)
	want := []string{"lonely", "time", "osc", "add", "render"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if len(topo.Batches) != 4 {
		t.Fatalf("batches = %d, want 4", len(topo.Batches))
	}
}

func TestToposortKahnReportsCycle(t *testing.T) {
	idx, g := buildGraph(t,
		[]string{"a", "b", "c"},
		[][2]string{{"a", "b"}, {"b", "a"}, {"b", "c"}},
	)
	topo := ToposortKahn(g)
	if !topo.Cyclic {
		t.Fatal("expected cycle")
	}
	// c hangs off the cycle, so it is never freed either.
	if diff := cmp.Diff([]string{"a", "b", "c"}, idx.Names(topo.Cycles)); diff != "" {
		t.Fatalf("cycle nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestStronglyConnected(t *testing.T) {
	idx, g := buildGraph(t,
		[]string{"a", "b", "c", "d", "e"},
		[][2]string{{"a", "b"}, {"b", "a"}, {"b", "c"}, {"d", "d"}, {"c", "e"}},
	)
	comps := StronglyConnected(g)
	var cyclic [][]string
	for _, comp := range comps {
		if Nontrivial(g, comp) {
			cyclic = append(cyclic, idx.Names(comp))
		}
	}
	want := [][]string{{"a", "b"}, {"d"}}
	if diff := cmp.Diff(want, cyclic); diff != "" {
		t.Fatalf("cycles mismatch (-want +got):\n%s", diff)
	}
	if len(comps) != 4 {
		t.Fatalf("components = %d, want 4", len(comps))
	}
}

func TestWithoutDropsEdges(t *testing.T) {
	_, g := buildGraph(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}})
	cut := g.Without(func(from, to NodeID) bool { return to == 0 })
	topo := ToposortKahn(cut)
	if topo.Cyclic {
		t.Fatal("cut graph should be acyclic")
	}
	if !ToposortKahn(g).Cyclic {
		t.Fatal("original graph must stay cyclic")
	}
}
