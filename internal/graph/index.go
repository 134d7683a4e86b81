// Package graph holds the dense-id directed graphs the compiler orders and
// checks for cycles.
package graph

import (
	"fmt"
	"sort"

	"fortio.org/safecast"
)

type NodeID uint32

type Index struct {
	NameToID map[string]NodeID
	IDToName []string
}

// собрать уникальные имена, sort.Strings, раздать ID по порядку
func BuildIndex(names []string) Index {
	uniq := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n != "" {
			uniq[n] = struct{}{}
		}
	}
	sorted := make([]string, 0, len(uniq))
	for n := range uniq {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	nameToID := make(map[string]NodeID, len(sorted))
	for i, n := range sorted {
		nameToID[n] = ToID(i)
	}
	return Index{NameToID: nameToID, IDToName: sorted}
}

// Names maps ids back to names.
func (idx Index) Names(ids []NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = idx.IDToName[int(id)]
	}
	return out
}

// ToID narrows an index to a NodeID.
func ToID(i int) NodeID {
	id, err := safecast.Conv[NodeID](i)
	if err != nil {
		panic(fmt.Errorf("node id overflow: %w", err))
	}
	return id
}
