package cycles

import (
	"slices"

	"gonum.org/v1/gonum/graph"
)

// TarjanSCC finds strongly connected components with more than one node.
// Nodes and successors are visited in ID order so results are reproducible.
type TarjanSCC struct {
	graph   graph.Directed
	index   int
	stack   []int64
	onStack map[int64]bool
	indices map[int64]int
	lowLink map[int64]int
	sccs    [][]int64
}

// NewTarjanSCC creates a new Tarjan SCC finder
func NewTarjanSCC(g graph.Directed) *TarjanSCC {
	return &TarjanSCC{
		graph:   g,
		onStack: make(map[int64]bool),
		indices: make(map[int64]int),
		lowLink: make(map[int64]int),
	}
}

// FindSCCs returns every cycle as a list of node IDs, each sorted
func (t *TarjanSCC) FindSCCs() [][]int64 {
	for _, id := range sortedIDs(t.graph.Nodes()) {
		if _, visited := t.indices[id]; !visited {
			t.strongConnect(id)
		}
	}
	return t.sccs
}

func (t *TarjanSCC) strongConnect(nodeID int64) {
	t.indices[nodeID] = t.index
	t.lowLink[nodeID] = t.index
	t.index++

	t.stack = append(t.stack, nodeID)
	t.onStack[nodeID] = true

	for _, succ := range sortedIDs(t.graph.From(nodeID)) {
		if _, visited := t.indices[succ]; !visited {
			t.strongConnect(succ)
			t.lowLink[nodeID] = min(t.lowLink[nodeID], t.lowLink[succ])
		} else if t.onStack[succ] {
			t.lowLink[nodeID] = min(t.lowLink[nodeID], t.indices[succ])
		}
	}

	if t.lowLink[nodeID] != t.indices[nodeID] {
		return
	}

	// nodeID is a root: pop its component
	var scc []int64
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		scc = append(scc, w)
		if w == nodeID {
			break
		}
	}
	if len(scc) > 1 {
		slices.Sort(scc)
		t.sccs = append(t.sccs, scc)
	}
}

func sortedIDs(nodes graph.Nodes) []int64 {
	var ids []int64
	for nodes.Next() {
		ids = append(ids, nodes.Node().ID())
	}
	slices.Sort(ids)
	return ids
}
