package graph

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/ritzau/deps-minimizer/pkg/model"
)

// ErrCycle is returned by Order when the modules do not form a DAG
var ErrCycle = errors.New("module graph has cycles")

// ModuleGraph is the dependency graph restricted to a working set of
// modules. Edges point from a dependency to its dependent so that a
// topological order lists dependencies first.
type ModuleGraph struct {
	graph  *simple.DirectedGraph
	ids    map[string]int64 // Map from target to graph ID
	labels map[int64]string // Map from graph ID to target
}

// NewModuleGraph builds the graph for modules. Dependencies outside the
// working set are ignored.
func NewModuleGraph(modules map[string]*model.Module) *ModuleGraph {
	mg := &ModuleGraph{
		graph:  simple.NewDirectedGraph(),
		ids:    make(map[string]int64, len(modules)),
		labels: make(map[int64]string, len(modules)),
	}

	// IDs follow target order so iteration is reproducible
	targets := make([]string, 0, len(modules))
	for t := range modules {
		targets = append(targets, t)
	}
	slices.Sort(targets)
	for i, t := range targets {
		id := int64(i)
		mg.ids[t] = id
		mg.labels[id] = t
		mg.graph.AddNode(simple.Node(id))
	}

	for _, t := range targets {
		for _, dep := range modules[t].Deps {
			mg.addDependency(t, dep)
		}
	}

	return mg
}

func (mg *ModuleGraph) addDependency(module, dep string) {
	from, ok := mg.ids[dep]
	if !ok {
		return
	}
	to := mg.ids[module]
	if from == to || mg.graph.HasEdgeFromTo(from, to) {
		return
	}
	mg.graph.SetEdge(mg.graph.NewEdge(mg.graph.Node(from), mg.graph.Node(to)))
}

// Graph returns the underlying directed graph
func (mg *ModuleGraph) Graph() *simple.DirectedGraph {
	return mg.graph
}

// Label returns the target of a graph node ID
func (mg *ModuleGraph) Label(id int64) string {
	return mg.labels[id]
}

// Len returns the number of modules in the graph
func (mg *ModuleGraph) Len() int {
	return len(mg.ids)
}

// Dependencies returns the in-graph dependencies of target, sorted
func (mg *ModuleGraph) Dependencies(target string) []string {
	id, ok := mg.ids[target]
	if !ok {
		return nil
	}
	var deps []string
	iter := mg.graph.To(id)
	for iter.Next() {
		deps = append(deps, mg.labels[iter.Node().ID()])
	}
	slices.Sort(deps)
	return deps
}

// Order returns all targets with every module after its in-graph
// dependencies. Ties are broken by target name. If the graph has cycles,
// the modules of each cycle are placed where the cycle would sort, in
// target order, and an error wrapping ErrCycle is returned with the order.
func (mg *ModuleGraph) Order() ([]string, error) {
	byLabel := func(nodes []graph.Node) {
		slices.SortFunc(nodes, func(a, b graph.Node) int {
			switch la, lb := mg.labels[a.ID()], mg.labels[b.ID()]; {
			case la < lb:
				return -1
			case la > lb:
				return 1
			}
			return 0
		})
	}

	sorted, err := topo.SortStabilized(mg.graph, byLabel)
	if err == nil {
		order := make([]string, len(sorted))
		for i, n := range sorted {
			order[i] = mg.labels[n.ID()]
		}
		return order, nil
	}

	var unorderable topo.Unorderable
	if !errors.As(err, &unorderable) {
		return nil, fmt.Errorf("failed to order modules: %w", err)
	}

	placed := make(map[int64]bool, mg.Len())
	order := make([]string, 0, mg.Len())
	place := func(n graph.Node) {
		if n == nil || placed[n.ID()] {
			return
		}
		placed[n.ID()] = true
		order = append(order, mg.labels[n.ID()])
	}

	component := 0
	for _, n := range sorted {
		if n != nil {
			place(n)
			continue
		}
		if component < len(unorderable) {
			nodes := slices.Clone(unorderable[component])
			byLabel(nodes)
			for _, c := range nodes {
				place(c)
			}
			component++
		}
	}

	// Anything not yet placed goes last in target order
	rest := make([]string, 0)
	for id, label := range mg.labels {
		if !placed[id] {
			rest = append(rest, label)
		}
	}
	slices.Sort(rest)
	order = append(order, rest...)

	return order, fmt.Errorf("%w: %d cyclic components", ErrCycle, len(unorderable))
}
