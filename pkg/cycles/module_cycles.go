package cycles

import (
	"slices"
	"strings"

	"github.com/ritzau/deps-minimizer/pkg/graph"
)

// ModuleCycle represents a circular dependency between modules
type ModuleCycle struct {
	Targets []string // Targets in the cycle, sorted
}

func (c ModuleCycle) String() string {
	return strings.Join(c.Targets, " <-> ")
}

// FindModuleCycles finds all circular dependencies in the module graph
func FindModuleCycles(mg *graph.ModuleGraph) []ModuleCycle {
	tarjan := NewTarjanSCC(mg.Graph())

	cycles := make([]ModuleCycle, 0)
	for _, scc := range tarjan.FindSCCs() {
		targets := make([]string, 0, len(scc))
		for _, id := range scc {
			targets = append(targets, mg.Label(id))
		}
		slices.Sort(targets)
		cycles = append(cycles, ModuleCycle{Targets: targets})
	}

	slices.SortFunc(cycles, func(a, b ModuleCycle) int {
		return strings.Compare(a.Targets[0], b.Targets[0])
	})
	return cycles
}
