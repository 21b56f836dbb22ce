package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/deps-minimizer/pkg/model"
)

func modules(edges map[string][]string) map[string]*model.Module {
	out := make(map[string]*model.Module, len(edges))
	for t, deps := range edges {
		out[t] = &model.Module{Target: t, Deps: deps}
	}
	return out
}

func TestOrderDependenciesFirst(t *testing.T) {
	mg := NewModuleGraph(modules(map[string][]string{
		"//app:app":     {"//ui:ui", "//net:net"},
		"//ui:ui":       {"//core:core", "//external:lib"},
		"//net:net":     {"//core:core"},
		"//core:core":   nil,
		"//zeta:zeta":   nil,
		"//alpha:alpha": {"//alpha:alpha"},
	}))

	order, err := mg.Order()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"//alpha:alpha",
		"//core:core",
		"//net:net",
		"//ui:ui",
		"//app:app",
		"//zeta:zeta",
	}, order)
}

func TestOrderIsDeterministic(t *testing.T) {
	edges := map[string][]string{
		"//c:c": nil, "//b:b": nil, "//a:a": nil, "//d:d": {"//a:a"},
	}
	first, err := NewModuleGraph(modules(edges)).Order()
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := NewModuleGraph(modules(edges)).Order()
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, []string{"//a:a", "//b:b", "//c:c", "//d:d"}, first)
}

func TestOrderWithCycle(t *testing.T) {
	mg := NewModuleGraph(modules(map[string][]string{
		"//a:a": {"//b:b"},
		"//b:b": {"//a:a"},
		"//c:c": {"//a:a"},
	}))

	order, err := mg.Order()
	assert.ErrorIs(t, err, ErrCycle)
	assert.ElementsMatch(t, []string{"//a:a", "//b:b", "//c:c"}, order)
}

func TestDependencies(t *testing.T) {
	mg := NewModuleGraph(modules(map[string][]string{
		"//app:app": {"//ui:ui", "//core:core", "//outside:outside"},
		"//ui:ui":   nil,
		"//core:core": nil,
	}))

	assert.Equal(t, 3, mg.Len())
	assert.Equal(t, []string{"//core:core", "//ui:ui"}, mg.Dependencies("//app:app"))
	assert.Nil(t, mg.Dependencies("//missing:missing"))
}
