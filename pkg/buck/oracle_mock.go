package buck

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/ritzau/deps-minimizer/pkg/model"
)

// BuildCall records one Build invocation on a MockOracle
type BuildCall struct {
	Targets []string
	NoCache bool
}

// MockOracle is a scriptable Oracle for testing
type MockOracle struct {
	// BuildFunc decides the verdict. A nil BuildFunc always succeeds.
	BuildFunc func(targets []string, noCache bool) bool
	// Queries maps a target to raw JSON query output
	Queries map[string]string

	mu         sync.Mutex
	BuildCalls []BuildCall
	QueryCalls []string
}

func (m *MockOracle) Build(ctx context.Context, targets []string, noCache bool) bool {
	m.mu.Lock()
	m.BuildCalls = append(m.BuildCalls, BuildCall{Targets: slices.Clone(targets), NoCache: noCache})
	m.mu.Unlock()

	if m.BuildFunc == nil {
		return true
	}
	return m.BuildFunc(targets, noCache)
}

func (m *MockOracle) QueryModules(ctx context.Context, target string, depth int) (map[string]*model.Module, error) {
	m.mu.Lock()
	m.QueryCalls = append(m.QueryCalls, target)
	m.mu.Unlock()

	out, ok := m.Queries[target]
	if !ok {
		return nil, fmt.Errorf("no canned query output for %s", target)
	}
	return ParseQueryOutput([]byte(out))
}

// Builds returns the number of Build calls so far
func (m *MockOracle) Builds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.BuildCalls)
}
