package buck

import (
	"context"
	"sync"
)

// MockExecutor is a mock implementation of Executor for testing
type MockExecutor struct {
	MockOutput []byte
	MockError  error
	// RunFunc, when set, replaces the canned output
	RunFunc func(args []string) ([]byte, error)

	mu    sync.Mutex
	Calls [][]string
}

func (m *MockExecutor) Run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, append([]string(nil), args...))
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(args)
	}
	return m.MockOutput, m.MockError
}
