package testing

import (
	"context"
	"sync"

	"github.com/aristath/qae/internal/modules/classifier"
	"github.com/aristath/qae/internal/quantum/circuit"
	"github.com/aristath/qae/internal/quantum/simulator"
)

// MockExecutor is a classifier.Executor that counts runs and can be made to fail.
// Without an error it delegates to a seeded simulator.
type MockExecutor struct {
	mu      sync.Mutex
	backend *simulator.Backend
	err     error
	calls   int
}

// NewMockExecutor creates a new mock executor
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{backend: simulator.New(1)}
}

// SetError makes every following Run fail with err
func (m *MockExecutor) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the number of Run invocations
func (m *MockExecutor) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Run implements classifier.Executor
func (m *MockExecutor) Run(ctx context.Context, bound *circuit.Bound, shots int) (simulator.Counts, error) {
	m.mu.Lock()
	m.calls++
	err := m.err
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return m.backend.Run(ctx, bound, shots)
}

var _ classifier.Executor = (*MockExecutor)(nil)
