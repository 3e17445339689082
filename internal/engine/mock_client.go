package engine

import (
	"context"
	"fmt"
	"sync"
)

// MockCompletionClient is a scripted CompletionClient for tests. Responses
// are returned in call order; once the script runs out the last response
// repeats.
type MockCompletionClient struct {
	err       error
	responses []string
	prompts   []string
	mu        sync.Mutex
}

// NewMockCompletionClient creates a mock that replies with the given
// responses in order.
func NewMockCompletionClient(responses ...string) *MockCompletionClient {
	return &MockCompletionClient{responses: responses}
}

// Complete returns the next scripted response and records the prompt.
func (m *MockCompletionClient) Complete(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, prompt)

	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "", fmt.Errorf("no scripted response")
	}

	idx := len(m.prompts) - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx], nil
}

// FailWith makes every subsequent call return err.
func (m *MockCompletionClient) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Prompts returns a copy of the prompts received so far.
func (m *MockCompletionClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	prompts := make([]string, len(m.prompts))
	copy(prompts, m.prompts)
	return prompts
}

// CallCount returns how many times Complete was invoked.
func (m *MockCompletionClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}
