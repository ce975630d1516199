package provider

import (
	"context"
	"fmt"
	"sync"
)

// MockProvider is a lightweight in-memory Provider useful for tests and
// examples. Responses are canned per prompt, or produced by an optional
// responder function; errors can be injected per prompt or globally.
// All mutators and Query are safe for concurrent use.
type MockProvider struct {
	name      string
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	err       error
	responder func(prompt string) (string, error)
	calls     []string
}

// NewMockProvider constructs a MockProvider with the given registry name.
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		name:      name,
		responses: make(map[string]string),
		errs:      make(map[string]error),
	}
}

// Name implements Provider.
func (m *MockProvider) Name() string { return m.name }

// AddResponse registers a deterministic canned completion for a prompt.
func (m *MockProvider) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// FailWith injects an error for a specific prompt.
func (m *MockProvider) FailWith(prompt string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[prompt] = err
}

// SetError makes every Query fail with err until reset with nil.
func (m *MockProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetResponder installs a function consulted for prompts without a canned
// response.
func (m *MockProvider) SetResponder(fn func(prompt string) (string, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responder = fn
}

// Calls returns the prompts received so far, in arrival order.
func (m *MockProvider) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Query invocations observed.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Query implements Provider.
func (m *MockProvider) Query(ctx context.Context, prompt string, opts *QueryOptions) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.calls = append(m.calls, prompt)
	err := m.err
	if err == nil {
		err = m.errs[prompt]
	}
	text, canned := m.responses[prompt]
	responder := m.responder
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if !canned && responder != nil {
		var rerr error
		text, rerr = responder(prompt)
		if rerr != nil {
			return nil, rerr
		}
	} else if !canned {
		text = fmt.Sprintf("Mock response to: %s", prompt)
	}
	return &Result{Text: text, Metadata: map[string]any{"provider": m.name, "mock": true}}, nil
}
