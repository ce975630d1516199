package provider

import (
	"fmt"
	"sync"

	"github.com/vmanoilov/zenrube/logging"
)

// Registry maps provider names to instances and tracks one designated default.
// It is an explicitly constructed object handed to the orchestrator rather
// than process-wide state, so tests can run isolated registries concurrently.
// Registration is synchronized; lookups take a read lock only.
type Registry struct {
	mu          sync.RWMutex
	providers   map[string]Provider
	defaultName string
	logger      logging.Logger
}

// NewRegistry constructs an empty registry. A nil logger disables logging.
func NewRegistry(logger logging.Logger) *Registry {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Registry{providers: make(map[string]Provider), logger: logger}
}

// Register stores the provider under its own name, replacing any previous
// instance. The first registered provider becomes the default.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
	if r.defaultName == "" {
		r.defaultName = p.Name()
	}
	r.logger.Debug("registered provider", "provider", p.Name())
}

// Configure stores the provider under an explicit name. This supports
// hot-swapping a concrete backend over a previously registered placeholder
// without touching the default selection.
func (r *Registry) Configure(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
	r.logger.Debug("configured provider", "provider", name)
}

// Get resolves a provider by name. An empty name resolves the default.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		name = r.defaultName
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	return p, nil
}

// SetDefault designates the provider resolved by Get("").
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	r.defaultName = name
	r.logger.Debug("default provider set", "provider", name)
	return nil
}

// Default returns the current default provider name.
func (r *Registry) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultName
}

// Names returns a snapshot of the registered provider names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
