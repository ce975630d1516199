package provider

import (
	"context"
	"errors"
	"sync"
)

// ErrClientNotConfigured is returned by a CallbackProvider queried before a
// client function has been attached.
var ErrClientNotConfigured = errors.New("callback client not configured")

// ClientFunc is the host-supplied generation function backing a
// CallbackProvider.
type ClientFunc func(ctx context.Context, prompt string, opts *QueryOptions) (string, map[string]any, error)

// CallbackProvider adapts an arbitrary generation function to the Provider
// interface. It is registered at process start as a named placeholder (the
// "rube" host provider in the default setup) and the concrete client is
// attached later via SetClient, without re-registration.
type CallbackProvider struct {
	name   string
	mu     sync.RWMutex
	client ClientFunc
}

// NewCallbackProvider creates a placeholder provider with the given name.
// Pass a nil client to defer configuration until SetClient.
func NewCallbackProvider(name string, client ClientFunc) *CallbackProvider {
	return &CallbackProvider{name: name, client: client}
}

// Name implements Provider.
func (c *CallbackProvider) Name() string { return c.name }

// SetClient attaches (or replaces) the backing generation function.
func (c *CallbackProvider) SetClient(client ClientFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.client = client
}

// Query implements Provider by delegating to the attached client function.
func (c *CallbackProvider) Query(ctx context.Context, prompt string, opts *QueryOptions) (*Result, error) {
	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()
	if client == nil {
		return nil, ErrClientNotConfigured
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	text, metadata, err := client(ctx, prompt, opts)
	if err != nil {
		return nil, err
	}
	return &Result{Text: text, Metadata: metadata}, nil
}
