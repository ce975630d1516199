// Package provider defines the uniform interface to text-generation backends
// and a registry that resolves named providers. Concrete adapters live in the
// openai and anthropic subpackages; CallbackProvider bridges host platforms
// that expose generation as a plain function.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotRegistered is returned when a provider name cannot be resolved.
var ErrNotRegistered = errors.New("provider not registered")

// QueryOptions carries the recognized per-call generation parameters.
// Adapters apply their own defaults for zero values.
type QueryOptions struct {
	// Model overrides the adapter's default model identifier.
	Model string
	// Temperature controls sampling randomness. Zero means adapter default.
	Temperature float64
	// MaxTokens caps the completion length. Zero means adapter default.
	MaxTokens int64
}

// Validate rejects option values no backend can honor.
func (o *QueryOptions) Validate() error {
	if o == nil {
		return nil
	}
	if o.Temperature < 0 || o.Temperature > 2 {
		return fmt.Errorf("temperature %v out of range [0, 2]", o.Temperature)
	}
	if o.MaxTokens < 0 {
		return fmt.Errorf("max tokens must be >= 0, got %d", o.MaxTokens)
	}
	return nil
}

// Result is the outcome of a single generation call.
type Result struct {
	// Text is the completion text.
	Text string
	// Metadata carries backend specific details (model id, token usage, ...).
	Metadata map[string]any
}

// Provider is the minimal interface required to drive generation against a
// named backend. Implementations must be safe for concurrent use: a single
// provider instance serves every expert query of a parallel run.
type Provider interface {
	// Name returns the registry name of the provider.
	Name() string

	// Query sends one prompt and blocks until the backend answers or ctx is
	// done. Failures are returned to the caller, never swallowed.
	Query(ctx context.Context, prompt string, opts *QueryOptions) (*Result, error)
}
