// Package consensus implements the multi-expert consensus engine: it fans a
// question out to a panel of independently configured expert personas,
// collects their responses, synthesizes a single consensus narrative and
// tolerates partial failures, caching full results for repeat queries.
package consensus

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vmanoilov/zenrube/logging"
)

// Style selects the tone of the synthesis pass.
type Style string

// The closed set of synthesis styles.
const (
	StyleBalanced      Style = "balanced"
	StyleCritical      Style = "critical"
	StyleCollaborative Style = "collaborative"
)

// Styles lists every valid synthesis style.
var Styles = []Style{StyleBalanced, StyleCritical, StyleCollaborative}

// ErrInvalidStyle is returned when a style override is not in the closed set.
var ErrInvalidStyle = errors.New("invalid synthesis style")

// ParseStyle validates a style name.
func ParseStyle(name string) (Style, error) {
	switch Style(name) {
	case StyleBalanced, StyleCritical, StyleCollaborative:
		return Style(name), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStyle, name)
	}
}

// Warning texts attached to degraded results.
const (
	DegradedWarning             = "One or more experts failed; consensus may be degraded."
	SynthesisUnavailableWarning = "Consensus synthesis unavailable."
)

// ExpertResponse is one persona's outcome for a single run. It is created by
// the expert query step and immutable thereafter.
type ExpertResponse struct {
	Name            string         `json:"name"`
	Prompt          string         `json:"prompt"`
	Response        string         `json:"response,omitempty"`
	Error           string         `json:"error,omitempty"`
	Provider        string         `json:"provider,omitempty"`
	DurationSeconds float64        `json:"duration_seconds"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Succeeded reports whether the persona produced a usable answer: no error
// and non-empty response text.
func (r ExpertResponse) Succeeded() bool {
	return r.Error == "" && r.Response != ""
}

// SynthesisConfig holds the resolved execution parameters for one
// orchestration run. It is rebuilt fresh on every run from defaults, the
// persisted configuration and per-call overrides, and never mutated after
// construction.
type SynthesisConfig struct {
	Style        Style    `json:"synthesis_style"`
	Parallel     bool     `json:"parallel_execution"`
	Provider     string   `json:"provider"`
	Experts      []string `json:"experts"`
	MaxWorkers   *int     `json:"max_workers,omitempty"`
	CacheTTL     *int     `json:"cache_ttl_seconds,omitempty"` // seconds; nil = manager default
	LoggingLevel string   `json:"logging_level"`
	Debug        bool     `json:"debug"`
}

// DefaultSynthesisConfig returns the built-in defaults applied before any
// persisted configuration or per-call override.
func DefaultSynthesisConfig() SynthesisConfig {
	return SynthesisConfig{
		Style:        StyleBalanced,
		Parallel:     true,
		Provider:     "rube",
		LoggingLevel: "INFO",
	}
}

// Overrides carries explicit per-call configuration overrides. Only fields
// actually set by the caller are applied; nil pointers and empty values mean
// "keep the layered value".
type Overrides struct {
	Experts      []string
	Style        string
	Parallel     *bool
	Provider     string
	MaxWorkers   *int
	CacheTTL     *int
	LoggingLevel string
	Debug        *bool
}

// Apply layers the overrides onto c key by key and validates the result.
// Validation failures are fatal at configuration build time, before any
// provider call.
func (c SynthesisConfig) Apply(o Overrides) (SynthesisConfig, error) {
	if o.Experts != nil {
		c.Experts = append([]string(nil), o.Experts...)
	}
	if o.Style != "" {
		style, err := ParseStyle(o.Style)
		if err != nil {
			return SynthesisConfig{}, err
		}
		c.Style = style
	}
	if o.Parallel != nil {
		c.Parallel = *o.Parallel
	}
	if o.Provider != "" {
		c.Provider = o.Provider
	}
	if o.MaxWorkers != nil {
		c.MaxWorkers = o.MaxWorkers
	}
	if o.CacheTTL != nil {
		c.CacheTTL = o.CacheTTL
	}
	if o.LoggingLevel != "" {
		c.LoggingLevel = o.LoggingLevel
	}
	if o.Debug != nil {
		c.Debug = *o.Debug
	}
	if err := c.validate(); err != nil {
		return SynthesisConfig{}, err
	}
	c.LoggingLevel = strings.ToUpper(c.LoggingLevel)
	return c, nil
}

func (c SynthesisConfig) validate() error {
	if _, err := ParseStyle(string(c.Style)); err != nil {
		return err
	}
	if c.MaxWorkers != nil && *c.MaxWorkers < 1 {
		return fmt.Errorf("max workers must be >= 1, got %d", *c.MaxWorkers)
	}
	if c.CacheTTL != nil && *c.CacheTTL < 0 {
		return fmt.Errorf("cache ttl must be >= 0, got %d", *c.CacheTTL)
	}
	if _, err := logging.ParseLevel(c.LoggingLevel); err != nil {
		return err
	}
	return nil
}

// Result is the orchestration's final output, constructed once per run and
// never mutated after construction.
type Result struct {
	ExecutionID      string           `json:"execution_id"`
	Question         string           `json:"question"`
	SynthesisStyle   Style            `json:"synthesis_style"`
	Provider         string           `json:"provider"`
	ExpertsConsulted []string         `json:"experts_consulted"`
	Responses        []ExpertResponse `json:"responses"`
	Consensus        string           `json:"consensus,omitempty"`
	Timestamp        time.Time        `json:"timestamp"`
	Degraded         bool             `json:"degraded"`
	Warnings         []string         `json:"warnings,omitempty"`
	Metadata         map[string]any   `json:"metadata,omitempty"`
}
