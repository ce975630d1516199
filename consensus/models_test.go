package consensus

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStyle(t *testing.T) {
	for _, style := range Styles {
		parsed, err := ParseStyle(string(style))
		require.NoError(t, err)
		assert.Equal(t, style, parsed)
	}

	_, err := ParseStyle("sarcastic")
	assert.ErrorIs(t, err, ErrInvalidStyle)
}

func TestExpertResponse_Succeeded(t *testing.T) {
	assert.True(t, ExpertResponse{Response: "ok"}.Succeeded())
	assert.False(t, ExpertResponse{Error: "boom"}.Succeeded())
	assert.False(t, ExpertResponse{}.Succeeded(), "empty response text is not a success")
	assert.False(t, ExpertResponse{Response: "ok", Error: "boom"}.Succeeded())
}

func TestSynthesisConfig_ApplyLayering(t *testing.T) {
	base := DefaultSynthesisConfig()
	base.Experts = []string{"a", "b"}
	base.Provider = "rube"

	parallel := false
	workers := 4
	ttl := 60
	cfg, err := base.Apply(Overrides{
		Style:        "critical",
		Parallel:     &parallel,
		Provider:     "mock",
		MaxWorkers:   &workers,
		CacheTTL:     &ttl,
		LoggingLevel: "debug",
	})
	require.NoError(t, err)

	assert.Equal(t, StyleCritical, cfg.Style)
	assert.False(t, cfg.Parallel)
	assert.Equal(t, "mock", cfg.Provider)
	assert.Equal(t, []string{"a", "b"}, cfg.Experts, "unset override keeps layered value")
	assert.Equal(t, 4, *cfg.MaxWorkers)
	assert.Equal(t, 60, *cfg.CacheTTL)
	assert.Equal(t, "DEBUG", cfg.LoggingLevel, "logging level is upper-cased")
}

func TestSynthesisConfig_ApplyEmptyOverridesKeepsBase(t *testing.T) {
	base := DefaultSynthesisConfig()
	cfg, err := base.Apply(Overrides{})
	require.NoError(t, err)
	assert.Equal(t, StyleBalanced, cfg.Style)
	assert.True(t, cfg.Parallel)
	assert.Equal(t, "rube", cfg.Provider)
	assert.Nil(t, cfg.MaxWorkers)
	assert.Nil(t, cfg.CacheTTL)
}

func TestSynthesisConfig_ApplyRejectsInvalidValues(t *testing.T) {
	base := DefaultSynthesisConfig()

	_, err := base.Apply(Overrides{Style: "bogus"})
	assert.ErrorIs(t, err, ErrInvalidStyle)

	zero := 0
	_, err = base.Apply(Overrides{MaxWorkers: &zero})
	assert.Error(t, err)

	negative := -1
	_, err = base.Apply(Overrides{CacheTTL: &negative})
	assert.Error(t, err)

	_, err = base.Apply(Overrides{LoggingLevel: "verbose"})
	assert.Error(t, err)
}

func TestResult_JSONRoundTrip(t *testing.T) {
	result := Result{
		ExecutionID:      "run-1",
		Question:         "q",
		SynthesisStyle:   StyleBalanced,
		Provider:         "mock",
		ExpertsConsulted: []string{"A"},
		Responses: []ExpertResponse{
			{Name: "A", Prompt: "p", Response: "r", Provider: "mock", DurationSeconds: 0.25},
		},
		Consensus: "agreed",
		Timestamp: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Metadata:  map[string]any{"parallel_execution": true},
	}

	first, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded Result
	require.NoError(t, json.Unmarshal(first, &decoded))
	second, err := json.Marshal(decoded)
	require.NoError(t, err)

	assert.Equal(t, first, second, "serialization round-trips byte-identically")
	assert.Contains(t, string(first), `"timestamp":"2024-06-01T12:00:00Z"`)
}
