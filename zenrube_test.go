package zenrube

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmanoilov/zenrube/config"
	"github.com/vmanoilov/zenrube/consensus"
	"github.com/vmanoilov/zenrube/expert"
	"github.com/vmanoilov/zenrube/logging"
	"github.com/vmanoilov/zenrube/provider"
)

func testConfig() *config.Config {
	return &config.Config{
		Experts:           []string{expert.SlugPragmaticEngineer, expert.SlugSystemsArchitect},
		SynthesisStyle:    "balanced",
		ParallelExecution: true,
		Provider:          "rube",
		Logging:           config.LoggingConfig{Level: "ERROR"},
	}
}

func TestNew_DefaultsAndRubeClient(t *testing.T) {
	z, err := New(func(o *Options) {
		o.Config = testConfig()
		o.Logger = logging.NoOpLogger{}
	})
	require.NoError(t, err)

	// The rube placeholder is registered but unusable until a client attaches.
	result, err := z.Consensus(context.Background(), "ready?", consensus.WithoutCache())
	require.NoError(t, err)
	assert.True(t, result.Degraded)
	for _, resp := range result.Responses {
		assert.Contains(t, resp.Error, "callback client not configured")
	}

	require.NoError(t, z.ConfigureRubeClient(
		func(ctx context.Context, prompt string, opts *provider.QueryOptions) (string, map[string]any, error) {
			return "host says yes", nil, nil
		}))

	result, err = z.Consensus(context.Background(), "ready?", consensus.WithoutCache())
	require.NoError(t, err)
	assert.False(t, result.Degraded)
	assert.Equal(t, "host says yes", result.Consensus)
	assert.Len(t, result.Responses, 2)
}

func TestNew_RejectsUnknownCacheBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Backend = "memcached"
	_, err := New(func(o *Options) {
		o.Config = cfg
		o.Logger = logging.NoOpLogger{}
	})
	assert.Error(t, err)
}

func TestNew_RejectsUnknownLoggingLevel(t *testing.T) {
	cfg := testConfig()
	cfg.Logging.Level = "LOUD"
	_, err := New(func(o *Options) { o.Config = cfg })
	assert.Error(t, err)
}

func TestNew_UsesInjectedRegistries(t *testing.T) {
	mock := provider.NewMockProvider("mock")
	providers := provider.NewRegistry(nil)
	providers.Register(mock)

	experts := expert.NewRegistry()
	experts.Register("solo", expert.Definition{Name: "Solo", SystemPrompt: "You decide alone."})

	cfg := testConfig()
	cfg.Provider = "mock"
	cfg.Experts = nil

	z, err := New(func(o *Options) {
		o.Config = cfg
		o.Providers = providers
		o.Experts = experts
		o.Logger = logging.NoOpLogger{}
	})
	require.NoError(t, err)

	result, err := z.Consensus(context.Background(), "go?", consensus.WithoutCache())
	require.NoError(t, err)
	assert.Equal(t, []string{"Solo"}, result.ExpertsConsulted)
	assert.False(t, result.Degraded)
}
