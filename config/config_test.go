package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmanoilov/zenrube/consensus"
	"github.com/vmanoilov/zenrube/expert"
)

func writeConfig(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".zenrube.yml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestLoadFromPath_Defaults(t *testing.T) {
	path := writeConfig(t, "{}\n")
	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"pragmatic_engineer", "systems_architect", "security_analyst",
	}, cfg.Experts)
	assert.Equal(t, "balanced", cfg.SynthesisStyle)
	assert.True(t, cfg.ParallelExecution)
	assert.Equal(t, "rube", cfg.Provider)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 300, cfg.Cache.TTLSeconds)
}

func TestLoadFromPath_Overrides(t *testing.T) {
	path := writeConfig(t, `
experts:
  - security_analyst
synthesis_style: critical
parallel_execution: false
provider: openai
logging:
  level: debug
cache:
  backend: file
  ttl: 60
  directory: /tmp/zc
parallel:
  max_workers: 2
`)
	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"security_analyst"}, cfg.Experts)
	assert.Equal(t, "critical", cfg.SynthesisStyle)
	assert.False(t, cfg.ParallelExecution)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "file", cfg.Cache.Backend)
	assert.Equal(t, 60, cfg.Cache.TTLSeconds)
	assert.Equal(t, "/tmp/zc", cfg.Cache.Directory)
	assert.Equal(t, 2, cfg.Parallel.MaxWorkers)
}

func TestLoadFromPath_Malformed(t *testing.T) {
	path := writeConfig(t, ":\nnot yaml at all [\n")
	_, err := LoadFromPath(path)
	assert.Error(t, err)
}

func TestSynthesisConfigProjection(t *testing.T) {
	path := writeConfig(t, `
synthesis_style: collaborative
logging:
  level: warn
parallel:
  max_workers: 3
cache:
  ttl: 120
`)
	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	sc := cfg.SynthesisConfig()
	assert.Equal(t, consensus.StyleCollaborative, sc.Style)
	assert.Equal(t, "warn", sc.LoggingLevel)
	require.NotNil(t, sc.MaxWorkers)
	assert.Equal(t, 3, *sc.MaxWorkers)
	assert.Nil(t, sc.CacheTTL,
		"the cache manager owns the configured default ttl; the projection leaves it unset")

	// The projection layers cleanly under the override builder.
	resolved, err := sc.Apply(consensus.Overrides{Style: "critical"})
	require.NoError(t, err)
	assert.Equal(t, consensus.StyleCritical, resolved.Style)
	assert.Equal(t, "WARN", resolved.LoggingLevel)
}

func TestRegisterExperts(t *testing.T) {
	path := writeConfig(t, `
custom_experts:
  cost_controller:
    name: Cost Controller
    system_prompt: You watch budgets.
  api_steward:
    system_prompt: You guard interface stability.
`)
	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	r := expert.NewDefaultRegistry()
	cfg.RegisterExperts(r)

	assert.Equal(t, []string{
		"pragmatic_engineer", "systems_architect", "security_analyst",
		"api_steward", "cost_controller",
	}, r.Slugs())

	def, err := r.Get("cost_controller")
	require.NoError(t, err)
	assert.Equal(t, "Cost Controller", def.Name)

	def, err = r.Get("api_steward")
	require.NoError(t, err)
	assert.Equal(t, "api_steward", def.Name, "missing name falls back to the slug")
}
