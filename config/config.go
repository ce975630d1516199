// Package config loads the layered zenrube configuration. Precedence
// (highest to lowest): per-call overrides (applied by the orchestrator),
// project config (.zenrube.yml in the working directory), user config
// (~/.zenrube.yml), built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/viper"

	"github.com/vmanoilov/zenrube/cache"
	"github.com/vmanoilov/zenrube/consensus"
	"github.com/vmanoilov/zenrube/expert"
)

// ConfigFileName is the base name of both the user and project config files.
const ConfigFileName = ".zenrube.yml"

// Config is the persisted configuration document.
type Config struct {
	Experts           []string                     `mapstructure:"experts"`
	SynthesisStyle    string                       `mapstructure:"synthesis_style"`
	ParallelExecution bool                         `mapstructure:"parallel_execution"`
	Provider          string                       `mapstructure:"provider"`
	Logging           LoggingConfig                `mapstructure:"logging"`
	Cache             cache.Config                 `mapstructure:"cache"`
	Parallel          ParallelConfig               `mapstructure:"parallel"`
	CustomExperts     map[string]expert.Definition `mapstructure:"custom_experts"`
}

// LoggingConfig holds logging verbosity settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Debug  bool   `mapstructure:"debug"`
}

// ParallelConfig holds worker pool settings.
type ParallelConfig struct {
	MaxWorkers int `mapstructure:"max_workers"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("experts", []string{
		expert.SlugPragmaticEngineer,
		expert.SlugSystemsArchitect,
		expert.SlugSecurityAnalyst,
	})
	v.SetDefault("synthesis_style", string(consensus.StyleBalanced))
	v.SetDefault("parallel_execution", true)
	v.SetDefault("provider", "rube")
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.debug", false)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", 300)
}

// Load reads the user config (if present) and merges the project config over
// it. Missing files are fine; malformed files are an error.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if home, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(home, ConfigFileName)
		if _, err := os.Stat(userPath); err == nil {
			v.SetConfigFile(userPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading user config: %w", err)
			}
		}
	}

	projectPath := ConfigFileName
	if _, err := os.Stat(projectPath); err == nil {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectPath)
		if err := projectViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading project config: %w", err)
		}
		if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific file, for tests and for
// callers that manage their own locations.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// SynthesisConfig projects the persisted document onto the orchestration
// configuration layer.
func (c *Config) SynthesisConfig() consensus.SynthesisConfig {
	sc := consensus.SynthesisConfig{
		Style:        consensus.Style(c.SynthesisStyle),
		Parallel:     c.ParallelExecution,
		Provider:     c.Provider,
		Experts:      append([]string(nil), c.Experts...),
		LoggingLevel: c.Logging.Level,
		Debug:        c.Logging.Debug,
	}
	if c.Parallel.MaxWorkers > 0 {
		workers := c.Parallel.MaxWorkers
		sc.MaxWorkers = &workers
	}
	// CacheTTL stays nil: the cache manager built from this same document
	// already carries cache.ttl as its default entry lifetime. Only per-call
	// overrides set it.
	return sc
}

// RegisterExperts registers the configured custom personas, in slug order so
// repeated loads produce the same registry ordering.
func (c *Config) RegisterExperts(r *expert.Registry) {
	slugs := make([]string, 0, len(c.CustomExperts))
	for slug := range c.CustomExperts {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	for _, slug := range slugs {
		def := c.CustomExperts[slug]
		if def.Name == "" {
			def.Name = slug
		}
		r.Register(slug, def)
	}
}
