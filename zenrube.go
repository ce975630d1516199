// Package zenrube provides a high-level façade over the consensus engine and
// its service abstractions (providers, experts, cache & logging). Most
// applications interact with this package by:
//  1. Creating a Zenrube via New() (optionally overriding default services)
//  2. Attaching a host generation client (ConfigureRubeClient) or selecting a
//     concrete provider such as openai or anthropic
//  3. Running consensus queries via Consensus()
//
// The façade delegates orchestration to consensus.Orchestrator while keeping
// setup ergonomics concise. All defaults are safe for local development and
// testing.
package zenrube

import (
	"context"
	"fmt"

	"github.com/vmanoilov/zenrube/cache"
	"github.com/vmanoilov/zenrube/config"
	"github.com/vmanoilov/zenrube/consensus"
	"github.com/vmanoilov/zenrube/expert"
	"github.com/vmanoilov/zenrube/logging"
	"github.com/vmanoilov/zenrube/provider"
	"github.com/vmanoilov/zenrube/provider/anthropic"
	"github.com/vmanoilov/zenrube/provider/openai"
)

// RubeProviderName is the registry name of the host callback provider.
const RubeProviderName = "rube"

// Options configures the Zenrube instance. Any unset service is replaced with
// a sensible default during New.
type Options struct {
	// Config supplies the persisted configuration; nil loads the layered
	// configuration files.
	Config *config.Config
	// Providers overrides the default provider registry (rube placeholder,
	// openai, anthropic).
	Providers *provider.Registry
	// Experts overrides the default persona registry.
	Experts *expert.Registry
	// Cache overrides the cache manager built from the configuration.
	Cache *cache.Manager
	// Logger overrides the logger built from the configuration.
	Logger logging.Logger
}

// Zenrube aggregates the consensus orchestrator and its services.
type Zenrube struct {
	cfg          *config.Config
	providers    *provider.Registry
	experts      *expert.Registry
	logger       logging.Logger
	orchestrator *consensus.Orchestrator
}

// New creates a Zenrube instance with optional overrides.
func New(optFns ...func(o *Options)) (*Zenrube, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	logger := opts.Logger
	if logger == nil {
		level, err := logging.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return nil, err
		}
		if cfg.Logging.Debug {
			level = logging.LevelDebug
		}
		logger = logging.New(&logging.Config{Level: level, Format: cfg.Logging.Format})
	}

	providers := opts.Providers
	if providers == nil {
		providers = provider.NewRegistry(logger)
		providers.Register(provider.NewCallbackProvider(RubeProviderName, nil))
		providers.Register(openai.New())
		providers.Register(anthropic.New())
	}

	experts := opts.Experts
	if experts == nil {
		experts = expert.NewDefaultRegistry()
		cfg.RegisterExperts(experts)
	}

	cacheManager := opts.Cache
	if cacheManager == nil {
		manager, err := cache.FromConfig(cfg.Cache, logger)
		if err != nil {
			return nil, err
		}
		cacheManager = manager
	}

	orchOpts := []consensus.Option{
		consensus.WithCache(cacheManager),
		consensus.WithLogger(logger),
		consensus.WithBaseConfig(func() (consensus.SynthesisConfig, error) {
			return cfg.SynthesisConfig(), nil
		}),
	}
	if opts.Logger == nil {
		// The logger came from configuration, so per-run verbosity overrides
		// (debug flag, logging level) rebuild it at the resolved level. An
		// explicitly injected logger is never replaced.
		format := cfg.Logging.Format
		orchOpts = append(orchOpts, consensus.WithLoggerFactory(func(level logging.Level) logging.Logger {
			return logging.New(&logging.Config{Level: level, Format: format})
		}))
	}
	orchestrator := consensus.NewOrchestrator(providers, experts, orchOpts...)

	return &Zenrube{
		cfg:          cfg,
		providers:    providers,
		experts:      experts,
		logger:       logger,
		orchestrator: orchestrator,
	}, nil
}

// Consensus poses one question to the configured expert panel and returns the
// synthesized result.
func (z *Zenrube) Consensus(ctx context.Context, question string, optFns ...consensus.RunOption) (*consensus.Result, error) {
	return z.orchestrator.Run(ctx, question, optFns...)
}

// ConfigureRubeClient attaches a host generation function to the registered
// rube placeholder provider, without re-registration.
func (z *Zenrube) ConfigureRubeClient(client provider.ClientFunc) error {
	p, err := z.providers.Get(RubeProviderName)
	if err != nil {
		return err
	}
	callback, ok := p.(*provider.CallbackProvider)
	if !ok {
		return fmt.Errorf("provider %q is not a callback provider", RubeProviderName)
	}
	callback.SetClient(client)
	return nil
}

// Providers exposes the provider registry for registration and defaults.
func (z *Zenrube) Providers() *provider.Registry { return z.providers }

// Experts exposes the persona registry.
func (z *Zenrube) Experts() *expert.Registry { return z.experts }

// Config returns the loaded configuration document.
func (z *Zenrube) Config() *config.Config { return z.cfg }
