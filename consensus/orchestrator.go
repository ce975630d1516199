package consensus

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vmanoilov/zenrube/cache"
	"github.com/vmanoilov/zenrube/expert"
	"github.com/vmanoilov/zenrube/logging"
	"github.com/vmanoilov/zenrube/provider"
)

// cacheScope prefixes every consensus cache key.
const cacheScope = "zenrube"

// defaultMaxWorkers caps the worker pool when no explicit cap is configured.
const defaultMaxWorkers = 8

var styleInstructions = map[Style]string{
	StyleBalanced: "Provide a balanced synthesis highlighting agreements and " +
		"practical next steps.",
	StyleCritical: "Provide a critical synthesis emphasising risks, failure modes, " +
		"and mitigations.",
	StyleCollaborative: "Provide a collaborative synthesis identifying synergies and " +
		"phased collaboration steps.",
}

// Orchestrator coordinates a full consensus run: configuration, cache check,
// expert fan-out, synthesis, assembly and cache store. Its collaborators are
// injected at construction so tests can run isolated instances concurrently.
type Orchestrator struct {
	providers  *provider.Registry
	experts    *expert.Registry
	cache      *cache.Manager
	logger     logging.Logger
	baseConfig func() (SynthesisConfig, error)
	newID      func() string
	newLogger  func(level logging.Level) logging.Logger
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithCache attaches a cache manager used to memoize full results.
func WithCache(m *cache.Manager) Option {
	return func(o *Orchestrator) { o.cache = m }
}

// WithLogger sets the orchestrator's logger.
func WithLogger(l logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithBaseConfig sets the source of the persisted configuration layer. The
// function is invoked once per run, before overrides are applied.
func WithBaseConfig(fn func() (SynthesisConfig, error)) Option {
	return func(o *Orchestrator) { o.baseConfig = fn }
}

// WithIDGenerator overrides execution id generation, for deterministic tests.
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) { o.newID = fn }
}

// WithLoggerFactory sets a constructor for per-run loggers. When present, each
// run rebuilds its logger from the resolved logging level and debug setting so
// per-call verbosity overrides take effect. Without a factory the
// orchestrator's logger is used unchanged.
func WithLoggerFactory(fn func(level logging.Level) logging.Logger) Option {
	return func(o *Orchestrator) { o.newLogger = fn }
}

// NewOrchestrator constructs an orchestrator over the given provider and
// expert registries. Without WithCache, runs are never memoized.
func NewOrchestrator(providers *provider.Registry, experts *expert.Registry, optFns ...Option) *Orchestrator {
	o := &Orchestrator{
		providers:  providers,
		experts:    experts,
		logger:     logging.NoOpLogger{},
		baseConfig: func() (SynthesisConfig, error) { return DefaultSynthesisConfig(), nil },
		newID:      uuid.NewString,
	}
	for _, fn := range optFns {
		fn(o)
	}
	return o
}

// runOptions collects per-call settings.
type runOptions struct {
	overrides Overrides
	model     string
	useCache  bool
}

// RunOption customizes a single consensus run.
type RunOption func(*runOptions)

// WithExperts restricts the run to the given persona slugs.
func WithExperts(slugs ...string) RunOption {
	return func(r *runOptions) { r.overrides.Experts = slugs }
}

// WithStyle overrides the synthesis style.
func WithStyle(style string) RunOption {
	return func(r *runOptions) { r.overrides.Style = style }
}

// WithParallel forces parallel (true) or sequential (false) dispatch.
func WithParallel(parallel bool) RunOption {
	return func(r *runOptions) { r.overrides.Parallel = &parallel }
}

// WithSequential forces sequential dispatch in persona-list order.
func WithSequential() RunOption {
	return WithParallel(false)
}

// WithProvider overrides the provider name.
func WithProvider(name string) RunOption {
	return func(r *runOptions) { r.overrides.Provider = name }
}

// WithModel overrides the backend model for every call of the run.
func WithModel(model string) RunOption {
	return func(r *runOptions) { r.model = model }
}

// WithMaxWorkers caps the worker pool for parallel dispatch.
func WithMaxWorkers(n int) RunOption {
	return func(r *runOptions) { r.overrides.MaxWorkers = &n }
}

// WithCacheTTL overrides the cache entry lifetime in seconds; 0 stores the
// entry without expiry.
func WithCacheTTL(seconds int) RunOption {
	return func(r *runOptions) { r.overrides.CacheTTL = &seconds }
}

// WithoutCache disables cache check and store for this run.
func WithoutCache() RunOption {
	return func(r *runOptions) { r.useCache = false }
}

// WithDebug enables debug logging for this run.
func WithDebug() RunOption {
	return func(r *runOptions) {
		debug := true
		r.overrides.Debug = &debug
	}
}

// WithLoggingLevel overrides the logging level for this run.
func WithLoggingLevel(level string) RunOption {
	return func(r *runOptions) { r.overrides.LoggingLevel = level }
}

// Run executes one consensus orchestration: Configure, Cache-Check, Dispatch,
// Collect, Synthesize, Assemble, Cache-Store, Return. Individual expert
// failures and synthesis failures are captured in the result; the only fatal
// errors are configuration errors raised before dispatch begins.
func (o *Orchestrator) Run(ctx context.Context, question string, optFns ...RunOption) (*Result, error) {
	opts := runOptions{useCache: true}
	for _, fn := range optFns {
		fn(&opts)
	}

	// Configure.
	executionID := o.newID()
	base, err := o.baseConfig()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	cfg, err := base.Apply(opts.overrides)
	if err != nil {
		return nil, err
	}
	logger := o.runLogger(cfg)

	slugs := cfg.Experts
	if len(slugs) == 0 {
		slugs = o.experts.Slugs()
	}
	if len(slugs) == 0 {
		return nil, fmt.Errorf("no experts registered")
	}
	definitions := make([]expert.Definition, len(slugs))
	for i, slug := range slugs {
		def, err := o.experts.Get(slug)
		if err != nil {
			return nil, err
		}
		definitions[i] = def
	}
	prov, err := o.providers.Get(cfg.Provider)
	if err != nil {
		return nil, err
	}
	logger.Info("starting consensus run",
		"execution_id", executionID,
		"style", cfg.Style,
		"provider", cfg.Provider,
		"experts", slugs,
	)

	// Cache-Check. The key uses the sorted persona list so persona order does
	// not fragment the cache.
	useCache := opts.useCache && o.cache != nil
	sortedSlugs := append([]string(nil), slugs...)
	sort.Strings(sortedSlugs)
	key := cache.BuildKey(cacheScope, cfg.Provider, string(cfg.Style), question, strings.Join(sortedSlugs, "|"))
	if useCache {
		if data, ok := o.cache.Get(key); ok {
			var cached Result
			if err := json.Unmarshal(data, &cached); err != nil {
				logger.Warn("discarding undecodable cache entry", "execution_id", executionID, "error", err)
			} else {
				logger.Info("returning cached consensus", "execution_id", executionID)
				return &cached, nil
			}
		}
	}

	// Dispatch and Collect.
	responses := o.dispatch(ctx, question, cfg, definitions, executionID, opts.model, prov, logger)

	// Synthesize.
	consensusText := o.synthesize(ctx, question, cfg, responses, executionID, opts.model, prov, logger)

	// Assemble.
	degraded := false
	consulted := make([]string, len(responses))
	for i, resp := range responses {
		consulted[i] = resp.Name
		if !resp.Succeeded() {
			degraded = true
		}
	}
	var warnings []string
	if degraded {
		warnings = append(warnings, DegradedWarning)
	}
	if consensusText == "" {
		warnings = append(warnings, SynthesisUnavailableWarning)
	}
	result := &Result{
		ExecutionID:      executionID,
		Question:         question,
		SynthesisStyle:   cfg.Style,
		Provider:         prov.Name(),
		ExpertsConsulted: consulted,
		Responses:        responses,
		Consensus:        consensusText,
		Timestamp:        time.Now().UTC(),
		Degraded:         degraded,
		Warnings:         warnings,
		Metadata: map[string]any{
			"parallel_execution": cfg.Parallel && len(slugs) > 1,
		},
	}

	// Cache-Store.
	if useCache {
		if payload, err := json.Marshal(result); err != nil {
			logger.Warn("failed to encode result for caching", "execution_id", executionID, "error", err)
		} else {
			ttl := time.Duration(-1)
			if cfg.CacheTTL != nil {
				ttl = time.Duration(*cfg.CacheTTL) * time.Second
			}
			o.cache.Set(key, payload, ttl)
		}
	}

	logger.Info("consensus run complete",
		"execution_id", executionID,
		"degraded", degraded,
		"responses", len(responses),
	)
	return result, nil
}

// runLogger resolves the effective logger for one run. The factory, when
// configured, rebuilds the logger from the run's logging level and debug
// setting; the level string was validated when the configuration was built.
func (o *Orchestrator) runLogger(cfg SynthesisConfig) logging.Logger {
	if o.newLogger == nil {
		return o.logger
	}
	level, _ := logging.ParseLevel(cfg.LoggingLevel)
	if cfg.Debug {
		level = logging.LevelDebug
	}
	return o.newLogger(level)
}

// dispatch runs one expert query per persona, in parallel through a bounded
// worker pool when requested and more than one persona is selected, otherwise
// sequentially in persona-list order. Parallel results are collected in
// completion order.
func (o *Orchestrator) dispatch(
	ctx context.Context,
	question string,
	cfg SynthesisConfig,
	definitions []expert.Definition,
	executionID, model string,
	prov provider.Provider,
	logger logging.Logger,
) []ExpertResponse {
	if !cfg.Parallel || len(definitions) < 2 {
		logger.Debug("executing sequentially", "execution_id", executionID)
		responses := make([]ExpertResponse, 0, len(definitions))
		for _, def := range definitions {
			responses = append(responses, o.queryExpert(ctx, def, question, executionID, model, prov, logger))
		}
		return responses
	}

	workers := defaultMaxWorkers
	if cfg.MaxWorkers != nil {
		workers = *cfg.MaxWorkers
	}
	if workers > len(definitions) {
		workers = len(definitions)
	}
	logger.Debug("executing in parallel", "execution_id", executionID, "workers", workers)

	jobs := make(chan expert.Definition)
	results := make(chan ExpertResponse, len(definitions))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for def := range jobs {
				results <- o.queryExpert(ctx, def, question, executionID, model, prov, logger)
			}
		}()
	}
	for _, def := range definitions {
		jobs <- def
	}
	close(jobs)
	wg.Wait()
	close(results)

	responses := make([]ExpertResponse, 0, len(definitions))
	for resp := range results {
		responses = append(responses, resp)
	}
	return responses
}

// queryExpert executes one persona's prompt against the provider, measuring
// wall-clock duration. Provider failures of any kind are captured in the
// returned response, never propagated: one persona's failure must not abort
// the batch.
func (o *Orchestrator) queryExpert(
	ctx context.Context,
	def expert.Definition,
	question string,
	executionID, model string,
	prov provider.Provider,
	logger logging.Logger,
) ExpertResponse {
	prompt := def.BuildPrompt(question)
	logger.Debug("querying expert", "execution_id", executionID, "expert", def.Name)

	start := time.Now()
	res, err := prov.Query(ctx, prompt, &provider.QueryOptions{Model: model})
	duration := time.Since(start).Seconds()

	if err != nil {
		logger.Error("expert query failed",
			"execution_id", executionID,
			"expert", def.Name,
			"error", err,
		)
		return ExpertResponse{
			Name:            def.Name,
			Prompt:          prompt,
			Error:           err.Error(),
			Provider:        prov.Name(),
			DurationSeconds: duration,
		}
	}
	logger.Debug("expert responded",
		"execution_id", executionID,
		"expert", def.Name,
		"duration_seconds", duration,
	)
	return ExpertResponse{
		Name:            def.Name,
		Prompt:          prompt,
		Response:        res.Text,
		Provider:        prov.Name(),
		DurationSeconds: duration,
		Metadata:        res.Metadata,
	}
}

// synthesize merges the successful responses into one consensus narrative via
// a single provider call. Synthesis failure is soft: it leaves the consensus
// absent (the caller adds a warning) without marking the run degraded.
func (o *Orchestrator) synthesize(
	ctx context.Context,
	question string,
	cfg SynthesisConfig,
	responses []ExpertResponse,
	executionID, model string,
	prov provider.Provider,
	logger logging.Logger,
) string {
	successful := make([]ExpertResponse, 0, len(responses))
	for _, resp := range responses {
		if resp.Response != "" {
			successful = append(successful, resp)
		}
	}
	if len(successful) == 0 {
		logger.Warn("no successful expert responses available for synthesis", "execution_id", executionID)
		return ""
	}

	prompt := buildSynthesisPrompt(cfg.Style, question, successful)
	res, err := prov.Query(ctx, prompt, &provider.QueryOptions{Model: model})
	if err != nil {
		logger.Error("synthesis failed", "execution_id", executionID, "error", err)
		return ""
	}
	return res.Text
}

// buildSynthesisPrompt embeds the successful responses' serialized form plus
// style-specific tone instructions into one synthesis prompt. Unrecognized
// styles fall back to balanced; the configuration layer rejects them earlier.
func buildSynthesisPrompt(style Style, question string, successful []ExpertResponse) string {
	payload, err := json.MarshalIndent(successful, "", "  ")
	if err != nil {
		payload = []byte("[]")
	}
	instruction, ok := styleInstructions[style]
	if !ok {
		instruction = styleInstructions[StyleBalanced]
	}
	return fmt.Sprintf(
		"You are orchestrating a panel of experts. Question: %s\n"+
			"Expert analyses: %s\n"+
			"Deliver a consensus report with sections: Areas of Agreement, "+
			"Points of Divergence, Recommendation, Confidence (LOW/MEDIUM/HIGH).\n"+
			"Tone guidance: %s",
		question, payload, instruction,
	)
}
