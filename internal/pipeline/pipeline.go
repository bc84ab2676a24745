package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ppiankov/persona/internal/cache"
	"github.com/ppiankov/persona/internal/coord"
	"github.com/ppiankov/persona/internal/corpus"
	"github.com/ppiankov/persona/internal/llm"
	"github.com/ppiankov/persona/internal/model"
	"github.com/ppiankov/persona/internal/report"
	"github.com/ppiankov/persona/internal/source"
)

// ErrEmptyCorpus is returned when items exist but none fit the corpus budget
var ErrEmptyCorpus = errors.New("no item fits the corpus budget")

// ItemSource returns the canonical item list for a user
type ItemSource interface {
	GetItems(ctx context.Context, user string, maxAge time.Duration, itemLimit int) (*coord.Result, error)
}

// Generator produces persona text from a corpus
type Generator interface {
	Generate(ctx context.Context, corpusText string) (*llm.Persona, error)
	ProviderName() string
}

// Pipeline runs one analysis end to end
type Pipeline struct {
	items     ItemSource
	assembler *corpus.Assembler
	generator Generator
	config    *model.Config
	logger    *zap.Logger
}

// Options adjusts how New wires the pipeline
type Options struct {
	// ForceRefresh ignores cache freshness and stored cursors
	ForceRefresh bool
}

// New builds the full pipeline from configuration
func New(cfg *model.Config, opts Options, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := source.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("source client: %w", err)
	}

	llmConfig := llm.ConfigFromModel(cfg.LLM, cfg.HTTP)
	llmConfig.Logger = logger
	provider, err := llm.NewProvider(llmConfig)
	if err != nil {
		return nil, fmt.Errorf("LLM provider: %w", err)
	}

	store, responses := NewStores(cfg)
	coordinator := coord.New(client, store,
		coord.WithLogger(logger),
		coord.WithMaxRetries(cfg.Fetch.MaxRetries),
		coord.WithForceRefresh(opts.ForceRefresh))

	genConfig := llm.DefaultGeneratorConfig()
	genConfig.Model = cfg.LLM.Model
	if cfg.LLM.SummaryMaxTokens > 0 {
		genConfig.SummaryMaxTokens = cfg.LLM.SummaryMaxTokens
	}
	if cfg.LLM.PersonaMaxTokens > 0 {
		genConfig.PersonaMaxTokens = cfg.LLM.PersonaMaxTokens
	}
	if cfg.LLM.Timeout > 0 {
		genConfig.Timeout = time.Duration(cfg.LLM.Timeout) * time.Second
	}
	if cfg.LLM.CacheTTL > 0 {
		genConfig.CacheTTL = cfg.LLM.CacheTTL
	}
	generator := llm.NewGenerator(provider, genConfig, responses, logger)

	return NewWithComponents(coordinator, generator, cfg, logger), nil
}

// NewStores returns the user record store and the generator response cache
// for cfg. With caching disabled both live only in memory.
func NewStores(cfg *model.Config) (cache.UserStore, cache.Cache) {
	if !cfg.Cache.Enabled {
		return cache.NewMemoryStore(cfg.Cache.MemoryTTL), cache.NewMemoryCache(cfg.LLM.CacheTTL, 10*time.Minute)
	}
	store := cache.NewLayeredStore(cache.NewDiskStore(cfg.Cache.Dir), cfg.Cache.MemoryTTL)
	responses := cache.NewLayeredCache(cfg.Cache.MemoryTTL, filepath.Join(cfg.Cache.Dir, "llm"), cfg.LLM.CacheTTL)
	return store, responses
}

// NewWithComponents assembles a pipeline from prebuilt parts
func NewWithComponents(items ItemSource, generator Generator, cfg *model.Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		items:     items,
		assembler: corpus.New(cfg.Corpus.MaxItemChars, cfg.Corpus.MaxChars),
		generator: generator,
		config:    cfg,
		logger:    logger,
	}
}

// Analyze produces the persona report for one user. The input may be a
// profile URL, u/name or a bare username. Failures are *StageError.
func (p *Pipeline) Analyze(ctx context.Context, input string) (*model.Report, error) {
	runID := uuid.NewString()
	log := p.logger.With(zap.String("run_id", runID))

	username, err := source.ParseUsername(input)
	if err != nil {
		return nil, &StageError{Stage: StageFetch, Err: err}
	}
	log = log.With(zap.String("user", username))
	start := time.Now()

	// 1. Fetch or reuse cached activity
	res, err := p.items.GetItems(ctx, username, p.config.Cache.MaxAge, p.config.Fetch.ItemLimit)
	if err != nil {
		log.Error("fetch failed", zap.Error(err))
		return nil, &StageError{Stage: StageFetch, Err: err}
	}
	log.Info("activity ready",
		zap.Int("items", len(res.Items)),
		zap.Int("fetched", res.Fetched),
		zap.Bool("from_cache", res.FromCache),
		zap.Bool("partial", res.Partial),
		zap.Int("calls", res.Calls))

	// 2. Index the items
	c := p.assembler.Build(res.Items)
	if len(res.Items) > 0 && c.Empty() {
		return nil, &StageError{Stage: StageCorpus, Err: errors.Wrapf(ErrEmptyCorpus, "%d items", len(res.Items))}
	}
	log.Debug("corpus built",
		zap.Int("entries", len(c.Entries)),
		zap.Int("dropped", c.Dropped),
		zap.Int("chars", c.Chars))

	// 3. Generate persona text
	persona, err := p.generator.Generate(ctx, c.Text)
	if err != nil {
		log.Error("generation failed", zap.Error(err))
		return nil, &StageError{Stage: StageGeneration, Err: err}
	}

	// 4. Resolve citations
	r := report.Build(report.Input{
		Username:    username,
		Summary:     persona.Summary,
		Persona:     persona.Persona,
		Corpus:      c,
		Partial:     res.Partial,
		PartialNote: res.Note,
		Stats: model.Stats{
			Items:     len(res.Items),
			Fetched:   res.Fetched,
			FromCache: res.FromCache,
		},
		Provider: persona.Provider,
		Model:    persona.Model,
	})

	log.Info("analysis complete",
		zap.Int("cited", r.CitedCount()),
		zap.Int("dropped_citations", len(r.Summary.Dropped)+len(r.Persona.Dropped)),
		zap.Duration("took", time.Since(start)))

	return r, nil
}

// WriteReport writes r into the configured output directory
func (p *Pipeline) WriteReport(r *model.Report) (string, error) {
	path, err := report.WriteFile(p.config.Output.Dir, r)
	if err != nil {
		return "", &StageError{Stage: StageRendering, Err: err}
	}
	return path, nil
}

// Run analyzes one user and writes the report, returning its path
func (p *Pipeline) Run(ctx context.Context, input string) (*model.Report, string, error) {
	r, err := p.Analyze(ctx, input)
	if err != nil {
		return nil, "", err
	}
	path, err := p.WriteReport(r)
	if err != nil {
		return r, "", err
	}
	return r, path, nil
}
