package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/persona/internal/cache"
)

// GeneratorConfig tunes the two generation calls
type GeneratorConfig struct {
	Model              string
	SummaryMaxTokens   int
	PersonaMaxTokens   int
	SummaryTemperature float32
	PersonaTemperature float32
	Timeout            time.Duration // Per call
	CacheTTL           time.Duration
}

// DefaultGeneratorConfig returns the tuned defaults
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		SummaryMaxTokens:   500,
		PersonaMaxTokens:   1200,
		SummaryTemperature: 0.2,
		PersonaTemperature: 0.3,
		Timeout:            60 * time.Second,
		CacheTTL:           7 * 24 * time.Hour,
	}
}

// Persona is the raw generator output for one corpus
type Persona struct {
	Summary    string
	Persona    string
	Provider   string
	Model      string
	TokensUsed int
	Cached     int // Sections served from the response cache
}

// Generator turns a corpus into persona text with citation markers
type Generator struct {
	provider Provider
	config   GeneratorConfig
	cache    cache.Cache
	logger   *zap.Logger
}

// NewGenerator creates a generator. responses may be nil to disable caching.
func NewGenerator(provider Provider, config GeneratorConfig, responses cache.Cache, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		provider: provider,
		config:   config,
		cache:    responses,
		logger:   logger,
	}
}

// ProviderName returns the name of the configured provider
func (g *Generator) ProviderName() string {
	if g.provider == nil {
		return ""
	}
	return g.provider.Name()
}

// Generate produces the executive summary and the comprehensive persona.
// An empty corpus returns fixed texts without calling the provider.
func (g *Generator) Generate(ctx context.Context, corpusText string) (*Persona, error) {
	out := &Persona{Provider: g.ProviderName(), Model: g.config.Model}

	if strings.TrimSpace(corpusText) == "" {
		out.Summary = NoActivitySummary
		out.Persona = NoActivityPersona
		return out, nil
	}
	if g.provider == nil {
		return nil, errors.Wrap(ErrGeneratorFailure, "no provider configured")
	}

	var summary, persona *completion
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		summary, err = g.complete(gctx, "summary", Request{
			System:      SystemPrompt,
			Prompt:      SummaryPrompt(corpusText),
			Model:       g.config.Model,
			MaxTokens:   g.config.SummaryMaxTokens,
			Temperature: g.config.SummaryTemperature,
		})
		return err
	})
	group.Go(func() error {
		var err error
		persona, err = g.complete(gctx, "persona", Request{
			System:      SystemPrompt,
			Prompt:      PersonaPrompt(corpusText),
			Model:       g.config.Model,
			MaxTokens:   g.config.PersonaMaxTokens,
			Temperature: g.config.PersonaTemperature,
		})
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	out.Summary = summary.text
	out.Persona = persona.text
	out.TokensUsed = summary.tokens + persona.tokens
	if out.Model == "" {
		out.Model = persona.model
	}
	for _, c := range []*completion{summary, persona} {
		if c.cached {
			out.Cached++
		}
	}
	return out, nil
}

type completion struct {
	text   string
	model  string
	tokens int
	cached bool
}

func (g *Generator) complete(ctx context.Context, section string, req Request) (*completion, error) {
	log := g.logger.With(zap.String("section", section), zap.String("provider", g.provider.Name()))

	key := cache.CacheKey(fmt.Sprintf("%s|%s|%d|%.2f|%s|%s",
		g.provider.Name(), req.Model, req.MaxTokens, req.Temperature, req.System, req.Prompt))
	if g.cache != nil {
		if data, ok := g.cache.Get(key); ok {
			log.Debug("generator response cache hit")
			return &completion{text: string(data), model: req.Model, cached: true}, nil
		}
	}

	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.provider.Complete(ctx, req)
	if err != nil {
		return nil, &sectionError{section: section, err: err}
	}
	if strings.TrimSpace(resp.Text) == "" {
		return nil, errors.Wrapf(ErrGeneratorFailure, "%s: empty response", section)
	}

	log.Info("generated section",
		zap.String("model", resp.Model),
		zap.Int("tokens", resp.TokensUsed),
		zap.Duration("took", time.Since(start)))

	if g.cache != nil {
		if err := g.cache.Set(key, []byte(resp.Text), g.config.CacheTTL); err != nil {
			log.Warn("generator response cache write failed", zap.Error(err))
		}
	}

	return &completion{text: resp.Text, model: resp.Model, tokens: resp.TokensUsed}, nil
}
