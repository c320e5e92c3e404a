// Package llmgen implements a sentence source that generates dictation
// sentences on demand with a language model.
package llmgen

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mzaiser/dictee/pkg/provider/llm"
	"github.com/mzaiser/dictee/pkg/provider/sentences"
)

const systemPrompt = `You generate single sentences for language-learning dictation exercises.
Respond with exactly one sentence in the requested language and difficulty level.
Do not add translations, quotes, numbering or any commentary.`

const defaultTimeout = 30 * time.Second

type config struct {
	temperature float32
	timeout     time.Duration
	logger      *slog.Logger
}

// Option configures a Source.
type Option func(*config)

// WithTemperature sets the sampling temperature for generation.
// Defaults to 0.8 so repeated calls vary the sentences.
func WithTemperature(t float32) Option {
	return func(c *config) {
		c.temperature = t
	}
}

// WithTimeout bounds each generation call. Defaults to 30 seconds.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for generation diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Source generates sentences with an LLM provider. Each Next call performs
// one completion request; there is no pre-fetching.
type Source struct {
	provider llm.Provider
	cfg      config
	seq      atomic.Uint64
}

var _ sentences.Source = (*Source)(nil)

// New creates a Source backed by provider.
func New(provider llm.Provider, opts ...Option) (*Source, error) {
	if provider == nil {
		return nil, fmt.Errorf("llmgen: provider must not be nil")
	}
	cfg := config{
		temperature: 0.8,
		timeout:     defaultTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Source{provider: provider, cfg: cfg}, nil
}

// Next implements [sentences.Source]. The filter's language is required;
// an empty level defaults to an intermediate difficulty.
func (s *Source) Next(ctx context.Context, f sentences.Filter) (*sentences.Sentence, error) {
	if f.Language == "" {
		return nil, fmt.Errorf("llmgen: filter must set a language")
	}
	level := f.Level
	if level == "" {
		level = "b1"
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.timeout)
	defer cancel()

	prompt := fmt.Sprintf("Generate one dictation sentence. Language: %s. Difficulty (CEFR): %s.", f.Language, level)
	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: prompt},
		},
		Temperature: float64(s.cfg.temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("llmgen: generate sentence: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return nil, fmt.Errorf("llmgen: model returned an empty sentence")
	}

	text := sanitize(resp.Content)
	seq := s.seq.Add(1)
	s.cfg.logger.Debug("generated dictation sentence",
		"language", f.Language,
		"level", level,
		"length", len(text))

	return &sentences.Sentence{
		ID:       fmt.Sprintf("llm-%s-%s-%d", f.Language, level, seq),
		Text:     text,
		Language: f.Language,
		Level:    f.Level,
	}, nil
}

// sanitize strips wrapping quotes and whitespace the model sometimes adds
// despite the prompt, and keeps only the first line of multi-line output.
func sanitize(raw string) string {
	text := strings.TrimSpace(raw)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}
	text = strings.Trim(text, `"'`)
	return strings.TrimSpace(text)
}
