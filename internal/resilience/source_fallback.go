package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mzaiser/dictee/pkg/provider/sentences"
)

// SourceFallback implements [sentences.Source] with failover across multiple
// sources. The intended composition is an LLM generator as primary with a
// curated static pack as fallback: when the model is down, learners keep
// getting sentences, just less varied ones.
//
// Exhaustion is not failure. A source returning [sentences.ErrExhausted]
// answered correctly, so it never trips its breaker; the next source is
// still consulted so a drained pack can hand over to another. Only when
// every source is exhausted does Next report ErrExhausted itself.
type SourceFallback struct {
	entries []sourceEntry
	cfg     FallbackConfig
}

type sourceEntry struct {
	name    string
	source  sentences.Source
	breaker *CircuitBreaker
}

var _ sentences.Source = (*SourceFallback)(nil)

// NewSourceFallback creates a [SourceFallback] with primary as the preferred
// source. Additional fallbacks are registered via [SourceFallback.AddFallback].
func NewSourceFallback(primary sentences.Source, primaryName string, cfg FallbackConfig) *SourceFallback {
	sf := &SourceFallback{}
	sf.entries = append(sf.entries, newSourceEntry(primaryName, primary, cfg))
	sf.cfg = cfg
	return sf
}

// AddFallback appends a fallback source. Fallbacks are tried in the order
// they are added, after the primary.
func (sf *SourceFallback) AddFallback(name string, src sentences.Source) {
	sf.entries = append(sf.entries, newSourceEntry(name, src, sf.cfg))
}

func newSourceEntry(name string, src sentences.Source, cfg FallbackConfig) sourceEntry {
	cbCfg := cfg.CircuitBreaker
	cbCfg.Name = name
	cbCfg.IsFailure = func(err error) bool {
		return !errors.Is(err, sentences.ErrExhausted)
	}
	return sourceEntry{
		name:    name,
		source:  src,
		breaker: NewCircuitBreaker(cbCfg),
	}
}

// Next asks each source in order for a sentence matching f until one
// delivers. Sources with an open breaker are skipped.
func (sf *SourceFallback) Next(ctx context.Context, f sentences.Filter) (*sentences.Sentence, error) {
	var (
		lastErr      error
		allExhausted = true
	)
	for i := range sf.entries {
		entry := &sf.entries[i]
		var sent *sentences.Sentence
		err := entry.breaker.Execute(func() error {
			var innerErr error
			sent, innerErr = entry.source.Next(ctx, f)
			return innerErr
		})
		if err == nil {
			return sent, nil
		}
		lastErr = err
		switch {
		case errors.Is(err, ErrCircuitOpen):
			allExhausted = false
			slog.Debug("skipping sentence source (circuit open)", "source", entry.name)
		case errors.Is(err, sentences.ErrExhausted):
			slog.Debug("sentence source exhausted, trying next", "source", entry.name)
		default:
			allExhausted = false
			slog.Warn("sentence source failed, trying next",
				"source", entry.name, "error", err)
		}
	}
	if allExhausted {
		return nil, fmt.Errorf("resilience: every source drained for %+v: %w", f, sentences.ErrExhausted)
	}
	return nil, fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}
