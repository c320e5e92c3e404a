// Package static implements a sentence source backed by curated YAML packs.
//
// A pack file lists sentences with their language and level:
//
//	pack:
//	  name: "French A1 basics"
//	  language: "fr"
//	sentences:
//	  - id: "fr-a1-001"
//	    text: "Le chat dort sur le canapé."
//	    level: "a1"
package static

import (
	"context"
	"fmt"
	"sync"

	"github.com/mzaiser/dictee/pkg/provider/sentences"
)

// Source serves sentences from one or more loaded packs. It cycles through
// matching sentences in pack order; shuffling is deliberately left to the
// caller so sessions are reproducible.
type Source struct {
	mu        sync.Mutex
	pool      []sentences.Sentence
	cursor    map[sentences.Filter]int
	wrapAfter bool
}

type config struct {
	wrap bool
}

// Option configures a Source.
type Option func(*config)

// WithWrap makes the source start over from the first matching sentence
// instead of returning ErrExhausted once all matches have been served.
func WithWrap() Option {
	return func(c *config) {
		c.wrap = true
	}
}

// New creates a Source from the given pack files.
func New(paths []string, opts ...Option) (*Source, error) {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Source{
		cursor:    make(map[sentences.Filter]int),
		wrapAfter: cfg.wrap,
	}
	for _, path := range paths {
		pack, err := LoadPack(path)
		if err != nil {
			return nil, err
		}
		s.pool = append(s.pool, pack.resolved()...)
	}
	if len(s.pool) == 0 {
		return nil, fmt.Errorf("static: no sentences loaded from %d pack(s)", len(paths))
	}
	return s, nil
}

// NewFromPacks creates a Source from already-parsed packs. Used by tests
// and by config hot-reload, which re-parses packs before swapping sources.
func NewFromPacks(packs []*Pack, opts ...Option) (*Source, error) {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Source{
		cursor:    make(map[sentences.Filter]int),
		wrapAfter: cfg.wrap,
	}
	for _, p := range packs {
		s.pool = append(s.pool, p.resolved()...)
	}
	if len(s.pool) == 0 {
		return nil, fmt.Errorf("static: no sentences in %d pack(s)", len(packs))
	}
	return s, nil
}

// Next implements [sentences.Source]. Each distinct filter keeps its own
// cursor, so interleaved sessions with different filters do not steal each
// other's sentences.
func (s *Source) Next(ctx context.Context, f sentences.Filter) (*sentences.Sentence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	matched := 0
	start := s.cursor[f]
	for i, sent := range s.pool {
		if !f.Matches(sent) {
			continue
		}
		matched++
		if i < start {
			continue
		}
		s.cursor[f] = i + 1
		out := sent
		return &out, nil
	}

	if matched == 0 {
		return nil, fmt.Errorf("static: no sentences match language=%q level=%q: %w", f.Language, f.Level, sentences.ErrExhausted)
	}
	if s.wrapAfter {
		s.cursor[f] = 0
		for i, sent := range s.pool {
			if f.Matches(sent) {
				s.cursor[f] = i + 1
				out := sent
				return &out, nil
			}
		}
	}
	return nil, sentences.ErrExhausted
}

// Len returns the number of sentences in the pool.
func (s *Source) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pool)
}
