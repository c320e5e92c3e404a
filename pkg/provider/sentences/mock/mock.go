// Package mock provides a test double for the sentences.Source interface.
//
// Example:
//
//	src := &mock.Source{
//	    Sentences: []sentences.Sentence{{ID: "s1", Text: "Bonjour.", Language: "fr"}},
//	}
package mock

import (
	"context"
	"sync"

	"github.com/mzaiser/dictee/pkg/provider/sentences"
)

// NextCall records a single invocation of Next.
type NextCall struct {
	// Ctx is the context passed to Next.
	Ctx context.Context
	// Filter is the filter passed to Next.
	Filter sentences.Filter
}

// Source is a mock implementation of sentences.Source. It serves Sentences
// in order regardless of the filter, then returns sentences.ErrExhausted.
// Set Err to inject a failure on every call instead.
type Source struct {
	mu sync.Mutex

	// Sentences is the sequence served by Next.
	Sentences []sentences.Sentence

	// Err, if non-nil, is returned from every Next call.
	Err error

	// NextCalls records every invocation of Next in order.
	NextCalls []NextCall

	cursor int
}

var _ sentences.Source = (*Source)(nil)

// Next implements sentences.Source.
func (s *Source) Next(ctx context.Context, f sentences.Filter) (*sentences.Sentence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.NextCalls = append(s.NextCalls, NextCall{Ctx: ctx, Filter: f})
	if s.Err != nil {
		return nil, s.Err
	}
	if s.cursor >= len(s.Sentences) {
		return nil, sentences.ErrExhausted
	}
	out := s.Sentences[s.cursor]
	s.cursor++
	return &out, nil
}

// Reset rewinds the source to the first sentence. Recorded calls are kept.
func (s *Source) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = 0
}
