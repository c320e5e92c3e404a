// Package sentences defines the provider interface for dictation sentence
// sources.
//
// A Source hands out sentences for the user to transcribe. Implementations
// live in subpackages: static (curated YAML packs), llm (on-the-fly
// generation) and mock (testing).
package sentences

import (
	"context"
	"errors"
)

// ErrExhausted is returned by Source.Next when the source has no more
// sentences matching the filter. Callers may treat it as end-of-session.
var ErrExhausted = errors.New("sentences: source exhausted")

// Sentence is a single dictation prompt.
type Sentence struct {
	// ID uniquely identifies the sentence within its source.
	ID string `json:"id" yaml:"id"`

	// Text is the reference text the user is expected to reproduce.
	Text string `json:"text" yaml:"text"`

	// Language is a BCP 47 language tag such as "fr" or "de-DE".
	Language string `json:"language" yaml:"language"`

	// Level is a difficulty marker such as "a1" or "b2". Optional.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// AudioURL points to a recording of the sentence, if one exists.
	AudioURL string `json:"audio_url,omitempty" yaml:"audio_url,omitempty"`
}

// Filter narrows which sentences a Source may return. Zero-value fields
// match everything.
type Filter struct {
	// Language restricts results to a single language tag.
	Language string

	// Level restricts results to a single difficulty level.
	Level string
}

// Matches reports whether s satisfies every non-empty field of f.
func (f Filter) Matches(s Sentence) bool {
	if f.Language != "" && f.Language != s.Language {
		return false
	}
	if f.Level != "" && f.Level != s.Level {
		return false
	}
	return true
}

// Source supplies dictation sentences.
type Source interface {
	// Next returns the next sentence matching the filter. It returns
	// ErrExhausted when no more sentences are available. The context
	// governs any I/O the implementation performs.
	Next(ctx context.Context, f Filter) (*Sentence, error)
}
