// Package progress defines how graded attempts are reported to an external
// progress tracker. The engine itself keeps no attempt history; recording is
// best-effort and must never fail a grading request.
package progress

import (
	"context"
	"time"
)

// Attempt is the record of one graded dictation attempt.
type Attempt struct {
	// AttemptID uniquely identifies the attempt.
	AttemptID string `json:"attempt_id"`

	// SentenceID identifies the reference sentence, when known.
	SentenceID string `json:"sentence_id,omitempty"`

	// Language is the sentence's language tag, when known.
	Language string `json:"language,omitempty"`

	// IsCorrect reports whether the attempt matched the reference exactly.
	IsCorrect bool `json:"is_correct"`

	// Accuracy is the percentage of expected words reproduced correctly,
	// rounded to two decimals.
	Accuracy float64 `json:"accuracy"`

	// GradedAt is when the attempt was graded.
	GradedAt time.Time `json:"graded_at"`
}

// Recorder reports graded attempts to a progress tracker.
type Recorder interface {
	// Record reports one attempt. Implementations should respect ctx for
	// cancellation and deadlines.
	Record(ctx context.Context, a Attempt) error
}
