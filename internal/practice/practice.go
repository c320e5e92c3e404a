// Package practice orchestrates dictation exercises: it fetches sentences,
// grades attempts, checks spoken answers, and reports results to the
// progress tracker.
//
// The Service struct owns no goroutines of its own except short-lived
// best-effort recording; construct it once in main and share it between the
// HTTP server and the MCP server.
//
// For testing, inject mock implementations via functional options
// (WithSource, WithRecorder, etc.). When an option is not provided, the
// corresponding feature is disabled rather than defaulted.
package practice

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mzaiser/dictee/internal/answercheck"
	"github.com/mzaiser/dictee/internal/dictation"
	"github.com/mzaiser/dictee/internal/observe"
	"github.com/mzaiser/dictee/internal/progress"
	"github.com/mzaiser/dictee/pkg/provider/sentences"
)

// ErrNoSource is returned by NextSentence when no sentence source is
// configured.
var ErrNoSource = errors.New("practice: no sentence source configured")

const defaultRecordTimeout = 10 * time.Second

// Service grades dictation attempts and hands out sentences.
type Service struct {
	recorder progress.Recorder
	metrics  *observe.Metrics
	logger   *slog.Logger

	recordTimeout time.Duration

	// mu guards the fields below, which config hot-reload may swap while
	// requests are in flight.
	mu         sync.RWMutex
	source     sentences.Source
	sourceName string
	checker    *answercheck.Checker
	defaults   dictation.Options
}

// Option is a functional option for New. Use these to inject dependencies
// and test doubles.
type Option func(*Service)

// WithSource sets the sentence source used by NextSentence. name labels the
// source in metrics (e.g. "static", "llm").
func WithSource(name string, src sentences.Source) Option {
	return func(s *Service) {
		s.sourceName = name
		s.source = src
	}
}

// WithRecorder sets the progress recorder. Recording is best-effort; a
// failing recorder never fails a grading request.
func WithRecorder(r progress.Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// WithChecker sets the spoken-answer checker.
func WithChecker(c *answercheck.Checker) Option {
	return func(s *Service) {
		s.checker = c
	}
}

// WithMetrics sets the metrics instance. Defaults to observe.DefaultMetrics.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaults sets the comparison options applied when a request does not
// carry its own.
func WithDefaults(opts dictation.Options) Option {
	return func(s *Service) {
		s.defaults = opts
	}
}

// WithRecordTimeout bounds each best-effort recording call. Defaults to
// 10 seconds.
func WithRecordTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.recordTimeout = d
		}
	}
}

// New creates a Service. All dependencies are optional; a Service with no
// options can still grade attempts via Compare.
func New(opts ...Option) *Service {
	s := &Service{
		metrics:       observe.DefaultMetrics(),
		logger:        slog.Default(),
		recordTimeout: defaultRecordTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Defaults returns the comparison options applied when a request carries
// none.
func (s *Service) Defaults() dictation.Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaults
}

// SetDefaults replaces the default comparison options. Called on config
// hot-reload.
func (s *Service) SetDefaults(opts dictation.Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults = opts
}

// SetChecker replaces the spoken-answer checker. A nil checker disables
// spoken-answer grading. Called on config hot-reload.
func (s *Service) SetChecker(c *answercheck.Checker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checker = c
}

// SetSource replaces the sentence source. A nil source disables sentence
// serving. Called on config hot-reload.
func (s *Service) SetSource(name string, src sentences.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sourceName = name
	s.source = src
}

// Compare grades input against expected. When opts is nil the service
// defaults apply.
func (s *Service) Compare(ctx context.Context, input, expected string, opts *dictation.Options) dictation.Result {
	start := time.Now()
	o := s.Defaults()
	if opts != nil {
		o = *opts
	}
	res := dictation.Compare(input, expected, o)
	s.metrics.CompareDuration.Record(ctx, time.Since(start).Seconds())
	return res
}

// AttemptRequest is one dictation attempt to grade and record.
type AttemptRequest struct {
	// Input is the user's transcription.
	Input string

	// Expected is the reference text.
	Expected string

	// SentenceID identifies the reference sentence, when known.
	SentenceID string

	// Language is the sentence's language tag, when known.
	Language string

	// Options overrides the service's default comparison options when
	// non-nil.
	Options *dictation.Options
}

// GradedAttempt is the outcome of GradeAttempt.
type GradedAttempt struct {
	// AttemptID uniquely identifies this attempt.
	AttemptID string `json:"attempt_id"`

	// Result is the comparison outcome.
	Result dictation.Result `json:"result"`
}

// GradeAttempt grades one attempt, records metrics, and reports the outcome
// to the progress tracker when one is configured. Recording is best-effort:
// failures are logged and counted but never surface to the caller.
func (s *Service) GradeAttempt(ctx context.Context, req AttemptRequest) GradedAttempt {
	res := s.Compare(ctx, req.Input, req.Expected, req.Options)
	id := newAttemptID()

	s.metrics.RecordAttempt(ctx, req.Language, res.IsCorrect, res.Accuracy)
	s.logger.Debug("graded attempt",
		"attempt_id", id,
		"sentence_id", req.SentenceID,
		"is_correct", res.IsCorrect,
		"accuracy", res.Accuracy)

	if s.recorder != nil {
		s.recordAsync(ctx, progress.Attempt{
			AttemptID:  id,
			SentenceID: req.SentenceID,
			Language:   req.Language,
			IsCorrect:  res.IsCorrect,
			Accuracy:   res.Accuracy,
			GradedAt:   time.Now().UTC(),
		})
	}

	return GradedAttempt{AttemptID: id, Result: res}
}

// recordAsync reports the attempt without blocking the grading response.
// The recording context is detached from the request so an impatient client
// cannot cancel it.
func (s *Service) recordAsync(ctx context.Context, a progress.Attempt) {
	rctx := context.WithoutCancel(ctx)
	go func() {
		rctx, cancel := context.WithTimeout(rctx, s.recordTimeout)
		defer cancel()
		if err := s.recorder.Record(rctx, a); err != nil {
			s.metrics.ProgressRecordErrors.Add(rctx, 1)
			s.logger.Warn("recording attempt failed",
				"attempt_id", a.AttemptID,
				"error", err)
		}
	}()
}

// CheckSpoken checks a free-form spoken answer against the expected answer.
// Returns an error when no checker is configured.
func (s *Service) CheckSpoken(ctx context.Context, answer, expected string) (similarity float64, correct bool, err error) {
	s.mu.RLock()
	checker := s.checker
	s.mu.RUnlock()
	if checker == nil {
		return 0, false, errors.New("practice: no spoken-answer checker configured")
	}
	start := time.Now()
	similarity, correct = checker.Check(answer, expected)
	s.metrics.SpokenCheckDuration.Record(ctx, time.Since(start).Seconds())
	return similarity, correct, nil
}

// NextSentence fetches the next sentence for the given filter from the
// configured source.
func (s *Service) NextSentence(ctx context.Context, f sentences.Filter) (*sentences.Sentence, error) {
	s.mu.RLock()
	source, sourceName := s.source, s.sourceName
	s.mu.RUnlock()
	if source == nil {
		return nil, ErrNoSource
	}
	start := time.Now()
	sent, err := source.Next(ctx, f)
	s.metrics.SentenceFetchDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("practice: next sentence: %w", err)
	}
	s.metrics.RecordSentenceServed(ctx, sourceName, sent.Language)
	return sent, nil
}

// newAttemptID returns a random 16-hex-char identifier.
func newAttemptID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// rand.Read only fails when the platform entropy source is broken.
		return fmt.Sprintf("t%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
