// Package mcpserver exposes dictation grading as Model Context Protocol
// tools over the streamable HTTP transport, so that LLM agents can grade
// attempts and check spoken answers through a standard tool interface.
//
// Two tools are registered:
//
//   - grade_dictation: compares a transcription against a reference text
//     and returns the word-level diff, accuracy, and correctness.
//   - check_spoken_answer: checks a free-form answer against an expected
//     answer using edit-distance similarity with a phonetic fallback.
package mcpserver

import (
	"context"
	"net/http"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mzaiser/dictee/internal/dictation"
	"github.com/mzaiser/dictee/internal/observe"
	"github.com/mzaiser/dictee/internal/practice"
)

// Server wraps an MCP server bound to a practice service.
type Server struct {
	svc     *practice.Service
	metrics *observe.Metrics
	mcp     *mcpsdk.Server
}

// New creates a Server exposing svc's grading operations as MCP tools.
// metrics may be nil, in which case the package default is used.
func New(svc *practice.Service, metrics *observe.Metrics) *Server {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	s := &Server{
		svc:     svc,
		metrics: metrics,
		mcp: mcpsdk.NewServer(
			&mcpsdk.Implementation{Name: "dictee", Version: "1.0.0"},
			nil,
		),
	}

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name: "grade_dictation",
		Description: "Grade a dictation attempt. Compares the user's transcription " +
			"against the reference text and returns a word-level diff, an accuracy " +
			"percentage, and whether the attempt was fully correct.",
	}, s.gradeDictation)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name: "check_spoken_answer",
		Description: "Check a free-form answer against the expected answer using " +
			"fuzzy matching. Returns a similarity score in [0, 1] and whether the " +
			"answer counts as correct.",
	}, s.checkSpokenAnswer)

	return s
}

// Handler returns an http.Handler serving the MCP streamable HTTP transport.
func (s *Server) Handler() http.Handler {
	return mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server {
		return s.mcp
	}, nil)
}

// GradeDictationInput is the argument schema for the grade_dictation tool.
type GradeDictationInput struct {
	// Input is the user's transcription.
	Input string `json:"input" jsonschema:"the user's transcription of the dictated sentence"`

	// Expected is the reference text.
	Expected string `json:"expected" jsonschema:"the reference text the user was expected to write"`

	// StrictCase makes letter case significant. Omit to use the server
	// default.
	StrictCase *bool `json:"strict_case,omitempty" jsonschema:"treat letter case as significant"`

	// StrictPunctuation makes punctuation significant. Omit to use the
	// server default.
	StrictPunctuation *bool `json:"strict_punctuation,omitempty" jsonschema:"treat punctuation as significant"`
}

// GradeDictationOutput is the result schema for the grade_dictation tool.
type GradeDictationOutput struct {
	IsCorrect bool                `json:"is_correct"`
	Accuracy  float64             `json:"accuracy"`
	Diff      []dictation.Segment `json:"diff"`
}

func (s *Server) gradeDictation(ctx context.Context, req *mcpsdk.CallToolRequest, in GradeDictationInput) (*mcpsdk.CallToolResult, GradeDictationOutput, error) {
	start := time.Now()

	opts := s.svc.Defaults()
	if in.StrictCase != nil {
		opts.StrictCase = *in.StrictCase
	}
	if in.StrictPunctuation != nil {
		opts.StrictPunctuation = *in.StrictPunctuation
	}

	res := s.svc.Compare(ctx, in.Input, in.Expected, &opts)

	s.metrics.ToolExecutionDuration.Record(ctx, time.Since(start).Seconds())
	s.metrics.RecordToolCall(ctx, "grade_dictation", "ok")

	return nil, GradeDictationOutput{
		IsCorrect: res.IsCorrect,
		Accuracy:  res.Accuracy,
		Diff:      res.Diff,
	}, nil
}

// CheckSpokenAnswerInput is the argument schema for check_spoken_answer.
type CheckSpokenAnswerInput struct {
	// Answer is the user's answer.
	Answer string `json:"answer" jsonschema:"the user's spoken or typed answer"`

	// Expected is the expected answer.
	Expected string `json:"expected" jsonschema:"the expected answer"`
}

// CheckSpokenAnswerOutput is the result schema for check_spoken_answer.
type CheckSpokenAnswerOutput struct {
	Similarity float64 `json:"similarity"`
	IsCorrect  bool    `json:"is_correct"`
}

func (s *Server) checkSpokenAnswer(ctx context.Context, req *mcpsdk.CallToolRequest, in CheckSpokenAnswerInput) (*mcpsdk.CallToolResult, CheckSpokenAnswerOutput, error) {
	start := time.Now()

	sim, correct, err := s.svc.CheckSpoken(ctx, in.Answer, in.Expected)
	s.metrics.ToolExecutionDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		s.metrics.RecordToolCall(ctx, "check_spoken_answer", "error")
		return nil, CheckSpokenAnswerOutput{}, err
	}
	s.metrics.RecordToolCall(ctx, "check_spoken_answer", "ok")

	return nil, CheckSpokenAnswerOutput{Similarity: sim, IsCorrect: correct}, nil
}
