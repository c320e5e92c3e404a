// Package server provides the HTTP surface of the Dictee engine: grading
// endpoints, sentence delivery, live dictation sessions over WebSocket,
// health probes, Prometheus metrics, and the optional MCP mount.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/mzaiser/dictee/internal/dictation"
	"github.com/mzaiser/dictee/internal/health"
	"github.com/mzaiser/dictee/internal/observe"
	"github.com/mzaiser/dictee/internal/practice"
	"github.com/mzaiser/dictee/pkg/provider/sentences"
)

// maxBodyBytes bounds request bodies. Dictation texts are short; anything
// larger is a client error.
const maxBodyBytes = 1 << 20

// Server is the Dictee HTTP server.
type Server struct {
	svc     *practice.Service
	metrics *observe.Metrics
	logger  *slog.Logger

	addr     string
	certFile string
	keyFile  string

	checkers   []health.Checker
	mcpHandler http.Handler
	mcpPath    string

	httpServer *http.Server
}

// Option is a functional option for New.
type Option func(*Server)

// WithTLS makes the server listen with the given certificate pair.
func WithTLS(certFile, keyFile string) Option {
	return func(s *Server) {
		s.certFile = certFile
		s.keyFile = keyFile
	}
}

// WithHealthCheckers registers readiness checkers evaluated by /readyz.
func WithHealthCheckers(checkers ...health.Checker) Option {
	return func(s *Server) {
		s.checkers = append(s.checkers, checkers...)
	}
}

// WithMCP mounts an MCP handler at path. Empty path means "/mcp".
func WithMCP(path string, h http.Handler) Option {
	return func(s *Server) {
		if path == "" {
			path = "/mcp"
		}
		s.mcpPath = path
		s.mcpHandler = h
	}
}

// WithMetrics sets the metrics instance. Defaults to observe.DefaultMetrics.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Server around svc listening on addr.
func New(addr string, svc *practice.Service, opts ...Option) *Server {
	s := &Server{
		svc:     svc,
		metrics: observe.DefaultMetrics(),
		logger:  slog.Default(),
		addr:    addr,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler builds the full route table wrapped in the observability
// middleware. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/compare", s.handleCompare)
	mux.HandleFunc("POST /v1/attempts", s.handleAttempt)
	mux.HandleFunc("POST /v1/spoken", s.handleSpoken)
	mux.HandleFunc("GET /v1/next", s.handleNext)
	mux.HandleFunc("GET /v1/live", s.handleLive)

	health.New(s.checkers...).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	if s.mcpHandler != nil {
		mux.Handle(s.mcpPath, s.mcpHandler)
	}

	return observe.Middleware(s.metrics)(mux)
}

// Run starts the server and blocks until ctx is cancelled or the listener
// fails. On cancellation it shuts down gracefully within 15 seconds.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("http server listening", "addr", s.addr, "tls", s.certFile != "")
		var err error
		if s.certFile != "" {
			err = s.httpServer.ListenAndServeTLS(s.certFile, s.keyFile)
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: listen on %s: %w", s.addr, err)
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// ── Request / response bodies ────────────────────────────────────────────────

type compareRequest struct {
	Input    string             `json:"input"`
	Expected string             `json:"expected"`
	Options  *dictation.Options `json:"options,omitempty"`
}

type attemptRequest struct {
	compareRequest
	SentenceID string `json:"sentence_id,omitempty"`
	Language   string `json:"language,omitempty"`
}

type spokenRequest struct {
	Answer   string `json:"answer"`
	Expected string `json:"expected"`
}

type spokenResponse struct {
	Similarity float64 `json:"similarity"`
	IsCorrect  bool    `json:"is_correct"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ── Handlers ─────────────────────────────────────────────────────────────────

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Expected == "" && req.Input == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "input or expected must be set"})
		return
	}

	res := s.svc.Compare(r.Context(), req.Input, req.Expected, req.Options)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAttempt(w http.ResponseWriter, r *http.Request) {
	var req attemptRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Expected == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "expected must be set"})
		return
	}

	graded := s.svc.GradeAttempt(r.Context(), practice.AttemptRequest{
		Input:      req.Input,
		Expected:   req.Expected,
		SentenceID: req.SentenceID,
		Language:   req.Language,
		Options:    req.Options,
	})
	writeJSON(w, http.StatusOK, graded)
}

func (s *Server) handleSpoken(w http.ResponseWriter, r *http.Request) {
	var req spokenRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Expected == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "expected must be set"})
		return
	}

	sim, correct, err := s.svc.CheckSpoken(r.Context(), req.Answer, req.Expected)
	if err != nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, spokenResponse{Similarity: sim, IsCorrect: correct})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	f := sentences.Filter{
		Language: r.URL.Query().Get("language"),
		Level:    r.URL.Query().Get("level"),
	}

	sent, err := s.svc.NextSentence(r.Context(), f)
	switch {
	case errors.Is(err, practice.ErrNoSource):
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "no sentence source configured"})
	case errors.Is(err, sentences.ErrExhausted):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no more sentences for this filter"})
	case err != nil:
		s.logger.Error("sentence fetch failed", "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "sentence source unavailable"})
	default:
		writeJSON(w, http.StatusOK, sent)
	}
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// decode reads a JSON body into dst, answering 400 on malformed input.
// Returns false when the response has already been written.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
		return false
	}
	if dec.More() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request body must contain a single JSON object"})
		return false
	}
	_, _ = io.Copy(io.Discard, body)
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding failure"}`, http.StatusInternalServerError)
	}
}
