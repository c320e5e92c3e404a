// Package httprecorder implements a progress.Recorder that POSTs graded
// attempts to an external HTTP endpoint.
package httprecorder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mzaiser/dictee/internal/progress"
)

const defaultTimeout = 10 * time.Second

// Option is a functional option for configuring the Recorder.
type Option func(*Recorder)

// WithToken sets a bearer token sent with every request.
func WithToken(token string) Option {
	return func(r *Recorder) {
		r.token = token
	}
}

// WithTimeout bounds each request. Defaults to 10 seconds.
func WithTimeout(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. Used by tests.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Recorder) {
		if c != nil {
			r.httpClient = c
		}
	}
}

// Recorder implements progress.Recorder against an HTTP endpoint.
type Recorder struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

var _ progress.Recorder = (*Recorder)(nil)

// New creates a Recorder posting to endpoint. endpoint must be non-empty.
func New(endpoint string, opts ...Option) (*Recorder, error) {
	if endpoint == "" {
		return nil, errors.New("httprecorder: endpoint must not be empty")
	}
	r := &Recorder{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Record implements progress.Recorder. A non-2xx response is an error; the
// first part of the response body is included for diagnostics.
func (r *Recorder) Record(ctx context.Context, a progress.Attempt) error {
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("httprecorder: marshal attempt %q: %w", a.AttemptID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("httprecorder: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httprecorder: record attempt %q: %w", a.AttemptID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("httprecorder: record attempt %q: unexpected status %d: %s", a.AttemptID, resp.StatusCode, snippet)
	}
	return nil
}
