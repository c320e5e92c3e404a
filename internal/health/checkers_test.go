package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSentencePoolChecker(t *testing.T) {
	c := SentencePool("sentences", func() int { return 12 })

	if err := c.Check(context.Background()); err != nil {
		t.Errorf("Check() error = %v, want nil", err)
	}
}

func TestSentencePoolChecker_EmptyPoolFails(t *testing.T) {
	c := SentencePool("sentences", func() int { return 0 })

	if err := c.Check(context.Background()); err == nil {
		t.Error("Check() error = nil, want error for empty pool")
	}
}

func TestSentencePoolChecker_PollsOnEveryProbe(t *testing.T) {
	n := 0
	c := SentencePool("sentences", func() int { return n })

	if err := c.Check(context.Background()); err == nil {
		t.Error("Check() error = nil, want error before reload")
	}
	n = 3
	if err := c.Check(context.Background()); err != nil {
		t.Errorf("Check() error = %v, want nil after reload", err)
	}
}

func TestEndpointChecker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized) // 4xx still means the service is up
	}))
	defer srv.Close()

	c := Endpoint("progress", srv.URL, srv.Client())
	if err := c.Check(context.Background()); err != nil {
		t.Errorf("Check() error = %v, want nil for 401", err)
	}
}

func TestEndpointChecker_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := Endpoint("progress", srv.URL, srv.Client())
	if err := c.Check(context.Background()); err == nil {
		t.Error("Check() error = nil, want error for 500")
	}
}

func TestEndpointChecker_Unreachable(t *testing.T) {
	c := Endpoint("progress", "http://127.0.0.1:1", nil)
	if err := c.Check(context.Background()); err == nil {
		t.Error("Check() error = nil, want connection error")
	}
}
