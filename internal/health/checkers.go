package health

import (
	"context"
	"fmt"
	"net/http"
)

// SentencePool returns a Checker that fails while the sentence pool is
// empty. size is polled on every probe, so packs reloaded at runtime are
// picked up. Probes never consume sentences.
func SentencePool(name string, size func() int) Checker {
	return Checker{
		Name: name,
		Check: func(context.Context) error {
			if n := size(); n == 0 {
				return fmt.Errorf("sentence pool is empty")
			}
			return nil
		},
	}
}

// Endpoint returns a Checker that issues a HEAD request against url and
// treats any response below 500 as healthy. Used for the progress tracker,
// which may reject unauthenticated probes with 4xx while still being up.
func Endpoint(name, url string, client *http.Client) Checker {
	if client == nil {
		client = http.DefaultClient
	}
	return Checker{
		Name: name,
		Check: func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
			if err != nil {
				return fmt.Errorf("build probe request: %w", err)
			}
			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("probe %s: %w", url, err)
			}
			resp.Body.Close()
			if resp.StatusCode >= 500 {
				return fmt.Errorf("probe %s: status %d", url, resp.StatusCode)
			}
			return nil
		},
	}
}
