// Package mock provides a test double for the progress.Recorder interface.
package mock

import (
	"context"
	"sync"

	"github.com/mzaiser/dictee/internal/progress"
)

// Recorder is a mock implementation of progress.Recorder. It records every
// attempt passed to Record; set Err to inject failures.
type Recorder struct {
	mu sync.Mutex

	// Err, if non-nil, is returned from every Record call.
	Err error

	// Attempts holds every attempt passed to Record, in order.
	Attempts []progress.Attempt
}

var _ progress.Recorder = (*Recorder)(nil)

// Record implements progress.Recorder.
func (r *Recorder) Record(ctx context.Context, a progress.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Attempts = append(r.Attempts, a)
	return r.Err
}

// Recorded returns a copy of the attempts recorded so far.
func (r *Recorder) Recorded() []progress.Attempt {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]progress.Attempt, len(r.Attempts))
	copy(out, r.Attempts)
	return out
}
