// Package worker runs fire-and-forget background jobs, at most one at a
// time.
package worker

import "sync"

// Runner executes at most one job concurrently. Submitting while a job is
// in flight is rejected rather than queued; a sync run triggered twice
// before the first completes would only re-walk the same feeds.
type Runner struct {
	mu      sync.Mutex
	running bool
}

// New creates an idle runner.
func New() *Runner {
	return &Runner{}
}

// Submit starts job on its own goroutine and returns true, or returns false
// when a job is already in flight. The job's outcome is observable only
// through its side effects; there is no return channel.
func (r *Runner) Submit(job func()) bool {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return false
	}
	r.running = true
	r.mu.Unlock()

	go func() {
		defer func() {
			r.mu.Lock()
			r.running = false
			r.mu.Unlock()
		}()
		job()
	}()
	return true
}

// Running reports whether a job is currently in flight.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
