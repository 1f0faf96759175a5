package scraper

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry is the in-process map from job ID to live job state. It is
// consulted by the presentation layer for status polling and cancellation
// and is authoritative for "is this job cancelled"; the durable copy in
// the database mirrors it asynchronously.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*jobState
}

type jobState struct {
	job       Job
	cancelled bool
}

// NewRegistry creates an empty job registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*jobState)}
}

// Create allocates a new pending job for the search term and returns a
// snapshot of it.
func (r *Registry) Create(searchTerm string) Job {
	job := Job{
		ID:         uuid.New().String(),
		SearchTerm: searchTerm,
		Status:     StatusPending,
		Message:    "Job created",
		CreatedAt:  time.Now().UTC(),
	}

	r.mu.Lock()
	r.jobs[job.ID] = &jobState{job: job}
	r.mu.Unlock()
	return job
}

// Get returns a snapshot of the job, if present.
func (r *Registry) Get(id string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return st.job, true
}

// List returns snapshots of all known jobs.
func (r *Registry) List() []Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Job, 0, len(r.jobs))
	for _, st := range r.jobs {
		out = append(out, st.job)
	}
	return out
}

// Cancel marks the job for cancellation. The flag is one-way and
// idempotent; the owning engine observes it at its next loop boundary.
// Returns false if the job does not exist.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.jobs[id]
	if !ok {
		return false
	}
	st.cancelled = true
	return true
}

// IsCancelled reports whether cancellation has been requested.
func (r *Registry) IsCancelled(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.jobs[id]
	return ok && st.cancelled
}

// markRunning transitions pending → running and stamps StartedAt.
func (r *Registry) markRunning(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.jobs[id]
	if !ok || st.job.Status != StatusPending {
		return
	}
	now := time.Now().UTC()
	st.job.Status = StatusRunning
	st.job.StartedAt = &now
	st.job.Message = "Job dispatched"
}

// apply folds a progress event into the job. Counters only move forward,
// ItemsProcessed never exceeds ItemsDiscovered, and nothing mutates once
// the job is terminal. Phase timestamps are derived from the first event
// observed with the matching phase tag.
func (r *Registry) apply(id string, ev ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.jobs[id]
	if !ok || st.job.Status.Terminal() {
		return
	}

	now := time.Now().UTC()
	switch ev.Phase {
	case PhaseDiscovering:
		if st.job.ListingsLoadedAt == nil {
			st.job.ListingsLoadedAt = &now
		}
	case PhaseExtracting:
		if st.job.ExtractionStartedAt == nil {
			st.job.ExtractionStartedAt = &now
		}
	}

	if ev.Discovered > st.job.ItemsDiscovered {
		st.job.ItemsDiscovered = ev.Discovered
	}
	if ev.Processed > st.job.ItemsProcessed {
		st.job.ItemsProcessed = ev.Processed
	}
	if st.job.ItemsProcessed > st.job.ItemsDiscovered {
		st.job.ItemsProcessed = st.job.ItemsDiscovered
	}
	if ev.WithContact > st.job.ItemsWithContactInfo {
		st.job.ItemsWithContactInfo = ev.WithContact
	}
	if ev.Message != "" {
		st.job.Message = ev.Message
	}
}

// finish moves the job to a terminal state. Once terminal the job is
// frozen; a second finish is a no-op.
func (r *Registry) finish(id string, status Status, errMsg, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.jobs[id]
	if !ok || st.job.Status.Terminal() {
		return
	}
	now := time.Now().UTC()
	st.job.Status = status
	st.job.Error = errMsg
	st.job.FinishedAt = &now
	if message != "" {
		st.job.Message = message
	}
}
