package scraper

import (
	"context"
	"fmt"

	"github.com/leadpitch/leadpitch/internal/logger"
)

// Service is the caller-facing job API consumed by the presentation
// layer: submit, status, cancel, list. One engine run is dispatched per
// submitted job on its own goroutine.
type Service struct {
	registry *Registry
	engine   *Engine
}

// NewService creates the job service.
func NewService(registry *Registry, engine *Engine) *Service {
	return &Service{registry: registry, engine: engine}
}

// Registry exposes the live registry for status polling.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Submit allocates a job for the search term and dispatches it. The job
// runs detached from the caller's request context.
func (s *Service) Submit(_ context.Context, searchTerm string) (Job, error) {
	if searchTerm == "" {
		return Job{}, fmt.Errorf("search term is required")
	}

	job := s.registry.Create(searchTerm)
	logger.WithJob(job.ID).Infof("submitted scrape job for %q", searchTerm)

	go func() {
		if err := s.engine.Run(context.Background(), job.ID); err != nil {
			logger.WithJob(job.ID).Errorf("job run: %v", err)
		}
	}()

	return job, nil
}

// Status returns a snapshot of the job.
func (s *Service) Status(id string) (Job, bool) {
	return s.registry.Get(id)
}

// List returns snapshots of all in-process jobs.
func (s *Service) List() []Job {
	return s.registry.List()
}

// Cancel requests cooperative cancellation. Idempotent; returns false
// only when the job is unknown.
func (s *Service) Cancel(id string) bool {
	return s.registry.Cancel(id)
}
