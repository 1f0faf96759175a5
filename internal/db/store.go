package db

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/leadpitch/leadpitch/internal/db/models"
	"github.com/leadpitch/leadpitch/internal/db/repos"
	"github.com/leadpitch/leadpitch/internal/logger"
	"github.com/leadpitch/leadpitch/internal/scraper"
	"github.com/leadpitch/leadpitch/internal/validation"
)

// Store adapts the repositories to the scraping engine's persistence
// contract. Contact fields are cleaned on the way in; a field that fails
// validation is dropped rather than stored dirty.
type Store struct {
	leads *repos.LeadRepository
	jobs  *repos.ScrapeJobRepository
}

// NewStore creates a store over the given database handle.
func NewStore(gdb *gorm.DB) *Store {
	return &Store{
		leads: repos.NewLeadRepository(gdb),
		jobs:  repos.NewScrapeJobRepository(gdb),
	}
}

// SaveLead persists one discovered business as a lead.
func (s *Store) SaveLead(ctx context.Context, jobID string, item scraper.DiscoveredItem) error {
	lead := &models.Lead{
		JobID:     jobID,
		Name:      item.Name,
		Status:    models.LeadStatusNew,
		ScrapedAt: time.Now(),
	}

	if item.Phone != "" {
		if phone, err := validation.CleanPhone(item.Phone); err == nil {
			lead.Phone = phone
		} else {
			logger.Debugf("dropping phone for %q: %v", item.Name, err)
		}
	}
	if item.Website != "" {
		if website, err := validation.CleanURL(item.Website); err == nil {
			lead.Website = website
		} else {
			logger.Debugf("dropping website for %q: %v", item.Name, err)
		}
	}
	if item.Email != "" {
		if email, err := validation.CleanEmail(item.Email, true); err == nil {
			lead.Email = email
		} else {
			logger.Debugf("dropping email for %q: %v", item.Name, err)
		}
	}

	return s.leads.Create(ctx, lead)
}

// UpdateJob mirrors the in-memory job state into the scrape_jobs table.
func (s *Store) UpdateJob(ctx context.Context, job scraper.Job) error {
	mirror := &models.ScrapeJob{
		JobID:                job.ID,
		SearchTerm:           job.SearchTerm,
		Status:               string(job.Status),
		ItemsDiscovered:      job.ItemsDiscovered,
		ItemsProcessed:       job.ItemsProcessed,
		ItemsWithContactInfo: job.ItemsWithContactInfo,
		Message:              job.Message,
		ErrorMessage:         job.Error,
		StartedAt:            job.StartedAt,
		CompletedAt:          job.FinishedAt,
	}
	return s.jobs.Upsert(ctx, mirror)
}
