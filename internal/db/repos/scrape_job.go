package repos

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/leadpitch/leadpitch/internal/db/models"
)

// ScrapeJobRepository provides access to scrape-job-related database operations
type ScrapeJobRepository struct {
	db *gorm.DB
}

// NewScrapeJobRepository creates a new scrape job repository instance
func NewScrapeJobRepository(db *gorm.DB) *ScrapeJobRepository {
	return &ScrapeJobRepository{db: db}
}

// Create creates a new scrape job record
func (r *ScrapeJobRepository) Create(ctx context.Context, job *models.ScrapeJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// Upsert inserts the job record or, if a record with the same job ID
// already exists, overwrites its mutable fields. Progress mirroring calls
// this repeatedly while a job runs.
func (r *ScrapeJobRepository) Upsert(ctx context.Context, job *models.ScrapeJob) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "job_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status",
			"items_discovered",
			"items_processed",
			"items_with_contact_info",
			"message",
			"error_message",
			"started_at",
			"completed_at",
			"updated_at",
		}),
	}).Create(job).Error
}

// GetByJobID retrieves a scrape job by its external job ID
func (r *ScrapeJobRepository) GetByJobID(ctx context.Context, jobID string) (*models.ScrapeJob, error) {
	var job models.ScrapeJob
	err := r.db.WithContext(ctx).Where(&models.ScrapeJob{JobID: jobID}).First(&job).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get scrape job: %w", err)
	}
	return &job, nil
}

// List retrieves scrape jobs ordered newest first
func (r *ScrapeJobRepository) List(ctx context.Context, opts *models.ListOptions) ([]models.ScrapeJob, error) {
	var jobs []models.ScrapeJob
	err := r.applyListOptions(r.db.WithContext(ctx), opts).
		Order(models.CreatedAtField + " DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list scrape jobs: %w", err)
	}
	return jobs, nil
}

// ListByStatus retrieves scrape jobs in the given state
func (r *ScrapeJobRepository) ListByStatus(ctx context.Context, status string, opts *models.ListOptions) ([]models.ScrapeJob, error) {
	var jobs []models.ScrapeJob
	err := r.applyListOptions(r.db.WithContext(ctx), opts).
		Where(&models.ScrapeJob{Status: status}).
		Order(models.CreatedAtField + " DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list scrape jobs by status: %w", err)
	}
	return jobs, nil
}

// applyListOptions applies the list options to the given query
func (r *ScrapeJobRepository) applyListOptions(query *gorm.DB, opts *models.ListOptions) *gorm.DB {
	if opts == nil {
		opts = &models.ListOptions{}
	}
	opts.Normalize()
	return query.Limit(opts.Limit).Offset(opts.Offset)
}
