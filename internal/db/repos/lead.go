package repos

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/leadpitch/leadpitch/internal/db/models"
)

// LeadRepository provides access to lead-related database operations
type LeadRepository struct {
	db *gorm.DB
}

// NewLeadRepository creates a new lead repository instance
func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

// Create creates a new lead in the database
func (r *LeadRepository) Create(ctx context.Context, lead *models.Lead) error {
	return r.db.WithContext(ctx).Create(lead).Error
}

// GetByID retrieves a lead by its ID
func (r *LeadRepository) GetByID(ctx context.Context, id uint) (*models.Lead, error) {
	var lead models.Lead
	err := r.db.WithContext(ctx).First(&lead, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return &lead, nil
}

// List retrieves leads ordered newest first
func (r *LeadRepository) List(ctx context.Context, opts *models.ListOptions) ([]models.Lead, error) {
	var leads []models.Lead
	err := r.applyListOptions(r.db.WithContext(ctx), opts).
		Order(models.ScrapedAtField + " DESC").
		Find(&leads).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, nil
}

// ListByJobID retrieves all leads produced by one scrape job
func (r *LeadRepository) ListByJobID(ctx context.Context, jobID string, opts *models.ListOptions) ([]models.Lead, error) {
	var leads []models.Lead
	err := r.applyListOptions(r.db.WithContext(ctx), opts).
		Where(&models.Lead{JobID: jobID}).
		Order(models.ScrapedAtField + " DESC").
		Find(&leads).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list leads for job: %w", err)
	}
	return leads, nil
}

// ListByStatus retrieves leads in the given pipeline state
func (r *LeadRepository) ListByStatus(ctx context.Context, status models.LeadStatus, opts *models.ListOptions) ([]models.Lead, error) {
	var leads []models.Lead
	err := r.applyListOptions(r.db.WithContext(ctx), opts).
		Where(&models.Lead{Status: status}).
		Order(models.ScrapedAtField + " DESC").
		Find(&leads).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list leads by status: %w", err)
	}
	return leads, nil
}

// Update updates a lead
func (r *LeadRepository) Update(ctx context.Context, id uint, lead *models.Lead) error {
	return r.db.WithContext(ctx).Where(&models.Lead{Model: gorm.Model{ID: id}}).Updates(lead).Error
}

// UpdateStatus updates the pipeline status of a lead
func (r *LeadRepository) UpdateStatus(ctx context.Context, id uint, status models.LeadStatus) error {
	return r.db.WithContext(ctx).Model(&models.Lead{}).
		Where(&models.Lead{Model: gorm.Model{ID: id}}).
		Update("status", status).Error
}

// MarkContacted records that a lead received an outreach email
func (r *LeadRepository) MarkContacted(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Lead{}).
		Where(&models.Lead{Model: gorm.Model{ID: id}}).
		Updates(map[string]interface{}{
			"is_contacted": true,
			"contacted_at": gorm.Expr("CURRENT_TIMESTAMP"),
			"status":       models.LeadStatusEmailSent,
		}).Error
}

// CountByStatus returns how many leads sit in each pipeline state
func (r *LeadRepository) CountByStatus(ctx context.Context) (map[models.LeadStatus]int64, error) {
	type row struct {
		Status models.LeadStatus
		Total  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Lead{}).
		Select("status, COUNT(*) as total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}
	counts := make(map[models.LeadStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}

// applyListOptions applies the list options to the given query
func (r *LeadRepository) applyListOptions(query *gorm.DB, opts *models.ListOptions) *gorm.DB {
	if opts == nil {
		opts = &models.ListOptions{}
	}
	opts.Normalize()
	return query.Limit(opts.Limit).Offset(opts.Offset)
}
