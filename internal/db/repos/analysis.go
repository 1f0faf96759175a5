package repos

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/leadpitch/leadpitch/internal/db/models"
)

// AnalysisRepository provides access to website-analysis database operations
type AnalysisRepository struct {
	db *gorm.DB
}

// NewAnalysisRepository creates a new analysis repository instance
func NewAnalysisRepository(db *gorm.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Create stores a completed website analysis
func (r *AnalysisRepository) Create(ctx context.Context, analysis *models.WebsiteAnalysis) error {
	return r.db.WithContext(ctx).Create(analysis).Error
}

// GetByID retrieves an analysis by its ID
func (r *AnalysisRepository) GetByID(ctx context.Context, id uint) (*models.WebsiteAnalysis, error) {
	var analysis models.WebsiteAnalysis
	err := r.db.WithContext(ctx).First(&analysis, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return &analysis, nil
}

// LatestByLeadID retrieves the most recent analysis for a lead
func (r *AnalysisRepository) LatestByLeadID(ctx context.Context, leadID uint) (*models.WebsiteAnalysis, error) {
	var analysis models.WebsiteAnalysis
	err := r.db.WithContext(ctx).
		Where(&models.WebsiteAnalysis{LeadID: leadID}).
		Order("id DESC").
		First(&analysis).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get latest analysis for lead: %w", err)
	}
	return &analysis, nil
}

// ListByLeadID retrieves all analyses performed for a lead
func (r *AnalysisRepository) ListByLeadID(ctx context.Context, leadID uint) ([]models.WebsiteAnalysis, error) {
	var analyses []models.WebsiteAnalysis
	err := r.db.WithContext(ctx).
		Where(&models.WebsiteAnalysis{LeadID: leadID}).
		Order(models.CreatedAtField + " DESC").
		Find(&analyses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses for lead: %w", err)
	}
	return analyses, nil
}
