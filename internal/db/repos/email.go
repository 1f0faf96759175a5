package repos

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/leadpitch/leadpitch/internal/db/models"
)

// EmailRepository provides access to email-campaign database operations
type EmailRepository struct {
	db *gorm.DB
}

// NewEmailRepository creates a new email repository instance
func NewEmailRepository(db *gorm.DB) *EmailRepository {
	return &EmailRepository{db: db}
}

// Create records a new outreach email attempt
func (r *EmailRepository) Create(ctx context.Context, email *models.EmailCampaign) error {
	return r.db.WithContext(ctx).Create(email).Error
}

// GetByID retrieves an email campaign entry by its ID
func (r *EmailRepository) GetByID(ctx context.Context, id uint) (*models.EmailCampaign, error) {
	var email models.EmailCampaign
	err := r.db.WithContext(ctx).First(&email, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get email campaign: %w", err)
	}
	return &email, nil
}

// ListByLeadID retrieves all emails sent to one lead
func (r *EmailRepository) ListByLeadID(ctx context.Context, leadID uint) ([]models.EmailCampaign, error) {
	var emails []models.EmailCampaign
	err := r.db.WithContext(ctx).
		Where(&models.EmailCampaign{LeadID: leadID}).
		Order(models.CreatedAtField + " DESC").
		Find(&emails).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list emails for lead: %w", err)
	}
	return emails, nil
}

// MarkSent records a successful delivery
func (r *EmailRepository) MarkSent(ctx context.Context, id uint) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&models.EmailCampaign{}).
		Where(&models.EmailCampaign{Model: gorm.Model{ID: id}}).
		Updates(&models.EmailCampaign{Status: models.EmailStatusSent, SentAt: &now}).Error
}

// MarkFailed records a delivery failure with its reason
func (r *EmailRepository) MarkFailed(ctx context.Context, id uint, reason string) error {
	return r.db.WithContext(ctx).Model(&models.EmailCampaign{}).
		Where(&models.EmailCampaign{Model: gorm.Model{ID: id}}).
		Updates(&models.EmailCampaign{Status: models.EmailStatusFailed, BounceReason: reason}).Error
}

// CountSentSince counts deliveries after the cutoff. The mailer uses this
// to enforce its daily quota across restarts.
func (r *EmailRepository) CountSentSince(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.EmailCampaign{}).
		Where("status = ? AND sent_at >= ?", models.EmailStatusSent, cutoff).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count sent emails: %w", err)
	}
	return count, nil
}
