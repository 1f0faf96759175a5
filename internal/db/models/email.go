package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// EmailStatus represents the delivery state of an outreach email.
type EmailStatus string

// Email delivery states.
const (
	EmailStatusPending EmailStatus = "pending"
	EmailStatusSent    EmailStatus = "sent"
	EmailStatusBounced EmailStatus = "bounced"
	EmailStatusFailed  EmailStatus = "failed"
)

// ParseEmailStatus converts a string to an EmailStatus.
func ParseEmailStatus(str string) (EmailStatus, error) {
	switch EmailStatus(str) {
	case EmailStatusPending, EmailStatusSent, EmailStatusBounced, EmailStatusFailed:
		return EmailStatus(str), nil
	}
	return "", fmt.Errorf("invalid email status: %s", str)
}

// EmailCampaign is one outreach email sent (or attempted) to a lead.
type EmailCampaign struct {
	gorm.Model
	LeadID       uint        `json:"lead_id" gorm:"not null;index"`
	Recipient    string      `json:"recipient" gorm:"not null"`
	Subject      string      `json:"subject" gorm:"not null"`
	Body         string      `json:"body" gorm:"type:text"`
	BodyHTML     string      `json:"body_html,omitempty" gorm:"type:text"`
	Status       EmailStatus `json:"status" gorm:"index;default:pending"`
	TemplateUsed string      `json:"template_used,omitempty"`
	BounceReason string      `json:"bounce_reason,omitempty"`
	SentAt       *time.Time  `json:"sent_at,omitempty"`
}
