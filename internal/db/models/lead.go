package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// LeadStatus represents where a lead sits in the outreach pipeline.
type LeadStatus string

// Lead pipeline states.
const (
	LeadStatusNew          LeadStatus = "new"
	LeadStatusAnalyzed     LeadStatus = "analyzed"
	LeadStatusEmailSent    LeadStatus = "email_sent"
	LeadStatusReplied      LeadStatus = "replied"
	LeadStatusBounced      LeadStatus = "bounced"
	LeadStatusUnsubscribed LeadStatus = "unsubscribed"
	LeadStatusFailed       LeadStatus = "failed"
)

// ParseLeadStatus converts a string to a LeadStatus.
func ParseLeadStatus(str string) (LeadStatus, error) {
	switch LeadStatus(str) {
	case LeadStatusNew, LeadStatusAnalyzed, LeadStatusEmailSent,
		LeadStatusReplied, LeadStatusBounced, LeadStatusUnsubscribed, LeadStatusFailed:
		return LeadStatus(str), nil
	}
	return "", fmt.Errorf("invalid lead status: %s", str)
}

// Lead is one discovered business with at least one contact channel.
type Lead struct {
	gorm.Model
	JobID        string     `json:"job_id" gorm:"index"`
	Name         string     `json:"name" gorm:"not null;index"`
	Phone        string     `json:"phone"`
	Website      string     `json:"website"`
	Email        string     `json:"email"`
	Location     string     `json:"location"`
	BusinessType string     `json:"business_type"`
	Status       LeadStatus `json:"status" gorm:"index;default:new"`
	Notes        string     `json:"notes" gorm:"type:text"`
	ScrapedAt    time.Time  `json:"scraped_at" gorm:"index"`
	IsContacted  bool       `json:"is_contacted" gorm:"not null;default:false"`
	ContactedAt  *time.Time `json:"contacted_at,omitempty"`
}
