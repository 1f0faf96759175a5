package models

import (
	"time"

	"gorm.io/gorm"
)

// ScrapeJob is the durable mirror of an in-process scrape job. It is
// eventually consistent with the in-memory registry, which remains
// authoritative for cancellation; this record is authoritative for
// historical reporting.
type ScrapeJob struct {
	gorm.Model
	JobID      string `json:"job_id" gorm:"not null;uniqueIndex"`
	SearchTerm string `json:"search_term" gorm:"not null"`
	Status     string `json:"status" gorm:"index;default:pending"`

	ItemsDiscovered      int `json:"items_discovered" gorm:"not null;default:0"`
	ItemsProcessed       int `json:"items_processed" gorm:"not null;default:0"`
	ItemsWithContactInfo int `json:"items_with_contact_info" gorm:"not null;default:0"`

	Message      string     `json:"message" gorm:"type:text"`
	ErrorMessage string     `json:"error_message,omitempty" gorm:"type:text"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}
