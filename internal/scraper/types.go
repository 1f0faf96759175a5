// Package scraper contains the scrape job engine: the job lifecycle state
// machine, the in-process job registry, and the headless listing driver.
package scraper

import (
	"fmt"
	"time"
)

// Status represents the lifecycle state of a scrape job.
type Status string

// Job lifecycle states. The three terminal states are absorbing.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status permits no further mutation.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// ParseStatus converts a string to a Status.
func ParseStatus(str string) (Status, error) {
	switch Status(str) {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusCancelled:
		return Status(str), nil
	}
	return "", fmt.Errorf("invalid job status: %s", str)
}

// Phase tags the informal sub-phases of a running job. Phases are
// telemetry only; they never drive control flow.
type Phase string

// Running-job phases.
const (
	PhaseNavigating  Phase = "navigating"
	PhaseDiscovering Phase = "discovering"
	PhaseExtracting  Phase = "extracting"
)

// DiscoveredItem is one business pulled from a listing detail view. Items
// are transient: forwarded to persistence when contact-bearing, otherwise
// counted and dropped.
type DiscoveredItem struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
	Email   string `json:"email"`
}

// HasContactChannel reports whether any of phone, website or email is set.
func (i DiscoveredItem) HasContactChannel() bool {
	return i.Phone != "" || i.Website != "" || i.Email != ""
}

// ProgressEvent is one step of a job's progress stream. Events for a
// single job are strictly ordered. Item is non-nil only when a newly
// accepted contact-bearing item was found.
type ProgressEvent struct {
	Phase       Phase           `json:"phase"`
	Processed   int             `json:"processed"`
	Discovered  int             `json:"discovered"`
	WithContact int             `json:"with_contact"`
	Message     string          `json:"message"`
	Item        *DiscoveredItem `json:"item,omitempty"`
}

// Job is the in-process record of one scrape run. Snapshots are returned
// by value; the registry owns the authoritative copy.
type Job struct {
	ID         string `json:"job_id"`
	SearchTerm string `json:"search_term"`
	Status     Status `json:"status"`

	ItemsDiscovered      int `json:"items_discovered"`
	ItemsProcessed       int `json:"items_processed"`
	ItemsWithContactInfo int `json:"items_with_contact_info"`

	Message string `json:"message"`
	Error   string `json:"error,omitempty"`

	CreatedAt           time.Time  `json:"created_at"`
	StartedAt           *time.Time `json:"started_at,omitempty"`
	ListingsLoadedAt    *time.Time `json:"listings_loaded_at,omitempty"`
	ExtractionStartedAt *time.Time `json:"extraction_started_at,omitempty"`
	FinishedAt          *time.Time `json:"finished_at,omitempty"`
}
