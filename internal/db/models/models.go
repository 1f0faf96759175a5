// Package models defines the database schema for leads, scrape jobs,
// email campaigns and website analyses.
package models

// Common database field names used in ordering clauses.
const (
	// CreatedAtField is the database field name for creation timestamps
	CreatedAtField = "created_at"
	// ScrapedAtField is the database field name for the lead scrape timestamp
	ScrapedAtField = "scraped_at"
)

// ListOptions contains pagination options for list queries
type ListOptions struct {
	Limit  int
	Offset int
}

// DefaultListLimit caps unbounded list queries.
const DefaultListLimit = 50

// Normalize fills in defaults for zero-valued options.
func (o *ListOptions) Normalize() {
	if o.Limit <= 0 || o.Limit > 500 {
		o.Limit = DefaultListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
}
