package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/leadpitch/leadpitch/internal/db/models"
	"github.com/leadpitch/leadpitch/internal/db/repos"
	"github.com/leadpitch/leadpitch/internal/ratelimit"
	"github.com/leadpitch/leadpitch/internal/scraper"
)

// StatsHandler handles HTTP requests for dashboard and limiter status
type StatsHandler struct {
	leads  *repos.LeadRepository
	jobs   *scraper.Registry
	limits *ratelimit.Registry
}

// NewStatsHandler creates a new stats handler instance
func NewStatsHandler(leads *repos.LeadRepository, jobs *scraper.Registry, limits *ratelimit.Registry) *StatsHandler {
	return &StatsHandler{leads: leads, jobs: jobs, limits: limits}
}

// DashboardStats is the aggregate pipeline snapshot
type DashboardStats struct {
	LeadsByStatus map[models.LeadStatus]int64 `json:"leads_by_status"`
	TotalLeads    int64                       `json:"total_leads"`
	ActiveJobs    int                         `json:"active_jobs"`
}

// GetDashboard handles the request for the pipeline overview
func (h *StatsHandler) GetDashboard(c *fiber.Ctx) error {
	counts, err := h.leads.CountByStatus(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(err.Error()))
	}

	stats := DashboardStats{LeadsByStatus: counts}
	for _, n := range counts {
		stats.TotalLeads += n
	}
	for _, job := range h.jobs.List() {
		if !job.Status.Terminal() {
			stats.ActiveJobs++
		}
	}

	return c.JSON(Response{Slug: SuccessSlug, Data: stats})
}

// GetRateLimits handles the request for limiter channel status
func (h *StatsHandler) GetRateLimits(c *fiber.Ctx) error {
	return c.JSON(Response{Slug: SuccessSlug, Data: h.limits.Status()})
}
