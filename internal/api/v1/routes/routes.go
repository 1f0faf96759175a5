package v1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/leadpitch/leadpitch/internal/api/v1/handlers"
)

// Handlers collects the v1 route handlers.
type Handlers struct {
	Scrape   *handlers.ScrapeHandler
	Leads    *handlers.LeadHandler
	Analysis *handlers.AnalysisHandler
	Emails   *handlers.EmailHandler
	Stats    *handlers.StatsHandler
}

// SetupRoutes configures all the v1 routes
func SetupRoutes(router fiber.Router, h Handlers) {
	// Scrape job routes
	scrape := router.Group("/scrape")
	scrape.Post("/", h.Scrape.SubmitScrape)
	scrape.Get("/", h.Scrape.ListScrapeJobs)
	scrape.Get("/:id", h.Scrape.GetScrapeStatus)
	scrape.Delete("/:id", h.Scrape.CancelScrape)

	// Lead routes
	leads := router.Group("/leads")
	leads.Get("/", h.Leads.ListLeads)
	leads.Get("/:id", h.Leads.GetLead)
	leads.Patch("/:id/status", h.Leads.UpdateLeadStatus)
	leads.Post("/:id/analysis", h.Analysis.AnalyzeLead)
	leads.Get("/:id/analysis", h.Analysis.GetLeadAnalysis)
	leads.Post("/:id/emails", h.Emails.SendToLead)
	leads.Get("/:id/emails", h.Emails.ListLeadEmails)

	// Email template routes
	emails := router.Group("/emails")
	emails.Get("/templates", h.Emails.ListTemplates)

	// Dashboard routes
	router.Get("/stats", h.Stats.GetDashboard)
	router.Get("/ratelimits", h.Stats.GetRateLimits)
}

// Register registers the v1 routes
func Register(app *fiber.App, h Handlers) {
	// API v1 routes
	v1Group := app.Group("/api/v1")
	SetupRoutes(v1Group, h)
}
