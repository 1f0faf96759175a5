package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/leadpitch/leadpitch/internal/db/models"
	"github.com/leadpitch/leadpitch/internal/db/repos"
	"github.com/leadpitch/leadpitch/internal/scraper"
)

// ScrapeHandler handles HTTP requests for scrape job operations. Live
// jobs are answered from the in-memory registry; finished jobs fall back
// to the database mirror.
type ScrapeHandler struct {
	service *scraper.Service
	history *repos.ScrapeJobRepository
}

// NewScrapeHandler creates a new scrape handler instance
func NewScrapeHandler(service *scraper.Service, history *repos.ScrapeJobRepository) *ScrapeHandler {
	return &ScrapeHandler{service: service, history: history}
}

// ScrapeRequest is the submit-job request body
type ScrapeRequest struct {
	SearchTerm string `json:"search_term"`
}

// SubmitScrape handles the request to start a new scrape job
func (h *ScrapeHandler) SubmitScrape(c *fiber.Ctx) error {
	var req ScrapeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput(err.Error()))
	}
	if req.SearchTerm == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput("search_term is required"))
	}

	job, err := h.service.Submit(c.Context(), req.SearchTerm)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(err.Error()))
	}

	return c.Status(fiber.StatusAccepted).JSON(Response{
		Slug: SuccessSlug,
		Data: job,
	})
}

// GetScrapeStatus handles the request to get a scrape job's status
func (h *ScrapeHandler) GetScrapeStatus(c *fiber.Ctx) error {
	jobID := c.Params("id")
	if jobID == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput("invalid job id"))
	}

	if job, ok := h.service.Status(jobID); ok {
		return c.JSON(Response{Slug: SuccessSlug, Data: job})
	}

	if h.history != nil {
		if job, err := h.history.GetByJobID(c.Context(), jobID); err == nil {
			return c.JSON(Response{Slug: SuccessSlug, Data: job})
		}
	}

	return c.Status(fiber.StatusNotFound).
		JSON(errNotFound("unknown job id"))
}

// ListScrapeJobs handles the request to list scrape jobs
func (h *ScrapeHandler) ListScrapeJobs(c *fiber.Ctx) error {
	live := c.QueryBool("live", false)
	if live || h.history == nil {
		return c.JSON(Response{Slug: SuccessSlug, Data: h.service.List()})
	}

	opts := &models.ListOptions{
		Limit:  c.QueryInt("limit", models.DefaultListLimit),
		Offset: c.QueryInt("offset", 0),
	}

	var (
		jobs []models.ScrapeJob
		err  error
	)
	if status := c.Query("status"); status != "" {
		if _, perr := scraper.ParseStatus(status); perr != nil {
			return c.Status(fiber.StatusBadRequest).
				JSON(errInvalidInput("invalid job status"))
		}
		jobs, err = h.history.ListByStatus(c.Context(), status, opts)
	} else {
		jobs, err = h.history.List(c.Context(), opts)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(err.Error()))
	}

	return c.JSON(Response{Slug: SuccessSlug, Data: jobs})
}

// CancelScrape handles the request to cancel a running scrape job
func (h *ScrapeHandler) CancelScrape(c *fiber.Ctx) error {
	jobID := c.Params("id")
	if jobID == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput("invalid job id"))
	}

	if !h.service.Cancel(jobID) {
		return c.Status(fiber.StatusNotFound).
			JSON(errNotFound("unknown job id"))
	}

	job, _ := h.service.Status(jobID)
	return c.JSON(Response{Slug: SuccessSlug, Data: job})
}
