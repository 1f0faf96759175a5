package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/leadpitch/leadpitch/internal/db/models"
	"github.com/leadpitch/leadpitch/internal/db/repos"
)

// LeadHandler handles HTTP requests for lead operations
type LeadHandler struct {
	leads *repos.LeadRepository
}

// NewLeadHandler creates a new lead handler instance
func NewLeadHandler(leads *repos.LeadRepository) *LeadHandler {
	return &LeadHandler{leads: leads}
}

// ListLeads handles the request to list leads
func (h *LeadHandler) ListLeads(c *fiber.Ctx) error {
	opts := &models.ListOptions{
		Limit:  c.QueryInt("limit", models.DefaultListLimit),
		Offset: c.QueryInt("offset", 0),
	}

	var (
		leads []models.Lead
		err   error
	)
	switch {
	case c.Query("job_id") != "":
		leads, err = h.leads.ListByJobID(c.Context(), c.Query("job_id"), opts)
	case c.Query("status") != "":
		status, perr := models.ParseLeadStatus(c.Query("status"))
		if perr != nil {
			return c.Status(fiber.StatusBadRequest).
				JSON(errInvalidInput("invalid lead status"))
		}
		leads, err = h.leads.ListByStatus(c.Context(), status, opts)
	default:
		leads, err = h.leads.List(c.Context(), opts)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(err.Error()))
	}

	return c.JSON(Response{Slug: SuccessSlug, Data: leads})
}

// GetLead handles the request to get one lead
func (h *LeadHandler) GetLead(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput("invalid lead id"))
	}

	lead, err := h.leads.GetByID(c.Context(), uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).
			JSON(errNotFound("lead not found"))
	}

	return c.JSON(Response{Slug: SuccessSlug, Data: lead})
}

// UpdateLeadStatusRequest is the status-update request body
type UpdateLeadStatusRequest struct {
	Status string `json:"status"`
}

// UpdateLeadStatus handles the request to move a lead through the pipeline
func (h *LeadHandler) UpdateLeadStatus(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput("invalid lead id"))
	}

	var req UpdateLeadStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput(err.Error()))
	}
	status, err := models.ParseLeadStatus(req.Status)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput(err.Error()))
	}

	if _, err := h.leads.GetByID(c.Context(), uint(id)); err != nil {
		return c.Status(fiber.StatusNotFound).
			JSON(errNotFound("lead not found"))
	}
	if err := h.leads.UpdateStatus(c.Context(), uint(id), status); err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(err.Error()))
	}

	lead, err := h.leads.GetByID(c.Context(), uint(id))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(err.Error()))
	}
	return c.JSON(Response{Slug: SuccessSlug, Data: lead})
}
