package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/leadpitch/leadpitch/internal/db/repos"
	"github.com/leadpitch/leadpitch/internal/logger"
	"github.com/leadpitch/leadpitch/internal/mailer"
)

// EmailHandler handles HTTP requests for outreach email operations
type EmailHandler struct {
	mailer *mailer.Mailer
	leads  *repos.LeadRepository
	emails *repos.EmailRepository
}

// NewEmailHandler creates a new email handler instance
func NewEmailHandler(m *mailer.Mailer, leads *repos.LeadRepository, emails *repos.EmailRepository) *EmailHandler {
	return &EmailHandler{mailer: m, leads: leads, emails: emails}
}

// SendEmailRequest is the send-outreach request body
type SendEmailRequest struct {
	Template    string `json:"template"`
	ContactName string `json:"contact_name"`
}

// SendToLead handles the request to send an outreach email to a lead
func (h *EmailHandler) SendToLead(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput("invalid lead id"))
	}

	var req SendEmailRequest
	if err := c.BodyParser(&req); err != nil && !errors.Is(err, fiber.ErrUnprocessableEntity) {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput(err.Error()))
	}
	if req.Template == "" {
		req.Template = mailer.TemplateGeneralOutreach
	}

	lead, err := h.leads.GetByID(c.Context(), uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).
			JSON(errNotFound("lead not found"))
	}

	record, err := h.mailer.SendToLead(c.Context(), lead, req.Template, mailer.TemplateData{
		ContactName: req.ContactName,
	})
	switch {
	case errors.Is(err, mailer.ErrDailyLimitReached):
		return c.Status(fiber.StatusTooManyRequests).
			JSON(errServer(err.Error()))
	case err != nil:
		return c.Status(fiber.StatusBadGateway).
			JSON(errServer(err.Error()))
	}

	if err := h.leads.MarkContacted(c.Context(), lead.ID); err != nil {
		logger.Warnf("failed to mark lead %d contacted: %v", lead.ID, err)
	}

	return c.Status(fiber.StatusCreated).
		JSON(Response{Slug: SuccessSlug, Data: record})
}

// ListLeadEmails handles the request to list a lead's outreach history
func (h *EmailHandler) ListLeadEmails(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput("invalid lead id"))
	}

	emails, err := h.emails.ListByLeadID(c.Context(), uint(id))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(err.Error()))
	}

	return c.JSON(Response{Slug: SuccessSlug, Data: emails})
}

// ListTemplates handles the request to list available outreach templates
func (h *EmailHandler) ListTemplates(c *fiber.Ctx) error {
	return c.JSON(Response{Slug: SuccessSlug, Data: mailer.TemplateNames()})
}
