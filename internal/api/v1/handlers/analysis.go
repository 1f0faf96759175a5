package handlers

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/leadpitch/leadpitch/internal/analyzer"
	"github.com/leadpitch/leadpitch/internal/db/models"
	"github.com/leadpitch/leadpitch/internal/db/repos"
	"github.com/leadpitch/leadpitch/internal/logger"
)

// AnalysisHandler handles HTTP requests for website analysis operations
type AnalysisHandler struct {
	auditor  *analyzer.Auditor
	llm      *analyzer.LLMClient
	leads    *repos.LeadRepository
	analyses *repos.AnalysisRepository
}

// NewAnalysisHandler creates a new analysis handler instance
func NewAnalysisHandler(auditor *analyzer.Auditor, llm *analyzer.LLMClient, leads *repos.LeadRepository, analyses *repos.AnalysisRepository) *AnalysisHandler {
	return &AnalysisHandler{auditor: auditor, llm: llm, leads: leads, analyses: analyses}
}

// AnalyzeLead handles the request to audit a lead's website. The audit
// runs synchronously; LLM suggestions are best effort.
func (h *AnalysisHandler) AnalyzeLead(c *fiber.Ctx) error {
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
	if lead.Website == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput("lead has no website"))
	}

	audit, err := h.auditor.Analyze(c.Context(), lead.Website)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).
			JSON(errServer(err.Error()))
	}

	suggestions := ""
	if h.llm != nil {
		suggestions, err = h.llm.SuggestImprovements(c.Context(), audit, lead.BusinessType)
		if err != nil {
			logger.Warnf("llm suggestions for lead %d unavailable: %v", lead.ID, err)
		}
	}

	issues, err := json.Marshal(audit.Issues)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(err.Error()))
	}
	record := &models.WebsiteAnalysis{
		LeadID:             lead.ID,
		SEOScore:           audit.SEOScore,
		PerformanceScore:   audit.PerformanceScore,
		AccessibilityScore: audit.AccessibilityScore,
		BestPracticesScore: audit.BestPracticesScore,
		Issues:             issues,
		LLMSuggestions:     suggestions,
		AnalyzedAt:         time.Now(),
		Duration:           audit.Duration,
	}
	if err := h.analyses.Create(c.Context(), record); err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(err.Error()))
	}
	if lead.Status == models.LeadStatusNew {
		if err := h.leads.UpdateStatus(c.Context(), lead.ID, models.LeadStatusAnalyzed); err != nil {
			logger.Warnf("failed to mark lead %d analyzed: %v", lead.ID, err)
		}
	}

	return c.Status(fiber.StatusCreated).
		JSON(Response{Slug: SuccessSlug, Data: record})
}

// GetLeadAnalysis handles the request to get a lead's latest analysis
func (h *AnalysisHandler) GetLeadAnalysis(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput("invalid lead id"))
	}

	analysis, err := h.analyses.LatestByLeadID(c.Context(), uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).
			JSON(errNotFound("no analysis for lead"))
	}

	return c.JSON(Response{Slug: SuccessSlug, Data: analysis})
}
