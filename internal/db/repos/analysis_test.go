package repos

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/leadpitch/leadpitch/internal/db/models"
)

type AnalysisRepositoryTestSuite struct {
	DBRepositoryTestSuite
}

func TestAnalysisRepository(t *testing.T) {
	suite.Run(t, new(AnalysisRepositoryTestSuite))
}

func (s *AnalysisRepositoryTestSuite) createTestAnalysis(leadID uint, seoScore int) *models.WebsiteAnalysis {
	issues, err := json.Marshal([]string{"missing meta description"})
	s.Require().NoError(err)

	analysis := &models.WebsiteAnalysis{
		LeadID:             leadID,
		SEOScore:           seoScore,
		PerformanceScore:   70,
		AccessibilityScore: 65,
		BestPracticesScore: 80,
		Issues:             issues,
		LLMSuggestions:     "Add a meta description to the landing page.",
		AnalyzedAt:         time.Now(),
		Duration:           3 * time.Second,
	}
	s.Require().NoError(s.analysisRepo.Create(s.ctx, analysis))
	return analysis
}

func (s *AnalysisRepositoryTestSuite) TestCreateAndGetByID() {
	lead := s.createTestLead()
	analysis := s.createTestAnalysis(lead.ID, 55)

	found, err := s.analysisRepo.GetByID(s.ctx, analysis.ID)
	s.NoError(err)
	s.Equal(lead.ID, found.LeadID)
	s.Equal(55, found.SEOScore)
	s.NotEmpty(found.Issues)
}

func (s *AnalysisRepositoryTestSuite) TestLatestByLeadID() {
	lead := s.createTestLead()
	s.createTestAnalysis(lead.ID, 40)
	latest := s.createTestAnalysis(lead.ID, 60)

	found, err := s.analysisRepo.LatestByLeadID(s.ctx, lead.ID)
	s.NoError(err)
	s.Equal(latest.ID, found.ID)
	s.Equal(60, found.SEOScore)

	// No analysis yet for another lead
	other := s.createTestLead()
	_, err = s.analysisRepo.LatestByLeadID(s.ctx, other.ID)
	s.Error(err)
}

func (s *AnalysisRepositoryTestSuite) TestListByLeadID() {
	lead := s.createTestLead()
	s.createTestAnalysis(lead.ID, 40)
	s.createTestAnalysis(lead.ID, 60)

	analyses, err := s.analysisRepo.ListByLeadID(s.ctx, lead.ID)
	s.NoError(err)
	s.Len(analyses, 2)
}
