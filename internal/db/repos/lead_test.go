package repos

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/leadpitch/leadpitch/internal/db/models"
)

type LeadRepositoryTestSuite struct {
	DBRepositoryTestSuite
}

func TestLeadRepository(t *testing.T) {
	suite.Run(t, new(LeadRepositoryTestSuite))
}

func (s *LeadRepositoryTestSuite) TestCreate() {
	lead := s.createTestLead()
	s.NotZero(lead.ID)
	s.Equal(models.LeadStatusNew, lead.Status)
}

func (s *LeadRepositoryTestSuite) TestGetByID() {
	original := s.createTestLead()

	found, err := s.leadRepo.GetByID(s.ctx, original.ID)
	s.NoError(err)
	s.Equal(original.ID, found.ID)
	s.Equal(original.Name, found.Name)
	s.Equal(original.Email, found.Email)

	// Non-existent ID
	_, err = s.leadRepo.GetByID(s.ctx, 999999)
	s.Error(err)
}

func (s *LeadRepositoryTestSuite) TestListByJobID() {
	jobID := uuid.NewString()
	s.createTestLeadForJob(jobID)
	s.createTestLeadForJob(jobID)
	s.createTestLead() // different job

	leads, err := s.leadRepo.ListByJobID(s.ctx, jobID, nil)
	s.NoError(err)
	s.Len(leads, 2)
	for _, lead := range leads {
		s.Equal(jobID, lead.JobID)
	}
}

func (s *LeadRepositoryTestSuite) TestListByStatus() {
	lead := s.createTestLead()
	s.createTestLead()

	s.NoError(s.leadRepo.UpdateStatus(s.ctx, lead.ID, models.LeadStatusAnalyzed))

	analyzed, err := s.leadRepo.ListByStatus(s.ctx, models.LeadStatusAnalyzed, nil)
	s.NoError(err)
	s.Len(analyzed, 1)
	s.Equal(lead.ID, analyzed[0].ID)
}

func (s *LeadRepositoryTestSuite) TestListPagination() {
	jobID := uuid.NewString()
	for i := 0; i < 5; i++ {
		s.createTestLeadForJob(jobID)
	}

	page, err := s.leadRepo.ListByJobID(s.ctx, jobID, &models.ListOptions{Limit: 2})
	s.NoError(err)
	s.Len(page, 2)

	rest, err := s.leadRepo.ListByJobID(s.ctx, jobID, &models.ListOptions{Limit: 10, Offset: 4})
	s.NoError(err)
	s.Len(rest, 1)
}

func (s *LeadRepositoryTestSuite) TestMarkContacted() {
	lead := s.createTestLead()
	s.False(lead.IsContacted)

	s.NoError(s.leadRepo.MarkContacted(s.ctx, lead.ID))

	found, err := s.leadRepo.GetByID(s.ctx, lead.ID)
	s.NoError(err)
	s.True(found.IsContacted)
	s.NotNil(found.ContactedAt)
	s.Equal(models.LeadStatusEmailSent, found.Status)
}

func (s *LeadRepositoryTestSuite) TestCountByStatus() {
	lead := s.createTestLead()
	s.createTestLead()
	s.NoError(s.leadRepo.UpdateStatus(s.ctx, lead.ID, models.LeadStatusAnalyzed))

	counts, err := s.leadRepo.CountByStatus(s.ctx)
	s.NoError(err)
	s.Equal(int64(1), counts[models.LeadStatusNew])
	s.Equal(int64(1), counts[models.LeadStatusAnalyzed])
}
