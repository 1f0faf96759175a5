package repos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/leadpitch/leadpitch/internal/db/models"
)

type EmailRepositoryTestSuite struct {
	DBRepositoryTestSuite
}

func TestEmailRepository(t *testing.T) {
	suite.Run(t, new(EmailRepositoryTestSuite))
}

func (s *EmailRepositoryTestSuite) TestCreateAndGetByID() {
	lead := s.createTestLead()
	email := s.createTestEmail(lead.ID)

	found, err := s.emailRepo.GetByID(s.ctx, email.ID)
	s.NoError(err)
	s.Equal(lead.ID, found.LeadID)
	s.Equal(models.EmailStatusPending, found.Status)
}

func (s *EmailRepositoryTestSuite) TestListByLeadID() {
	lead := s.createTestLead()
	other := s.createTestLead()
	s.createTestEmail(lead.ID)
	s.createTestEmail(lead.ID)
	s.createTestEmail(other.ID)

	emails, err := s.emailRepo.ListByLeadID(s.ctx, lead.ID)
	s.NoError(err)
	s.Len(emails, 2)
}

func (s *EmailRepositoryTestSuite) TestMarkSentAndFailed() {
	lead := s.createTestLead()
	sent := s.createTestEmail(lead.ID)
	failed := s.createTestEmail(lead.ID)

	s.NoError(s.emailRepo.MarkSent(s.ctx, sent.ID))
	s.NoError(s.emailRepo.MarkFailed(s.ctx, failed.ID, "mailbox unavailable"))

	found, err := s.emailRepo.GetByID(s.ctx, sent.ID)
	s.NoError(err)
	s.Equal(models.EmailStatusSent, found.Status)
	s.NotNil(found.SentAt)

	found, err = s.emailRepo.GetByID(s.ctx, failed.ID)
	s.NoError(err)
	s.Equal(models.EmailStatusFailed, found.Status)
	s.Equal("mailbox unavailable", found.BounceReason)
}

func (s *EmailRepositoryTestSuite) TestCountSentSince() {
	lead := s.createTestLead()
	sent := s.createTestEmail(lead.ID)
	s.createTestEmail(lead.ID) // stays pending

	s.NoError(s.emailRepo.MarkSent(s.ctx, sent.ID))

	count, err := s.emailRepo.CountSentSince(s.ctx, time.Now().Add(-time.Hour))
	s.NoError(err)
	s.Equal(int64(1), count)

	count, err = s.emailRepo.CountSentSince(s.ctx, time.Now().Add(time.Hour))
	s.NoError(err)
	s.Equal(int64(0), count)
}
