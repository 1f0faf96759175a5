package repos

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/leadpitch/leadpitch/internal/db/models"
)

// DBRepositoryTestSuite provides a base test suite for repository tests
type DBRepositoryTestSuite struct {
	suite.Suite
	db           *gorm.DB
	ctx          context.Context
	leadRepo     *LeadRepository
	jobRepo      *ScrapeJobRepository
	emailRepo    *EmailRepository
	analysisRepo *AnalysisRepository
}

func (s *DBRepositoryTestSuite) SetupTest() {
	// Create new in-memory database with JSON support
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_json=1"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err, "Failed to create in-memory database")

	// Run migrations
	err = db.AutoMigrate(
		&models.Lead{},
		&models.ScrapeJob{},
		&models.EmailCampaign{},
		&models.WebsiteAnalysis{},
	)
	require.NoError(s.T(), err, "Failed to run database migrations")

	// Initialize repositories
	s.db = db
	s.leadRepo = NewLeadRepository(s.db)
	s.jobRepo = NewScrapeJobRepository(s.db)
	s.emailRepo = NewEmailRepository(s.db)
	s.analysisRepo = NewAnalysisRepository(s.db)
	s.ctx = context.Background()
}

func (s *DBRepositoryTestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	if err == nil && sqlDB != nil {
		_ = sqlDB.Close()
	}
}

// Helper methods for creating test data

func (s *DBRepositoryTestSuite) createTestLead() *models.Lead {
	return s.createTestLeadForJob(uuid.NewString())
}

func (s *DBRepositoryTestSuite) createTestLeadForJob(jobID string) *models.Lead {
	lead := &models.Lead{
		JobID:        jobID,
		Name:         fmt.Sprintf("Corner Bakery %s", uuid.NewString()[:8]),
		Phone:        "+1 (415) 555-0132",
		Website:      "https://corner-bakery.example.com",
		Email:        "hello@corner-bakery.example.com",
		Location:     "San Francisco, CA",
		BusinessType: "bakery",
		Status:       models.LeadStatusNew,
		ScrapedAt:    time.Now(),
	}
	err := s.leadRepo.Create(s.ctx, lead)
	s.Require().NoError(err)
	return lead
}

func (s *DBRepositoryTestSuite) createTestScrapeJob() *models.ScrapeJob {
	job := &models.ScrapeJob{
		JobID:      uuid.NewString(),
		SearchTerm: "bakeries in san francisco",
		Status:     "pending",
	}
	err := s.jobRepo.Create(s.ctx, job)
	s.Require().NoError(err)
	return job
}

func (s *DBRepositoryTestSuite) createTestEmail(leadID uint) *models.EmailCampaign {
	email := &models.EmailCampaign{
		LeadID:       leadID,
		Recipient:    "hello@corner-bakery.example.com",
		Subject:      "Quick idea for your website",
		Body:         "Hi there",
		Status:       models.EmailStatusPending,
		TemplateUsed: "default",
	}
	err := s.emailRepo.Create(s.ctx, email)
	s.Require().NoError(err)
	return email
}

// TestDBRepository runs the test suite for the DBRepository to verify no panic
func TestDBRepository(t *testing.T) {
	suite.Run(t, new(DBRepositoryTestSuite))
}
