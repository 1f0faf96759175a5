package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/leadpitch/leadpitch/internal/db/models"
	"github.com/leadpitch/leadpitch/internal/db/repos"
	"github.com/leadpitch/leadpitch/internal/scraper"
)

func newTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_json=1"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&models.Lead{}, &models.ScrapeJob{}))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewStore(gdb), gdb
}

func TestStoreSaveLeadCleansFields(t *testing.T) {
	store, gdb := newTestStore(t)
	ctx := context.Background()

	err := store.SaveLead(ctx, "job-1", scraper.DiscoveredItem{
		Name:    "Corner Bakery",
		Phone:   "tel:+1 (415) 555-0132",
		Website: "corner-bakery.example.com",
		Email:   "mailto:Hello@Corner-Bakery.example.COM",
	})
	require.NoError(t, err)

	leads, err := repos.NewLeadRepository(gdb).ListByJobID(ctx, "job-1", nil)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "+1 (415) 555-0132", leads[0].Phone)
	assert.Equal(t, "https://corner-bakery.example.com", leads[0].Website)
	assert.Equal(t, "hello@corner-bakery.example.com", leads[0].Email)
	assert.Equal(t, models.LeadStatusNew, leads[0].Status)
}

func TestStoreSaveLeadDropsInvalidFields(t *testing.T) {
	store, gdb := newTestStore(t)
	ctx := context.Background()

	err := store.SaveLead(ctx, "job-2", scraper.DiscoveredItem{
		Name:  "Mystery Shop",
		Phone: "call us",
		Email: "not-an-email",
	})
	require.NoError(t, err)

	leads, err := repos.NewLeadRepository(gdb).ListByJobID(ctx, "job-2", nil)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Empty(t, leads[0].Phone)
	assert.Empty(t, leads[0].Email)
}

func TestStoreUpdateJobMirrors(t *testing.T) {
	store, gdb := newTestStore(t)
	ctx := context.Background()

	started := time.Now()
	job := scraper.Job{
		ID:                   "job-3",
		SearchTerm:           "plumbers in austin",
		Status:               scraper.StatusRunning,
		ItemsDiscovered:      20,
		ItemsProcessed:       5,
		ItemsWithContactInfo: 3,
		Message:              "extracting details",
		StartedAt:            &started,
	}
	require.NoError(t, store.UpdateJob(ctx, job))

	// A second mirror of the same job updates in place.
	job.Status = scraper.StatusCompleted
	job.ItemsProcessed = 20
	finished := time.Now()
	job.FinishedAt = &finished
	require.NoError(t, store.UpdateJob(ctx, job))

	jobRepo := repos.NewScrapeJobRepository(gdb)
	found, err := jobRepo.GetByJobID(ctx, "job-3")
	require.NoError(t, err)
	assert.Equal(t, string(scraper.StatusCompleted), found.Status)
	assert.Equal(t, 20, found.ItemsProcessed)
	assert.NotNil(t, found.CompletedAt)

	all, err := jobRepo.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
