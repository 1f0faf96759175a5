// Package app assembles the API server: database, rate limiter registry,
// identity rotator, scraping engine, analyzers, mailer and HTTP routes.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/leadpitch/leadpitch/config"
	"github.com/leadpitch/leadpitch/internal/analyzer"
	"github.com/leadpitch/leadpitch/internal/api/v1/handlers"
	"github.com/leadpitch/leadpitch/internal/api/v1/middleware"
	v1 "github.com/leadpitch/leadpitch/internal/api/v1/routes"
	"github.com/leadpitch/leadpitch/internal/db"
	"github.com/leadpitch/leadpitch/internal/db/repos"
	"github.com/leadpitch/leadpitch/internal/events"
	"github.com/leadpitch/leadpitch/internal/identity"
	"github.com/leadpitch/leadpitch/internal/logger"
	"github.com/leadpitch/leadpitch/internal/mailer"
	"github.com/leadpitch/leadpitch/internal/ratelimit"
	"github.com/leadpitch/leadpitch/internal/scraper"
)

// App is the assembled server with its collaborators.
type App struct {
	Fiber   *fiber.App
	Service *scraper.Service
	Limits  *ratelimit.Registry
}

// New builds the full server. Connects to the database and runs
// migrations before wiring the routes.
func New() (*App, error) {
	database, err := db.New(db.OptionsFromEnv())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Migrate(database); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	limits := ratelimit.NewRegistry()
	rotator := identity.NewRotator(identity.Options{})
	store := db.NewStore(database)

	driverCfg := scraper.DriverConfig{
		Headless: config.GetEnvBool("SCRAPER_HEADLESS", true),
	}
	newDriver := func(ctx context.Context) (scraper.Driver, error) {
		lease := rotator.NextLease(ctx)
		return scraper.NewChromeDriver(driverCfg, lease), nil
	}

	registry := scraper.NewRegistry()
	engine := scraper.NewEngine(registry, limits, store, newDriver, scraper.ScrollConfig{})
	service := scraper.NewService(registry, engine)

	bus := events.NewBus()
	bus.Subscribe(events.EventLeadDiscovered, func(_ context.Context, e events.Event) error {
		logger.WithJob(e.JobID).Infof("lead discovered: %s", e.Item.Name)
		return nil
	})
	bus.Start(context.Background())
	engine.SetEventObserver(bus.ObserveJob)

	leadRepo := repos.NewLeadRepository(database)
	jobRepo := repos.NewScrapeJobRepository(database)
	emailRepo := repos.NewEmailRepository(database)
	analysisRepo := repos.NewAnalysisRepository(database)

	auditor := analyzer.NewAuditor(&http.Client{Timeout: 30 * time.Second}, limits)
	llm := analyzer.NewLLMClient(analyzer.LLMConfigFromEnv(), limits)
	outbox := mailer.New(mailer.ConfigFromEnv(), limits, emailRepo)

	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})
	fiberApp.Use(middleware.Logger())

	// Health check
	fiberApp.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	// API v1 routes
	v1.Register(fiberApp, v1.Handlers{
		Scrape:   handlers.NewScrapeHandler(service, jobRepo),
		Leads:    handlers.NewLeadHandler(leadRepo),
		Analysis: handlers.NewAnalysisHandler(auditor, llm, leadRepo, analysisRepo),
		Emails:   handlers.NewEmailHandler(outbox, leadRepo, emailRepo),
		Stats:    handlers.NewStatsHandler(leadRepo, registry, limits),
	})

	return &App{Fiber: fiberApp, Service: service, Limits: limits}, nil
}

// Listen serves until the listener fails.
func (a *App) Listen() error {
	addr := ":" + config.GetEnv("PORT", "8080")
	return a.Fiber.Listen(addr)
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
