package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/leadpitch/leadpitch/internal/logger"
	"github.com/leadpitch/leadpitch/internal/ratelimit"
)

// Persistence is the durable collaborator the engine streams results to.
// Any error from it is non-fatal to the scraping loop: losing a single
// write must not abort an in-progress job.
type Persistence interface {
	SaveLead(ctx context.Context, jobID string, item DiscoveredItem) error
	UpdateJob(ctx context.Context, job Job) error
}

// Engine owns the lifecycle of scrape jobs: phase transitions, progress
// counters, cancellation checks and the ordered progress-event stream.
// One Run per job, each on its own goroutine with its own driver session.
type Engine struct {
	registry  *Registry
	limits    *ratelimit.Registry
	store     Persistence
	newDriver DriverFactory
	scroll    ScrollConfig

	// onEvent observes the per-job event stream after it has been folded
	// into the registry. Optional; invoked in order for a given job.
	onEvent func(jobID string, ev ProgressEvent)
}

// NewEngine wires an engine. store may be nil (results are then only
// observable through the registry), which the tests use.
func NewEngine(registry *Registry, limits *ratelimit.Registry, store Persistence, newDriver DriverFactory, scroll ScrollConfig) *Engine {
	return &Engine{
		registry:  registry,
		limits:    limits,
		store:     store,
		newDriver: newDriver,
		scroll:    scroll,
	}
}

// SetEventObserver installs an observer for progress events.
func (e *Engine) SetEventObserver(fn func(jobID string, ev ProgressEvent)) {
	e.onEvent = fn
}

// Run executes one job to a terminal state. It is the only mutator of the
// job's fields for its whole lifetime.
func (e *Engine) Run(ctx context.Context, jobID string) error {
	job, ok := e.registry.Get(jobID)
	if !ok {
		return fmt.Errorf("unknown job: %s", jobID)
	}
	log := logger.WithJob(jobID)

	e.registry.markRunning(jobID)
	e.persistJob(ctx, jobID)

	// Session acquisition is gated by the shared scraping channel.
	_ = e.limits.Await(ctx, ratelimit.ChannelScraping)

	driver, err := e.newDriver(ctx)
	if err != nil {
		e.limits.RecordRequest(ratelimit.ChannelScraping, false)
		return e.fail(ctx, jobID, fmt.Errorf("failed to start browser session: %w", err))
	}
	defer func() {
		if cerr := driver.Close(); cerr != nil {
			log.Warnf("driver close: %v", cerr)
		}
	}()

	e.emit(jobID, ProgressEvent{
		Phase:   PhaseNavigating,
		Message: fmt.Sprintf("Navigating to listing page for %q", job.SearchTerm),
	})

	if err := driver.Open(ctx, job.SearchTerm); err != nil {
		e.limits.RecordRequest(ratelimit.ChannelScraping, false)
		return e.fail(ctx, jobID, err)
	}
	e.limits.RecordRequest(ratelimit.ChannelScraping, true)

	discovered, err := e.discover(ctx, jobID, driver)
	if err != nil {
		return e.fail(ctx, jobID, err)
	}
	if e.registry.IsCancelled(jobID) {
		return e.cancel(ctx, jobID)
	}

	if err := e.extract(ctx, jobID, driver, discovered); err != nil {
		return e.fail(ctx, jobID, err)
	}
	if e.registry.IsCancelled(jobID) {
		return e.cancel(ctx, jobID)
	}

	final, _ := e.registry.Get(jobID)
	e.registry.finish(jobID, StatusCompleted, "", fmt.Sprintf(
		"Completed: %d listings, %d with contact info%s",
		final.ItemsDiscovered, final.ItemsWithContactInfo, phaseSummary(final)))
	e.persistJob(ctx, jobID)
	log.Infof("job completed: %d/%d items with contact info",
		final.ItemsWithContactInfo, final.ItemsDiscovered)
	return nil
}

// discover runs the scroll loop, streaming an event per iteration.
func (e *Engine) discover(ctx context.Context, jobID string, driver Driver) (int, error) {
	cfg := e.scroll
	cfg.Cancelled = func() bool { return e.registry.IsCancelled(jobID) }
	cfg.OnIteration = func(iteration, count int) {
		e.emit(jobID, ProgressEvent{
			Phase:      PhaseDiscovering,
			Discovered: count,
			Message:    fmt.Sprintf("Scroll %d: found %d listings", iteration, count),
		})
	}
	return driver.ScrollUntilStable(ctx, cfg)
}

// extract walks the discovered items, checking for cancellation before
// each one. Per-item extraction trouble is logged and skipped; only a
// dead session or context aborts the loop.
func (e *Engine) extract(ctx context.Context, jobID string, driver Driver, discovered int) error {
	log := logger.WithJob(jobID)

	e.emit(jobID, ProgressEvent{
		Phase:      PhaseExtracting,
		Discovered: discovered,
		Message:    fmt.Sprintf("Starting to extract data from %d listings", discovered),
	})

	processed := 0
	withContact := 0
	for index := 0; index < discovered; index++ {
		if e.registry.IsCancelled(jobID) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		item, err := driver.ExtractItem(ctx, index)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			log.Warnf("extraction error on item %d: %v", index+1, err)
		}
		processed++

		snapshot, _ := e.registry.Get(jobID)
		if item.HasContactChannel() {
			withContact++
			e.emit(jobID, ProgressEvent{
				Phase:       PhaseExtracting,
				Processed:   processed,
				Discovered:  discovered,
				WithContact: withContact,
				Message:     fmt.Sprintf("Found lead: %s%s", item.Name, phaseSummary(snapshot)),
				Item:        &item,
			})
			if e.store != nil {
				if err := e.store.SaveLead(ctx, jobID, item); err != nil {
					// Non-fatal: the loop keeps going.
					log.Errorf("failed to persist lead %q: %v", item.Name, err)
				}
			}
		} else {
			e.emit(jobID, ProgressEvent{
				Phase:       PhaseExtracting,
				Processed:   processed,
				Discovered:  discovered,
				WithContact: withContact,
				Message:     fmt.Sprintf("Processed %d/%d listings%s", processed, discovered, phaseSummary(snapshot)),
			})
		}
	}
	return nil
}

// emit folds the event into the registry, then forwards it. Invocations
// for one job are strictly ordered: Run drives them from one goroutine.
func (e *Engine) emit(jobID string, ev ProgressEvent) {
	e.registry.apply(jobID, ev)
	if e.onEvent != nil {
		e.onEvent(jobID, ev)
	}
}

func (e *Engine) fail(ctx context.Context, jobID string, cause error) error {
	// Items already reported and persisted stand; only the job record
	// transitions.
	e.registry.finish(jobID, StatusFailed, cause.Error(), "Job failed: "+cause.Error())
	e.persistJob(ctx, jobID)
	logger.WithJob(jobID).Errorf("job failed: %v", cause)
	return cause
}

func (e *Engine) cancel(ctx context.Context, jobID string) error {
	e.registry.finish(jobID, StatusCancelled, "", "Job cancelled")
	e.persistJob(ctx, jobID)
	logger.WithJob(jobID).Info("job cancelled")
	return nil
}

func (e *Engine) persistJob(ctx context.Context, jobID string) {
	if e.store == nil {
		return
	}
	job, ok := e.registry.Get(jobID)
	if !ok {
		return
	}
	if err := e.store.UpdateJob(ctx, job); err != nil {
		logger.WithJob(jobID).Warnf("failed to mirror job state: %v", err)
	}
}

// phaseSummary renders the derived phase timings for progress messages,
// e.g. " (discovery 12s, extraction 8s)".
func phaseSummary(job Job) string {
	if job.ListingsLoadedAt == nil || job.StartedAt == nil {
		return ""
	}
	discovery := job.ListingsLoadedAt.Sub(*job.StartedAt).Round(time.Second)
	if job.ExtractionStartedAt == nil {
		return fmt.Sprintf(" (discovery %s)", discovery)
	}
	extraction := time.Since(*job.ExtractionStartedAt).Round(time.Second)
	return fmt.Sprintf(" (discovery %s, extraction %s)", discovery, extraction)
}
