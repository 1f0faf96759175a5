package scraper

import (
	"context"
	"time"
)

// Driver operates one browser session against one search listing page.
// The session is exclusively owned by one job for its lifetime and must be
// torn down on every exit path.
type Driver interface {
	// Open navigates to the listing page for the search term, waits for
	// it to settle and dismisses any consent overlay (best effort).
	Open(ctx context.Context, searchTerm string) error
	// ScrollUntilStable drives the infinite-scroll loop until the
	// termination heuristic fires and returns the final item count.
	ScrollUntilStable(ctx context.Context, cfg ScrollConfig) (int, error)
	// ExtractItem opens the detail view for the item at index and pulls
	// its fields. Per-field failures yield empty fields, not errors.
	ExtractItem(ctx context.Context, index int) (DiscoveredItem, error)
	// Close releases the browser session. Safe to call more than once.
	Close() error
}

// DriverFactory builds a fresh driver for one job's session.
type DriverFactory func(ctx context.Context) (Driver, error)

// ScrollConfig tunes the scroll-until-stable termination heuristic. The
// listing page exposes no total count and no end-of-results marker, so
// the absence of new results for a sustained run is the only terminus.
// Thresholds are configuration, not contract.
type ScrollConfig struct {
	// MaxIterations is the hard safety ceiling, enforced regardless of
	// the other signals.
	MaxIterations int
	// MaxStableRepeats terminates when the count is unchanged for this
	// many iterations with no loading indicator active (secondary,
	// conservative signal).
	MaxStableRepeats int
	// MaxStaleResultRepeats terminates after this many consecutive
	// iterations with no new items (primary signal: reached the end).
	MaxStaleResultRepeats int
	// SettleDelay is the pause after each scroll action.
	SettleDelay time.Duration
	// SpinnerTimeout bounds the wait for a visible loading indicator to
	// clear.
	SpinnerTimeout time.Duration

	// Cancelled is polled before each iteration; the loop exits
	// immediately when it reports true. Optional.
	Cancelled func() bool
	// OnIteration reports per-iteration progress. Optional.
	OnIteration func(iteration, count int)
}

func (c ScrollConfig) withDefaults() ScrollConfig {
	if c.MaxIterations <= 0 {
		c.MaxIterations = 100
	}
	if c.MaxStableRepeats <= 0 {
		c.MaxStableRepeats = 8
	}
	if c.MaxStaleResultRepeats <= 0 {
		c.MaxStaleResultRepeats = 10
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 2500 * time.Millisecond
	}
	if c.SpinnerTimeout <= 0 {
		c.SpinnerTimeout = 10 * time.Second
	}
	return c
}

// listingPage is the minimal surface the scroll heuristic needs from a
// live page. The chromedp driver implements it; tests supply fakes.
type listingPage interface {
	CountItems(ctx context.Context) (int, error)
	LoadingIndicatorVisible(ctx context.Context) (bool, error)
	WaitIndicatorCleared(ctx context.Context, timeout time.Duration) error
	Scroll(ctx context.Context) error
}

// scrollUntilStable runs the termination heuristic against a page.
func scrollUntilStable(ctx context.Context, page listingPage, cfg ScrollConfig) (int, error) {
	cfg = cfg.withDefaults()

	previousCount := -1
	staleRepeats := 0
	stableRepeats := 0
	count := 0

	for iteration := 0; iteration < cfg.MaxIterations; iteration++ {
		if cfg.Cancelled != nil && cfg.Cancelled() {
			return count, nil
		}
		if err := ctx.Err(); err != nil {
			return count, err
		}

		var err error
		count, err = page.CountItems(ctx)
		if err != nil {
			return count, err
		}
		if cfg.OnIteration != nil {
			cfg.OnIteration(iteration+1, count)
		}

		loading, err := page.LoadingIndicatorVisible(ctx)
		if err != nil {
			loading = false
		}
		if loading {
			// Bounded wait; a stuck spinner must not stall the loop.
			_ = page.WaitIndicatorCleared(ctx, cfg.SpinnerTimeout)
		}

		if count == previousCount {
			staleRepeats++
			stableRepeats++
		} else {
			staleRepeats = 0
			stableRepeats = 0
		}

		// Primary signal: no new items for a sustained run.
		if staleRepeats >= cfg.MaxStaleResultRepeats {
			return count, nil
		}
		// Secondary signal: unchanged count with no loading activity.
		if stableRepeats >= cfg.MaxStableRepeats && !loading {
			return count, nil
		}

		previousCount = count

		if err := page.Scroll(ctx); err != nil {
			return count, err
		}

		select {
		case <-ctx.Done():
			return count, ctx.Err()
		case <-time.After(cfg.SettleDelay):
		}
	}

	// Hard ceiling reached; return whatever loaded.
	return count, nil
}
