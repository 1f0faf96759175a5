package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/leadpitch/leadpitch/internal/identity"
	"github.com/leadpitch/leadpitch/internal/logger"
)

const searchBaseURL = "https://www.google.com/maps/search/"

// DriverConfig holds the browser-session settings for the chromedp driver.
type DriverConfig struct {
	Headless    bool
	NavTimeout  time.Duration
	ItemSettle  time.Duration
	DetailWait  time.Duration
	ConsentWait time.Duration
}

func (c DriverConfig) withDefaults() DriverConfig {
	if c.NavTimeout <= 0 {
		c.NavTimeout = 2 * time.Minute
	}
	if c.ItemSettle <= 0 {
		c.ItemSettle = 2500 * time.Millisecond
	}
	if c.DetailWait <= 0 {
		c.DetailWait = 2 * time.Second
	}
	if c.ConsentWait <= 0 {
		c.ConsentWait = 3 * time.Second
	}
	return c
}

// ChromeDriver drives a headless Chrome session against the maps listing
// page. One driver per job; never shared or pooled.
type ChromeDriver struct {
	cfg   DriverConfig
	lease identity.Lease

	browserCtx  context.Context
	allocCancel context.CancelFunc
	tabCancel   context.CancelFunc
	closed      bool
}

// NewChromeDriver allocates a browser process configured with the given
// identity lease. The session is not navigated until Open.
func NewChromeDriver(cfg DriverConfig, lease identity.Lease) *ChromeDriver {
	cfg = cfg.withDefaults()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if lease.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(lease.UserAgent))
	}
	if lease.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(lease.Proxy))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	return &ChromeDriver{
		cfg:         cfg,
		lease:       lease,
		browserCtx:  tabCtx,
		allocCancel: allocCancel,
		tabCancel:   tabCancel,
	}
}

// Open navigates to the search listing, waits for the results feed and
// dismisses the consent overlay if one appears.
func (d *ChromeDriver) Open(ctx context.Context, searchTerm string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	searchURL := searchBaseURL + url.QueryEscape(searchTerm)
	logger.WithComponent("scraper").Infof("navigating to %s", searchURL)

	navCtx, cancel := context.WithTimeout(d.browserCtx, d.cfg.NavTimeout)
	defer cancel()

	tasks := chromedp.Tasks{
		chromedp.Navigate(searchURL),
		chromedp.Sleep(d.cfg.ConsentWait),
		chromedp.ActionFunc(func(ctx context.Context) error {
			// Consent dismissal is best effort; a missing overlay is fine.
			return chromedp.Evaluate(consentScript, nil).Do(ctx)
		}),
		chromedp.WaitVisible(`div[role="feed"]`, chromedp.ByQuery),
	}
	if err := chromedp.Run(navCtx, tasks); err != nil {
		return fmt.Errorf("failed to open listing for %q: %w", searchTerm, err)
	}
	return nil
}

// ScrollUntilStable implements the Driver contract on the live page.
func (d *ChromeDriver) ScrollUntilStable(ctx context.Context, cfg ScrollConfig) (int, error) {
	return scrollUntilStable(ctx, (*chromePage)(d), cfg)
}

// ExtractItem clicks the card at index, waits for the detail panel and
// pulls the contact fields through the ordered fallback chains baked into
// the extraction script. A wholly unextractable item comes back with all
// fields empty.
func (d *ChromeDriver) ExtractItem(ctx context.Context, index int) (DiscoveredItem, error) {
	if err := ctx.Err(); err != nil {
		return DiscoveredItem{}, err
	}

	stepCtx, cancel := context.WithTimeout(d.browserCtx, d.cfg.NavTimeout)
	defer cancel()

	var clicked bool
	if err := chromedp.Run(stepCtx,
		chromedp.Evaluate(fmt.Sprintf(clickItemScript, index), &clicked),
		chromedp.Sleep(d.cfg.ItemSettle),
	); err != nil {
		return DiscoveredItem{}, fmt.Errorf("failed to select item %d: %w", index, err)
	}
	if !clicked {
		return DiscoveredItem{}, nil
	}

	var item DiscoveredItem
	if err := chromedp.Run(stepCtx,
		chromedp.Sleep(d.cfg.DetailWait),
		chromedp.Evaluate(extractDetailScript, &item),
	); err != nil {
		// Extraction failures are not fatal per item; the caller sees an
		// empty record and counts it as "no contact channel".
		logger.WithComponent("scraper").Warnf("detail extraction failed for item %d: %v", index, err)
		return DiscoveredItem{}, nil
	}

	item.Name = strings.TrimSpace(item.Name)
	item.Phone = cleanPhoneField(item.Phone)
	item.Website = strings.TrimSpace(item.Website)
	item.Email = strings.TrimSpace(strings.TrimPrefix(item.Email, "mailto:"))
	return item, nil
}

// Close tears the session down. Deferred on every engine exit path.
func (d *ChromeDriver) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.tabCancel()
	d.allocCancel()
	return nil
}

func cleanPhoneField(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "tel:")
	if raw == "phone number" {
		return ""
	}
	return raw
}

// chromePage adapts the driver to the scroll heuristic's page surface.
type chromePage ChromeDriver

func (p *chromePage) CountItems(ctx context.Context) (int, error) {
	stepCtx, cancel := context.WithTimeout(p.browserCtx, 15*time.Second)
	defer cancel()
	var count int
	err := chromedp.Run(stepCtx, chromedp.Evaluate(countItemsScript, &count))
	return count, err
}

func (p *chromePage) LoadingIndicatorVisible(ctx context.Context) (bool, error) {
	stepCtx, cancel := context.WithTimeout(p.browserCtx, 15*time.Second)
	defer cancel()
	var visible bool
	err := chromedp.Run(stepCtx, chromedp.Evaluate(spinnerVisibleScript, &visible))
	return visible, err
}

func (p *chromePage) WaitIndicatorCleared(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		visible, err := p.LoadingIndicatorVisible(ctx)
		if err != nil || !visible {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return nil
}

func (p *chromePage) Scroll(ctx context.Context) error {
	stepCtx, cancel := context.WithTimeout(p.browserCtx, 15*time.Second)
	defer cancel()
	return chromedp.Run(stepCtx, chromedp.Evaluate(scrollFeedScript, nil))
}
