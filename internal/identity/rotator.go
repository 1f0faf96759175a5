// Package identity supplies the proxy and user-agent rotation layer that
// feeds the browser and HTTP clients.
package identity

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/leadpitch/leadpitch/internal/logger"
)

// Default rotation parameters.
const (
	// DefaultRefreshInterval gates how often the proxy list is re-fetched.
	DefaultRefreshInterval = time.Hour
	// DefaultProbeTimeout bounds a single proxy liveness check.
	DefaultProbeTimeout = 10 * time.Second
	// DefaultSampleSize is how many candidates are probed per draw.
	DefaultSampleSize = 10
	// DefaultProbeURL is the known-good endpoint used for liveness checks.
	DefaultProbeURL = "http://httpbin.org/ip"
)

// DefaultSourceURLs are public proxy list sources, one proxy per line.
var DefaultSourceURLs = []string{
	"https://raw.githubusercontent.com/TheSpeedX/PROXY-List/master/http.txt",
	"https://raw.githubusercontent.com/clarketm/proxy-list/master/proxy-list-raw.txt",
	"https://raw.githubusercontent.com/sunny9577/proxy-scraper/master/proxies.txt",
}

// Lease is a proxy plus user-agent pairing valid for the lifetime of one
// browser session. Proxy may be empty when no working proxy was found.
type Lease struct {
	Proxy     string
	UserAgent string
	Headers   map[string]string
}

// Options configures a Rotator.
type Options struct {
	SourceURLs      []string
	ProbeURL        string
	RefreshInterval time.Duration
	ProbeTimeout    time.Duration
	SampleSize      int
}

// Rotator draws identity leases. The proxy-candidate list is read-shared
// across jobs and refreshed under a time gate; stale reads between
// refreshes are tolerated.
type Rotator struct {
	opts Options

	mu          sync.Mutex
	proxies     []string
	lastRefresh time.Time

	httpClient *http.Client

	// probe is swappable for tests.
	probe func(ctx context.Context, proxy string) bool
}

// NewRotator creates a rotator with defaults filled in.
func NewRotator(opts Options) *Rotator {
	if len(opts.SourceURLs) == 0 {
		opts.SourceURLs = DefaultSourceURLs
	}
	if opts.ProbeURL == "" {
		opts.ProbeURL = DefaultProbeURL
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	if opts.SampleSize <= 0 {
		opts.SampleSize = DefaultSampleSize
	}
	r := &Rotator{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.ProbeTimeout},
	}
	r.probe = r.probeProxy
	return r
}

var userAgents = []string{
	// Chrome
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	// Firefox
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
	// Safari
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	// Edge
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
	// Mobile
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Linux; Android 14; SM-G991B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
}

// NextUserAgent returns a uniform random pick from the fixed pool.
func (r *Rotator) NextUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// StealthHeaders returns a browser-like header set with a rotated UA.
func (r *Rotator) StealthHeaders() map[string]string {
	return map[string]string{
		"User-Agent":                r.NextUserAgent(),
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.5",
		"Accept-Encoding":           "gzip, deflate",
		"DNT":                       "1",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "none",
		"Cache-Control":             "max-age=0",
	}
}

// NextLease draws a fresh lease for one browser session. The proxy is
// best effort; the lease is still usable when none was found.
func (r *Rotator) NextLease(ctx context.Context) Lease {
	proxy, _ := r.NextWorkingProxy(ctx)
	return Lease{
		Proxy:     proxy,
		UserAgent: r.NextUserAgent(),
		Headers:   r.StealthHeaders(),
	}
}

// NextWorkingProxy samples a bounded number of candidates from the proxy
// list, probes each against the liveness endpoint and returns the first
// responder. The second return is false when no sampled candidate works;
// callers must proceed proxy-less rather than block.
func (r *Rotator) NextWorkingProxy(ctx context.Context) (string, bool) {
	candidates := r.sampleCandidates(ctx)
	for _, proxy := range candidates {
		if ctx.Err() != nil {
			return "", false
		}
		if r.probe(ctx, proxy) {
			logger.WithComponent("identity").Infof("found working proxy: %s", proxy)
			return proxy, true
		}
	}
	if len(candidates) > 0 {
		logger.WithComponent("identity").Warn("no working proxies found")
	}
	return "", false
}

func (r *Rotator) sampleCandidates(ctx context.Context) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if time.Since(r.lastRefresh) >= r.opts.RefreshInterval {
		r.refreshLocked(ctx)
	}
	if len(r.proxies) == 0 {
		return nil
	}

	n := r.opts.SampleSize
	if n > len(r.proxies) {
		n = len(r.proxies)
	}
	picked := rand.Perm(len(r.proxies))[:n]
	sample := make([]string, 0, n)
	for _, i := range picked {
		sample = append(sample, r.proxies[i])
	}
	return sample
}

// refreshLocked re-fetches the proxy list. Best effort: a failed refresh
// leaves the previous list (possibly empty) in place.
func (r *Rotator) refreshLocked(ctx context.Context) {
	r.lastRefresh = time.Now()

	var all []string
	for _, source := range r.opts.SourceURLs {
		proxies, err := r.fetchSource(ctx, source)
		if err != nil {
			logger.WithComponent("identity").
				Warnf("failed to load proxies from %s: %v", source, err)
			continue
		}
		all = append(all, proxies...)
	}
	if len(all) == 0 {
		return
	}

	r.proxies = all
	logger.WithComponent("identity").Infof("loaded %d proxy candidates", len(all))
}

func (r *Rotator) fetchSource(ctx context.Context, source string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var proxies []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if p, ok := normalizeProxy(line); ok {
			proxies = append(proxies, p)
		}
	}
	return proxies, scanner.Err()
}

// normalizeProxy accepts host:port lines and returns an http URL.
func normalizeProxy(line string) (string, bool) {
	parts := strings.Split(line, ":")
	if len(parts) != 2 {
		return "", false
	}
	for _, c := range parts[1] {
		if c < '0' || c > '9' {
			return "", false
		}
	}
	return "http://" + line, true
}

func (r *Rotator) probeProxy(ctx context.Context, proxy string) bool {
	proxyURL, err := url.Parse(proxy)
	if err != nil {
		return false
	}

	client := &http.Client{
		Timeout:   r.opts.ProbeTimeout,
		Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.opts.ProbeURL, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}
