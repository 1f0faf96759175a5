// Package analyzer audits lead websites and turns the findings into
// pitch material. The audit is a static HTML inspection scored per
// category; the LLM client renders the findings into suggestions.
package analyzer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/leadpitch/leadpitch/internal/logger"
	"github.com/leadpitch/leadpitch/internal/ratelimit"
	"github.com/leadpitch/leadpitch/internal/validation"
)

// maxPageBytes bounds how much of a page the auditor will read.
const maxPageBytes = 2 << 20

// heavyPageBytes is the page weight above which performance is penalized.
const heavyPageBytes = 512 * 1024

// Audit is the outcome of inspecting one website.
type Audit struct {
	URL string `json:"url"`

	SEOScore           int `json:"seo_score"`
	PerformanceScore   int `json:"performance_score"`
	AccessibilityScore int `json:"accessibility_score"`
	BestPracticesScore int `json:"best_practices_score"`

	Issues   map[string][]string `json:"issues"`
	Duration time.Duration       `json:"duration"`
}

// Auditor fetches and scores lead websites. Fetches are paced on the
// "analysis" rate channel.
type Auditor struct {
	client *http.Client
	limits *ratelimit.Registry
}

// NewAuditor creates an auditor. A nil client gets a default with a
// 30-second timeout.
func NewAuditor(client *http.Client, limits *ratelimit.Registry) *Auditor {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Auditor{client: client, limits: limits}
}

// Analyze fetches the website and scores it.
func (a *Auditor) Analyze(ctx context.Context, rawURL string) (*Audit, error) {
	url, err := validation.CleanURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid website url: %w", err)
	}

	if err := a.limits.Await(ctx, ratelimit.ChannelAnalysis); err != nil {
		return nil, err
	}

	log := logger.WithComponent("analyzer")
	log.Debugf("auditing %s", url)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		a.limits.RecordRequest(ratelimit.ChannelAnalysis, false)
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		a.limits.RecordRequest(ratelimit.ChannelAnalysis, false)
		return nil, fmt.Errorf("fetch %s returned status %d", url, resp.StatusCode)
	}
	a.limits.RecordRequest(ratelimit.ChannelAnalysis, true)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", url, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", url, err)
	}

	audit := scoreDocument(doc, resp.Request.URL.Scheme, len(body))
	audit.URL = url
	audit.Duration = time.Since(start)

	log.Debugf("audit of %s done in %s (seo=%d perf=%d)", url, audit.Duration, audit.SEOScore, audit.PerformanceScore)
	return audit, nil
}

// scoreDocument derives category scores from static page signals. Each
// category starts at 100 and loses points per finding.
func scoreDocument(doc *goquery.Document, scheme string, pageBytes int) *Audit {
	audit := &Audit{
		SEOScore:           100,
		PerformanceScore:   100,
		AccessibilityScore: 100,
		BestPracticesScore: 100,
		Issues: map[string][]string{
			"seo_issues":            {},
			"performance_issues":    {},
			"accessibility_issues":  {},
			"best_practices_issues": {},
		},
	}

	flag := func(category string, penalty int, issue string) {
		audit.Issues[category] = append(audit.Issues[category], issue)
		switch category {
		case "seo_issues":
			audit.SEOScore -= penalty
		case "performance_issues":
			audit.PerformanceScore -= penalty
		case "accessibility_issues":
			audit.AccessibilityScore -= penalty
		case "best_practices_issues":
			audit.BestPracticesScore -= penalty
		}
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	switch {
	case title == "":
		flag("seo_issues", 25, "page has no <title>")
	case len(title) > 70:
		flag("seo_issues", 10, "title is longer than 70 characters")
	}

	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); !ok || strings.TrimSpace(desc) == "" {
		flag("seo_issues", 20, "missing meta description")
	}

	h1s := doc.Find("h1").Length()
	switch {
	case h1s == 0:
		flag("seo_issues", 15, "no <h1> heading")
	case h1s > 1:
		flag("seo_issues", 5, "multiple <h1> headings")
	}

	if _, ok := doc.Find(`meta[name="viewport"]`).Attr("content"); !ok {
		flag("seo_issues", 10, "missing viewport meta tag (not mobile friendly)")
	}

	imgs := doc.Find("img")
	if n := imgs.Length(); n > 0 {
		missing := 0
		imgs.Each(func(_ int, sel *goquery.Selection) {
			if alt, ok := sel.Attr("alt"); !ok || strings.TrimSpace(alt) == "" {
				missing++
			}
		})
		if missing > 0 {
			penalty := missing * 100 / n / 2
			if penalty < 5 {
				penalty = 5
			}
			flag("accessibility_issues", penalty,
				fmt.Sprintf("%d of %d images missing alt text", missing, n))
		}
	}

	if doc.Find("html").AttrOr("lang", "") == "" {
		flag("accessibility_issues", 10, "missing lang attribute on <html>")
	}

	if pageBytes > heavyPageBytes {
		flag("performance_issues", 20,
			fmt.Sprintf("page HTML is heavy (%d KB)", pageBytes/1024))
	}
	if n := doc.Find("script[src]").Length(); n > 15 {
		flag("performance_issues", 15, fmt.Sprintf("%d external scripts", n))
	}
	if n := doc.Find(`link[rel="stylesheet"]`).Length(); n > 8 {
		flag("performance_issues", 10, fmt.Sprintf("%d external stylesheets", n))
	}

	if scheme != "https" {
		flag("best_practices_issues", 30, "site is not served over HTTPS")
	}
	doc.Find("a[target=_blank]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		rel := sel.AttrOr("rel", "")
		if !strings.Contains(rel, "noopener") && !strings.Contains(rel, "noreferrer") {
			flag("best_practices_issues", 5, "target=_blank link without rel=noopener")
			return false
		}
		return true
	})

	clamp := func(v *int) {
		if *v < 0 {
			*v = 0
		}
	}
	clamp(&audit.SEOScore)
	clamp(&audit.PerformanceScore)
	clamp(&audit.AccessibilityScore)
	clamp(&audit.BestPracticesScore)
	return audit
}
