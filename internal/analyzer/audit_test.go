package analyzer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadpitch/leadpitch/internal/ratelimit"
)

const goodPage = `<!DOCTYPE html>
<html lang="en">
<head>
<title>Corner Bakery</title>
<meta name="description" content="Fresh bread daily in the Mission.">
<meta name="viewport" content="width=device-width, initial-scale=1">
</head>
<body>
<h1>Corner Bakery</h1>
<img src="/bread.jpg" alt="Sourdough loaves">
</body>
</html>`

const badPage = `<html>
<head></head>
<body>
<img src="/a.jpg"><img src="/b.jpg">
<a href="https://elsewhere.example" target="_blank">partner</a>
</body>
</html>`

func testLimits() *ratelimit.Registry {
	r := ratelimit.NewRegistry()
	// Generous quotas so pacing never delays a test.
	r.Configure(ratelimit.ChannelAnalysis, ratelimit.Config{RequestsPerPeriod: 1000, Period: time.Minute})
	r.Configure(ratelimit.ChannelLLM, ratelimit.Config{RequestsPerPeriod: 1000, Period: time.Minute})
	return r
}

func TestAnalyzeCleanSite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(goodPage))
	}))
	defer srv.Close()

	auditor := NewAuditor(srv.Client(), testLimits())
	audit, err := auditor.Analyze(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, 100, audit.SEOScore)
	assert.Equal(t, 100, audit.AccessibilityScore)
	assert.Equal(t, 100, audit.PerformanceScore)
	assert.Empty(t, audit.Issues["seo_issues"])
	// httptest serves plain http
	assert.Less(t, audit.BestPracticesScore, 100)
}

func TestAnalyzeFlagsMissingBasics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(badPage))
	}))
	defer srv.Close()

	auditor := NewAuditor(srv.Client(), testLimits())
	audit, err := auditor.Analyze(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Less(t, audit.SEOScore, 50)
	assert.Less(t, audit.AccessibilityScore, 100)
	assert.Less(t, audit.BestPracticesScore, 100)

	joined := strings.Join(audit.Issues["seo_issues"], "; ")
	assert.Contains(t, joined, "<title>")
	assert.Contains(t, joined, "meta description")
	assert.Contains(t, joined, "<h1>")

	joined = strings.Join(audit.Issues["accessibility_issues"], "; ")
	assert.Contains(t, joined, "alt text")
}

func TestAnalyzeHTTPErrorIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	limits := testLimits()
	auditor := NewAuditor(srv.Client(), limits)
	_, err := auditor.Analyze(context.Background(), srv.URL)
	require.Error(t, err)

	limiter, lerr := limits.Limiter(ratelimit.ChannelAnalysis)
	require.NoError(t, lerr)
	assert.Equal(t, 1, limiter.Stats().ConsecutiveFailures)
}

func TestAnalyzeRejectsInvalidURL(t *testing.T) {
	auditor := NewAuditor(nil, testLimits())
	_, err := auditor.Analyze(context.Background(), "   ")
	assert.Error(t, err)
}

func TestScoresNeverGoNegative(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><head></head><body>")
	for i := 0; i < 30; i++ {
		sb.WriteString(`<img src="/x.jpg">`)
	}
	sb.WriteString("</body></html>")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sb.String()))
	}))
	defer srv.Close()

	auditor := NewAuditor(srv.Client(), testLimits())
	audit, err := auditor.Analyze(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, audit.SEOScore, 0)
	assert.GreaterOrEqual(t, audit.AccessibilityScore, 0)
	assert.GreaterOrEqual(t, audit.BestPracticesScore, 0)
}
