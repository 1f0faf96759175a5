// Package client is the HTTP client for the leadpitch API, used by the
// CLI.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/leadpitch/leadpitch/internal/db/models"
	"github.com/leadpitch/leadpitch/internal/scraper"
)

// DefaultBaseURL is the default API server address.
const DefaultBaseURL = "http://localhost:8080"

// DefaultTimeout is the default timeout for API requests
const DefaultTimeout = 30 * time.Second

// Options contains configuration options for the API client
type Options struct {
	// BaseURL is the base URL of the API
	BaseURL string

	// Timeout is the request timeout
	Timeout time.Duration
}

// DefaultOptions returns the default client options
func DefaultOptions() *Options {
	return &Options{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// Client talks to the leadpitch API server.
type Client struct {
	baseURL string
	timeout time.Duration
}

// NewClient creates a new API client with the given options
func NewClient(opts *Options) (*Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{baseURL: opts.BaseURL, timeout: timeout}, nil
}

// envelope mirrors the server's response wrapper.
type envelope struct {
	Slug  string          `json:"slug"`
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data"`
}

// executeRequest sends one request and decodes the data payload into out.
func (c *Client) executeRequest(ctx context.Context, method, endpoint string, body, out interface{}) error {
	fullURL := c.baseURL + endpoint

	var agent *fiber.Agent
	switch method {
	case http.MethodGet:
		agent = fiber.Get(fullURL)
	case http.MethodPost:
		agent = fiber.Post(fullURL)
	case http.MethodDelete:
		agent = fiber.Delete(fullURL)
	case http.MethodPatch:
		agent = fiber.Patch(fullURL)
	default:
		return fmt.Errorf("unsupported HTTP method: %s", method)
	}

	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	} else {
		agent.Timeout(c.timeout)
	}

	agent.Set("Content-Type", "application/json")
	agent.Set("Accept", "application/json")
	if body != nil {
		agent.JSON(body)
	}

	statusCode, respBody, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("error sending request: %w", errs[0])
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		if statusCode < 200 || statusCode >= 300 {
			return &fiber.Error{Code: statusCode, Message: "unknown error"}
		}
		return fmt.Errorf("error decoding response: %w", err)
	}

	if statusCode < 200 || statusCode >= 300 {
		msg := env.Error
		if msg == "" {
			msg = "unknown error"
		}
		return &fiber.Error{Code: statusCode, Message: msg}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("error decoding response data: %w", err)
		}
	}
	return nil
}

// SubmitScrape starts a new scrape job for the search term.
func (c *Client) SubmitScrape(ctx context.Context, searchTerm string) (*scraper.Job, error) {
	var job scraper.Job
	req := map[string]string{"search_term": searchTerm}
	if err := c.executeRequest(ctx, http.MethodPost, "/api/v1/scrape", req, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// GetScrapeStatus retrieves one scrape job. The payload shape differs
// between live jobs and historical ones, so the raw data is returned.
func (c *Client) GetScrapeStatus(ctx context.Context, id string) (json.RawMessage, error) {
	var data json.RawMessage
	endpoint := "/api/v1/scrape/" + url.PathEscape(id)
	if err := c.executeRequest(ctx, http.MethodGet, endpoint, nil, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// ListScrapeJobs lists historical scrape jobs.
func (c *Client) ListScrapeJobs(ctx context.Context, status string, limit int) ([]models.ScrapeJob, error) {
	endpoint := "/api/v1/scrape?" + listQuery(status, limit)
	var jobs []models.ScrapeJob
	if err := c.executeRequest(ctx, http.MethodGet, endpoint, nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// CancelScrape requests cancellation of a running job.
func (c *Client) CancelScrape(ctx context.Context, id string) (*scraper.Job, error) {
	var job scraper.Job
	endpoint := "/api/v1/scrape/" + url.PathEscape(id)
	if err := c.executeRequest(ctx, http.MethodDelete, endpoint, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListLeads lists stored leads.
func (c *Client) ListLeads(ctx context.Context, status string, limit int) ([]models.Lead, error) {
	endpoint := "/api/v1/leads?" + listQuery(status, limit)
	var leads []models.Lead
	if err := c.executeRequest(ctx, http.MethodGet, endpoint, nil, &leads); err != nil {
		return nil, err
	}
	return leads, nil
}

// GetRateLimits retrieves the limiter channel snapshot.
func (c *Client) GetRateLimits(ctx context.Context) (json.RawMessage, error) {
	var data json.RawMessage
	if err := c.executeRequest(ctx, http.MethodGet, "/api/v1/ratelimits", nil, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// HealthCheck verifies the server is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	fullURL := c.baseURL + "/health"
	agent := fiber.Get(fullURL)
	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	} else {
		agent.Timeout(c.timeout)
	}
	statusCode, _, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("error sending request: %w", errs[0])
	}
	if statusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %d", statusCode)
	}
	return nil
}

func listQuery(status string, limit int) string {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	return q.Encode()
}
