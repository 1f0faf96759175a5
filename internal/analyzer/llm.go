package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/leadpitch/leadpitch/config"
	"github.com/leadpitch/leadpitch/internal/ratelimit"
)

// LLMConfig holds the connection settings for the Ollama endpoint.
type LLMConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMConfigFromEnv reads the Ollama settings from the environment.
func LLMConfigFromEnv() LLMConfig {
	return LLMConfig{
		BaseURL: config.GetEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		Model:   config.GetEnv("OLLAMA_MODEL", "llama3.1"),
		Timeout: config.GetEnvDuration("OLLAMA_TIMEOUT", 120*time.Second),
	}
}

// LLMClient talks to a local Ollama instance. Calls are paced on the
// "llm" rate channel. The provider is treated as opaque: callers get
// back text or an error and decide themselves how fatal that is.
type LLMClient struct {
	cfg    LLMConfig
	client *http.Client
	limits *ratelimit.Registry
}

// NewLLMClient creates a client for the configured Ollama endpoint.
func NewLLMClient(cfg LLMConfig, limits *ratelimit.Registry) *LLMClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &LLMClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		limits: limits,
	}
}

// Available reports whether the Ollama service answers on /api/tags.
func (c *LLMClient) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate sends one non-streaming prompt and returns the raw completion.
func (c *LLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.limits.Await(ctx, ratelimit.ChannelLLM); err != nil {
		return "", err
	}

	payload := generateRequest{
		Model:  c.cfg.Model,
		Prompt: prompt,
		Stream: false,
		Options: map[string]interface{}{
			"temperature": 0.3,
			"top_p":       0.9,
			"top_k":       40,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.limits.RecordRequest(ratelimit.ChannelLLM, false)
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.limits.RecordRequest(ratelimit.ChannelLLM, false)
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("llm returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	c.limits.RecordRequest(ratelimit.ChannelLLM, true)

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode llm response: %w", err)
	}
	return out.Response, nil
}

// SuggestImprovements renders an audit into pitch suggestions for the
// business owner.
func (c *LLMClient) SuggestImprovements(ctx context.Context, audit *Audit, businessType string) (string, error) {
	prompt := buildSuggestionPrompt(audit, businessType)
	text, err := c.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func buildSuggestionPrompt(audit *Audit, businessType string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a website optimization expert analyzing %s", audit.URL)
	if businessType != "" {
		fmt.Fprintf(&b, " (a %s business)", businessType)
	}
	b.WriteString(".\n\nAUDIT SCORES:\n")
	fmt.Fprintf(&b, "- SEO: %d/100\n", audit.SEOScore)
	fmt.Fprintf(&b, "- Performance: %d/100\n", audit.PerformanceScore)
	fmt.Fprintf(&b, "- Accessibility: %d/100\n", audit.AccessibilityScore)
	fmt.Fprintf(&b, "- Best practices: %d/100\n", audit.BestPracticesScore)

	b.WriteString("\nIDENTIFIED ISSUES:\n")
	for _, category := range []string{"seo_issues", "performance_issues", "accessibility_issues", "best_practices_issues"} {
		for _, issue := range audit.Issues[category] {
			fmt.Fprintf(&b, "- %s\n", issue)
		}
	}

	b.WriteString(`
Write a short, friendly pitch to the business owner. Summarize the main
problems in plain language, explain how they affect customers and
revenue, and list the top 3 concrete fixes. Keep it under 200 words and
do not mention that this analysis was automated.`)
	return b.String()
}
