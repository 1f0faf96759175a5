package analyzer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOllamaStub(t *testing.T, reply string) (*httptest.Server, *generateRequest) {
	t.Helper()
	var captured generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.WriteHeader(http.StatusOK)
		case "/api/generate":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			_ = json.NewEncoder(w).Encode(generateResponse{Response: reply})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func TestGenerateSendsNonStreamingRequest(t *testing.T) {
	srv, captured := newOllamaStub(t, "Here are three fixes.")

	client := NewLLMClient(LLMConfig{BaseURL: srv.URL, Model: "llama3.1"}, testLimits())
	out, err := client.Generate(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, "Here are three fixes.", out)
	assert.Equal(t, "llama3.1", captured.Model)
	assert.Equal(t, "hello", captured.Prompt)
	assert.False(t, captured.Stream)
}

func TestGenerateErrorIncludesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewLLMClient(LLMConfig{BaseURL: srv.URL, Model: "missing"}, testLimits())
	_, err := client.Generate(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestAvailable(t *testing.T) {
	srv, _ := newOllamaStub(t, "")
	client := NewLLMClient(LLMConfig{BaseURL: srv.URL, Model: "llama3.1"}, testLimits())
	assert.True(t, client.Available(context.Background()))

	down := NewLLMClient(LLMConfig{BaseURL: "http://127.0.0.1:1", Model: "llama3.1"}, testLimits())
	assert.False(t, down.Available(context.Background()))
}

func TestSuggestionPromptCarriesAuditFindings(t *testing.T) {
	audit := &Audit{
		URL:                "https://corner-bakery.example.com",
		SEOScore:           40,
		PerformanceScore:   85,
		AccessibilityScore: 70,
		BestPracticesScore: 90,
		Issues: map[string][]string{
			"seo_issues": {"missing meta description"},
		},
	}

	prompt := buildSuggestionPrompt(audit, "bakery")
	assert.Contains(t, prompt, "corner-bakery.example.com")
	assert.Contains(t, prompt, "a bakery business")
	assert.Contains(t, prompt, "SEO: 40/100")
	assert.Contains(t, prompt, "missing meta description")
}
