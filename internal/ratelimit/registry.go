package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Channel names for the outbound-request subsystems.
const (
	ChannelScraping = "scraping"
	ChannelEmail    = "email"
	ChannelAnalysis = "analysis"
	ChannelLLM      = "llm"
)

// DefaultConfigs returns the per-channel defaults. Scraping uses a short
// high-frequency window while email enforces a 24-hour quota.
func DefaultConfigs() map[string]Config {
	return map[string]Config{
		ChannelScraping: {
			RequestsPerPeriod: 10,
			Period:            time.Minute,
			BackoffFactor:     2.0,
			MaxBackoff:        5 * time.Minute,
			Jitter:            true,
		},
		ChannelEmail: {
			RequestsPerPeriod: 50,
			Period:            24 * time.Hour,
			BackoffFactor:     1.5,
			MaxBackoff:        5 * time.Minute,
			Jitter:            true,
		},
		ChannelAnalysis: {
			RequestsPerPeriod: 20,
			Period:            time.Minute,
			BackoffFactor:     1.5,
			MaxBackoff:        5 * time.Minute,
			Jitter:            true,
		},
		ChannelLLM: {
			RequestsPerPeriod: 30,
			Period:            time.Minute,
			BackoffFactor:     1.8,
			MaxBackoff:        5 * time.Minute,
			Jitter:            true,
		},
	}
}

// Registry manages named limiters. It is the single structure shared
// across concurrent jobs and subsystems; all components receive it by
// reference rather than importing a global.
type Registry struct {
	mu       sync.Mutex
	limiters map[string]*Limiter
	defaults map[string]Config
}

// NewRegistry creates a registry seeded with the default channel configs.
func NewRegistry() *Registry {
	return &Registry{
		limiters: make(map[string]*Limiter),
		defaults: DefaultConfigs(),
	}
}

// Limiter returns the limiter for the named channel, creating it from the
// defaults on first use.
func (r *Registry) Limiter(name string) (*Limiter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters[name]; ok {
		return l, nil
	}
	cfg, ok := r.defaults[name]
	if !ok {
		return nil, fmt.Errorf("no default config for channel %q", name)
	}
	l := NewLimiter(cfg)
	r.limiters[name] = l
	return l, nil
}

// Configure registers or replaces the configuration for a channel. An
// existing limiter for that channel is rebuilt.
func (r *Registry) Configure(name string, cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaults[name] = cfg
	r.limiters[name] = NewLimiter(cfg)
}

// Await blocks on the named channel's limiter. Unknown channels proceed
// immediately; pacing must never turn into a hard failure for the caller.
func (r *Registry) Await(ctx context.Context, name string) error {
	l, err := r.Limiter(name)
	if err != nil {
		return nil
	}
	return l.Await(ctx)
}

// RecordRequest records a request outcome on the named channel.
func (r *Registry) RecordRequest(name string, success bool) {
	l, err := r.Limiter(name)
	if err != nil {
		return
	}
	l.RecordRequest(success)
}

// Status returns a snapshot of every instantiated channel.
func (r *Registry) Status() map[string]Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]Stats, len(r.limiters))
	for name, l := range r.limiters {
		out[name] = l.Stats()
	}
	return out
}
