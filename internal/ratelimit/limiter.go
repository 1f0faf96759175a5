// Package ratelimit implements the shared adaptive rate limiter used by
// every outbound-request subsystem (scraping, analysis, LLM calls, email).
package ratelimit

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/leadpitch/leadpitch/internal/logger"
)

// Config holds the per-channel limiter configuration.
type Config struct {
	// RequestsPerPeriod is the sliding-window quota.
	RequestsPerPeriod int
	// Period is the sliding-window length.
	Period time.Duration
	// BackoffFactor is the exponential backoff multiplier applied per
	// consecutive failure.
	BackoffFactor float64
	// MaxBackoff caps the backoff delay.
	MaxBackoff time.Duration
	// Jitter adds a proportional random component to computed delays to
	// avoid synchronized retries across concurrent workers.
	Jitter bool
}

// Limiter is a sliding-window rate limiter with failure backoff. All
// methods are safe for concurrent use.
type Limiter struct {
	mu sync.Mutex

	cfg                 Config
	requestTimes        []time.Time
	consecutiveFailures int
	lastRequest         time.Time

	// now is swappable for tests.
	now func() time.Time
}

// Stats is a point-in-time snapshot of a limiter's state.
type Stats struct {
	RequestsInPeriod    int           `json:"requests_in_period"`
	MaxRequests         int           `json:"max_requests"`
	Period              time.Duration `json:"period_seconds"`
	CanProceed          bool          `json:"can_proceed"`
	DelayNeeded         time.Duration `json:"delay_needed"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	LastRequest         time.Time     `json:"last_request"`
}

// NewLimiter creates a limiter for the given configuration.
func NewLimiter(cfg Config) *Limiter {
	if cfg.BackoffFactor <= 1 {
		cfg.BackoffFactor = 1.5
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Minute
	}
	return &Limiter{cfg: cfg, now: time.Now}
}

// CanProceed reports whether a request can be made immediately.
func (l *Limiter) CanProceed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.canProceedLocked()
}

func (l *Limiter) canProceedLocked() bool {
	l.purgeLocked()
	return len(l.requestTimes) < l.cfg.RequestsPerPeriod
}

// purgeLocked drops timestamps that have fallen out of the trailing window.
func (l *Limiter) purgeLocked() {
	cutoff := l.now().Add(-l.cfg.Period)
	i := 0
	for i < len(l.requestTimes) && !l.requestTimes[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.requestTimes = append(l.requestTimes[:0], l.requestTimes[i:]...)
	}
}

// Delay returns how long the caller must wait before the next request may
// proceed. Zero means the request may go out immediately.
func (l *Limiter) Delay() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.delayLocked()
}

func (l *Limiter) delayLocked() time.Duration {
	if l.canProceedLocked() {
		return 0
	}

	// Base wait: time until the oldest in-window timestamp expires.
	oldest := l.requestTimes[0]
	delay := oldest.Add(l.cfg.Period).Sub(l.now())

	// Consecutive failures escalate the wait; the larger of the two wins.
	if l.consecutiveFailures > 0 {
		backoff := time.Duration(
			math.Min(
				math.Pow(l.cfg.BackoffFactor, float64(l.consecutiveFailures)),
				l.cfg.MaxBackoff.Seconds(),
			) * float64(time.Second),
		)
		if backoff > delay {
			delay = backoff
		}
	}

	if l.cfg.Jitter && delay > 0 {
		delay += time.Duration(rand.Float64() * 0.1 * float64(delay))
	}

	if delay < 0 {
		return 0
	}
	return delay
}

// Await blocks until the limiter permits the next request or the context
// is cancelled. Quota exhaustion only delays the caller; it is never an
// error. The returned error is non-nil only on context cancellation.
func (l *Limiter) Await(ctx context.Context) error {
	delay := l.Delay()
	if delay <= 0 {
		return nil
	}

	logger.WithComponent("ratelimit").Debugf("waiting %s before next request", delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RecordRequest records that a request was made. A success resets the
// failure streak; a failure extends it.
func (l *Limiter) RecordRequest(success bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.requestTimes = append(l.requestTimes, now)
	l.lastRequest = now

	if success {
		l.consecutiveFailures = 0
		return
	}
	l.consecutiveFailures++
	logger.WithComponent("ratelimit").
		Warnf("request failed, consecutive failures: %d", l.consecutiveFailures)
}

// Reset clears the window and the failure streak. Operator action only.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requestTimes = l.requestTimes[:0]
	l.consecutiveFailures = 0
}

// Stats returns a snapshot of the limiter state.
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.purgeLocked()
	return Stats{
		RequestsInPeriod:    len(l.requestTimes),
		MaxRequests:         l.cfg.RequestsPerPeriod,
		Period:              l.cfg.Period,
		CanProceed:          len(l.requestTimes) < l.cfg.RequestsPerPeriod,
		DelayNeeded:         l.delayLocked(),
		ConsecutiveFailures: l.consecutiveFailures,
		LastRequest:         l.lastRequest,
	}
}
