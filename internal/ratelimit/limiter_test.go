package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests advance time without sleeping.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(cfg Config) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	l := NewLimiter(cfg)
	l.now = clock.now
	return l, clock
}

func TestCanProceedUnderQuota(t *testing.T) {
	l, _ := newTestLimiter(Config{RequestsPerPeriod: 3, Period: time.Minute})

	for i := 0; i < 3; i++ {
		assert.True(t, l.CanProceed())
		l.RecordRequest(true)
	}
	assert.False(t, l.CanProceed())
}

func TestWindowExpiryRestoresCapacity(t *testing.T) {
	l, clock := newTestLimiter(Config{RequestsPerPeriod: 2, Period: time.Minute})

	l.RecordRequest(true)
	l.RecordRequest(true)
	require.False(t, l.CanProceed())

	clock.advance(61 * time.Second)
	assert.True(t, l.CanProceed())
	assert.Zero(t, l.Delay())
}

func TestDelayIsTimeUntilOldestExpires(t *testing.T) {
	l, clock := newTestLimiter(Config{RequestsPerPeriod: 1, Period: 10 * time.Second})

	l.RecordRequest(true)
	clock.advance(4 * time.Second)

	d := l.Delay()
	assert.Equal(t, 6*time.Second, d)
}

func TestBackoffEscalatesAndResets(t *testing.T) {
	// Short period keeps the window wait below the backoff so the
	// escalation is what the delay measures.
	l, _ := newTestLimiter(Config{
		RequestsPerPeriod: 1,
		Period:            time.Second,
		BackoffFactor:     2.0,
		MaxBackoff:        30 * time.Second,
	})

	l.RecordRequest(false)
	prev := l.Delay()
	require.Greater(t, prev, time.Duration(0))

	// Each consecutive failure strictly increases the delay until the cap.
	for i := 0; i < 3; i++ {
		l.RecordRequest(false)
		d := l.Delay()
		assert.Greater(t, d, prev)
		prev = d
	}

	// The cap is absolute.
	for i := 0; i < 10; i++ {
		l.RecordRequest(false)
	}
	assert.LessOrEqual(t, l.Delay(), 30*time.Second)

	// A success resets the streak; only the window wait remains.
	l.RecordRequest(true)
	assert.Equal(t, 0, l.Stats().ConsecutiveFailures)
	assert.LessOrEqual(t, l.Delay(), time.Second)
}

func TestJitterStaysProportional(t *testing.T) {
	l, _ := newTestLimiter(Config{
		RequestsPerPeriod: 1,
		Period:            10 * time.Second,
		Jitter:            true,
	})
	l.RecordRequest(true)

	for i := 0; i < 50; i++ {
		d := l.Delay()
		assert.GreaterOrEqual(t, d, 10*time.Second)
		assert.LessOrEqual(t, d, 11*time.Second)
	}
}

func TestAwaitHonorsContext(t *testing.T) {
	l, _ := newTestLimiter(Config{RequestsPerPeriod: 1, Period: time.Hour})
	l.RecordRequest(true)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAwaitImmediateWhenUnderQuota(t *testing.T) {
	l, _ := newTestLimiter(Config{RequestsPerPeriod: 5, Period: time.Minute})

	start := time.Now()
	require.NoError(t, l.Await(context.Background()))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestAwaitDelaysSecondCallerWallClock(t *testing.T) {
	// Two concurrent callers on a 1-per-period channel: the second must be
	// held for at least the remaining window time.
	l := NewLimiter(Config{RequestsPerPeriod: 1, Period: 300 * time.Millisecond})

	require.NoError(t, l.Await(context.Background()))
	l.RecordRequest(true)

	start := time.Now()
	require.NoError(t, l.Await(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 250*time.Millisecond)
}

func TestRegistryChannelIsolation(t *testing.T) {
	r := NewRegistry()

	scraping, err := r.Limiter(ChannelScraping)
	require.NoError(t, err)
	email, err := r.Limiter(ChannelEmail)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		scraping.RecordRequest(true)
	}
	assert.False(t, scraping.CanProceed())
	assert.True(t, email.CanProceed())

	// Same name returns the same limiter.
	again, err := r.Limiter(ChannelScraping)
	require.NoError(t, err)
	assert.Same(t, scraping, again)
}

func TestRegistryUnknownChannel(t *testing.T) {
	r := NewRegistry()

	_, err := r.Limiter("carrier-pigeon")
	assert.Error(t, err)

	// Await on an unknown channel proceeds rather than failing the caller.
	assert.NoError(t, r.Await(context.Background(), "carrier-pigeon"))
}

func TestRegistryStatus(t *testing.T) {
	r := NewRegistry()
	r.RecordRequest(ChannelAnalysis, true)
	r.RecordRequest(ChannelAnalysis, false)

	status := r.Status()
	require.Contains(t, status, ChannelAnalysis)
	assert.Equal(t, 2, status[ChannelAnalysis].RequestsInPeriod)
	assert.Equal(t, 1, status[ChannelAnalysis].ConsecutiveFailures)
}
