package scraper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadpitch/leadpitch/internal/ratelimit"
)

// fakeJobDriver scripts a full session: a fixed item set revealed over a
// given number of scroll iterations.
type fakeJobDriver struct {
	items        []DiscoveredItem
	revealAfter  int // scroll iterations before all items are visible
	openErr      error
	extractErr   error
	onExtract    func(index int)
	closedCalled bool

	extracted int
}

func (d *fakeJobDriver) Open(ctx context.Context, _ string) error {
	return d.openErr
}

func (d *fakeJobDriver) ScrollUntilStable(ctx context.Context, cfg ScrollConfig) (int, error) {
	page := &fakePage{counts: revealCounts(len(d.items), d.revealAfter)}
	cfg.SettleDelay = time.Millisecond
	return scrollUntilStable(ctx, page, cfg)
}

func (d *fakeJobDriver) ExtractItem(_ context.Context, index int) (DiscoveredItem, error) {
	if d.onExtract != nil {
		d.onExtract(index)
	}
	if d.extractErr != nil {
		return DiscoveredItem{}, d.extractErr
	}
	d.extracted++
	return d.items[index], nil
}

func (d *fakeJobDriver) Close() error {
	d.closedCalled = true
	return nil
}

// revealCounts builds the per-iteration item counts: everything visible
// after revealAfter iterations.
func revealCounts(total, revealAfter int) []int {
	counts := make([]int, revealAfter+1)
	for i := 0; i < revealAfter; i++ {
		counts[i] = total * (i + 1) / (revealAfter + 1)
	}
	counts[revealAfter] = total
	return counts
}

// recordingStore is the persistence collaborator double.
type recordingStore struct {
	mu      sync.Mutex
	leads   []DiscoveredItem
	jobs    []Job
	leadErr error
	jobErr  error
}

func (s *recordingStore) SaveLead(_ context.Context, _ string, item DiscoveredItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.leadErr != nil {
		return s.leadErr
	}
	s.leads = append(s.leads, item)
	return nil
}

func (s *recordingStore) UpdateJob(_ context.Context, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.jobErr != nil {
		return s.jobErr
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *recordingStore) savedLeads() []DiscoveredItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]DiscoveredItem(nil), s.leads...)
}

func newTestEngine(driver Driver, store Persistence) (*Engine, *Registry) {
	registry := NewRegistry()
	limits := ratelimit.NewRegistry()
	factory := func(context.Context) (Driver, error) { return driver, nil }
	scroll := ScrollConfig{
		MaxIterations:         20,
		MaxStableRepeats:      8,
		MaxStaleResultRepeats: 2,
		SettleDelay:           time.Millisecond,
		SpinnerTimeout:        10 * time.Millisecond,
	}
	return NewEngine(registry, limits, store, factory, scroll), registry
}

func TestEngineRunsJobToCompletion(t *testing.T) {
	// Three stable items after two scroll iterations; two carry a contact
	// channel, one does not.
	driver := &fakeJobDriver{
		items: []DiscoveredItem{
			{Name: "Cafe Adler", Website: "https://cafe-adler.ch"},
			{Name: "No Contact AG"},
			{Name: "Zahnarzt Frei", Phone: "+41 61 000 00 00"},
		},
		revealAfter: 2,
	}
	store := &recordingStore{}
	engine, registry := newTestEngine(driver, store)

	job := registry.Create("cafes in basel")
	require.NoError(t, engine.Run(context.Background(), job.ID))

	got, _ := registry.Get(job.ID)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 3, got.ItemsDiscovered)
	assert.Equal(t, 3, got.ItemsProcessed)
	assert.Equal(t, 2, got.ItemsWithContactInfo)
	assert.NotNil(t, got.StartedAt)
	assert.NotNil(t, got.ListingsLoadedAt)
	assert.NotNil(t, got.ExtractionStartedAt)
	assert.NotNil(t, got.FinishedAt)
	assert.Empty(t, got.Error)

	// Exactly the contact-bearing items reach persistence.
	leads := store.savedLeads()
	require.Len(t, leads, 2)
	assert.Equal(t, "Cafe Adler", leads[0].Name)
	assert.Equal(t, "Zahnarzt Frei", leads[1].Name)

	assert.True(t, driver.closedCalled)
}

func TestEngineEventOrdering(t *testing.T) {
	driver := &fakeJobDriver{
		items:       []DiscoveredItem{{Name: "A", Website: "https://a.ch"}},
		revealAfter: 1,
	}
	engine, registry := newTestEngine(driver, nil)

	var phases []Phase
	engine.SetEventObserver(func(_ string, ev ProgressEvent) {
		phases = append(phases, ev.Phase)
	})

	job := registry.Create("x")
	require.NoError(t, engine.Run(context.Background(), job.ID))

	require.NotEmpty(t, phases)
	assert.Equal(t, PhaseNavigating, phases[0])

	// Phases progress monotonically: navigating, discovering, extracting.
	rank := map[Phase]int{PhaseNavigating: 0, PhaseDiscovering: 1, PhaseExtracting: 2}
	for i := 1; i < len(phases); i++ {
		assert.GreaterOrEqual(t, rank[phases[i]], rank[phases[i-1]])
	}
	assert.Equal(t, PhaseExtracting, phases[len(phases)-1])
}

func TestEngineCancellationMidExtraction(t *testing.T) {
	var registry *Registry
	var jobID string

	driver := &fakeJobDriver{
		items: []DiscoveredItem{
			{Name: "One", Website: "https://one.ch"},
			{Name: "Two", Website: "https://two.ch"},
			{Name: "Three", Website: "https://three.ch"},
			{Name: "Four", Website: "https://four.ch"},
		},
		revealAfter: 1,
	}
	driver.onExtract = func(index int) {
		if index == 1 {
			registry.Cancel(jobID)
		}
	}

	store := &recordingStore{}
	engine, reg := newTestEngine(driver, store)
	registry = reg

	job := registry.Create("gyms in zug")
	jobID = job.ID
	require.NoError(t, engine.Run(context.Background(), jobID))

	got, _ := registry.Get(jobID)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.LessOrEqual(t, got.ItemsProcessed, got.ItemsDiscovered)
	// Cancellation latency is bounded by one extraction.
	assert.Less(t, got.ItemsProcessed, 4)

	// Leads persisted before cancellation stand; no rollback.
	assert.NotEmpty(t, store.savedLeads())

	// No further mutation once cancelled.
	frozen := got
	reg.apply(jobID, ProgressEvent{Phase: PhaseExtracting, Processed: 9, Discovered: 9})
	after, _ := registry.Get(jobID)
	assert.Equal(t, frozen, after)

	assert.True(t, driver.closedCalled)
}

func TestEngineNavigationFailure(t *testing.T) {
	driver := &fakeJobDriver{openErr: errors.New("net::ERR_TUNNEL_CONNECTION_FAILED")}
	store := &recordingStore{}
	engine, registry := newTestEngine(driver, store)

	job := registry.Create("anything")
	err := engine.Run(context.Background(), job.ID)
	require.Error(t, err)

	got, _ := registry.Get(job.ID)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Contains(t, got.Error, "ERR_TUNNEL_CONNECTION_FAILED")
	assert.True(t, driver.closedCalled)
	assert.Empty(t, store.savedLeads())
}

func TestEnginePersistenceFailureIsNonFatal(t *testing.T) {
	driver := &fakeJobDriver{
		items:       []DiscoveredItem{{Name: "A", Website: "https://a.ch"}},
		revealAfter: 1,
	}
	store := &recordingStore{leadErr: errors.New("connection refused"), jobErr: errors.New("connection refused")}
	engine, registry := newTestEngine(driver, store)

	job := registry.Create("shops in chur")
	require.NoError(t, engine.Run(context.Background(), job.ID))

	got, _ := registry.Get(job.ID)
	assert.Equal(t, StatusCompleted, got.Status)
}

func TestEngineUnknownJob(t *testing.T) {
	engine, _ := newTestEngine(&fakeJobDriver{}, nil)
	assert.Error(t, engine.Run(context.Background(), "missing"))
}

func TestServiceSubmitAndCancel(t *testing.T) {
	driver := &fakeJobDriver{
		items:       []DiscoveredItem{{Name: "A", Website: "https://a.ch"}},
		revealAfter: 1,
	}
	engine, registry := newTestEngine(driver, nil)
	svc := NewService(registry, engine)

	_, err := svc.Submit(context.Background(), "")
	assert.Error(t, err)

	job, err := svc.Submit(context.Background(), "hotels in luzern")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, ok := svc.Status(job.ID)
		return ok && got.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond)

	got, _ := svc.Status(job.ID)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Len(t, svc.List(), 1)

	assert.True(t, svc.Cancel(job.ID))
	assert.False(t, svc.Cancel("missing"))
}
