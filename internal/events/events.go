// Package events provides event handling functionality
package events

import (
	"context"
	"sync"

	"github.com/leadpitch/leadpitch/internal/logger"
	"github.com/leadpitch/leadpitch/internal/scraper"
)

// EventType represents the type of pipeline event
type EventType string

const (
	// EventJobProgress is emitted for every progress update of a running scrape job
	EventJobProgress EventType = "job_progress"
	// EventJobFinished is emitted when a scrape job reaches a terminal state
	EventJobFinished EventType = "job_finished"
	// EventLeadDiscovered is emitted when a contact-bearing lead is found
	EventLeadDiscovered EventType = "lead_discovered"
	// EventChannelSize is the buffer size for the event channel
	EventChannelSize = 100
)

// Event represents a pipeline event
type Event struct {
	Type     EventType               // The type of event
	JobID    string                  // The scrape job ID
	Phase    scraper.Phase           // The job phase when the event fired
	Progress scraper.ProgressEvent   // The full progress payload
	Item     *scraper.DiscoveredItem // The discovered lead, for EventLeadDiscovered
}

// Handler is a function that handles an event
type Handler func(context.Context, Event) error

// Bus routes published events to subscribed handlers.
type Bus struct {
	mu        sync.RWMutex
	handlers  map[EventType][]Handler
	eventChan chan Event
}

// NewBus creates an event bus with the default buffer size.
func NewBus() *Bus {
	return &Bus{
		handlers:  make(map[EventType][]Handler),
		eventChan: make(chan Event, EventChannelSize),
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	logger.Debugf("registered handler for event type: %s", eventType)
}

// Publish sends an event to be processed. Drops the event when the
// buffer is full rather than stalling the publisher.
func (b *Bus) Publish(event Event) {
	select {
	case b.eventChan <- event:
	default:
		logger.Warnf("event buffer full, dropping %s for job %s", event.Type, event.JobID)
	}
}

// Start starts the event processing loop
func (b *Bus) Start(ctx context.Context) {
	go b.processEvents(ctx)
	logger.Debug("started event processing loop")
}

// processEvents handles events in the background
func (b *Bus) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			logger.Debug("stopping event processing loop")
			return
		case event := <-b.eventChan:
			b.mu.RLock()
			eventHandlers := b.handlers[event.Type]
			b.mu.RUnlock()

			for _, handler := range eventHandlers {
				go func(h Handler, e Event) {
					if err := h(ctx, e); err != nil {
						logger.Errorf("failed to handle event %s: %v", e.Type, err)
					}
				}(handler, event)
			}
		}
	}
}

// ObserveJob adapts the bus to the scraping engine's event observer:
// every progress update is republished as typed pipeline events.
func (b *Bus) ObserveJob(jobID string, ev scraper.ProgressEvent) {
	b.Publish(Event{
		Type:     EventJobProgress,
		JobID:    jobID,
		Phase:    ev.Phase,
		Progress: ev,
	})
	if ev.Item != nil && ev.Item.HasContactChannel() {
		b.Publish(Event{
			Type:     EventLeadDiscovered,
			JobID:    jobID,
			Phase:    ev.Phase,
			Progress: ev,
			Item:     ev.Item,
		})
	}
}
