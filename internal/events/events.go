// Package events provides a synchronous event bus connecting workflows to their observers
package events

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/celestiaorg/gcpiac/internal/types"
)

// EventType represents the type of workflow event
type EventType string

const (
	// EventRunStarted is emitted when a workflow starts
	EventRunStarted EventType = "run_started"
	// EventStateChanged is emitted on every state transition of a workflow
	EventStateChanged EventType = "state_changed"
	// EventRunFinished is emitted once a workflow reaches a terminal state
	EventRunFinished EventType = "run_finished"
	// EventWorkspaceRemoved is emitted for every workspace removed after a destroy
	EventWorkspaceRemoved EventType = "workspace_removed"
)

// Event represents a workflow event
type Event struct {
	Type     EventType                  // The type of event
	RunID    string                     // The workflow run ID
	Action   string                     // apply, destroy or init
	State    string                     // The state entered, or the terminal state
	Instance *types.ProvisionedInstance // The instance, once known
	Removed  []string                   // Workspaces removed by a destroy
	Err      error                      // The failure of a finished run
	Time     time.Time
}

// Handler is a function that handles an event
type Handler func(context.Context, Event) error

// Bus dispatches events to handlers in subscription order on the publishing goroutine
type Bus struct {
	handlers map[EventType][]Handler
	all      []Handler
	mu       sync.RWMutex
	log      logrus.FieldLogger
}

// NewBus creates an empty bus
func NewBus(log logrus.FieldLogger) *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
		log:      log,
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.log.Debugf("Registered handler for event type: %s", eventType)
}

// SubscribeAll registers a handler for every event type
func (b *Bus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, handler)
}

// Publish delivers event to its handlers and returns once all of them ran. Handler errors are
// logged and do not stop delivery. A nil bus drops the event.
func (b *Bus) Publish(ctx context.Context, event Event) {
	if b == nil {
		return
	}
	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[event.Type])+len(b.all))
	handlers = append(handlers, b.handlers[event.Type]...)
	handlers = append(handlers, b.all...)
	b.mu.RUnlock()

	log := b.log.WithFields(logrus.Fields{"event": event.Type, "run_id": event.RunID})
	log.Debug("Published event")
	for _, h := range handlers {
		if err := h(ctx, event); err != nil {
			log.WithError(err).Error("Failed to handle event")
		}
	}
}
