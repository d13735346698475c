// Package events carries dashboard notifications between the API layer,
// the catalog and whichever front end is attached (TUI or CLI).
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/studyvault/notesdash/internal/constants"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventLog      EventType = "log"
	EventProgress EventType = "progress"
	EventToast    EventType = "toast"

	// Catalog lifecycle
	EventCatalogChanged EventType = "catalog_changed" // file list replaced after a load
	EventCatalogError   EventType = "catalog_error"   // load failed, prior list kept
)

// LogLevel defines log severity levels
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// LogEvent represents log messages
type LogEvent struct {
	BaseEvent
	Level   LogLevel
	Message string
	Error   error
}

// ProgressEvent reports bytes moved for an upload or download.
type ProgressEvent struct {
	BaseEvent
	Name         string // file being transferred
	Direction    string // "upload" or "download"
	BytesCurrent int64
	BytesTotal   int64
	Done         bool
}

// Fraction returns progress in [0,1], or 0 when the total is unknown.
func (e *ProgressEvent) Fraction() float64 {
	if e.BytesTotal <= 0 {
		return 0
	}
	f := float64(e.BytesCurrent) / float64(e.BytesTotal)
	if f > 1 {
		return 1
	}
	return f
}

// ToastKind is the visual category of a toast.
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

// ToastPhase is the lifecycle stage of a toast.
type ToastPhase string

const (
	ToastShown   ToastPhase = "shown"
	ToastVisible ToastPhase = "visible"
	ToastFading  ToastPhase = "fading"
	ToastRemoved ToastPhase = "removed"
)

// ToastEvent is published whenever a toast changes phase.
type ToastEvent struct {
	BaseEvent
	ID      int
	Kind    ToastKind
	Message string
	Phase   ToastPhase
}

// CatalogEvent reports a change in the cached file list.
type CatalogEvent struct {
	BaseEvent
	Total int
	Err   error // set for EventCatalogError
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64 // Count of dropped events due to full buffers
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers without blocking.
// Events for a full subscriber are dropped and counted.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}
	for _, ch := range eb.all {
		close(ch)
	}
}

// PublishLog is a convenience method for publishing log events
func (eb *EventBus) PublishLog(level LogLevel, message string, err error) {
	eb.Publish(&LogEvent{
		BaseEvent: BaseEvent{EventType: EventLog, Time: time.Now()},
		Level:     level,
		Message:   message,
		Error:     err,
	})
}

// PublishProgress is a convenience method for publishing progress events
func (eb *EventBus) PublishProgress(name, direction string, current, total int64, done bool) {
	eb.Publish(&ProgressEvent{
		BaseEvent:    BaseEvent{EventType: EventProgress, Time: time.Now()},
		Name:         name,
		Direction:    direction,
		BytesCurrent: current,
		BytesTotal:   total,
		Done:         done,
	})
}

// PublishToast is a convenience method for publishing toast phase changes
func (eb *EventBus) PublishToast(id int, kind ToastKind, message string, phase ToastPhase) {
	eb.Publish(&ToastEvent{
		BaseEvent: BaseEvent{EventType: EventToast, Time: time.Now()},
		ID:        id,
		Kind:      kind,
		Message:   message,
		Phase:     phase,
	})
}

// Unsubscribe removes a subscription channel from a specific event type
// This prevents memory leaks from abandoned subscriptions
func (eb *EventBus) Unsubscribe(eventType EventType, ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	subscribers := eb.subscribers[eventType]
	for i, subCh := range subscribers {
		if subCh == ch {
			subscribers[i] = subscribers[len(subscribers)-1]
			eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
			break
		}
	}
}

// UnsubscribeAll removes a subscription channel from all event types
func (eb *EventBus) UnsubscribeAll(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	for eventType, subscribers := range eb.subscribers {
		for i, subCh := range subscribers {
			if subCh == ch {
				subscribers[i] = subscribers[len(subscribers)-1]
				eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
				break
			}
		}
	}

	for i, subCh := range eb.all {
		if subCh == ch {
			eb.all[i] = eb.all[len(eb.all)-1]
			eb.all = eb.all[:len(eb.all)-1]
			break
		}
	}
}

// GetDroppedEventCount returns the total number of events dropped due to full buffers
func (eb *EventBus) GetDroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}
