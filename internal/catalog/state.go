package catalog

import (
	"sync"
	"time"

	"github.com/studyvault/notesdash/internal/events"
	"github.com/studyvault/notesdash/internal/models"
)

// State is an observable container for the last-fetched collection.
// It publishes catalog events on changes. Thread-safe for concurrent access.
type State struct {
	eventBus *events.EventBus

	files      []models.FileRecord
	aggregates map[string]int
	loaded     bool // at least one successful fetch
	lastError  error

	mu sync.RWMutex
}

// NewState creates an empty State. eventBus may be nil.
func NewState(eventBus *events.EventBus) *State {
	return &State{
		eventBus:   eventBus,
		files:      make([]models.FileRecord, 0),
		aggregates: Recompute(nil),
	}
}

// SetFiles replaces the collection wholesale, recomputes the aggregates,
// clears the last error and publishes EventCatalogChanged.
func (s *State) SetFiles(files []models.FileRecord) {
	copied := make([]models.FileRecord, len(files))
	copy(copied, files)

	s.mu.Lock()
	s.files = copied
	s.aggregates = Recompute(copied)
	s.loaded = true
	s.lastError = nil
	total := len(copied)
	s.mu.Unlock()

	if s.eventBus != nil {
		s.eventBus.Publish(&events.CatalogEvent{
			BaseEvent: events.BaseEvent{EventType: events.EventCatalogChanged, Time: time.Now()},
			Total:     total,
		})
	}
}

// SetError records a failed load. The prior collection is kept.
func (s *State) SetError(err error) {
	s.mu.Lock()
	s.lastError = err
	total := len(s.files)
	s.mu.Unlock()

	if s.eventBus != nil && err != nil {
		s.eventBus.Publish(&events.CatalogEvent{
			BaseEvent: events.BaseEvent{EventType: events.EventCatalogError, Time: time.Now()},
			Total:     total,
			Err:       err,
		})
	}
}

// Files returns a copy of the current collection.
func (s *State) Files() []models.FileRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.FileRecord, len(s.files))
	copy(result, s.files)
	return result
}

// Aggregates returns a copy of the per-subject counts.
func (s *State) Aggregates() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]int, len(s.aggregates))
	for k, v := range s.aggregates {
		result[k] = v
	}
	return result
}

// Total returns the size of the current collection.
func (s *State) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// Loaded reports whether any fetch has succeeded yet.
func (s *State) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// LastError returns the error from the most recent failed fetch, if any.
func (s *State) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}
