package storage

import (
	"sync"

	"github.com/jqshop/labelgen/internal/models"
)

// Listener is called with the new record after every Set or Reset
type Listener func(models.LabelRecord)

// LabelStore is the single source of truth for the label being edited.
//
// Writes are serialized: a Set does not return until every listener has seen
// its result, and the next Set cannot start before that. Listeners may call
// Get but must not write back into the store.
type LabelStore struct {
	writeMu sync.Mutex

	mu        sync.RWMutex
	record    models.LabelRecord
	listeners []*listenerEntry
}

type listenerEntry struct {
	fn Listener
}

func NewLabelStore() *LabelStore {
	return &LabelStore{}
}

// Get returns a copy of the current record
func (s *LabelStore) Get() models.LabelRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record
}

// Set merges patch into the current record and notifies listeners
func (s *LabelStore) Set(patch models.Patch) models.LabelRecord {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.record = patch.Apply(s.record)
	record := s.record
	s.mu.Unlock()

	s.notify(record)
	return record
}

// Reset restores the empty record and notifies listeners
func (s *LabelStore) Reset() models.LabelRecord {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.record = models.LabelRecord{}
	s.mu.Unlock()

	s.notify(models.LabelRecord{})
	return models.LabelRecord{}
}

// Refresh notifies listeners of the current record again, serialized with
// every other write
func (s *LabelStore) Refresh() models.LabelRecord {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	record := s.Get()
	s.notify(record)
	return record
}

// Subscribe registers fn and returns a function that removes it
func (s *LabelStore) Subscribe(fn Listener) func() {
	entry := &listenerEntry{fn: fn}

	s.mu.Lock()
	s.listeners = append(s.listeners, entry)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l == entry {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *LabelStore) notify(record models.LabelRecord) {
	s.mu.RLock()
	listeners := make([]*listenerEntry, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, l := range listeners {
		l.fn(record)
	}
}
