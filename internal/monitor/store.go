package monitor

import (
	"sync"

	"github.com/t77yq/floorwatch/internal/model"
)

// MaxAlerts is the capacity of the alert store
const MaxAlerts = 50

// AlertStore is a bounded, newest-first collection of alerts. It is both the
// list staff see and the ledger the evaluator deduplicates against.
type AlertStore struct {
	mu       sync.RWMutex
	alerts   []model.Alert
	capacity int
}

// NewAlertStore creates a store holding at most capacity alerts
func NewAlertStore(capacity int) *AlertStore {
	if capacity <= 0 {
		capacity = MaxAlerts
	}
	return &AlertStore{
		alerts:   make([]model.Alert, 0, capacity),
		capacity: capacity,
	}
}

// Insert prepends an alert and returns whatever fell off the end
func (s *AlertStore) Insert(alert model.Alert) []model.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alerts = append(s.alerts, model.Alert{})
	copy(s.alerts[1:], s.alerts)
	s.alerts[0] = alert

	if len(s.alerts) <= s.capacity {
		return nil
	}
	evicted := make([]model.Alert, len(s.alerts)-s.capacity)
	copy(evicted, s.alerts[s.capacity:])
	s.alerts = s.alerts[:s.capacity]
	return evicted
}

// Remove deletes the alert with the given ID
func (s *AlertStore) Remove(id string) (model.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.alerts {
		if a.ID == id {
			s.alerts = append(s.alerts[:i], s.alerts[i+1:]...)
			return a, nil
		}
	}
	return model.Alert{}, ErrAlertNotFound
}

// ClearAll empties the store and returns what was removed
func (s *AlertStore) ClearAll() []model.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.alerts
	s.alerts = make([]model.Alert, 0, s.capacity)
	return removed
}

// ClearCategory removes every alert of the given category
func (s *AlertStore) ClearCategory(cat model.AlertCategory) []model.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []model.Alert
	kept := s.alerts[:0]
	for _, a := range s.alerts {
		if a.Category == cat {
			removed = append(removed, a)
			continue
		}
		kept = append(kept, a)
	}
	s.alerts = kept
	return removed
}

// MarkRead flags an alert as read. It reports whether the flag changed;
// marking an already read alert is not an error.
func (s *AlertStore) MarkRead(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.alerts {
		if s.alerts[i].ID != id {
			continue
		}
		if s.alerts[i].Read {
			return false, nil
		}
		s.alerts[i].Read = true
		return true, nil
	}
	return false, ErrAlertNotFound
}

// MarkAllRead flags every alert as read and returns how many changed
func (s *AlertStore) MarkAllRead() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for i := range s.alerts {
		if !s.alerts[i].Read {
			s.alerts[i].Read = true
			n++
		}
	}
	return n
}

// Query returns, newest first, the alerts matching pred
func (s *AlertStore) Query(pred func(model.Alert) bool) []model.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Alert
	for _, a := range s.alerts {
		if pred == nil || pred(a) {
			out = append(out, a)
		}
	}
	return out
}

// Get returns the alert with the given ID
func (s *AlertStore) Get(id string) (model.Alert, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.alerts {
		if a.ID == id {
			return a, true
		}
	}
	return model.Alert{}, false
}

// List returns a copy of all alerts, newest first
func (s *AlertStore) List() []model.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// Len returns the number of alerts held
func (s *AlertStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.alerts)
}
