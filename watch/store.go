// Package watch owns the derived SLA state: the active-orders collection
// supplied by the feed, the per-tick timer collection, and the overdue set
// joined from the two. Nothing outside this package mutates them.
package watch

import (
	"sync"

	"platewatch/catalog"
	"platewatch/sla"
)

// Store holds the three collections. Active orders and timers are replaced
// wholesale; the overdue set is always recomputed from them, never written
// directly.
type Store struct {
	mu      sync.RWMutex
	active  []catalog.Order
	timers  []sla.Timer
	overdue []catalog.Order
}

func NewStore() *Store {
	return &Store{}
}

// SetActiveOrders atomically replaces the active collection and rederives
// the overdue set.
func (s *Store) SetActiveOrders(orders []catalog.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = append([]catalog.Order(nil), orders...)
	s.recomputeLocked()
}

// SetTimers atomically replaces the timer collection and rederives the
// overdue set. Each tick fully supersedes the previous one; stale entries
// are never merged.
func (s *Store) SetTimers(timers []sla.Timer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers = append([]sla.Timer(nil), timers...)
	s.recomputeLocked()
}

// Recompute rederives the overdue set from the current collections. It is
// idempotent: with unchanged inputs, repeated calls produce the same result.
func (s *Store) Recompute() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recomputeLocked()
}

// recomputeLocked joins active orders against overdue timers. An order id
// present in timers but gone from the active set (the feed dropped it before
// its final timer was discarded) never makes the overdue set.
func (s *Store) recomputeLocked() {
	overdueIDs := make(map[string]struct{}, len(s.timers))
	for _, t := range s.timers {
		if t.Overdue {
			overdueIDs[t.OrderID] = struct{}{}
		}
	}
	overdue := s.overdue[:0:0]
	for _, o := range s.active {
		if _, ok := overdueIDs[o.ID]; ok {
			overdue = append(overdue, o)
		}
	}
	s.overdue = overdue
}

// ActiveOrders returns a copy of the active collection.
func (s *Store) ActiveOrders() []catalog.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]catalog.Order(nil), s.active...)
}

// Timers returns a copy of the timer collection.
func (s *Store) Timers() []sla.Timer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]sla.Timer(nil), s.timers...)
}

// Overdue returns a copy of the overdue set.
func (s *Store) Overdue() []catalog.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]catalog.Order(nil), s.overdue...)
}

// TimerFor returns the timer for one order, if it has one.
func (s *Store) TimerFor(orderID string) (sla.Timer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.timers {
		if t.OrderID == orderID {
			return t, true
		}
	}
	return sla.Timer{}, false
}

// Counts returns the sizes of the three collections in one lock.
func (s *Store) Counts() (active, timers, overdue int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.active), len(s.timers), len(s.overdue)
}
