package watch

import (
	"sync"
	"testing"
	"time"

	"platewatch/catalog"
	"platewatch/sla"
)

type mockEmitter struct {
	mu         sync.Mutex
	recomputed int
	overdue    []string
	states     []bool
}

func (m *mockEmitter) EmitTimersRecomputed(active, timers, overdue int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recomputed++
}

func (m *mockEmitter) EmitOrderOverdue(o catalog.Order, _ sla.Timer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overdue = append(m.overdue, o.ID)
}

func (m *mockEmitter) EmitWatcherStateChanged(ticking bool, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, ticking)
}

func (m *mockEmitter) overdueIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.overdue...)
}

func newTestWatcher(t *testing.T) (*Watcher, *Store, *mockEmitter) {
	t.Helper()
	store := NewStore()
	emitter := &mockEmitter{}
	w := NewWatcher(store, sla.NewTable(0), emitter, time.Hour) // ticks driven manually
	t.Cleanup(w.Stop)
	return w, store, emitter
}

func activeOrder(id string, status catalog.OrderStatus, typ catalog.OrderType, age time.Duration) catalog.Order {
	return catalog.Order{
		ID:              id,
		Status:          status,
		Type:            typ,
		StatusChangedAt: time.Now().Add(-age),
	}
}

func TestWatcher_ApplyComputesImmediately(t *testing.T) {
	w, store, emitter := newTestWatcher(t)

	w.ApplyActiveOrders([]catalog.Order{
		activeOrder("a", catalog.StatusReady, catalog.TypeDelivery, 6*time.Minute),
		activeOrder("b", catalog.StatusNew, catalog.TypeTable, time.Minute),
		activeOrder("c", catalog.StatusDone, catalog.TypeTable, time.Minute),
	})

	_, timers, overdue := store.Counts()
	if timers != 2 {
		t.Errorf("expected 2 timers (DONE has none), got %d", timers)
	}
	if overdue != 1 {
		t.Errorf("expected 1 overdue order, got %d", overdue)
	}
	if got := emitter.overdueIDs(); len(got) != 1 || got[0] != "a" {
		t.Errorf("expected overdue emission for a, got %v", got)
	}
	if !w.Ticking() {
		t.Error("watcher should be ticking with a non-empty active set")
	}
}

func TestWatcher_EmptyFeedClearsWithoutWaitingForTick(t *testing.T) {
	w, store, _ := newTestWatcher(t)

	w.ApplyActiveOrders([]catalog.Order{
		activeOrder("a", catalog.StatusNew, catalog.TypeTable, 20*time.Minute),
		activeOrder("b", catalog.StatusAccepted, catalog.TypePickup, time.Minute),
		activeOrder("c", catalog.StatusPreparing, catalog.TypeDelivery, time.Minute),
	})
	if _, timers, _ := store.Counts(); timers != 3 {
		t.Fatalf("setup: expected 3 timers, got %d", timers)
	}

	// The tick interval is an hour; the clear must happen synchronously.
	w.ApplyActiveOrders(nil)

	active, timers, overdue := store.Counts()
	if active != 0 || timers != 0 || overdue != 0 {
		t.Errorf("empty feed should clear everything immediately, got active=%d timers=%d overdue=%d",
			active, timers, overdue)
	}
	if w.Ticking() {
		t.Error("watcher should be idle with an empty active set")
	}
}

func TestWatcher_SingleIntervalAcrossReapplies(t *testing.T) {
	w, _, _ := newTestWatcher(t)

	orders := []catalog.Order{activeOrder("a", catalog.StatusNew, catalog.TypeTable, time.Minute)}
	w.ApplyActiveOrders(orders)
	first := w.stopChan
	if first == nil {
		t.Fatal("expected a running ticker")
	}

	// Re-applying while ticking must not register a second interval.
	w.ApplyActiveOrders(orders)
	if w.stopChan != first {
		t.Error("re-applying the feed replaced the ticker; duplicate ticks would double-count")
	}

	// A stop and a fresh apply registers exactly one new interval.
	w.Stop()
	if w.Ticking() {
		t.Fatal("Stop should leave the watcher idle")
	}
	w.ApplyActiveOrders(orders)
	if w.stopChan == nil || w.stopChan == first {
		t.Error("restart should create one fresh ticker")
	}
}

func TestWatcher_OverdueEmittedOnceUntilReset(t *testing.T) {
	w, _, emitter := newTestWatcher(t)

	orders := []catalog.Order{activeOrder("a", catalog.StatusReady, catalog.TypeDelivery, 6*time.Minute)}
	w.ApplyActiveOrders(orders)
	w.refresh()
	w.refresh()

	if got := emitter.overdueIDs(); len(got) != 1 {
		t.Errorf("crossing the allowance should be emitted once, got %d emissions", len(got))
	}

	// Emptying the feed resets edge tracking; the next crossing fires again.
	w.ApplyActiveOrders(nil)
	w.ApplyActiveOrders(orders)
	if got := emitter.overdueIDs(); len(got) != 2 {
		t.Errorf("expected a second emission after reset, got %d", len(got))
	}
}

func TestWatcher_TickAdvancesOverdueWithWallClock(t *testing.T) {
	store := NewStore()
	emitter := &mockEmitter{}
	w := NewWatcher(store, sla.NewTable(0), emitter, time.Hour)
	defer w.Stop()

	base := time.Now()
	current := base
	var mu sync.Mutex
	w.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	// READY delivery order, 4 minutes in: not yet overdue.
	w.ApplyActiveOrders([]catalog.Order{{
		ID:              "a",
		Status:          catalog.StatusReady,
		Type:            catalog.TypeDelivery,
		StatusChangedAt: base.Add(-4 * time.Minute),
	}})
	if _, _, overdue := store.Counts(); overdue != 0 {
		t.Fatalf("4min elapsed of 5min allowed: expected 0 overdue, got %d", overdue)
	}

	// Two minutes later, with no feed change, a tick flips it overdue.
	mu.Lock()
	current = base.Add(2 * time.Minute)
	mu.Unlock()
	w.refresh()

	if _, _, overdue := store.Counts(); overdue != 1 {
		t.Errorf("6min elapsed of 5min allowed: expected 1 overdue, got %d", overdue)
	}
	if tm, ok := store.TimerFor("a"); !ok || tm.ElapsedSeconds != 360 || tm.AllowedSeconds != 300 {
		t.Errorf("timer = %+v, want elapsed=360 allowed=300", tm)
	}
}

func TestWatcher_PeriodicTickRuns(t *testing.T) {
	store := NewStore()
	emitter := &mockEmitter{}
	w := NewWatcher(store, sla.NewTable(0), emitter, 10*time.Millisecond)
	defer w.Stop()

	w.ApplyActiveOrders([]catalog.Order{activeOrder("a", catalog.StatusNew, catalog.TypeTable, time.Minute)})

	deadline := time.After(2 * time.Second)
	for {
		emitter.mu.Lock()
		n := emitter.recomputed
		emitter.mu.Unlock()
		if n >= 3 { // immediate refresh plus at least two ticks
			return
		}
		select {
		case <-deadline:
			t.Fatalf("expected periodic recomputations, got %d", n)
		case <-time.After(5 * time.Millisecond):
		}
	}
}
