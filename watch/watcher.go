package watch

import (
	"sync"
	"time"

	"platewatch/catalog"
	"platewatch/sla"
)

// EventEmitter receives watcher lifecycle and recomputation events.
type EventEmitter interface {
	EmitTimersRecomputed(active, timers, overdue int)
	EmitOrderOverdue(order catalog.Order, timer sla.Timer)
	EmitWatcherStateChanged(ticking bool, activeCount int)
}

// Watcher keeps the timer collection fresh. It has two states: Idle (no
// active orders, no interval running) and Ticking (a single repeating tick
// recomputing every order's timer). Feed changes always trigger an immediate
// recomputation rather than waiting for the next tick boundary.
type Watcher struct {
	store    *Store
	table    *sla.Table
	emitter  EventEmitter
	interval time.Duration
	now      func() time.Time

	mu         sync.Mutex
	ticking    bool
	stopChan   chan struct{}
	wasOverdue map[string]bool
}

func NewWatcher(store *Store, table *sla.Table, emitter EventEmitter, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &Watcher{
		store:      store,
		table:      table,
		emitter:    emitter,
		interval:   interval,
		now:        time.Now,
		wasOverdue: make(map[string]bool),
	}
}

// ApplyActiveOrders is the single entry point for feed updates. It replaces
// the active set wholesale, recomputes immediately, and moves the watcher
// between Idle and Ticking as the set empties or fills.
func (w *Watcher) ApplyActiveOrders(orders []catalog.Order) {
	w.store.SetActiveOrders(orders)
	if len(orders) == 0 {
		w.enterIdle()
		return
	}
	w.refresh()
	w.ensureTicking()
}

// Stop cancels the repeating tick. Safe to call when idle.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked()
}

// Ticking reports whether the interval is running.
func (w *Watcher) Ticking() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ticking
}

// enterIdle clears the timer collection (the overdue set follows through the
// store's recompute) and cancels the tick. This happens synchronously so an
// emptied feed empties the overdue set without waiting for a tick.
func (w *Watcher) enterIdle() {
	w.mu.Lock()
	wasTicking := w.ticking
	w.stopLocked()
	w.wasOverdue = make(map[string]bool)
	w.mu.Unlock()

	w.store.SetTimers(nil)
	if wasTicking {
		w.emitter.EmitWatcherStateChanged(false, 0)
	}
}

// ensureTicking starts the repeating tick unless one is already running.
// At most one interval is ever alive for a watcher instance.
func (w *Watcher) ensureTicking() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ticking {
		return
	}
	w.ticking = true
	w.stopChan = make(chan struct{})
	go w.run(w.stopChan)

	active, _, _ := w.store.Counts()
	w.emitter.EmitWatcherStateChanged(true, active)
}

// stopLocked cancels the outstanding interval. Callers hold w.mu.
func (w *Watcher) stopLocked() {
	if !w.ticking {
		return
	}
	close(w.stopChan)
	w.stopChan = nil
	w.ticking = false
}

func (w *Watcher) run(stop chan struct{}) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			w.refresh()
		}
	}
}

// refresh recomputes every active order's timer and replaces the collection
// wholesale, then reports orders that just crossed their allowance. The
// store swaps timers before rederiving overdue, so readers never observe a
// half-updated set.
func (w *Watcher) refresh() {
	orders := w.store.ActiveOrders()
	timers := w.table.ComputeAll(orders, w.now())
	w.store.SetTimers(timers)

	byID := make(map[string]catalog.Order, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
	}

	w.mu.Lock()
	prev := w.wasOverdue
	next := make(map[string]bool, len(timers))
	var crossed []sla.Timer
	for _, t := range timers {
		next[t.OrderID] = t.Overdue
		if t.Overdue && !prev[t.OrderID] {
			crossed = append(crossed, t)
		}
	}
	w.wasOverdue = next
	w.mu.Unlock()

	active, nTimers, overdue := w.store.Counts()
	w.emitter.EmitTimersRecomputed(active, nTimers, overdue)
	for _, t := range crossed {
		if o, ok := byID[t.OrderID]; ok {
			w.emitter.EmitOrderOverdue(o, t)
		}
	}
}
