// Package engine wires the feed, the SQL store, and the SLA watch loop
// together and fans change events out to the web layer.
package engine

import (
	"log"
	"sync"
	"time"

	"platewatch/catalog"
	"platewatch/config"
	"platewatch/livecache"
	"platewatch/sla"
	"platewatch/store"
	"platewatch/watch"
)

type Engine struct {
	cfg   *config.Config
	db    *store.DB
	cache *livecache.Cache

	state   *watch.Store
	table   *sla.Table
	watcher *watch.Watcher

	// writeMu serializes every path into the derived state. The feed's
	// reader goroutines and the API's action handlers all funnel through
	// ApplyActiveOrders/ApplyStatusChange; only one may run at a time.
	writeMu sync.Mutex

	Events *EventBus
}

// Config holds the parameters needed to create an Engine.
type Config struct {
	AppConfig *config.Config
	DB        *store.DB
	Cache     *livecache.Cache
}

// New creates the engine. Call Start to warm the watcher and wire handlers.
func New(c Config) *Engine {
	table := sla.NewTable(c.AppConfig.Watch.DefaultPrepMinutes)
	state := watch.NewStore()
	e := &Engine{
		cfg:    c.AppConfig,
		db:     c.DB,
		cache:  c.Cache,
		state:  state,
		table:  table,
		Events: NewEventBus(),
	}
	e.watcher = watch.NewWatcher(state, table, &watchEmitter{bus: e.Events}, c.AppConfig.Watch.TickInterval)
	return e
}

// Start wires event handlers and warms the watcher from the persisted
// active set, so timers are live before the first feed message arrives.
func (e *Engine) Start() {
	e.wireEventHandlers()

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	orders, err := e.db.ListActiveOrders()
	if err != nil {
		log.Printf("engine: warm start: %v", err)
		return
	}
	if len(orders) > 0 {
		e.watcher.ApplyActiveOrders(orders)
		log.Printf("engine: warmed watcher with %d active orders", len(orders))
	}
}

// Stop cancels the watch loop.
func (e *Engine) Stop() {
	e.watcher.Stop()
	log.Printf("engine: stopped")
}

// ApplyActiveOrders is the single entry point for feed snapshots: persist
// the new active set wholesale, then hand it to the watcher, which
// recomputes immediately.
func (e *Engine) ApplyActiveOrders(orders []catalog.Order) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	if err := e.db.ReplaceActiveOrders(orders); err != nil {
		log.Printf("engine: persist active orders: %v", err)
	}
	e.watcher.ApplyActiveOrders(orders)
	e.Events.Emit(Event{Type: EventFeedApplied, Payload: FeedAppliedEvent{Count: len(orders)}})
}

// ApplyStatusChange patches one order from a feed event and rederives the
// active set from SQL, so the watcher still sees a wholesale replacement.
// The order stays active even on a terminal status: only the feed's next
// snapshot removes it.
func (e *Engine) ApplyStatusChange(orderID string, status catalog.OrderStatus, changedAt time.Time) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	prev, err := e.db.GetOrder(orderID)
	if err != nil {
		log.Printf("engine: status change for unknown order %s: %v", orderID, err)
		return
	}
	if !catalog.IsValidTransition(prev.Type, prev.Status, status) {
		// The feed is authoritative; record the oddity and apply anyway.
		log.Printf("engine: order %s: unexpected transition %s -> %s", orderID, prev.Status, status)
	}
	if err := e.db.ApplyStatusChange(orderID, status, changedAt); err != nil {
		log.Printf("engine: apply status change %s: %v", orderID, err)
		return
	}

	orders, err := e.db.ListActiveOrders()
	if err != nil {
		log.Printf("engine: reload active orders: %v", err)
		return
	}
	e.watcher.ApplyActiveOrders(orders)
	e.Events.Emit(Event{Type: EventOrderStatusChanged, Payload: OrderStatusChangedEvent{
		OrderID:   orderID,
		OldStatus: prev.Status,
		NewStatus: status,
	}})
}

// State exposes read-only snapshots of the derived collections.
func (e *Engine) State() *watch.Store { return e.state }

func (e *Engine) DB() *store.DB { return e.db }

func (e *Engine) Table() *sla.Table { return e.table }

func (e *Engine) AppConfig() *config.Config { return e.cfg }

// AverageElapsedByStatus computes the mean elapsed seconds per status over
// the current timer snapshot. This is the only aggregate the UI consumes.
func (e *Engine) AverageElapsedByStatus() map[catalog.OrderStatus]int64 {
	sums := make(map[catalog.OrderStatus]int64)
	counts := make(map[catalog.OrderStatus]int64)
	for _, t := range e.state.Timers() {
		sums[t.Status] += t.ElapsedSeconds
		counts[t.Status]++
	}
	avgs := make(map[catalog.OrderStatus]int64, len(sums))
	for status, sum := range sums {
		avgs[status] = sum / counts[status]
	}
	return avgs
}
