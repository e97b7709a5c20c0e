package engine

import (
	"context"
	"log"
	"time"

	"platewatch/livecache"
)

func (e *Engine) wireEventHandlers() {
	// Every recomputation refreshes the Redis mirror.
	e.Events.SubscribeTypes(func(evt Event) {
		e.publishSnapshot()
	}, EventTimersRecomputed)

	// Crossing the allowance is worth a log line; the SSE layer turns the
	// same event into an alert for the UI.
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(OrderOverdueEvent)
		log.Printf("engine: order %s overdue in %s (%ds elapsed of %ds allowed)",
			ev.Order.ID, ev.Order.Status, ev.Timer.ElapsedSeconds, ev.Timer.AllowedSeconds)
	}, EventOrderOverdue)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(WatcherStateChangedEvent)
		if ev.Ticking {
			log.Printf("engine: watcher ticking (%d active orders)", ev.ActiveCount)
		} else {
			log.Printf("engine: watcher idle")
			e.clearSnapshot()
		}
	}, EventWatcherStateChanged)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(OrderStatusChangedEvent)
		log.Printf("engine: order %s: %s -> %s", ev.OrderID, ev.OldStatus, ev.NewStatus)
	}, EventOrderStatusChanged)
}

func (e *Engine) publishSnapshot() {
	if !e.cache.Enabled() {
		return
	}
	overdue := e.state.Overdue()
	ids := make([]string, len(overdue))
	for i, o := range overdue {
		ids[i] = o.ID
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.cache.Publish(ctx, livecache.Snapshot{
		Timers:     e.state.Timers(),
		OverdueIDs: ids,
		UpdatedAt:  time.Now(),
	}); err != nil {
		log.Printf("engine: publish snapshot: %v", err)
	}
}

func (e *Engine) clearSnapshot() {
	if !e.cache.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.cache.Clear(ctx); err != nil {
		log.Printf("engine: clear snapshot: %v", err)
	}
}
