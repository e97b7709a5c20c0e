package engine

import (
	"platewatch/catalog"
	"platewatch/sla"
)

// watchEmitter bridges the watch package's emitter interface to the EventBus.
type watchEmitter struct {
	bus *EventBus
}

func (e *watchEmitter) EmitTimersRecomputed(active, timers, overdue int) {
	e.bus.Emit(Event{Type: EventTimersRecomputed, Payload: TimersRecomputedEvent{
		Active:  active,
		Timers:  timers,
		Overdue: overdue,
	}})
}

func (e *watchEmitter) EmitOrderOverdue(order catalog.Order, timer sla.Timer) {
	e.bus.Emit(Event{Type: EventOrderOverdue, Payload: OrderOverdueEvent{
		Order: order,
		Timer: timer,
	}})
}

func (e *watchEmitter) EmitWatcherStateChanged(ticking bool, activeCount int) {
	e.bus.Emit(Event{Type: EventWatcherStateChanged, Payload: WatcherStateChangedEvent{
		Ticking:     ticking,
		ActiveCount: activeCount,
	}})
}
