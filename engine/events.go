package engine

import (
	"platewatch/catalog"
	"platewatch/sla"
)

const (
	EventFeedApplied EventType = iota + 1
	EventOrderStatusChanged
	EventTimersRecomputed
	EventOrderOverdue
	EventWatcherStateChanged
	EventFeedConnected
	EventFeedDisconnected
)

// --- Event payloads ---

type FeedAppliedEvent struct {
	Count int
}

type OrderStatusChangedEvent struct {
	OrderID   string
	OldStatus catalog.OrderStatus
	NewStatus catalog.OrderStatus
}

type TimersRecomputedEvent struct {
	Active  int
	Timers  int
	Overdue int
}

type OrderOverdueEvent struct {
	Order catalog.Order
	Timer sla.Timer
}

type WatcherStateChangedEvent struct {
	Ticking     bool
	ActiveCount int
}

type ConnectionEvent struct {
	Detail string
}
