package sla

import (
	"time"

	"platewatch/catalog"
)

// Timer is the derived elapsed-vs-allowed record for one order, recomputed
// every tick and replaced wholesale. It is never persisted.
type Timer struct {
	OrderID          string              `json:"order_id"`
	Status           catalog.OrderStatus `json:"status"`
	Next             catalog.OrderStatus `json:"next_status"`
	ElapsedSeconds   int64               `json:"elapsed_seconds"`
	AllowedSeconds   int64               `json:"allowed_seconds"`
	RemainingSeconds int64               `json:"remaining_seconds"`
	Overdue          bool                `json:"overdue"`
}

// ComputeTimer derives the timer for an order at the given instant. ok is
// false when the order's status has no rule (terminal or unrecognized):
// such orders simply have no timer.
//
// The function is pure: same (order, now) in, same timer out, no side
// effects. The overdue boundary is inclusive — exactly at the allowance
// counts as overdue.
func (t *Table) ComputeTimer(o catalog.Order, now time.Time) (Timer, bool) {
	rule, ok := t.RuleFor(o.Status)
	if !ok {
		return Timer{}, false
	}

	elapsed := int64(now.Sub(o.StatusChangedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	allowed := int64(rule.Minutes(o)) * 60

	return Timer{
		OrderID:          o.ID,
		Status:           o.Status,
		Next:             rule.Next(o),
		ElapsedSeconds:   elapsed,
		AllowedSeconds:   allowed,
		RemainingSeconds: allowed - elapsed,
		Overdue:          elapsed >= allowed,
	}, true
}

// ComputeAll derives timers for every order that has one, dropping orders
// whose status carries no rule.
func (t *Table) ComputeAll(orders []catalog.Order, now time.Time) []Timer {
	timers := make([]Timer, 0, len(orders))
	for _, o := range orders {
		if timer, ok := t.ComputeTimer(o, now); ok {
			timers = append(timers, timer)
		}
	}
	return timers
}
