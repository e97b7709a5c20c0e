// Package sla maps each in-flight order status to its dwell-time allowance
// and computes per-order timers against it.
package sla

import "platewatch/catalog"

// DefaultPrepMinutes is used for PREPARING orders without an estimate.
const DefaultPrepMinutes = 20

const (
	newMinutes            = 10
	acceptedMinutes       = 15
	readyDeliveryMinutes  = 5
	readyCounterMinutes   = 60
	outForDeliveryMinutes = 30
	collectedMinutes      = 10
)

// Rule is the allowance for one non-terminal status. Next and Minutes are
// functions of the order because READY and PREPARING depend on it.
type Rule struct {
	Next       func(catalog.Order) catalog.OrderStatus
	Minutes    func(catalog.Order) int
	Reason     string
	LateReason string
}

// Table holds the per-status rules. The PREPARING fallback is configurable;
// everything else is fixed.
type Table struct {
	defaultPrepMinutes int
	rules              map[catalog.OrderStatus]Rule
}

// NewTable builds a rule table. A non-positive defaultPrepMinutes falls back
// to DefaultPrepMinutes.
func NewTable(defaultPrepMinutes int) *Table {
	if defaultPrepMinutes <= 0 {
		defaultPrepMinutes = DefaultPrepMinutes
	}
	t := &Table{defaultPrepMinutes: defaultPrepMinutes}
	t.rules = map[catalog.OrderStatus]Rule{
		catalog.StatusNew: {
			Next:       fixedNext(catalog.StatusAccepted),
			Minutes:    fixed(newMinutes),
			Reason:     "En attente d'acceptation",
			LateReason: "Acceptation en retard",
		},
		catalog.StatusAccepted: {
			Next:       fixedNext(catalog.StatusPreparing),
			Minutes:    fixed(acceptedMinutes),
			Reason:     "En attente de préparation",
			LateReason: "Préparation non démarrée",
		},
		catalog.StatusPreparing: {
			Next:       fixedNext(catalog.StatusReady),
			Minutes:    t.prepMinutes,
			Reason:     "Préparation en cours",
			LateReason: "Préparation en retard",
		},
		catalog.StatusReady: {
			Next:       readyNext,
			Minutes:    readyMinutes,
			Reason:     "En attente de remise",
			LateReason: "Remise en retard",
		},
		catalog.StatusOutForDelivery: {
			Next:       fixedNext(catalog.StatusCollected),
			Minutes:    fixed(outForDeliveryMinutes),
			Reason:     "Livraison en cours",
			LateReason: "Livraison en retard",
		},
		catalog.StatusCollected: {
			Next:       fixedNext(catalog.StatusDone),
			Minutes:    fixed(collectedMinutes),
			Reason:     "En attente de clôture",
			LateReason: "Clôture en retard",
		},
	}
	return t
}

// RuleFor returns the rule for a status. Terminal and unknown statuses have
// no rule.
func (t *Table) RuleFor(status catalog.OrderStatus) (Rule, bool) {
	r, ok := t.rules[status]
	return r, ok
}

func fixed(minutes int) func(catalog.Order) int {
	return func(catalog.Order) int { return minutes }
}

func fixedNext(next catalog.OrderStatus) func(catalog.Order) catalog.OrderStatus {
	return func(catalog.Order) catalog.OrderStatus { return next }
}

// prepMinutes honors the kitchen's estimate when one was given.
func (t *Table) prepMinutes(o catalog.Order) int {
	if o.EstimatedPrepMinutes > 0 {
		return o.EstimatedPrepMinutes
	}
	return t.defaultPrepMinutes
}

// readyMinutes: a delivery order must be dispatched almost immediately once
// food is ready; a pickup or table customer gets an hour before the order is
// flagged late.
func readyMinutes(o catalog.Order) int {
	if o.Type == catalog.TypeDelivery {
		return readyDeliveryMinutes
	}
	return readyCounterMinutes
}

func readyNext(o catalog.Order) catalog.OrderStatus {
	if o.Type == catalog.TypeDelivery {
		return catalog.StatusOutForDelivery
	}
	return catalog.StatusCollected
}
