package catalog

import "time"

// OrderStatus is the canonical machine status of an order.
type OrderStatus string

const (
	StatusNew            OrderStatus = "NEW"
	StatusAccepted       OrderStatus = "ACCEPTED"
	StatusPreparing      OrderStatus = "PREPARING"
	StatusReady          OrderStatus = "READY"
	StatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	StatusCollected      OrderStatus = "COLLECTED"
	StatusDone           OrderStatus = "DONE"
	StatusCancelled      OrderStatus = "CANCELLED"
)

// OrderType determines which transitions and allowances apply.
type OrderType string

const (
	TypeDelivery OrderType = "DELIVERY"
	TypePickup   OrderType = "PICKUP"
	TypeTable    OrderType = "TABLE"
)

// Order is the subset of an order this service works with. The feed supplies
// it; the store persists it; the timer and action resolvers read it.
type Order struct {
	ID                   string      `json:"id"`
	Reference            string      `json:"reference"`
	CustomerName         string      `json:"customer_name"`
	Status               OrderStatus `json:"status"`
	Type                 OrderType   `json:"order_type"`
	StatusChangedAt      time.Time   `json:"status_changed_at"`
	EstimatedPrepMinutes int         `json:"estimated_prep_minutes,omitempty"` // 0 = no estimate
	TotalAmount          float64     `json:"total_amount"`
}

var allStatuses = []OrderStatus{
	StatusNew, StatusAccepted, StatusPreparing, StatusReady,
	StatusOutForDelivery, StatusCollected, StatusDone, StatusCancelled,
}

var allTypes = []OrderType{TypeDelivery, TypePickup, TypeTable}

// KnownStatus reports whether s is one of the closed status set.
func KnownStatus(s OrderStatus) bool {
	for _, st := range allStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// KnownType reports whether t is one of the closed order-type set.
func KnownType(t OrderType) bool {
	for _, ot := range allTypes {
		if ot == t {
			return true
		}
	}
	return false
}

// IsTerminal returns true if the status admits no further transitions.
func IsTerminal(s OrderStatus) bool {
	return s == StatusDone || s == StatusCancelled
}

// IsValidTransition checks whether an order of the given type may move from
// one status to another. Derived from the action table so there is a single
// source of truth.
func IsValidTransition(orderType OrderType, from, to OrderStatus) bool {
	for _, a := range LegalActions(from, orderType) {
		if a.Target == to {
			return true
		}
	}
	return false
}
