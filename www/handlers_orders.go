package www

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"platewatch/catalog"
	"platewatch/sla"
	"platewatch/store"
)

// OrderView is what the UI renders per order: the raw order, its display
// labels, the live timer when one exists, and the legal next actions.
type OrderView struct {
	catalog.Order
	StatusLabel string           `json:"status_label,omitempty"`
	TypeLabel   string           `json:"type_label"`
	Timer       *sla.Timer       `json:"timer,omitempty"`
	Actions     []catalog.Action `json:"actions"`
}

func (h *Handlers) orderView(o catalog.Order) OrderView {
	v := OrderView{
		Order:     o,
		TypeLabel: catalog.TypeLabel(o.Type),
		Actions:   catalog.LegalActions(o.Status, o.Type),
	}
	if label, ok := catalog.BadgeText(o.Status); ok {
		v.StatusLabel = label
	}
	if t, ok := h.engine.State().TimerFor(o.ID); ok {
		v.Timer = &t
	}
	return v
}

func (h *Handlers) apiListOrders(w http.ResponseWriter, r *http.Request) {
	orders := h.engine.State().ActiveOrders()
	views := make([]OrderView, len(orders))
	for i, o := range orders {
		views[i] = h.orderView(o)
	}
	h.jsonOK(w, views)
}

func (h *Handlers) apiListOverdue(w http.ResponseWriter, r *http.Request) {
	orders := h.engine.State().Overdue()
	views := make([]OrderView, len(orders))
	for i, o := range orders {
		views[i] = h.orderView(o)
	}
	h.jsonOK(w, views)
}

func (h *Handlers) apiListTimers(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, h.engine.State().Timers())
}

func (h *Handlers) apiGetOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	order, err := h.engine.DB().GetOrder(id)
	if err == store.ErrNotFound {
		h.jsonError(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, h.orderView(order))
}

func (h *Handlers) apiOrderActions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	order, err := h.engine.DB().GetOrder(id)
	if err == store.ErrNotFound {
		h.jsonError(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	actions := catalog.LegalActions(order.Status, order.Type)
	if actions == nil {
		actions = []catalog.Action{}
	}
	h.jsonOK(w, actions)
}

func (h *Handlers) apiOrderHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	history, err := h.engine.DB().ListHistory(id)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, history)
}

// apiApplyAction performs a workflow action picked from the order's legal
// list. Print has no target status and changes nothing server-side.
func (h *Handlers) apiApplyAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	name := chi.URLParam(r, "action")

	order, err := h.engine.DB().GetOrder(id)
	if err == store.ErrNotFound {
		h.jsonError(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	for _, a := range catalog.LegalActions(order.Status, order.Type) {
		if a.Name != name {
			continue
		}
		log.Printf("www: %s applied %s on order %s", h.getUsername(r), a.Name, order.ID)
		if a.Target != "" {
			h.engine.ApplyStatusChange(order.ID, a.Target, time.Now())
		}
		h.jsonOK(w, map[string]any{"status": "ok", "action": a.Name, "target_status": a.Target})
		return
	}
	h.jsonError(w, "action not available for this order", http.StatusConflict)
}

func (h *Handlers) apiStats(w http.ResponseWriter, r *http.Request) {
	active, timers, overdue := h.engine.State().Counts()
	h.jsonOK(w, map[string]any{
		"active":                active,
		"timers":                timers,
		"overdue":               overdue,
		"avg_elapsed_by_status": h.engine.AverageElapsedByStatus(),
		"sse_clients":           h.eventHub.ClientCount(),
	})
}

func (h *Handlers) apiHealthCheck(w http.ResponseWriter, r *http.Request) {
	feedOK := h.msg != nil && h.msg.IsConnected()
	h.jsonOK(w, map[string]any{
		"status": "ok",
		"feed":   feedOK,
	})
}
