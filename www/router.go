// Package www serves the back-office HTTP API: order and timer snapshots,
// workflow actions, a server-sent event stream, and Prometheus metrics.
package www

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"

	"platewatch/engine"
	"platewatch/metrics"
)

// Messenger reports feed connectivity for the health endpoint.
type Messenger interface {
	IsConnected() bool
}

type Handlers struct {
	engine   *engine.Engine
	msg      Messenger
	sessions *sessions.CookieStore
	eventHub *EventHub
}

func NewRouter(eng *engine.Engine, msg Messenger) (http.Handler, func()) {
	hub := NewEventHub()
	hub.Start()
	hub.SetupEngineListeners(eng)

	h := &Handlers{
		engine:   eng,
		msg:      msg,
		sessions: newSessionStore(eng.AppConfig().Web.SessionSecret),
		eventHub: hub,
	}

	h.ensureDefaultAdmin(eng.DB())

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// SSE
	r.Get("/events", hub.SSEHandler)

	// Prometheus
	r.Handle("/metrics", metrics.Handler())

	// Session
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)

	// API routes (no auth required for read)
	r.Route("/api", func(r chi.Router) {
		r.Get("/orders", h.apiListOrders)
		r.Get("/orders/overdue", h.apiListOverdue)
		r.Get("/orders/{id}", h.apiGetOrder)
		r.Get("/orders/{id}/actions", h.apiOrderActions)
		r.Get("/orders/{id}/history", h.apiOrderHistory)
		r.Get("/timers", h.apiListTimers)
		r.Get("/stats", h.apiStats)
		r.Get("/health", h.apiHealthCheck)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/api/orders/{id}/actions/{action}", h.apiApplyAction)
	})

	stopFn := func() {
		hub.Stop()
	}

	return r, stopFn
}

func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	user, err := h.engine.DB().GetAdminUser(username)
	if err != nil || !checkPassword(user.PasswordHash, password) {
		h.jsonError(w, "invalid username or password", http.StatusUnauthorized)
		return
	}

	session, _ := h.sessions.Get(r, sessionName)
	session.Values["authenticated"] = true
	session.Values["username"] = username
	if err := session.Save(r, w); err != nil {
		h.jsonError(w, "session save failed", http.StatusInternalServerError)
		return
	}

	h.jsonOK(w, map[string]string{"status": "ok", "username": username})
}

func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessions.Get(r, sessionName)
	session.Values["authenticated"] = false
	session.Values["username"] = ""
	session.Save(r, w)
	h.jsonOK(w, map[string]string{"status": "ok"})
}
