package www

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"platewatch/catalog"
	"platewatch/config"
	"platewatch/engine"
	"platewatch/livecache"
	"platewatch/store"
)

type stubMessenger struct{ connected bool }

func (s stubMessenger) IsConnected() bool { return s.connected }

func newTestServer(t *testing.T) (*httptest.Server, *engine.Engine) {
	t.Helper()
	cfg := config.Defaults()
	cfg.Database.SQLite.Path = filepath.Join(t.TempDir(), "test.db")
	cfg.Watch.TickInterval = time.Hour

	db, err := store.Open(&cfg.Database)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	eng := engine.New(engine.Config{AppConfig: cfg, DB: db, Cache: livecache.New(nil)})
	eng.Start()
	t.Cleanup(eng.Stop)

	router, stop := NewRouter(eng, stubMessenger{connected: true})
	t.Cleanup(stop)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, eng
}

func seedOrders(eng *engine.Engine) {
	eng.ApplyActiveOrders([]catalog.Order{
		{
			ID:              "ord-1",
			Reference:       "CMD-2026-0001",
			Status:          catalog.StatusReady,
			Type:            catalog.TypeDelivery,
			StatusChangedAt: time.Now().Add(-6 * time.Minute),
		},
		{
			ID:              "ord-2",
			Reference:       "CMD-2026-0002",
			Status:          catalog.StatusNew,
			Type:            catalog.TypeTable,
			StatusChangedAt: time.Now().Add(-time.Minute),
		},
	})
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestAPIListOrders(t *testing.T) {
	srv, eng := newTestServer(t)
	seedOrders(eng)

	var views []OrderView
	if code := getJSON(t, srv.URL+"/api/orders", &views); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if len(views) != 2 {
		t.Fatalf("orders = %d, want 2", len(views))
	}

	byID := map[string]OrderView{}
	for _, v := range views {
		byID[v.ID] = v
	}

	ready := byID["ord-1"]
	if ready.StatusLabel != "Prête" {
		t.Errorf("status label = %q, want %q", ready.StatusLabel, "Prête")
	}
	if ready.TypeLabel != "À livrer" {
		t.Errorf("type label = %q, want %q", ready.TypeLabel, "À livrer")
	}
	if ready.Timer == nil {
		t.Fatal("READY order should carry a timer")
	}
	if !ready.Timer.Overdue {
		t.Error("6 minutes in READY for delivery should be overdue")
	}
	if len(ready.Actions) != 2 || ready.Actions[1].Name != catalog.ActionDispatch {
		t.Errorf("READY delivery actions = %+v, want print then dispatch", ready.Actions)
	}
}

func TestAPIListOverdue(t *testing.T) {
	srv, eng := newTestServer(t)
	seedOrders(eng)

	var views []OrderView
	getJSON(t, srv.URL+"/api/orders/overdue", &views)
	if len(views) != 1 || views[0].ID != "ord-1" {
		t.Fatalf("overdue = %+v, want just ord-1", views)
	}
}

func TestAPIOrderActionsAndHistory(t *testing.T) {
	srv, eng := newTestServer(t)
	seedOrders(eng)

	var actions []catalog.Action
	if code := getJSON(t, srv.URL+"/api/orders/ord-2/actions", &actions); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if len(actions) != 2 || actions[0].Name != catalog.ActionReject || actions[1].Name != catalog.ActionAccept {
		t.Errorf("NEW actions = %+v, want reject then accept", actions)
	}

	if code := getJSON(t, srv.URL+"/api/orders/missing/actions", nil); code != http.StatusNotFound {
		t.Errorf("unknown order status = %d, want 404", code)
	}

	var history []store.OrderHistory
	if code := getJSON(t, srv.URL+"/api/orders/ord-2/history", &history); code != http.StatusOK {
		t.Errorf("history status = %d, want 200", code)
	}
}

func TestAPIStatsAndHealth(t *testing.T) {
	srv, eng := newTestServer(t)
	seedOrders(eng)

	var stats map[string]any
	getJSON(t, srv.URL+"/api/stats", &stats)
	if stats["active"].(float64) != 2 {
		t.Errorf("active = %v, want 2", stats["active"])
	}
	if stats["overdue"].(float64) != 1 {
		t.Errorf("overdue = %v, want 1", stats["overdue"])
	}

	var health map[string]any
	getJSON(t, srv.URL+"/api/health", &health)
	if health["status"] != "ok" {
		t.Errorf("status = %v, want ok", health["status"])
	}
	if health["feed"] != true {
		t.Errorf("feed = %v, want true", health["feed"])
	}
}

func TestApplyActionRequiresAuth(t *testing.T) {
	srv, eng := newTestServer(t)
	seedOrders(eng)

	resp, err := http.Post(srv.URL+"/api/orders/ord-2/actions/accept", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestApplyActionWithSession(t *testing.T) {
	srv, eng := newTestServer(t)
	seedOrders(eng)

	// Default admin is created on router setup.
	form := url.Values{"username": {"admin"}, "password": {"admin"}}
	resp, err := http.Post(srv.URL+"/login", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		t.Fatal("login set no session cookie")
	}

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/orders/ord-2/actions/accept", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("apply action: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("apply status = %d, want 200", resp.StatusCode)
	}

	order, err := eng.DB().GetOrder("ord-2")
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.Status != catalog.StatusAccepted {
		t.Errorf("status = %s, want ACCEPTED", order.Status)
	}

	// An action outside the legal list is refused.
	req, _ = http.NewRequest(http.MethodPost, srv.URL+"/api/orders/ord-2/actions/finalize", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("apply illegal action: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("illegal action status = %d, want 409", resp.StatusCode)
	}
}
