package engine

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"platewatch/catalog"
	"platewatch/config"
	"platewatch/livecache"
	"platewatch/store"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.Defaults()
	cfg.Database.SQLite.Path = filepath.Join(t.TempDir(), "test.db")
	cfg.Watch.TickInterval = time.Hour // ticks driven by feed application only

	db, err := store.Open(&cfg.Database)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	e := New(Config{AppConfig: cfg, DB: db, Cache: livecache.New(nil)})
	e.Start()
	t.Cleanup(e.Stop)
	return e
}

func feedOrder(id string, status catalog.OrderStatus, typ catalog.OrderType, age time.Duration) catalog.Order {
	return catalog.Order{
		ID:              id,
		Reference:       "CMD-" + id,
		Status:          status,
		Type:            typ,
		StatusChangedAt: time.Now().Add(-age),
	}
}

func TestEngine_ApplyActiveOrdersDerivesState(t *testing.T) {
	e := testEngine(t)

	var mu sync.Mutex
	var overdueIDs []string
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(OrderOverdueEvent)
		mu.Lock()
		overdueIDs = append(overdueIDs, ev.Order.ID)
		mu.Unlock()
	}, EventOrderOverdue)

	e.ApplyActiveOrders([]catalog.Order{
		feedOrder("a", catalog.StatusReady, catalog.TypeDelivery, 6*time.Minute),
		feedOrder("b", catalog.StatusNew, catalog.TypeTable, time.Minute),
	})

	active, timers, overdue := e.State().Counts()
	if active != 2 || timers != 2 || overdue != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/2/1", active, timers, overdue)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(overdueIDs) != 1 || overdueIDs[0] != "a" {
		t.Errorf("overdue events = %v, want [a]", overdueIDs)
	}

	// Persisted as well.
	stored, err := e.DB().ListActiveOrders()
	if err != nil || len(stored) != 2 {
		t.Errorf("stored active orders = %d err=%v, want 2", len(stored), err)
	}
}

func TestEngine_ApplyStatusChangeReappliesActiveSet(t *testing.T) {
	e := testEngine(t)

	e.ApplyActiveOrders([]catalog.Order{
		feedOrder("a", catalog.StatusPreparing, catalog.TypeDelivery, time.Minute),
	})

	e.ApplyStatusChange("a", catalog.StatusReady, time.Now())

	tm, ok := e.State().TimerFor("a")
	if !ok {
		t.Fatal("order a should still have a timer")
	}
	if tm.Status != catalog.StatusReady {
		t.Errorf("timer status = %s, want READY", tm.Status)
	}
	if tm.AllowedSeconds != 300 {
		t.Errorf("READY delivery allowance = %d, want 300", tm.AllowedSeconds)
	}
}

func TestEngine_TerminalStatusKeepsOrderUntilFeedDropsIt(t *testing.T) {
	e := testEngine(t)

	e.ApplyActiveOrders([]catalog.Order{
		feedOrder("a", catalog.StatusCollected, catalog.TypeTable, time.Minute),
	})
	e.ApplyStatusChange("a", catalog.StatusDone, time.Now())

	active, timers, _ := e.State().Counts()
	if active != 1 {
		t.Errorf("DONE order should stay active until the feed drops it, active=%d", active)
	}
	if timers != 0 {
		t.Errorf("DONE order must have no timer, timers=%d", timers)
	}

	// The feed's next snapshot removes it.
	e.ApplyActiveOrders(nil)
	if active, _, _ := e.State().Counts(); active != 0 {
		t.Errorf("after empty snapshot, active=%d, want 0", active)
	}
}

func TestEngine_WarmStartFromPersistedOrders(t *testing.T) {
	cfg := config.Defaults()
	cfg.Database.SQLite.Path = filepath.Join(t.TempDir(), "test.db")
	cfg.Watch.TickInterval = time.Hour

	db, err := store.Open(&cfg.Database)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	first := New(Config{AppConfig: cfg, DB: db, Cache: livecache.New(nil)})
	first.Start()
	first.ApplyActiveOrders([]catalog.Order{
		feedOrder("a", catalog.StatusNew, catalog.TypeTable, time.Minute),
	})
	first.Stop()

	second := New(Config{AppConfig: cfg, DB: db, Cache: livecache.New(nil)})
	second.Start()
	defer second.Stop()

	if active, timers, _ := second.State().Counts(); active != 1 || timers != 1 {
		t.Errorf("warm start counts = %d/%d, want 1/1", active, timers)
	}
}

func TestEngine_ConcurrentFeedAndActionWriters(t *testing.T) {
	e := testEngine(t)

	snapshot := []catalog.Order{
		feedOrder("a", catalog.StatusNew, catalog.TypeTable, time.Minute),
		feedOrder("b", catalog.StatusAccepted, catalog.TypePickup, time.Minute),
		feedOrder("c", catalog.StatusReady, catalog.TypeDelivery, 6*time.Minute),
	}
	e.ApplyActiveOrders(snapshot)

	// Feed snapshots and API status changes race; the engine serializes
	// them, so every snapshot of the derived state is internally consistent.
	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			e.ApplyActiveOrders(snapshot)
		}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			e.ApplyStatusChange("a", catalog.StatusAccepted, time.Now())
			e.ApplyStatusChange("b", catalog.StatusPreparing, time.Now())
		}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			active, _, overdue := e.State().Counts()
			if overdue > active {
				t.Errorf("overdue %d exceeds active %d", overdue, active)
				return
			}
			if active != 0 && active != 3 {
				t.Errorf("observed a partial active set: %d orders", active)
				return
			}
		}
	}()

	wg.Wait()
	close(stop)

	// Once the writers drain, the derived state matches what is persisted.
	stored, err := e.DB().ListActiveOrders()
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	active, _, _ := e.State().Counts()
	if len(stored) != active || active != 3 {
		t.Errorf("stored %d vs derived %d, want 3", len(stored), active)
	}
}

func TestEngine_AverageElapsedByStatus(t *testing.T) {
	e := testEngine(t)

	e.ApplyActiveOrders([]catalog.Order{
		feedOrder("a", catalog.StatusNew, catalog.TypeTable, 2*time.Minute),
		feedOrder("b", catalog.StatusNew, catalog.TypeTable, 4*time.Minute),
		feedOrder("c", catalog.StatusPreparing, catalog.TypePickup, time.Minute),
	})

	avgs := e.AverageElapsedByStatus()
	if got := avgs[catalog.StatusNew]; got < 175 || got > 185 {
		t.Errorf("NEW average = %d, want ~180", got)
	}
	if _, ok := avgs[catalog.StatusReady]; ok {
		t.Error("no READY orders, no READY average")
	}
}
