// Package metrics exposes Prometheus gauges and counters for the watch loop.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"platewatch/engine"
	"platewatch/watch"
)

const metricPrefix = "platewatch_"

var (
	registerOnce sync.Once

	recomputesTotal prometheus.Counter
	overdueTotal    prometheus.Counter
	feedTotal       *prometheus.CounterVec
)

// Init registers state-backed gauges and event counters. Safe to call once
// per process; repeated calls are no-ops.
func Init(eng *engine.Engine) {
	registerOnce.Do(func() {
		registerStateGauges(eng.State())

		recomputesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "timer_recomputes_total",
			Help: "Total timer recomputations",
		})
		overdueTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "orders_overdue_total",
			Help: "Total orders that crossed their allowance",
		})
		feedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "feed_messages_total",
			Help: "Total feed messages applied by kind",
		}, []string{"kind"})

		prometheus.MustRegister(recomputesTotal, overdueTotal, feedTotal)

		eng.Events.SubscribeTypes(func(engine.Event) {
			recomputesTotal.Inc()
		}, engine.EventTimersRecomputed)
		eng.Events.SubscribeTypes(func(engine.Event) {
			overdueTotal.Inc()
		}, engine.EventOrderOverdue)
		eng.Events.SubscribeTypes(func(engine.Event) {
			feedTotal.WithLabelValues("snapshot").Inc()
		}, engine.EventFeedApplied)
		eng.Events.SubscribeTypes(func(engine.Event) {
			feedTotal.WithLabelValues("status_changed").Inc()
		}, engine.EventOrderStatusChanged)
	})
}

func registerStateGauges(state *watch.Store) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "active_orders",
			Help: "Orders currently tracked",
		},
		func() float64 {
			active, _, _ := state.Counts()
			return float64(active)
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "order_timers",
			Help: "Orders with a live dwell timer",
		},
		func() float64 {
			_, timers, _ := state.Counts()
			return float64(timers)
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "overdue_orders",
			Help: "Orders past their dwell allowance",
		},
		func() float64 {
			_, _, overdue := state.Counts()
			return float64(overdue)
		},
	))
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
