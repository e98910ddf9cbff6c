// Package metrics exposes Prometheus counters for the poll loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "roomspot_sniper"

type Metrics struct {
	registry *prometheus.Registry

	Cycles          *prometheus.CounterVec
	ListingsFetched prometheus.Gauge
	NewListings     prometheus.Counter
	Notifications   *prometheus.CounterVec
	SeenSetSize     prometheus.Gauge
	CycleDuration   prometheus.Histogram
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		Cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Poll cycles by outcome.",
		}, []string{"outcome"}),
		ListingsFetched: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "listings_fetched",
			Help:      "Listings returned by the last fetch.",
		}),
		NewListings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "new_listings_total",
			Help:      "Listings detected as new.",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification attempts by result.",
		}, []string{"result"}),
		SeenSetSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "seen_set_size",
			Help:      "Number of listing ids in the seen-set.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Time spent in one poll cycle, excluding the wait.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(m.Cycles, m.ListingsFetched, m.NewListings, m.Notifications, m.SeenSetSize, m.CycleDuration)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
