// Package metrics exposes Prometheus collectors for the device core: cache
// lookups, sync drains, reference refreshes and connectivity changes.
package metrics

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/wecare/internal/client/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var durationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Metrics implements the observer interfaces of httpcache, syncqueue,
// refresher and netstate. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	CacheLookups       *prometheus.CounterVec
	CacheRevalidations *prometheus.CounterVec
	SyncDrains         *prometheus.CounterVec
	SyncedItems        prometheus.Counter
	SyncDuration       prometheus.Histogram
	Refreshes          *prometheus.CounterVec
	RefreshDuration    *prometheus.HistogramVec
	Online             prometheus.Gauge
	Transitions        *prometheus.CounterVec
}

// New registers every collector on reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wecare_cache_lookups_total",
			Help: "Requests handled by the response cache, by result",
		}, []string{"result"}),
		CacheRevalidations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wecare_cache_revalidations_total",
			Help: "Background revalidations of cached responses",
		}, []string{"outcome"}),
		SyncDrains: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wecare_sync_drains_total",
			Help: "Sync queue drains that sent a batch",
		}, []string{"outcome"}),
		SyncedItems: f.NewCounter(prometheus.CounterOpts{
			Name: "wecare_sync_items_total",
			Help: "Consultations sent in accepted batches",
		}),
		SyncDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "wecare_sync_drain_duration_seconds",
			Help:    "Duration of sync queue drains",
			Buckets: durationBuckets,
		}),
		Refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wecare_reference_refreshes_total",
			Help: "Reference domain refreshes",
		}, []string{"domain", "outcome"}),
		RefreshDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wecare_reference_refresh_duration_seconds",
			Help:    "Duration of reference domain refreshes",
			Buckets: durationBuckets,
		}, []string{"domain"}),
		Online: f.NewGauge(prometheus.GaugeOpts{
			Name: "wecare_network_online",
			Help: "1 while the remote service is reachable",
		}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wecare_network_transitions_total",
			Help: "Connectivity changes, by new state",
		}, []string{"to"}),
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) CacheRevalidated(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.CacheRevalidations.WithLabelValues("ok").Inc()
		return
	}
	m.CacheRevalidations.WithLabelValues("error").Inc()
}

func (m *Metrics) DrainFinished(items int, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.SyncDrains.WithLabelValues(outcome(err)).Inc()
	m.SyncDuration.Observe(d.Seconds())
	if err == nil {
		m.SyncedItems.Add(float64(items))
	}
}

func (m *Metrics) DomainRefreshed(domain models.Domain, _ int, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.Refreshes.WithLabelValues(string(domain), outcome(err)).Inc()
	m.RefreshDuration.WithLabelValues(string(domain)).Observe(d.Seconds())
}

func (m *Metrics) NetworkTransition(online bool) {
	if m == nil {
		return
	}
	if online {
		m.Online.Set(1)
		m.Transitions.WithLabelValues("online").Inc()
		return
	}
	m.Online.Set(0)
	m.Transitions.WithLabelValues("offline").Inc()
}

// SetOnline records the state without counting a transition.
func (m *Metrics) SetOnline(online bool) {
	if m == nil {
		return
	}
	if online {
		m.Online.Set(1)
		return
	}
	m.Online.Set(0)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
