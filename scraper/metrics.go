package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors shared by the crawler and the
// pipeline runner.
type Metrics struct {
	Registry       *prometheus.Registry
	FetchesTotal   *prometheus.CounterVec
	FetchDuration  prometheus.Histogram
	ItemsExtracted prometheus.Counter
	ItemsFiltered  *prometheus.CounterVec
	CatalogSize    prometheus.Gauge
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	fetches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogd_fetches_total",
			Help: "Total page fetches by outcome.",
		},
		[]string{"outcome"},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalogd_fetch_duration_seconds",
			Help:    "Page fetch latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	itemsExtracted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "catalogd_items_extracted_total",
			Help: "Total item records produced by the extractor.",
		},
	)
	itemsFiltered := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogd_items_filtered_total",
			Help: "Total records dropped before merge, by reason.",
		},
		[]string{"reason"},
	)
	catalogSize := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalogd_catalog_items",
			Help: "Item count of the last persisted catalog.",
		},
	)

	registry.MustRegister(fetches, fetchDuration, itemsExtracted, itemsFiltered, catalogSize)

	return &Metrics{
		Registry:       registry,
		FetchesTotal:   fetches,
		FetchDuration:  fetchDuration,
		ItemsExtracted: itemsExtracted,
		ItemsFiltered:  itemsFiltered,
		CatalogSize:    catalogSize,
	}
}

// IncFetch increments the fetch counter for an outcome label.
func (m *Metrics) IncFetch(outcome string) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetch records one fetch duration.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// IncExtracted increments the extracted items counter.
func (m *Metrics) IncExtracted() {
	if m == nil {
		return
	}
	m.ItemsExtracted.Inc()
}

// IncFiltered increments the filtered counter for a reason label.
func (m *Metrics) IncFiltered(reason string) {
	if m == nil {
		return
	}
	m.ItemsFiltered.WithLabelValues(reason).Inc()
}

// SetCatalogSize records the size of the persisted catalog.
func (m *Metrics) SetCatalogSize(n int) {
	if m == nil {
		return
	}
	m.CatalogSize.Set(float64(n))
}
