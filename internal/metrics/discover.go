package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Discovery and ingestion Prometheus metrics.
var (
	DiscoverRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "animedex",
			Name:      "discover_requests_total",
			Help:      "Total discovery requests by mode, sort key and outcome",
		},
		[]string{"mode", "sort", "status"},
	)

	DiscoverDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "animedex",
			Name:      "discover_duration_seconds",
			Help:      "Discovery computation time in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		},
		[]string{"mode"},
	)

	DiscoverResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "animedex",
			Name:      "discover_results",
			Help:      "Number of results returned per discovery request",
			Buckets:   []float64{0, 1, 5, 10, 18, 25, 50},
		},
	)

	QueryCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "animedex",
			Name:      "query_cache_total",
			Help:      "Query vector cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	CorpusItems = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "animedex",
			Name:      "corpus_items",
			Help:      "Items in the published corpus snapshot",
		},
	)

	VocabularyTerms = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "animedex",
			Name:      "vocabulary_terms",
			Help:      "Terms in the published vocabulary",
		},
	)

	IngestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "animedex",
			Name:      "ingest_total",
			Help:      "Corpus ingestions by source and outcome",
		},
		[]string{"source", "status"},
	)

	IngestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "animedex",
			Name:      "ingest_duration_seconds",
			Help:      "Corpus ingestion time in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"source"},
	)
)

var registerOnce sync.Once

// RegisterDiscoveryMetrics registers discovery and ingestion metrics on the default registry.
// Safe to call more than once.
func RegisterDiscoveryMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			DiscoverRequestsTotal,
			DiscoverDuration,
			DiscoverResults,
			QueryCacheTotal,
			CorpusItems,
			VocabularyTerms,
			IngestTotal,
			IngestDuration,
		)
	})
}
