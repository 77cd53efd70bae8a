package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsManager holds the service's Prometheus collectors on a private
// registry.
type MetricsManager struct {
	Registry *prometheus.Registry

	ListingsSubmittedTotal  prometheus.Counter
	SubmissionFailuresTotal prometheus.Counter
	MediaUploadsTotal       *prometheus.CounterVec
	MarketplaceQueriesTotal *prometheus.CounterVec
	StaleQueriesTotal       prometheus.Counter
	CartMutationsTotal      *prometheus.CounterVec
	CheckoutsTotal          *prometheus.CounterVec
	HTTPErrorsTotal         *prometheus.CounterVec
	HTTPRequestLatency      *prometheus.HistogramVec
}

func NewMetricsManager(namespace string) *MetricsManager {
	registry := prometheus.NewRegistry()

	m := &MetricsManager{
		Registry: registry,
		ListingsSubmittedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_submitted_total",
			Help:      "Total number of listings persisted by the submission path.",
		}),
		SubmissionFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_submission_failures_total",
			Help:      "Total number of submissions that failed to persist.",
		}),
		MediaUploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_uploads_total",
			Help:      "Media uploads by outcome.",
		}, []string{"outcome"}),
		MarketplaceQueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "marketplace_queries_total",
			Help:      "Marketplace page fetches by sort order and outcome.",
		}, []string{"sort", "outcome"}),
		StaleQueriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "marketplace_stale_queries_total",
			Help:      "Query completions discarded because a newer query superseded them.",
		}),
		CartMutationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Cart mutations by operation.",
		}, []string{"op"}),
		CheckoutsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkout attempts by outcome.",
		}, []string{"outcome"}),
		HTTPErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_errors_total",
			Help:      "Total number of API errors by route and status.",
		}, []string{"route", "status"}),
		HTTPRequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_latency_seconds",
			Help:      "Latency of API requests by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	registry.MustRegister(
		m.ListingsSubmittedTotal,
		m.SubmissionFailuresTotal,
		m.MediaUploadsTotal,
		m.MarketplaceQueriesTotal,
		m.StaleQueriesTotal,
		m.CartMutationsTotal,
		m.CheckoutsTotal,
		m.HTTPErrorsTotal,
		m.HTTPRequestLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the private registry.
func (m *MetricsManager) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
