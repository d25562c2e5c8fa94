package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "safepath_navigator"

// Metrics holds the Prometheus counters, histograms, and gauges for the navigator.
type Metrics struct {
	// Crime backend metrics.
	CrimeRequests    *prometheus.CounterVec // labels: query={filter,range,types}, outcome={success,error}
	RecordsReturned  prometheus.Histogram
	RecordsFiltered  prometheus.Counter
	BackendDuration  *prometheus.HistogramVec // labels: endpoint={crimes,risk,directions}
	CatalogSize      prometheus.Gauge
	CatalogRefreshes *prometheus.CounterVec // labels: outcome={success,error}

	// Route risk metrics.
	RiskRequests  *prometheus.CounterVec // labels: outcome={success,error}
	RiskCache     *prometheus.CounterVec // labels: result={hit,miss}
	RoutePlans    *prometheus.CounterVec // labels: scored={true,false}
	PublishErrors prometheus.Counter

	// Sequence guard.
	StaleResponses *prometheus.CounterVec // labels: kind={crimes,routes}
}

// NewMetrics creates and registers all navigator metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.CrimeRequests,
		m.RecordsReturned,
		m.RecordsFiltered,
		m.BackendDuration,
		m.CatalogSize,
		m.CatalogRefreshes,
		m.RiskRequests,
		m.RiskCache,
		m.RoutePlans,
		m.PublishErrors,
		m.StaleResponses,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		CrimeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crime_requests_total",
			Help:      "Crime backend requests by query kind and outcome.",
		}, []string{"query", "outcome"}),
		RecordsReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "crime_records_returned",
			Help:      "Number of records returned per crime query before client-side filtering.",
			Buckets:   []float64{0, 10, 25, 50, 100, 200, 500, 1000},
		}),
		RecordsFiltered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crime_records_filtered_total",
			Help:      "Records dropped by the client-side type filter.",
		}),
		BackendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Duration of calls to external backends in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		CatalogSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "crime_type_catalog_size",
			Help:      "Number of crime types in the cached catalog.",
		}),
		CatalogRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crime_type_catalog_refreshes_total",
			Help:      "Crime-type catalog refreshes by outcome.",
		}, []string{"outcome"}),
		RiskRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_requests_total",
			Help:      "Route risk backend requests by outcome.",
		}, []string{"outcome"}),
		RiskCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_cache_total",
			Help:      "Route risk cache lookups by result.",
		}, []string{"result"}),
		RoutePlans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_plans_total",
			Help:      "Route plans produced, split by whether risk scores were available.",
		}, []string{"scored"}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_plan_publish_errors_total",
			Help:      "Route plans that could not be published to Kafka.",
		}),
		StaleResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_responses_total",
			Help:      "Responses discarded because a newer request was issued.",
		}, []string{"kind"}),
	}
}
