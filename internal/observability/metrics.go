package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard.
type Metrics struct {
	// Filter and rendering metrics.
	FilterRequests      *prometheus.CounterVec // labels: outcome={ok,clamped,rejected}
	FilterDuration      prometheus.Histogram
	ExportRequests      *prometheus.CounterVec // labels: format={csv,json,parquet}
	ChartRenders        *prometheus.CounterVec // labels: chart={class_volumes,tier_share}
	ChartRenderDuration prometheus.Histogram

	// Dataset metrics.
	SitesLoaded    prometheus.Gauge
	RowsDropped    prometheus.Gauge
	DatasetReloads prometheus.Counter
	ReloadErrors   prometheus.Counter
	RefreshNotices prometheus.Counter
	RefreshEnabled prometheus.Gauge

	// Trip routing metrics.
	RoutingRequests    *prometheus.CounterVec   // labels: method={geocode,distance}, outcome={success,error,empty}
	RoutingCache       *prometheus.CounterVec   // labels: method={geocode,distance}, result={hit,miss}
	RoutingAPIDuration *prometheus.HistogramVec // labels: method={geocode,distance}
	RoutingEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FilterRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "truck_dashboard",
			Name:      "filter_requests_total",
			Help:      "Site filter evaluations by outcome.",
		}, []string{"outcome"}),
		FilterDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "truck_dashboard",
			Name:      "filter_duration_seconds",
			Help:      "Duration of one filter evaluation over the loaded table.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		ExportRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "truck_dashboard",
			Name:      "export_requests_total",
			Help:      "Table exports by format.",
		}, []string{"format"}),
		ChartRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "truck_dashboard",
			Name:      "chart_renders_total",
			Help:      "Chart renders by chart kind.",
		}, []string{"chart"}),
		ChartRenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "truck_dashboard",
			Name:      "chart_render_duration_seconds",
			Help:      "Duration of one PNG chart render.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		SitesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "truck_dashboard",
			Name:      "sites_loaded",
			Help:      "Sites in the currently loaded dataset.",
		}),
		RowsDropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "truck_dashboard",
			Name:      "rows_dropped",
			Help:      "Malformed rows dropped from the currently loaded dataset.",
		}),
		DatasetReloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "truck_dashboard",
			Name:      "dataset_reloads_total",
			Help:      "Completed dataset reloads, including the initial load.",
		}),
		ReloadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "truck_dashboard",
			Name:      "reload_errors_total",
			Help:      "Dataset reloads that failed and kept the previous table.",
		}),
		RefreshNotices: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "truck_dashboard",
			Name:      "refresh_notices_total",
			Help:      "Refresh notices received from the Kafka topic.",
		}),
		RefreshEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "truck_dashboard",
			Name:      "refresh_enabled",
			Help:      "1 when the Kafka refresh subscriber is running, 0 otherwise.",
		}),
		RoutingRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "truck_dashboard",
			Name:      "routing_requests_total",
			Help:      "Routing API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		RoutingCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "truck_dashboard",
			Name:      "routing_cache_total",
			Help:      "Routing cache lookups by method and result.",
		}, []string{"method", "result"}),
		RoutingAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "truck_dashboard",
			Name:      "routing_api_duration_seconds",
			Help:      "Google Maps API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		RoutingEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "truck_dashboard",
			Name:      "routing_enabled",
			Help:      "1 when trip routing is enabled, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.FilterRequests,
		m.FilterDuration,
		m.ExportRequests,
		m.ChartRenders,
		m.ChartRenderDuration,
		m.SitesLoaded,
		m.RowsDropped,
		m.DatasetReloads,
		m.ReloadErrors,
		m.RefreshNotices,
		m.RefreshEnabled,
		m.RoutingRequests,
		m.RoutingCache,
		m.RoutingAPIDuration,
		m.RoutingEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FilterRequests:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "truck_dashboard", Name: "filter_requests_total"}, []string{"outcome"}),
		FilterDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "truck_dashboard", Name: "filter_duration_seconds"}),
		ExportRequests:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "truck_dashboard", Name: "export_requests_total"}, []string{"format"}),
		ChartRenders:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "truck_dashboard", Name: "chart_renders_total"}, []string{"chart"}),
		ChartRenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "truck_dashboard", Name: "chart_render_duration_seconds"}),
		SitesLoaded:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "truck_dashboard", Name: "sites_loaded"}),
		RowsDropped:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "truck_dashboard", Name: "rows_dropped"}),
		DatasetReloads:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "truck_dashboard", Name: "dataset_reloads_total"}),
		ReloadErrors:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "truck_dashboard", Name: "reload_errors_total"}),
		RefreshNotices:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "truck_dashboard", Name: "refresh_notices_total"}),
		RefreshEnabled:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "truck_dashboard", Name: "refresh_enabled"}),
		RoutingRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "truck_dashboard", Name: "routing_requests_total"}, []string{"method", "outcome"}),
		RoutingCache:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "truck_dashboard", Name: "routing_cache_total"}, []string{"method", "result"}),
		RoutingAPIDuration:  prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "truck_dashboard", Name: "routing_api_duration_seconds"}, []string{"method"}),
		RoutingEnabled:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "truck_dashboard", Name: "routing_enabled"}),
	}
}
