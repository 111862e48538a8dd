package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/seatrack/cargo-backend/internal/cargo"
)

// Collector manages Prometheus metrics for the cargo back-office
type Collector struct {
	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Shipping-mark resolver metrics
	marksResolved       prometheus.Counter
	resolutionConflicts prometheus.Counter
	resolutionFailures  prometheus.Counter

	// Cargo metrics
	containersByStatus *prometheus.GaugeVec
	itemsImported      prometheus.Counter

	// Cache metrics
	statsCacheHits   prometheus.Counter
	statsCacheMisses prometheus.Counter
}

// NewCollector creates and registers the metric set
func NewCollector() *Collector {
	return &Collector{
		httpRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cargo_http_requests_total",
			Help: "Total HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cargo_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		marksResolved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cargo_shipping_marks_resolved_total",
			Help: "Shipping marks successfully resolved and assigned",
		}),
		resolutionConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cargo_shipping_mark_conflicts_total",
			Help: "Mark resolutions that lost a uniqueness race and retried",
		}),
		resolutionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cargo_shipping_mark_failures_total",
			Help: "Mark resolutions that failed with no applicable rule",
		}),
		containersByStatus: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cargo_containers_by_status",
			Help: "Containers per status, refreshed on dashboard aggregation",
		}, []string{"status"}),
		itemsImported: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cargo_items_imported_total",
			Help: "Cargo items created through spreadsheet import",
		}),
		statsCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cargo_stats_cache_hits_total",
			Help: "Dashboard stat requests served from cache",
		}),
		statsCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cargo_stats_cache_misses_total",
			Help: "Dashboard stat requests recomputed from the database",
		}),
	}
}

// RecordMarkResolved increments the resolved-mark counter
func (c *Collector) RecordMarkResolved() { c.marksResolved.Inc() }

// RecordResolutionConflict increments the conflict counter
func (c *Collector) RecordResolutionConflict() { c.resolutionConflicts.Inc() }

// RecordResolutionFailure increments the failure counter
func (c *Collector) RecordResolutionFailure() { c.resolutionFailures.Inc() }

// RecordItemsImported adds to the import counter
func (c *Collector) RecordItemsImported(n int) { c.itemsImported.Add(float64(n)) }

// RecordStatsCache tracks cache hit/miss for dashboard stats
func (c *Collector) RecordStatsCache(hit bool) {
	if hit {
		c.statsCacheHits.Inc()
	} else {
		c.statsCacheMisses.Inc()
	}
}

// SetContainerCounts refreshes the per-status container gauges
func (c *Collector) SetContainerCounts(counts cargo.StatusCounts) {
	c.containersByStatus.WithLabelValues(cargo.StatusPending).Set(float64(counts.Pending))
	c.containersByStatus.WithLabelValues(cargo.StatusInTransit).Set(float64(counts.InTransit))
	c.containersByStatus.WithLabelValues(cargo.StatusDelivered).Set(float64(counts.Delivered))
	c.containersByStatus.WithLabelValues(cargo.StatusDemurrage).Set(float64(counts.Demurrage))
}

// Middleware instruments requests with counters and latency. The
// route label is the mux route template, not the raw path, to bound
// label cardinality.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if template, err := current.GetPathTemplate(); err == nil {
				route = template
			}
		}

		c.httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(recorder.status)).Inc()
		c.httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
