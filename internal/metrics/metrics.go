// Package metrics exposes Prometheus collectors for the content service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	syncRunsTotal              *prometheus.CounterVec
	syncDurationSeconds        prometheus.Histogram
	snapshotLastSuccessSeconds prometheus.Gauge
	upstreamRequestsTotal      *prometheus.CounterVec
	pageCacheLookupsTotal      *prometheus.CounterVec
	tweetLookupsTotal          *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	upstreamRateLimitDelays    *prometheus.HistogramVec

	once sync.Once
)

// Cache lookup results.
const (
	CacheHit    = "hit"
	CacheMiss   = "miss"
	CacheBypass = "bypass"
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		syncRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cityhall_sync_runs_total",
				Help: "Total number of full content syncs, labeled by status.",
			},
			[]string{"status"},
		)

		syncDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cityhall_sync_duration_seconds",
				Help:    "Histogram of full content sync durations.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
		)

		snapshotLastSuccessSeconds = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "cityhall_snapshot_last_success_timestamp_seconds",
				Help: "Unix time of the last snapshot swap.",
			},
		)

		upstreamRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cityhall_upstream_requests_total",
				Help: "Total number of content API requests, labeled by status code.",
			},
			[]string{"code"},
		)

		pageCacheLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cityhall_page_cache_lookups_total",
				Help: "Total number of single-page lookups, labeled by cache result.",
			},
			[]string{"result"},
		)

		tweetLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cityhall_tweet_lookups_total",
				Help: "Total number of latest-tweet lookups, labeled by status.",
			},
			[]string{"status"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		upstreamRateLimitDelays = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cityhall_upstream_rate_limit_delays_seconds",
				Help:    "Histogram of rate limit wait durations before upstream requests.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"host"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveSync records the outcome of one full sync.
func ObserveSync(status string, duration time.Duration) {
	Init()
	syncRunsTotal.WithLabelValues(status).Inc()
	syncDurationSeconds.Observe(duration.Seconds())
}

// SetSnapshotSwapped records the time a new snapshot was published.
func SetSnapshotSwapped(at time.Time) {
	Init()
	snapshotLastSuccessSeconds.Set(float64(at.Unix()))
}

// ObserveUpstream increments the upstream request counter. A zero code marks
// a transport failure.
func ObserveUpstream(code int) {
	Init()
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	upstreamRequestsTotal.WithLabelValues(label).Inc()
}

// ObservePageLookup increments the page cache counter for result.
func ObservePageLookup(result string) {
	Init()
	pageCacheLookupsTotal.WithLabelValues(result).Inc()
}

// ObserveTweetLookup increments the tweet lookup counter.
func ObserveTweetLookup(status string) {
	Init()
	tweetLookupsTotal.WithLabelValues(status).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(host string, duration time.Duration) {
	Init()
	upstreamRateLimitDelays.WithLabelValues(host).Observe(duration.Seconds())
}
