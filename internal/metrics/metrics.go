// Package metrics exposes Prometheus collectors for the crawler.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pagesTotal            *prometheus.CounterVec
	retriesTotal          *prometheus.CounterVec
	chaptersTotal         *prometheus.CounterVec
	activeWorkers         prometheus.Gauge
	rateLimitDelaySeconds *prometheus.HistogramVec
	fetchDurationSeconds  *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		pagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toonstats_pages_total",
				Help: "Total pages fetched, labeled by site and status code.",
			},
			[]string{"site", "status"},
		)

		retriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toonstats_fetch_retries_total",
				Help: "Total fetch retries after transient failures, labeled by site.",
			},
			[]string{"site"},
		)

		chaptersTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toonstats_chapters_total",
				Help: "Chapters processed, labeled by outcome (emitted, skipped, dropped).",
			},
			[]string{"outcome"},
		)

		activeWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "toonstats_active_workers",
				Help: "Number of detail-crawl workers currently processing a chapter.",
			},
		)

		rateLimitDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "toonstats_rate_limit_delay_seconds",
				Help:    "Histogram of deliberate inter-request delays.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 1.5, 2, 5},
			},
			[]string{"kind"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "toonstats_fetch_duration_seconds",
				Help:    "Histogram of page fetch latencies, labeled by site.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"site"},
		)
	})
}

// SanitizeSite extracts a lowercase hostname from a URL, or "unknown".
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler exposing the Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records a completed fetch.
func ObserveFetch(site string, status int, duration time.Duration) {
	if pagesTotal == nil {
		return
	}
	sanitized := SanitizeSite(site)
	pagesTotal.WithLabelValues(sanitized, strconv.Itoa(status)).Inc()
	fetchDurationSeconds.WithLabelValues(sanitized).Observe(duration.Seconds())
}

// ObserveRetry increments the retry counter for the given site.
func ObserveRetry(site string) {
	if retriesTotal == nil {
		return
	}
	retriesTotal.WithLabelValues(SanitizeSite(site)).Inc()
}

// ObserveChapter increments the chapter counter for the given outcome.
func ObserveChapter(outcome string) {
	if chaptersTotal == nil {
		return
	}
	chaptersTotal.WithLabelValues(outcome).Inc()
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	if activeWorkers == nil {
		return
	}
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	if activeWorkers == nil {
		return
	}
	activeWorkers.Dec()
}

// ObserveRateLimitDelay records a deliberate delay of the given kind.
func ObserveRateLimitDelay(kind string, duration time.Duration) {
	if rateLimitDelaySeconds == nil {
		return
	}
	rateLimitDelaySeconds.WithLabelValues(kind).Observe(duration.Seconds())
}
