// Package metrics exposes Prometheus collectors for the sync service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	syncRunsTotal     *prometheus.CounterVec
	pagesFetchedTotal *prometheus.CounterVec
	fetchRetriesTotal prometheus.Counter
	accountSkipsTotal *prometheus.CounterVec
	publishTotal      *prometheus.CounterVec
	sweepDeletedTotal prometheus.Counter

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		syncRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parkrun_sync_runs_total",
				Help: "Total number of sync passes, labeled by trigger.",
			},
			[]string{"trigger"},
		)

		pagesFetchedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parkrun_pages_fetched_total",
				Help: "Total number of pages fetched, labeled by site and status.",
			},
			[]string{"site", "status"},
		)

		fetchRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "parkrun_fetch_retries_total",
				Help: "Total rate-limit retries performed by the page fetcher.",
			},
		)

		accountSkipsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parkrun_account_skips_total",
				Help: "Accounts skipped during a pass, labeled by reason.",
			},
			[]string{"reason"},
		)

		publishTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parkrun_publish_total",
				Help: "Publish decisions, labeled by result.",
			},
			[]string{"result"},
		)

		sweepDeletedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "parkrun_sweep_deleted_total",
				Help: "Cached pages removed by the retention sweep.",
			},
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

// Handler returns an http.Handler exposing the Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveSyncRun counts one sync pass for the given trigger source.
func ObserveSyncRun(trigger string) {
	if syncRunsTotal != nil {
		syncRunsTotal.WithLabelValues(trigger).Inc()
	}
}

// ObservePageFetch counts one page fetch outcome.
func ObservePageFetch(site string, status int) {
	if pagesFetchedTotal != nil {
		pagesFetchedTotal.WithLabelValues(SanitizeSite(site), strconv.Itoa(status)).Inc()
	}
}

// ObserveFetchRetry counts one rate-limit retry.
func ObserveFetchRetry() {
	if fetchRetriesTotal != nil {
		fetchRetriesTotal.Inc()
	}
}

// ObserveSkip counts one skipped account.
func ObserveSkip(reason string) {
	if accountSkipsTotal != nil {
		accountSkipsTotal.WithLabelValues(reason).Inc()
	}
}

// ObservePublish counts one publish decision.
func ObservePublish(result string) {
	if publishTotal != nil {
		publishTotal.WithLabelValues(result).Inc()
	}
}

// ObserveSweep adds the number of pages removed by a retention sweep.
func ObserveSweep(removed int) {
	if sweepDeletedTotal != nil && removed > 0 {
		sweepDeletedTotal.Add(float64(removed))
	}
}
