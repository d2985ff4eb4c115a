package handler

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/buscacontatos/buscacontatos/internal/metrics"
)

// MetricsHandler exposes metrics in Prometheus exposition format.
type MetricsHandler struct {
	prom        http.Handler
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler serves gatherer when it is set, otherwise the counters of
// snapshotter. Both may be nil.
func NewMetricsHandler(gatherer prometheus.Gatherer, snapshotter metrics.Snapshotter) *MetricsHandler {
	h := &MetricsHandler{snapshotter: snapshotter}
	if gatherer != nil {
		h.prom = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}
	return h
}

// Metrics handles GET /metrics.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.prom != nil {
		h.prom.ServeHTTP(w, r)
		return
	}
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "buscacontatos_contacts_saved_total %d\n", snap.ContactsSaved)
	writeMetric(w, "buscacontatos_contacts_removed_total %d\n", snap.ContactsRemoved)
	writeMetric(w, "buscacontatos_webhook_queue_depth %d\n", snap.WebhookQueueDepth)
	writeMetric(w, "buscacontatos_search_duration_seconds_sum %.6f\n", float64(snap.SearchDurationNs)/1e9)

	writeLabeled(w, "buscacontatos_logins_total", "method_result", snap.Logins)
	writeLabeled(w, "buscacontatos_admin_actions_total", "action", snap.AdminActions)
	writeLabeled(w, "buscacontatos_searches_total", "result", snap.Searches)
	writeLabeled(w, "buscacontatos_webhook_deliveries_total", "status", snap.WebhookDeliveries)
	writeLabeled(w, "buscacontatos_store_corrupt_reads_total", "collection", snap.StoreCorruptions)
}

func writeLabeled(w http.ResponseWriter, name, label string, counts map[string]uint64) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeMetric(w, "%s{%s=%q} %d\n", name, label, k, counts[k])
	}
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
