package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder exports metrics through a Prometheus registry.
type PrometheusRecorder struct {
	logins            *prometheus.CounterVec
	contactsSaved     prometheus.Counter
	contactsRemoved   prometheus.Counter
	adminActions      *prometheus.CounterVec
	searchDuration    *prometheus.HistogramVec
	webhookDeliveries *prometheus.CounterVec
	webhookQueueDepth prometheus.Gauge
	storeCorruptions  *prometheus.CounterVec
}

// NewPrometheus creates a recorder and registers its collectors on reg.
func NewPrometheus(reg prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buscacontatos_logins_total",
			Help: "Login attempts by method and result.",
		}, []string{"method", "result"}),
		contactsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "buscacontatos_contacts_saved_total",
			Help: "Contacts newly saved.",
		}),
		contactsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "buscacontatos_contacts_removed_total",
			Help: "Contact removals requested.",
		}),
		adminActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buscacontatos_admin_actions_total",
			Help: "Administrative mutations applied.",
		}, []string{"action"}),
		searchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "buscacontatos_search_duration_seconds",
			Help:    "Duration of lead searches.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 45},
		}, []string{"result"}),
		webhookDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buscacontatos_webhook_deliveries_total",
			Help: "Webhook delivery attempts by outcome.",
		}, []string{"status"}),
		webhookQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "buscacontatos_webhook_queue_depth",
			Help: "Deliveries waiting in the in-process queue.",
		}),
		storeCorruptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buscacontatos_store_corrupt_reads_total",
			Help: "Collection reads that fell back to the default value.",
		}, []string{"collection"}),
	}

	reg.MustRegister(
		r.logins,
		r.contactsSaved,
		r.contactsRemoved,
		r.adminActions,
		r.searchDuration,
		r.webhookDeliveries,
		r.webhookQueueDepth,
		r.storeCorruptions,
	)
	return r
}

// IncLogin increments the login counter.
func (r *PrometheusRecorder) IncLogin(method, result string) {
	r.logins.WithLabelValues(method, result).Inc()
}

// IncContactsSaved adds newly saved contacts.
func (r *PrometheusRecorder) IncContactsSaved(count int) {
	r.contactsSaved.Add(float64(count))
}

// IncContactsRemoved increments the removal counter.
func (r *PrometheusRecorder) IncContactsRemoved() {
	r.contactsRemoved.Inc()
}

// IncAdminAction increments the admin action counter.
func (r *PrometheusRecorder) IncAdminAction(action string) {
	r.adminActions.WithLabelValues(action).Inc()
}

// ObserveSearch records search duration by result.
func (r *PrometheusRecorder) ObserveSearch(result string, duration time.Duration) {
	r.searchDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// IncWebhookDelivery increments the delivery counter.
func (r *PrometheusRecorder) IncWebhookDelivery(status string) {
	r.webhookDeliveries.WithLabelValues(status).Inc()
}

// SetWebhookQueueDepth sets the queue depth gauge.
func (r *PrometheusRecorder) SetWebhookQueueDepth(depth int) {
	r.webhookQueueDepth.Set(float64(depth))
}

// IncStoreCorruption increments the corrupt read counter.
func (r *PrometheusRecorder) IncStoreCorruption(collection string) {
	r.storeCorruptions.WithLabelValues(collection).Inc()
}
