package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/buscacontatos/buscacontatos/internal/metrics"
)

func TestMetricsHandler_Snapshot(t *testing.T) {
	t.Parallel()

	recorder := metrics.NewInMemory()
	recorder.IncContactsSaved(3)
	recorder.IncLogin("password", "success")
	recorder.IncAdminAction("delete")

	h := NewMetricsHandler(nil, recorder)
	rec := httptest.NewRecorder()
	h.Metrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		"buscacontatos_contacts_saved_total 3",
		`buscacontatos_logins_total{method_result="password:success"} 1`,
		`buscacontatos_admin_actions_total{action="delete"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q:\n%s", want, body)
		}
	}
}

func TestMetricsHandler_Prometheus(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	recorder := metrics.NewPrometheus(reg)
	recorder.IncContactsSaved(2)

	h := NewMetricsHandler(reg, nil)
	rec := httptest.NewRecorder()
	h.Metrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "buscacontatos_contacts_saved_total 2") {
		t.Errorf("prometheus output missing counter:\n%s", rec.Body.String())
	}
}

func TestMetricsHandler_Unconfigured(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	NewMetricsHandler(nil, nil).Metrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
