package handler

import (
	"fmt"
	"net/http"

	"github.com/gatehouse/gatehouse/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "gatehouse_sign_ins_total{status=\"allowed\"} %d\n", snap.SignInsAllowed)
	writeMetric(w, "gatehouse_sign_ins_total{status=\"refused\"} %d\n", snap.SignInsRefused)

	writeMetric(w, "gatehouse_users_created_total %d\n", snap.UsersCreated)
	writeMetric(w, "gatehouse_users_updated_total %d\n", snap.UsersUpdated)
	writeMetric(w, "gatehouse_users_deleted_total %d\n", snap.UsersDeleted)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
