package api

import (
	"net/http"
	"time"
)

// live implements GET /live: a bare liveness signal.
func (h *handlers) live(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// ready implements GET /ready: 200 when the index is open and the
// daemon is not draining, 503 otherwise.
func (h *handlers) ready(w http.ResponseWriter, r *http.Request) {
	queueLen, _ := h.d.Outbox.CountReady()
	body := map[string]interface{}{
		"sqlite":      "open",
		"db_read_ms":  h.d.Store.LastReadMS(),
		"db_write_ms": h.d.Store.LastWriteMS(),
		"ws_clients":  h.d.Broker.ClientCount(),
		"queue_len":   queueLen,
	}

	if h.d.Draining() {
		body["ok"] = false
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	body["ok"] = true
	writeJSON(w, http.StatusOK, body)
}

// health implements GET /health.
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	kuCount, _ := h.d.Store.CountBlobs()
	outboxReady, _ := h.d.Outbox.CountReady()
	queueLen := outboxReady

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "healthy",
		"ok":           !h.d.Draining(),
		"ku_count":     kuCount,
		"outbox_ready": outboxReady,
		"time_ms":      time.Now().UnixMilli(),
		"db_read_ms":   h.d.Store.LastReadMS(),
		"db_write_ms":  h.d.Store.LastWriteMS(),
		"ws_clients":   h.d.Broker.ClientCount(),
		"queue_len":    queueLen,
		"draining":     h.d.Draining(),
	})
}
