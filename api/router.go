package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/sage-x-project/sgnd/daemon"
	"github.com/sage-x-project/sgnd/internal/metrics"
)

// NewRouter builds the full HTTP control surface for d.
func NewRouter(d *daemon.Daemon) http.Handler {
	h := &handlers{d: d}
	r := mux.NewRouter()

	r.HandleFunc("/live", h.live).Methods(http.MethodGet)
	r.HandleFunc("/ready", h.ready).Methods(http.MethodGet)
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)

	r.HandleFunc("/publish", h.publish).Methods(http.MethodPost)
	r.HandleFunc("/verify", h.verify).Methods(http.MethodPost)
	r.HandleFunc("/ku/{cid}", h.getKU).Methods(http.MethodGet)

	r.HandleFunc("/edges", h.postEdges).Methods(http.MethodPost)
	r.HandleFunc("/edges/{cid}", h.getEdges).Methods(http.MethodGet)
	r.HandleFunc("/graph/{cid}", h.getGraph).Methods(http.MethodGet)

	r.HandleFunc("/trust/reload", h.trustReload).Methods(http.MethodPost)
	r.HandleFunc("/admin/consistency", h.adminConsistency).Methods(http.MethodGet)
	r.HandleFunc("/admin/drain", h.adminDrain).Methods(http.MethodPost)

	r.HandleFunc("/metrics", metrics.Handle).Methods(http.MethodGet)

	r.PathPrefix("/events").Handler(d.Broker.Handler())

	r.Use(requestID)

	return r
}

// requestID stamps every request with an id callers can quote back and
// log lines can be correlated on.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
	})
}

type handlers struct {
	d *daemon.Daemon
}
