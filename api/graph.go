package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	edgepkg "github.com/sage-x-project/sgnd/edges"
	"github.com/sage-x-project/sgnd/internal/errs"
	"github.com/sage-x-project/sgnd/internal/metrics"
)

// getGraph implements GET /graph/:cid?depth=N.
func (h *handlers) getGraph(w http.ResponseWriter, r *http.Request) {
	metrics.GraphRequests.Inc()

	cid := mux.Vars(r)["cid"]
	depth := edgepkg.MaxDepth
	if raw := r.URL.Query().Get("depth"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, errs.New(errs.BadRequest, "depth must be a non-negative integer"))
			return
		}
		depth = n
	}

	result, err := h.d.Edges.Graph(cid, depth)
	if err != nil {
		writeError(w, errs.Wrap(errs.ServerError, "graph traversal failed", err))
		return
	}
	if result == nil {
		result = []edgepkg.Edge{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"start": cid,
		"depth": depth,
		"edges": result,
	})
}
