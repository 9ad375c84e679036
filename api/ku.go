package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sage-x-project/sgnd/internal/errs"
)

// getKU implements GET /ku/:cid[?view=dag-json|json].
func (h *handlers) getKU(w http.ResponseWriter, r *http.Request) {
	cid := mux.Vars(r)["cid"]

	raw, err := h.d.Store.Retrieve(cid)
	if err != nil {
		writeError(w, errs.Wrap(errs.ServerError, "retrieve failed", err))
		return
	}
	if raw == nil {
		writeError(w, errs.New(errs.NotFound, "unknown cid"))
		return
	}

	view := r.URL.Query().Get("view")
	if view == "json" {
		var pretty interface{}
		if err := json.Unmarshal(raw, &pretty); err != nil {
			writeError(w, errs.Wrap(errs.ServerError, "stored ku is not valid json", err))
			return
		}
		writeJSON(w, http.StatusOK, pretty)
		return
	}

	// dag-json (default): the stored bytes are already canonical,
	// DAG-JSON-shaped by construction, so return them verbatim.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}
