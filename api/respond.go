// Package api implements the HTTP/JSON control surface: thin handlers
// orchestrating the canonical encoder, signer, trust policy, object
// store, outbox, edge graph, and metrics registry.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/sage-x-project/sgnd/internal/errs"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err (preferring an *errs.Error) to the stable error
// taxonomy and never leaks internal details.
func writeError(w http.ResponseWriter, err error) {
	e := errs.As(err)
	status := e.Kind.HTTPStatus()
	if status == 0 {
		status = http.StatusInternalServerError
	}
	body := map[string]interface{}{"ok": false, "error": string(e.Kind)}
	if e.Reason != "" {
		body["reason"] = e.Reason
	}
	writeJSON(w, status, body)
}
