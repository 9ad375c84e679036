package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	edgepkg "github.com/sage-x-project/sgnd/edges"
	"github.com/sage-x-project/sgnd/internal/errs"
	"github.com/sage-x-project/sgnd/signing"
)

type postEdgeRequest struct {
	Src    string `json:"src"`
	Dst    string `json:"dst"`
	Type   string `json:"type"`
	PubPEM string `json:"pub_pem"`
	Verify bool   `json:"verify"`
}

// postEdges implements POST /edges: trust-gated the same way publish is.
func (h *handlers) postEdges(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, errs.New(errs.BadRequest, "cannot read request body"))
		return
	}

	var req postEdgeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, errs.Wrap(errs.BadRequest, "malformed request", err))
		return
	}
	if req.Src == "" || req.Dst == "" {
		writeError(w, errs.New(errs.MissingCID, "src and dst are required"))
		return
	}
	if !edgepkg.Allowed(req.Type) {
		writeError(w, errs.New(errs.InvalidType, "edge type not in allow set"))
		return
	}

	var publisherKeyID *string
	if req.Verify && req.PubPEM != "" {
		keyID, err := signing.KeyIDFromPub(req.PubPEM)
		if err != nil {
			if h.d.Trust.Mode() == "enforce" {
				writeError(w, errs.Wrap(errs.VerifyFailed, "decode_error", err))
				return
			}
		} else {
			allow, trusted, reason := h.d.Trust.Gate(keyID)
			if !allow {
				writeError(w, errs.New(errs.UntrustedKey, reason))
				return
			}
			if trusted {
				publisherKeyID = &keyID
			}
		}
	}

	inserted, err := h.d.Edges.Insert(req.Src, req.Dst, req.Type, publisherKeyID)
	if err != nil {
		writeError(w, errs.Wrap(errs.ServerError, "edge insert failed", err))
		return
	}
	if inserted {
		h.d.Broker.NotifyEdge(req.Src, req.Dst, req.Type)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"stored": true, "inserted": inserted})
}

// getEdges implements GET /edges/:cid?direction=in|out&type=…
func (h *handlers) getEdges(w http.ResponseWriter, r *http.Request) {
	cid := mux.Vars(r)["cid"]
	direction := r.URL.Query().Get("direction")
	edgeType := r.URL.Query().Get("type")

	var out []edgepkg.Edge
	var err error
	switch direction {
	case "in":
		out, err = h.d.Edges.ListIncoming(cid, edgeType)
	default:
		out, err = h.d.Edges.ListOutgoing(cid, edgeType)
	}
	if err != nil {
		writeError(w, errs.Wrap(errs.ServerError, "list edges failed", err))
		return
	}
	if out == nil {
		out = []edgepkg.Edge{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"edges": out})
}
