package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/sage-x-project/sgnd/internal/errs"
	"github.com/sage-x-project/sgnd/internal/metrics"
	"github.com/sage-x-project/sgnd/signing"
)

type verifyRequest struct {
	KU     json.RawMessage `json:"ku"`
	PubPEM string          `json:"pub_pem"`
}

// verify implements the pure verification path: no side effects
// besides metrics.
func (h *handlers) verify(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { metrics.HTTPVerifyDuration.Observe(time.Since(start).Seconds()) }()
	metrics.HTTPVerifyCount.Inc()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, errs.New(errs.BadRequest, "cannot read request body"))
		return
	}

	var req verifyRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, errs.Wrap(errs.InvalidKU, "malformed request", err))
		return
	}

	k, err := decodeKU(req.KU, "")
	if err != nil {
		writeError(w, errs.Wrap(errs.InvalidKU, "malformed KU", err))
		return
	}

	result := signing.Verify(k, req.PubPEM)

	trusted, trustReason := false, ""
	if result.OK && k.Sig != nil {
		trusted, trustReason = h.d.Trust.IsKeyTrusted(k.Sig.KeyID)
	}

	resp := map[string]interface{}{"ok": result.OK, "trusted": trusted}
	if !result.OK {
		resp["reason"] = string(result.Reason)
	}
	if trustReason != "" {
		resp["trust_reason"] = trustReason
	}
	writeJSON(w, http.StatusOK, resp)
}
