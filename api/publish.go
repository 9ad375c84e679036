package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/sage-x-project/sgnd/canonical"
	"github.com/sage-x-project/sgnd/internal/errs"
	"github.com/sage-x-project/sgnd/internal/logger"
	"github.com/sage-x-project/sgnd/internal/metrics"
	"github.com/sage-x-project/sgnd/ku"
	"github.com/sage-x-project/sgnd/signing"
)

type publishRequest struct {
	KU         json.RawMessage `json:"ku"`
	Verify     bool            `json:"verify"`
	PubPEM     string          `json:"pub_pem"`
	DagCBORB64 string          `json:"dag_cbor_b64"`
}

type verifyInfo struct {
	OK          bool   `json:"ok"`
	Trusted     bool   `json:"trusted"`
	Reason      string `json:"reason,omitempty"`
	TrustReason string `json:"trust_reason,omitempty"`
}

// publish accepts a KU, computes its CID, optionally verifies and
// trust-gates the signature, stores it, enqueues delivery, and notifies
// live subscribers. Order matters: store, then enqueue, then notify.
func (h *handlers) publish(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { metrics.HTTPPublishDuration.Observe(time.Since(start).Seconds()) }()
	metrics.HTTPPublishCount.Inc()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, errs.New(errs.BadRequest, "cannot read request body"))
		return
	}

	var req publishRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, errs.Wrap(errs.InvalidKU, "malformed request", err))
		return
	}

	k, err := decodeKU(req.KU, req.DagCBORB64)
	if err != nil {
		writeError(w, errs.Wrap(errs.InvalidKU, "malformed KU", err))
		return
	}

	cid, err := ku.CID(k, canonical.AlgoBlake3)
	if err != nil {
		writeError(w, errs.Wrap(errs.InvalidKU, "cid computation failed", err))
		return
	}

	var vinfo *verifyInfo
	if req.Verify {
		result := signing.Verify(k, req.PubPEM)
		allow, trusted, trustReason := true, false, ""
		if result.OK && k.Sig != nil {
			allow, trusted, trustReason = h.d.Trust.Gate(k.Sig.KeyID)
		}

		vinfo = &verifyInfo{OK: result.OK, Trusted: trusted, TrustReason: trustReason}
		if !result.OK {
			vinfo.Reason = string(result.Reason)
		}

		if !allow {
			writeError(w, errs.New(errs.UntrustedKey, trustReason))
			return
		}
		if h.d.Trust.Mode() == "enforce" && !result.OK {
			writeError(w, errs.New(errs.VerifyFailed, string(result.Reason)))
			return
		}
	}

	rawBytes, err := ku.CanonicalBytes(k)
	if err != nil {
		writeError(w, errs.Wrap(errs.InvalidKU, "canonical encode failed", err))
		return
	}

	record := buildRecord(k, cid)
	putResult, err := h.d.Store.Put(record, rawBytes)
	if err != nil {
		writeError(w, errs.Wrap(errs.ServerError, "store write failed", err))
		return
	}

	resp := map[string]interface{}{
		"ok":       true,
		"cid":      cid,
		"stored":   putResult.Stored,
		"enqueued": false,
	}
	if vinfo != nil {
		resp["verify"] = vinfo
	}

	if putResult.Dedup {
		metrics.NetDedup.Inc()
		h.d.Log.Info("publish_dedup", logger.String("cid", cid))
		writeJSON(w, http.StatusOK, resp)
		return
	}

	if _, err := h.d.Outbox.Enqueue(cid, rawBytes, nil); err != nil {
		h.d.Log.Error("outbox_enqueue_failed", logger.String("cid", cid), logger.Err(err))
	} else {
		resp["enqueued"] = true
	}

	var dagCBOR *string
	if b64, err := ku.ToDAGCBORBase64(k); err == nil {
		dagCBOR = &b64
	}
	h.d.Broker.NotifyKU(cid, dagCBOR)

	h.d.Log.Info("publish_stored", logger.String("cid", cid))
	writeJSON(w, http.StatusOK, resp)
}

func decodeKU(raw json.RawMessage, dagCBORB64 string) (ku.KU, error) {
	if len(raw) > 0 {
		return ku.Parse(raw)
	}
	if dagCBORB64 != "" {
		return ku.FromDAGCBORBase64(dagCBORB64)
	}
	return ku.KU{}, errNoKUProvided
}

var errNoKUProvided = &noKUError{}

type noKUError struct{}

func (*noKUError) Error() string { return "request carries neither ku nor dag_cbor_b64" }
