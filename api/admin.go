package api

import (
	"net/http"

	"github.com/sage-x-project/sgnd/internal/errs"
)

// trustReload implements POST /trust/reload.
func (h *handlers) trustReload(w http.ResponseWriter, r *http.Request) {
	if err := h.d.Trust.Reload(); err != nil {
		writeError(w, errs.Wrap(errs.ServerError, "trust reload failed", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reloaded": true})
}

// adminConsistency implements GET /admin/consistency.
func (h *handlers) adminConsistency(w http.ResponseWriter, r *http.Request) {
	report, err := h.d.Store.CheckConsistency()
	if err != nil {
		writeError(w, errs.Wrap(errs.ServerError, "consistency check failed", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"db_only":    orEmpty(report.DBOnly),
		"fs_only":    orEmpty(report.FSOnly),
		"mismatches": report.Mismatches,
		"total_db":   report.TotalDB,
		"total_fs":   report.TotalFS,
		"consistent": report.Consistent,
	})
}

// adminDrain implements POST /admin/drain: walks the outbox and marks
// every ready item sent, used only to flush a single-node environment.
func (h *handlers) adminDrain(w http.ResponseWriter, r *http.Request) {
	drained := 0
	for {
		items, err := h.d.Outbox.GetReady(64)
		if err != nil {
			writeError(w, errs.Wrap(errs.ServerError, "drain query failed", err))
			return
		}
		if len(items) == 0 {
			break
		}
		for _, item := range items {
			h.d.Broker.NotifyKU(item.CID, nil)
			if err := h.d.Outbox.MarkSent(item.Seq); err != nil {
				writeError(w, errs.Wrap(errs.ServerError, "drain mark-sent failed", err))
				return
			}
			drained++
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"drained":           drained,
		"broadcast_enabled": h.d.Cfg.BroadcastEnabled,
	})
}

func orEmpty(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
