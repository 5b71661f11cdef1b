package handlers

import (
	"net/http"
	"strconv"
	"time"

	"portfolio-admin/core/store"
)

type AuditHandler struct {
	audits store.AuditStore
}

func NewAuditHandler(audits store.AuditStore) *AuditHandler {
	return &AuditHandler{audits: audits}
}

// List returns recent audit records, newest first. "since" is RFC3339 and
// defaults to the last 7 days.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	since := time.Now().UTC().AddDate(0, 0, -7)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since, want RFC3339")
			return
		}
		since = parsed
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	records, err := h.audits.List(r.Context(), since, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if records == nil {
		records = []store.AuditRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}
