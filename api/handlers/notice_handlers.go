package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"portfolio-admin/core/store"
	"portfolio-admin/core/utils"
)

var noticeTypes = map[string]struct{}{
	"INFO":     {},
	"WARNING":  {},
	"CRITICAL": {},
}

var displayModes = map[string]struct{}{
	"BANNER": {},
	"MODAL":  {},
}

type NoticeHandler struct {
	notices store.NoticeStore
	audits  store.AuditStore
	logger  *utils.Logger
}

func NewNoticeHandler(notices store.NoticeStore, audits store.AuditStore, logger *utils.Logger) *NoticeHandler {
	return &NoticeHandler{notices: notices, audits: audits, logger: logger}
}

// PublicGet serves the active notice to the public site. No notice means a
// null body, not a 404.
func (h *NoticeHandler) PublicGet(w http.ResponseWriter, r *http.Request) {
	n, err := h.notices.GetActive(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notice": n})
}

// Get returns the stored notice regardless of its active flag, for the
// admin settings screen.
func (h *NoticeHandler) Get(w http.ResponseWriter, r *http.Request) {
	n, err := h.notices.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notice": n})
}

type noticeRequest struct {
	Message     string `json:"message"`
	NoticeType  string `json:"notice_type"`
	DisplayMode string `json:"display_mode"`
	Active      bool   `json:"active"`
}

func (h *NoticeHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req noticeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Active && req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required for an active notice")
		return
	}
	req.NoticeType = strings.ToUpper(strings.TrimSpace(req.NoticeType))
	if req.NoticeType == "" {
		req.NoticeType = "INFO"
	}
	if _, ok := noticeTypes[req.NoticeType]; !ok {
		writeError(w, http.StatusBadRequest, "unknown notice type")
		return
	}
	req.DisplayMode = strings.ToUpper(strings.TrimSpace(req.DisplayMode))
	if req.DisplayMode == "" {
		req.DisplayMode = "BANNER"
	}
	if _, ok := displayModes[req.DisplayMode]; !ok {
		writeError(w, http.StatusBadRequest, "unknown display mode")
		return
	}
	n := &store.Notice{
		Message:     req.Message,
		NoticeType:  req.NoticeType,
		DisplayMode: req.DisplayMode,
		Active:      req.Active,
	}
	if err := h.notices.Put(r.Context(), n); err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if h.audits != nil {
		actor := ""
		if claims := sessionClaims(r); claims != nil {
			actor = claims.Username
		}
		details := "active=false"
		if n.Active {
			details = "active=true type=" + n.NoticeType
		}
		if err := h.audits.Record(r.Context(), actor, "notice.updated", "notice", "1", details); err != nil && h.logger != nil {
			h.logger.Errorf("audit record failed: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"notice": n})
}
