package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"

	"portfolio-admin/core/store"
	"portfolio-admin/core/utils"
)

// The portfolio entity kinds. Path segments map straight onto these.
var contentKinds = map[string]struct{}{
	"projects":       {},
	"certifications": {},
	"volunteering":   {},
	"awards":         {},
	"languages":      {},
}

func ContentKinds() []string {
	return []string{"projects", "certifications", "volunteering", "awards", "languages"}
}

type ContentHandler struct {
	content store.ContentStore
	audits  store.AuditStore
	logger  *utils.Logger
}

func NewContentHandler(content store.ContentStore, audits store.AuditStore, logger *utils.Logger) *ContentHandler {
	return &ContentHandler{content: content, audits: audits, logger: logger}
}

func kindFromRequest(r *http.Request) (string, bool) {
	kind := strings.ToLower(chi.URLParam(r, "kind"))
	_, ok := contentKinds[kind]
	return kind, ok
}

// PublicList serves the published entries of one kind with no session at
// all; it backs the public portfolio pages.
func (h *ContentHandler) PublicList(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindFromRequest(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown content kind")
		return
	}
	entries, err := h.content.ListPublishedByKind(r.Context(), kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if entries == nil {
		entries = []store.ContentEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindFromRequest(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown content kind")
		return
	}
	entries, err := h.content.ListByKind(r.Context(), kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if entries == nil {
		entries = []store.ContentEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

type contentRequest struct {
	Title   string          `json:"title"`
	Payload json.RawMessage `json:"payload"`
}

func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindFromRequest(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown content kind")
		return
	}
	var req contentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	id, err := uuid.NewV4()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	createdBy := ""
	if claims := sessionClaims(r); claims != nil {
		createdBy = claims.Username
	}
	entry := &store.ContentEntry{
		ID:        id.String(),
		Kind:      kind,
		Title:     req.Title,
		Payload:   req.Payload,
		CreatedBy: createdBy,
	}
	if err := h.content.Create(r.Context(), entry); err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	h.record(r, "content.created", entry.ID, "kind="+kind)
	writeJSON(w, http.StatusCreated, map[string]any{"entry": entry})
}

func (h *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.loadEntry(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": entry})
}

func (h *ContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.loadEntry(w, r)
	if !ok {
		return
	}
	var req contentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	if title := strings.TrimSpace(req.Title); title != "" {
		entry.Title = title
	}
	if len(req.Payload) > 0 {
		entry.Payload = req.Payload
	}
	if err := h.content.Update(r.Context(), entry); err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	h.record(r, "content.updated", entry.ID, "kind="+entry.Kind)
	writeJSON(w, http.StatusOK, map[string]any{"entry": entry})
}

func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.loadEntry(w, r)
	if !ok {
		return
	}
	if err := h.content.Delete(r.Context(), entry.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	h.record(r, "content.deleted", entry.ID, "kind="+entry.Kind)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type publishRequest struct {
	Published bool `json:"published"`
}

func (h *ContentHandler) SetPublished(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.loadEntry(w, r)
	if !ok {
		return
	}
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	if err := h.content.SetPublished(r.Context(), entry.ID, req.Published); err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	entry.Published = req.Published
	action := "content.unpublished"
	if req.Published {
		action = "content.published"
	}
	h.record(r, action, entry.ID, "kind="+entry.Kind)
	writeJSON(w, http.StatusOK, map[string]any{"entry": entry})
}

// loadEntry resolves {kind}/{id} and replies itself on any failure.
func (h *ContentHandler) loadEntry(w http.ResponseWriter, r *http.Request) (*store.ContentEntry, bool) {
	kind, ok := kindFromRequest(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown content kind")
		return nil, false
	}
	entry, err := h.content.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return nil, false
	}
	if entry == nil || entry.Kind != kind {
		writeError(w, http.StatusNotFound, "entry not found")
		return nil, false
	}
	return entry, true
}

func (h *ContentHandler) record(r *http.Request, action, entityID, details string) {
	if h.audits == nil {
		return
	}
	actor := ""
	if claims := sessionClaims(r); claims != nil {
		actor = claims.Username
	}
	if err := h.audits.Record(r.Context(), actor, action, "content", entityID, details); err != nil && h.logger != nil {
		h.logger.Errorf("audit record failed: %v", err)
	}
}
