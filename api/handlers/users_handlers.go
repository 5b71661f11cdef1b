package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"

	"portfolio-admin/config"
	"portfolio-admin/core/auth"
	"portfolio-admin/core/rbac"
	"portfolio-admin/core/store"
	"portfolio-admin/core/utils"
)

type UsersHandler struct {
	cfg    *config.AppConfig
	users  store.UsersStore
	matrix *rbac.Matrix
	audits store.AuditStore
	logger *utils.Logger
}

func NewUsersHandler(cfg *config.AppConfig, users store.UsersStore, matrix *rbac.Matrix, audits store.AuditStore, logger *utils.Logger) *UsersHandler {
	return &UsersHandler{cfg: cfg, users: users, matrix: matrix, audits: audits, logger: logger}
}

// adminUserView is the management listing shape. It carries lockout state
// for the admin screen but never the password digest.
type adminUserView struct {
	ID                  string     `json:"id"`
	Username            string     `json:"username"`
	Email               string     `json:"email"`
	DisplayName         string     `json:"display_name"`
	Role                rbac.Role  `json:"role"`
	Status              string     `json:"status"`
	MustResetPassword   bool       `json:"must_reset_password"`
	FailedLoginAttempts int        `json:"failed_login_attempts"`
	LockedUntil         *time.Time `json:"locked_until,omitempty"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

func adminView(u *store.User) adminUserView {
	return adminUserView{
		ID:                  u.ID,
		Username:            u.Username,
		Email:               u.Email,
		DisplayName:         u.DisplayName,
		Role:                u.Role,
		Status:              string(u.Status),
		MustResetPassword:   u.MustResetPassword,
		FailedLoginAttempts: u.FailedLoginAttempts,
		LockedUntil:         u.LockedUntil,
		LastLoginAt:         u.LastLoginAt,
		CreatedAt:           u.CreatedAt,
	}
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	out := make([]adminUserView, 0, len(users))
	for i := range users {
		out = append(out, adminView(&users[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

type createUserRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	Status      string `json:"status"`
}

func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if err := utils.ValidateUsername(req.Username); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidateEmail(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidateDisplayName(req.DisplayName); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	role, ok := rbac.ParseRole(req.Role)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}
	status := store.StatusActive
	if req.Status != "" {
		status, ok = store.ParseStatus(req.Status)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown status")
			return
		}
	}

	existing, err := h.users.FindByUsername(r.Context(), req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "username already taken")
		return
	}

	digest, err := auth.HashPassword(req.Password, h.cfg.Pepper)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	id, err := uuid.NewV4()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	user := &store.User{
		ID:             id.String(),
		Username:       req.Username,
		Email:          req.Email,
		DisplayName:    strings.TrimSpace(req.DisplayName),
		PasswordDigest: digest,
		Role:           role,
		Status:         status,
		// Admin-issued passwords are temporary by definition.
		MustResetPassword: true,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	h.record(r, "user.created", user.ID, "role="+string(role))
	writeJSON(w, http.StatusCreated, map[string]any{"user": adminView(user)})
}

type updateUserRequest struct {
	Email       *string `json:"email"`
	DisplayName *string `json:"display_name"`
	Role        *string `json:"role"`
	Status      *string `json:"status"`
}

func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	actor := sessionClaims(r)
	self := actor != nil && actor.SubjectID() == user.ID

	if req.Email != nil {
		if err := utils.ValidateEmail(*req.Email); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		user.Email = *req.Email
	}
	if req.DisplayName != nil {
		if err := utils.ValidateDisplayName(*req.DisplayName); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		user.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.Role != nil {
		role, ok := rbac.ParseRole(*req.Role)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown role")
			return
		}
		if self && role != user.Role {
			writeError(w, http.StatusBadRequest, "cannot change your own role")
			return
		}
		user.Role = role
	}
	if req.Status != nil {
		status, ok := store.ParseStatus(*req.Status)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown status")
			return
		}
		if self && status != store.StatusActive {
			writeError(w, http.StatusBadRequest, "cannot deactivate your own account")
			return
		}
		user.Status = status
	}
	if err := h.users.Update(r.Context(), user); err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	h.record(r, "user.updated", user.ID, "")
	writeJSON(w, http.StatusOK, map[string]any{"user": adminView(user)})
}

func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	actor := sessionClaims(r)
	if actor != nil && actor.SubjectID() == id {
		writeError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}
	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	h.record(r, "user.deleted", id, "username="+user.Username)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type resetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// ResetPassword is the administrative reset: it sets a temporary password,
// clears the lockout state, and forces a change on next login.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	if err := utils.ValidatePassword(req.NewPassword); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	digest, err := auth.HashPassword(req.NewPassword, h.cfg.Pepper)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if err := h.users.UpdateAfterAdminReset(r.Context(), id, digest); err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	h.record(r, "user.password_reset", id, "username="+user.Username)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *UsersHandler) record(r *http.Request, action, entityID, details string) {
	if h.audits == nil {
		return
	}
	actor := ""
	if claims := sessionClaims(r); claims != nil {
		actor = claims.Username
	}
	if err := h.audits.Record(r.Context(), actor, action, "user", entityID, details); err != nil && h.logger != nil {
		h.logger.Errorf("audit record failed: %v", err)
	}
}
