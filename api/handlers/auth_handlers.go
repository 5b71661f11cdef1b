package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"portfolio-admin/config"
	"portfolio-admin/core/auth"
	"portfolio-admin/core/ratelimit"
	"portfolio-admin/core/rbac"
	"portfolio-admin/core/store"
	"portfolio-admin/core/utils"
)

// AuthMetrics receives the login outcome counters. A nil implementation is
// allowed everywhere.
type AuthMetrics interface {
	LoginSuccess()
	LoginFailure()
	Lockout()
	RateLimited()
}

type AuthHandler struct {
	cfg         *config.AppConfig
	users       store.UsersStore
	verifier    *auth.Verifier
	issuer      *auth.SessionIssuer
	matrix      *rbac.Matrix
	audits      store.AuditStore
	ipLimiter   *ratelimit.Limiter
	userLimiter *ratelimit.Limiter
	metrics     AuthMetrics
	logger      *utils.Logger
}

func NewAuthHandler(cfg *config.AppConfig, users store.UsersStore, verifier *auth.Verifier, issuer *auth.SessionIssuer, matrix *rbac.Matrix, audits store.AuditStore, ipLimiter, userLimiter *ratelimit.Limiter, metrics AuthMetrics, logger *utils.Logger) *AuthHandler {
	return &AuthHandler{
		cfg:         cfg,
		users:       users,
		verifier:    verifier,
		issuer:      issuer,
		matrix:      matrix,
		audits:      audits,
		ipLimiter:   ipLimiter,
		userLimiter: userLimiter,
		metrics:     metrics,
		logger:      logger,
	}
}

func clientIP(r *http.Request, cfg *config.AppConfig) string {
	ip, _, _ := net.SplitHostPort(r.RemoteAddr)
	if ip == "" {
		ip = r.RemoteAddr
	}
	ip = strings.TrimSpace(ip)
	if cfg == nil || !proxyTrusted(r, cfg) {
		return ip
	}
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if candidate := strings.TrimSpace(part); candidate != "" {
				return candidate
			}
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return ip
}

func userDTO(u *store.User, matrix *rbac.Matrix) auth.UserDTO {
	dto := auth.UserDTO{
		ID:                u.ID,
		Username:          u.Username,
		Email:             u.Email,
		DisplayName:       u.DisplayName,
		Role:              u.Role,
		Status:            string(u.Status),
		MustResetPassword: u.MustResetPassword,
		LastLoginAt:       u.LastLoginAt,
	}
	if matrix != nil {
		dto.Permissions = matrix.PermissionsForRole(u.Role)
	}
	return dto
}

func userLimiterKey(username string) string {
	return "user|" + username
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var cred auth.Credentials
	if err := json.NewDecoder(r.Body).Decode(&cred); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	cred.Username = strings.ToLower(strings.TrimSpace(cred.Username))
	if cred.Username == "" || cred.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	ip := strings.ToLower(clientIP(r, h.cfg))
	if d := h.ipLimiter.Consume(ip); !d.Allowed {
		h.tooManyAttempts(w, r, cred.Username, d)
		return
	}
	if d := h.userLimiter.Consume(userLimiterKey(cred.Username)); !d.Allowed {
		h.tooManyAttempts(w, r, cred.Username, d)
		return
	}

	user, err := h.verifier.Authenticate(r.Context(), cred.Username, cred.Password)
	if err != nil {
		var authErr *auth.AuthError
		if errors.As(err, &authErr) {
			h.rejectLogin(w, authErr)
			return
		}
		if h.logger != nil {
			h.logger.Errorf("auth login failed for %s: %v", cred.Username, err)
		}
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	h.ipLimiter.Reset(ip)
	h.userLimiter.Reset(userLimiterKey(cred.Username))
	if h.metrics != nil {
		h.metrics.LoginSuccess()
	}

	token, claims, err := h.issuer.Issue(user)
	if err != nil {
		if h.logger != nil {
			h.logger.Errorf("auth login token issue failed for %s: %v", cred.Username, err)
		}
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	h.setSessionCookie(w, r, token, claims.ExpiresAt.Time)
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  userDTO(user, h.matrix),
	})
}

func (h *AuthHandler) tooManyAttempts(w http.ResponseWriter, r *http.Request, username string, d ratelimit.Decision) {
	if h.metrics != nil {
		h.metrics.RateLimited()
	}
	if h.audits != nil {
		_ = h.audits.Record(r.Context(), username, "auth.rate_limited", "user", "", "")
	}
	if d.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(d.RetryAfter.Seconds())+1))
	}
	writeError(w, http.StatusTooManyRequests, "Too many attempts. Try again later.")
}

func (h *AuthHandler) rejectLogin(w http.ResponseWriter, authErr *auth.AuthError) {
	if h.metrics != nil {
		h.metrics.LoginFailure()
	}
	switch authErr.Kind {
	case auth.KindAccountLocked:
		if h.metrics != nil {
			h.metrics.Lockout()
		}
		if authErr.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(authErr.RetryAfter.Seconds())+1))
		}
		writeError(w, http.StatusForbidden, authErr.Message())
	case auth.KindAccountInactive:
		writeError(w, http.StatusForbidden, authErr.Message())
	default:
		writeError(w, http.StatusUnauthorized, authErr.Message())
	}
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, r *http.Request, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecureRequest(r, h.cfg),
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	})
}

// Logout clears the cookie. Tokens are stateless, so the issued token stays
// technically valid until expiry; the client just stops carrying it.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	actor := ""
	if claims := sessionClaims(r); claims != nil {
		actor = claims.Username
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isSecureRequest(r, h.cfg),
		SameSite: http.SameSiteLaxMode,
	})
	if h.audits != nil && actor != "" {
		_ = h.audits.Record(r.Context(), actor, "auth.logout", "user", "", "")
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Me returns the current identity from the store, not from the token, so a
// role or status change shows up without waiting for re-login.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := sessionClaims(r)
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.users.Get(r.Context(), claims.SubjectID())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if user == nil || user.Status != store.StatusActive {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": userDTO(user, h.matrix)})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := sessionClaims(r)
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	user, err := h.users.Get(r.Context(), claims.SubjectID())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if user == nil || user.Status != store.StatusActive {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !auth.VerifyPassword(req.CurrentPassword, h.cfg.Pepper, user.PasswordDigest) {
		if h.audits != nil {
			_ = h.audits.Record(r.Context(), user.Username, "auth.change_password_failed", "user", user.ID, "current password mismatch")
		}
		writeError(w, http.StatusForbidden, "Current password is incorrect.")
		return
	}
	if err := utils.ValidatePassword(req.NewPassword); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.NewPassword == req.CurrentPassword {
		writeError(w, http.StatusBadRequest, "New password must differ from the current one.")
		return
	}
	digest, err := auth.HashPassword(req.NewPassword, h.cfg.Pepper)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if err := h.users.UpdatePassword(r.Context(), user.ID, digest, false); err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	user.PasswordDigest = digest
	user.MustResetPassword = false
	if h.audits != nil {
		_ = h.audits.Record(r.Context(), user.Username, "auth.password_changed", "user", user.ID, "")
	}

	// Reissue so the must_reset_password claim in the cookie goes stale
	// immediately rather than at re-login.
	token, claims2, err := h.issuer.Issue(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	h.setSessionCookie(w, r, token, claims2.ExpiresAt.Time)
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  userDTO(user, h.matrix),
	})
}
