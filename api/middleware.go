package api

import (
	"context"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"portfolio-admin/core/auth"
	"portfolio-admin/core/rbac"
)

const (
	sessionCookie     = "portfolio_session"
	loginPath         = "/login"
	adminHome         = "/admin"
	passwordResetPage = "/admin/profile/reset-password"
	unauthorizedPage  = "/unauthorized"
)

// pagePermissions maps admin page prefixes to the permission a visitor needs
// to see them. Paths not listed only require a session.
var pagePermissions = []struct {
	prefix string
	perm   rbac.Permission
}{
	{adminHome + "/users", rbac.PermViewUsers},
	{adminHome + "/logs", rbac.PermViewAuditLogs},
	{adminHome + "/settings", rbac.PermViewSettings},
}

func pagePermissionFor(path string) (rbac.Permission, bool) {
	for _, pp := range pagePermissions {
		if path == pp.prefix || strings.HasPrefix(path, pp.prefix+"/") {
			return pp.perm, true
		}
	}
	return "", false
}

// mustResetAPIAllowed lists the API endpoints a user may still call while a
// forced password reset is pending.
func mustResetAPIAllowed(path string) bool {
	switch path {
	case "/api/auth/change-password", "/api/auth/logout", "/api/auth/me":
		return true
	}
	return false
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if s.logger != nil {
					s.logger.Errorf("panic serving %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				}
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self'; script-src 'self'; img-src 'self' data:; object-src 'none'; frame-ancestors 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")
		w.Header().Set("Referrer-Policy", "no-referrer")
		if s.cfg.TLSEnabled {
			w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if s.logger != nil {
			user := "-"
			if claims := claimsFrom(r.Context()); claims != nil {
				user = claims.Username
			}
			s.logger.Printf("RESP %s %s user=%s status=%d dur=%s bytes=%d", r.Method, r.URL.Path, user, rec.status, time.Since(start), rec.size)
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

// sessionMiddleware parses the token, if any, and stores the claims on the
// context. It never rejects: the route guards decide what anonymity means.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := s.issuer.Parse(token)
		if err != nil {
			// Expired or tampered tokens count as anonymous.
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), auth.SessionContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// tokenFromRequest prefers the cookie and falls back to a bearer header for
// non-browser clients.
func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func claimsFrom(ctx context.Context) *auth.SessionClaims {
	v := ctx.Value(auth.SessionContextKey)
	if v == nil {
		return nil
	}
	claims, _ := v.(*auth.SessionClaims)
	return claims
}

// requirePage guards the admin shell pages: anonymous visitors are sent to
// the login page with a callbackUrl, and a pending password reset pins the
// user to the reset page.
func (s *Server) requirePage(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r.Context())
		if claims == nil {
			target := loginPath + "?callbackUrl=" + url.QueryEscape(r.URL.Path)
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		if claims.MustResetPassword && r.URL.Path != passwordResetPage {
			http.Redirect(w, r, passwordResetPage, http.StatusFound)
			return
		}
		if perm, ok := pagePermissionFor(r.URL.Path); ok && !s.matrix.HasPermission(claims.Role, perm) {
			http.Redirect(w, r, unauthorizedPage, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// withSession guards API routes: 401 for anonymity, 403 while a password
// reset is pending unless the endpoint is on the reset allow-list.
func (s *Server) withSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r.Context())
		if claims == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		if claims.MustResetPassword && !mustResetAPIAllowed(r.URL.Path) {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "password reset required"})
			return
		}
		next.ServeHTTP(w, r)
	}
}

func (s *Server) requirePermission(perm rbac.Permission) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims := claimsFrom(r.Context())
			if claims == nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}
			if !s.matrix.HasPermission(claims.Role, perm) {
				if s.logger != nil {
					s.logger.Printf("PERM fail %s %s user=%s role=%s need=%s", r.Method, r.URL.Path, claims.Username, claims.Role, perm)
				}
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
				return
			}
			next.ServeHTTP(w, r)
		}
	}
}

func (s *Server) requireAnyPermission(perms ...rbac.Permission) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims := claimsFrom(r.Context())
			if claims == nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}
			if !s.matrix.HasAnyPermission(claims.Role, perms...) {
				if s.logger != nil {
					s.logger.Printf("PERM fail %s %s user=%s role=%s need_any=%v", r.Method, r.URL.Path, claims.Username, claims.Role, perms)
				}
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
				return
			}
			next.ServeHTTP(w, r)
		}
	}
}
