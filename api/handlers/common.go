package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"portfolio-admin/config"
	"portfolio-admin/core/auth"
	"portfolio-admin/web"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "portfolio_session"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// sessionClaims pulls the claims the gate middleware stored on the context.
func sessionClaims(r *http.Request) *auth.SessionClaims {
	v := r.Context().Value(auth.SessionContextKey)
	if v == nil {
		return nil
	}
	claims, _ := v.(*auth.SessionClaims)
	return claims
}

// isSecureRequest decides the Secure flag of cookies we set: direct TLS or a
// trusted proxy saying the original request was https.
func isSecureRequest(r *http.Request, cfg *config.AppConfig) bool {
	if r.TLS != nil {
		return true
	}
	if cfg == nil || !proxyTrusted(r, cfg) {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https")
}

func proxyTrusted(r *http.Request, cfg *config.AppConfig) bool {
	ip, _, _ := net.SplitHostPort(r.RemoteAddr)
	if ip == "" {
		ip = r.RemoteAddr
	}
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return false
	}
	for _, raw := range cfg.Security.TrustedProxies {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		if strings.Contains(val, "/") {
			if _, block, err := net.ParseCIDR(val); err == nil && block.Contains(parsed) {
				return true
			}
			continue
		}
		if parsed.Equal(net.ParseIP(val)) {
			return true
		}
	}
	return false
}

// ServeStatic returns a handler serving one embedded page.
func ServeStatic(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := web.StaticFiles.ReadFile("static/" + name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		if strings.HasSuffix(name, ".html") {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		}
		_, _ = w.Write(data)
	}
}
