package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"portfolio-admin/config"
	"portfolio-admin/core/auth"
	"portfolio-admin/core/rbac"

	"github.com/golang-jwt/jwt/v5"
)

func claimsFor(role rbac.Role, mustReset bool) *auth.SessionClaims {
	return &auth.SessionClaims{
		Username:          "tester",
		Role:              role,
		MustResetPassword: mustReset,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func withClaims(r *http.Request, claims *auth.SessionClaims) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), auth.SessionContextKey, claims))
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRequirePermissionDeniesMissingPermission(t *testing.T) {
	s := &Server{matrix: rbac.NewMatrix()}
	handler := s.requirePermission(rbac.PermDeleteUser)(okHandler)
	req := withClaims(httptest.NewRequest(http.MethodDelete, "/api/users/u-2", nil), claimsFor(rbac.RoleAdmin, false))
	rr := httptest.NewRecorder()
	handler(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected forbidden, got %d", rr.Code)
	}
}

func TestRequirePermissionAllowsGrantedPermission(t *testing.T) {
	s := &Server{matrix: rbac.NewMatrix()}
	handler := s.requirePermission(rbac.PermDeleteUser)(okHandler)
	req := withClaims(httptest.NewRequest(http.MethodDelete, "/api/users/u-2", nil), claimsFor(rbac.RoleSuperAdmin, false))
	rr := httptest.NewRecorder()
	handler(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected ok, got %d", rr.Code)
	}
}

func TestRequireAnyPermission(t *testing.T) {
	s := &Server{matrix: rbac.NewMatrix()}
	handler := s.requireAnyPermission(rbac.PermManageNotice, rbac.PermViewSettings)(okHandler)

	req := withClaims(httptest.NewRequest(http.MethodGet, "/api/settings/notice/current", nil), claimsFor(rbac.RoleAdmin, false))
	rr := httptest.NewRecorder()
	handler(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("admin expected ok, got %d", rr.Code)
	}

	req = withClaims(httptest.NewRequest(http.MethodGet, "/api/settings/notice/current", nil), claimsFor(rbac.RoleEditor, false))
	rr = httptest.NewRecorder()
	handler(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("editor expected forbidden, got %d", rr.Code)
	}
}

func TestWithSessionRejectsAnonymous(t *testing.T) {
	s := &Server{}
	handler := s.withSession(okHandler)
	rr := httptest.NewRecorder()
	handler(rr, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %d", rr.Code)
	}
}

func TestWithSessionBlocksPendingResetOutsideAllowList(t *testing.T) {
	s := &Server{}
	claims := claimsFor(rbac.RoleEditor, true)

	handler := s.withSession(okHandler)
	req := withClaims(httptest.NewRequest(http.MethodGet, "/api/content/projects", nil), claims)
	rr := httptest.NewRecorder()
	handler(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected forbidden during pending reset, got %d", rr.Code)
	}

	for _, path := range []string{"/api/auth/change-password", "/api/auth/logout", "/api/auth/me"} {
		req = withClaims(httptest.NewRequest(http.MethodPost, path, nil), claims)
		rr = httptest.NewRecorder()
		handler(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s should pass during pending reset, got %d", path, rr.Code)
		}
	}
}

func TestRequirePageRedirectsAnonymousWithCallback(t *testing.T) {
	s := &Server{}
	handler := s.requirePage(okHandler)
	rr := httptest.NewRecorder()
	handler(rr, httptest.NewRequest(http.MethodGet, "/admin/users", nil))
	if rr.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/login?callbackUrl=%2Fadmin%2Fusers" {
		t.Fatalf("unexpected redirect target %q", loc)
	}
}

func TestRequirePagePinsPendingResetToResetPage(t *testing.T) {
	s := &Server{}
	handler := s.requirePage(okHandler)
	claims := claimsFor(rbac.RoleAdmin, true)

	req := withClaims(httptest.NewRequest(http.MethodGet, "/admin/users", nil), claims)
	rr := httptest.NewRecorder()
	handler(rr, req)
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != passwordResetPage {
		t.Fatalf("expected redirect to reset page, got %d %q", rr.Code, rr.Header().Get("Location"))
	}

	// No redirect loop on the reset page itself.
	req = withClaims(httptest.NewRequest(http.MethodGet, passwordResetPage, nil), claims)
	rr = httptest.NewRecorder()
	handler(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("reset page should serve, got %d", rr.Code)
	}
}

func TestRequirePageRedirectsUnderprivilegedToUnauthorized(t *testing.T) {
	s := &Server{matrix: rbac.NewMatrix()}
	handler := s.requirePage(okHandler)

	req := withClaims(httptest.NewRequest(http.MethodGet, "/admin/users", nil), claimsFor(rbac.RoleEditor, false))
	rr := httptest.NewRecorder()
	handler(rr, req)
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != unauthorizedPage {
		t.Fatalf("editor on user management should bounce, got %d %q", rr.Code, rr.Header().Get("Location"))
	}

	req = withClaims(httptest.NewRequest(http.MethodGet, "/admin/users", nil), claimsFor(rbac.RoleSuperAdmin, false))
	rr = httptest.NewRecorder()
	handler(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("super admin should see user management, got %d", rr.Code)
	}

	// Unlisted admin pages only need a session.
	req = withClaims(httptest.NewRequest(http.MethodGet, "/admin/content/projects", nil), claimsFor(rbac.RoleEditor, false))
	rr = httptest.NewRecorder()
	handler(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("editor should reach content pages, got %d", rr.Code)
	}
}

func TestLoginPageRedirectsAuthenticated(t *testing.T) {
	s := &Server{}
	req := withClaims(httptest.NewRequest(http.MethodGet, "/login", nil), claimsFor(rbac.RoleAdmin, false))
	rr := httptest.NewRecorder()
	s.loginPage(rr, req)
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != adminHome {
		t.Fatalf("expected redirect to %s, got %d %q", adminHome, rr.Code, rr.Header().Get("Location"))
	}

	req = withClaims(httptest.NewRequest(http.MethodGet, "/login", nil), claimsFor(rbac.RoleAdmin, true))
	rr = httptest.NewRecorder()
	s.loginPage(rr, req)
	if rr.Header().Get("Location") != passwordResetPage {
		t.Fatalf("pending reset should land on reset page, got %q", rr.Header().Get("Location"))
	}
}

func TestSessionMiddlewareIgnoresBadTokens(t *testing.T) {
	s := &Server{issuer: auth.NewSessionIssuer(config.SessionConfig{Secret: "mw-test-secret", Issuer: "portfolio-admin", TTL: time.Hour})}
	var got *auth.SessionClaims
	handler := s.sessionMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = claimsFrom(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "garbage"})
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got != nil {
		t.Fatalf("garbage token must stay anonymous, got claims %+v", got)
	}
}

func TestSessionMiddlewareAcceptsBearerHeader(t *testing.T) {
	issuer := auth.NewSessionIssuer(config.SessionConfig{Secret: "mw-test-secret", Issuer: "portfolio-admin", TTL: time.Hour})
	s := &Server{issuer: issuer}
	token, _, err := issuer.Issue(testStoreUser())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	var got *auth.SessionClaims
	handler := s.sessionMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = claimsFrom(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got == nil || got.Username != "tester" {
		t.Fatalf("bearer token not honored: %+v", got)
	}
}
