package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

func TestLoginSuccessSetsCookie(t *testing.T) {
	s := newTestServer(t, 100)
	token, body, _ := login(t, s, "root", rootPassword)
	if token == "" {
		t.Fatal("no session token")
	}
	user, _ := body["user"].(map[string]any)
	if user["username"] != "root" || user["role"] != "SUPER_ADMIN" {
		t.Fatalf("unexpected login body: %v", body)
	}
	perms, _ := user["permissions"].([]any)
	if len(perms) == 0 {
		t.Fatal("login response carries no permissions")
	}
}

func TestLoginWrongPasswordCountsDown(t *testing.T) {
	s := newTestServer(t, 100)
	rr := doJSON(t, s, http.MethodPost, "/api/auth/login", `{"username":"root","password":"WrongPass1"}`, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "4 attempts remaining") {
		t.Fatalf("expected remaining-attempts hint, got %s", rr.Body.String())
	}
}

func TestLoginLockoutAfterFiveFailures(t *testing.T) {
	s := newTestServer(t, 100)
	for i := 0; i < 4; i++ {
		rr := doJSON(t, s, http.MethodPost, "/api/auth/login", `{"username":"root","password":"WrongPass1"}`, "")
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rr.Code)
		}
	}
	rr := doJSON(t, s, http.MethodPost, "/api/auth/login", `{"username":"root","password":"WrongPass1"}`, "")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("fifth failure should lock, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("locked response missing Retry-After")
	}
	if !strings.Contains(rr.Body.String(), "Account locked") {
		t.Fatalf("expected lock message, got %s", rr.Body.String())
	}

	// The correct password does not open a locked account.
	rr = doJSON(t, s, http.MethodPost, "/api/auth/login", `{"username":"root","password":"`+rootPassword+`"}`, "")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("locked account accepted correct password: %d", rr.Code)
	}
}

func TestLoginRateLimited(t *testing.T) {
	s := newTestServer(t, 2)
	for i := 0; i < 2; i++ {
		doJSON(t, s, http.MethodPost, "/api/auth/login", `{"username":"root","password":"WrongPass1"}`, "")
	}
	rr := doJSON(t, s, http.MethodPost, "/api/auth/login", `{"username":"root","password":"`+rootPassword+`"}`, "")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("429 missing Retry-After")
	}
}

func TestLoginResetsLimiterOnSuccess(t *testing.T) {
	s := newTestServer(t, 3)
	doJSON(t, s, http.MethodPost, "/api/auth/login", `{"username":"root","password":"WrongPass1"}`, "")
	if token, _, _ := login(t, s, "root", rootPassword); token == "" {
		t.Fatal("second attempt with correct password should pass")
	}
	// The success forgave the earlier failure, so a fresh burst fits again.
	for i := 0; i < 2; i++ {
		rr := doJSON(t, s, http.MethodPost, "/api/auth/login", `{"username":"root","password":"WrongPass1"}`, "")
		if rr.Code == http.StatusTooManyRequests {
			t.Fatalf("limiter not reset after success (attempt %d)", i+1)
		}
	}
}

func TestMustResetFlow(t *testing.T) {
	s := newTestServer(t, 100)
	token, body, _ := login(t, s, "pending", pendingPassword)
	user, _ := body["user"].(map[string]any)
	if user["must_reset_password"] != true {
		t.Fatalf("expected pending reset flag, got %v", body)
	}

	rr := doJSON(t, s, http.MethodGet, "/api/content/projects", "", token)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("API access during pending reset should be 403, got %d", rr.Code)
	}

	rr = doJSON(t, s, http.MethodGet, "/admin/users", "", token)
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != passwordResetPage {
		t.Fatalf("admin page should redirect to reset, got %d %q", rr.Code, rr.Header().Get("Location"))
	}

	rr = doJSON(t, s, http.MethodPost, "/api/auth/change-password",
		`{"current_password":"`+pendingPassword+`","new_password":"FreshPass123"}`, token)
	if rr.Code != http.StatusOK {
		t.Fatalf("change password failed: %d %s", rr.Code, rr.Body.String())
	}
	var fresh string
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookie && c.Value != "" {
			fresh = c.Value
		}
	}
	if fresh == "" || fresh == token {
		t.Fatal("change password must reissue the session cookie")
	}

	rr = doJSON(t, s, http.MethodGet, "/api/auth/me", "", fresh)
	if rr.Code != http.StatusOK {
		t.Fatalf("me after reset: %d", rr.Code)
	}
	var me map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &me)
	u, _ := me["user"].(map[string]any)
	if u["must_reset_password"] != false {
		t.Fatalf("reset flag should be cleared: %v", me)
	}

	if _, _, rr := login(t, s, "pending", "FreshPass123"); rr.Code != http.StatusOK {
		t.Fatalf("login with new password: %d", rr.Code)
	}
}

func TestChangePasswordRejectsWrongCurrent(t *testing.T) {
	s := newTestServer(t, 100)
	token, _, _ := login(t, s, "editor", editorPassword)
	rr := doJSON(t, s, http.MethodPost, "/api/auth/change-password",
		`{"current_password":"WrongPass1","new_password":"FreshPass123"}`, token)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestChangePasswordEnforcesPolicy(t *testing.T) {
	s := newTestServer(t, 100)
	token, _, _ := login(t, s, "editor", editorPassword)
	rr := doJSON(t, s, http.MethodPost, "/api/auth/change-password",
		`{"current_password":"`+editorPassword+`","new_password":"weak"}`, token)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("weak password should be rejected, got %d", rr.Code)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	s := newTestServer(t, 100)
	token, _, _ := login(t, s, "editor", editorPassword)
	rr := doJSON(t, s, http.MethodPost, "/api/auth/logout", "", token)
	if rr.Code != http.StatusOK {
		t.Fatalf("logout: %d", rr.Code)
	}
	cleared := false
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookie && c.Value == "" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("logout did not clear the session cookie")
	}
}

func TestMeRequiresSession(t *testing.T) {
	s := newTestServer(t, 100)
	rr := doJSON(t, s, http.MethodGet, "/api/auth/me", "", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
