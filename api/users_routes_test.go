package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

func TestUsersListRequiresViewPermission(t *testing.T) {
	s := newTestServer(t, 100)

	rr := doJSON(t, s, http.MethodGet, "/api/users", "", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", rr.Code)
	}

	editorToken, _, _ := login(t, s, "editor", editorPassword)
	rr = doJSON(t, s, http.MethodGet, "/api/users", "", editorToken)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("editor: expected 403, got %d", rr.Code)
	}

	rootToken, _, _ := login(t, s, "root", rootPassword)
	rr = doJSON(t, s, http.MethodGet, "/api/users", "", rootToken)
	if rr.Code != http.StatusOK {
		t.Fatalf("super admin: expected 200, got %d", rr.Code)
	}
	if body := rr.Body.String(); body == "" || !json.Valid([]byte(body)) {
		t.Fatalf("bad list body: %q", body)
	}
}

func TestUserListNeverExposesDigest(t *testing.T) {
	s := newTestServer(t, 100)
	rootToken, _, _ := login(t, s, "root", rootPassword)
	rr := doJSON(t, s, http.MethodGet, "/api/users", "", rootToken)
	if rr.Code != http.StatusOK {
		t.Fatalf("list: %d", rr.Code)
	}
	body := rr.Body.String()
	for _, needle := range []string{"password_digest", "argon2id"} {
		if strings.Contains(body, needle) {
			t.Fatalf("user list leaks %q", needle)
		}
	}
}

func userIDByUsername(t *testing.T, s *Server, token, username string) string {
	t.Helper()
	rr := doJSON(t, s, http.MethodGet, "/api/users", "", token)
	if rr.Code != http.StatusOK {
		t.Fatalf("list users: %d", rr.Code)
	}
	var body struct {
		Users []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"users"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("list body: %v", err)
	}
	for _, u := range body.Users {
		if u.Username == username {
			return u.ID
		}
	}
	t.Fatalf("user %s not found", username)
	return ""
}

func TestCreateUpdateDeleteUser(t *testing.T) {
	s := newTestServer(t, 100)
	rootToken, _, _ := login(t, s, "root", rootPassword)

	rr := doJSON(t, s, http.MethodPost, "/api/users",
		`{"username":"carol","email":"carol@example.com","display_name":"Carol","password":"CarolPass1","role":"EDITOR"}`, rootToken)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rr.Code, rr.Body.String())
	}
	var created struct {
		User struct {
			ID                string `json:"id"`
			MustResetPassword bool   `json:"must_reset_password"`
		} `json:"user"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &created)
	if !created.User.MustResetPassword {
		t.Fatal("admin-created account should require a password reset")
	}

	// Duplicate username conflicts.
	rr = doJSON(t, s, http.MethodPost, "/api/users",
		`{"username":"carol","email":"other@example.com","display_name":"Other","password":"OtherPass1","role":"EDITOR"}`, rootToken)
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate username: expected 409, got %d", rr.Code)
	}

	rr = doJSON(t, s, http.MethodPut, "/api/users/"+created.User.ID,
		`{"role":"ADMIN","status":"SUSPENDED"}`, rootToken)
	if rr.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rr.Code, rr.Body.String())
	}

	// Suspended accounts cannot log in.
	loginRR := doJSON(t, s, http.MethodPost, "/api/auth/login", `{"username":"carol","password":"CarolPass1"}`, "")
	if loginRR.Code != http.StatusForbidden {
		t.Fatalf("suspended login: expected 403, got %d", loginRR.Code)
	}

	rr = doJSON(t, s, http.MethodDelete, "/api/users/"+created.User.ID, "", rootToken)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete: %d", rr.Code)
	}
}

func TestCannotDeleteSelf(t *testing.T) {
	s := newTestServer(t, 100)
	rootToken, _, _ := login(t, s, "root", rootPassword)
	id := userIDByUsername(t, s, rootToken, "root")
	rr := doJSON(t, s, http.MethodDelete, "/api/users/"+id, "", rootToken)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("self delete: expected 400, got %d", rr.Code)
	}
}

func TestCannotChangeOwnRole(t *testing.T) {
	s := newTestServer(t, 100)
	rootToken, _, _ := login(t, s, "root", rootPassword)
	id := userIDByUsername(t, s, rootToken, "root")
	rr := doJSON(t, s, http.MethodPut, "/api/users/"+id, `{"role":"EDITOR"}`, rootToken)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("self demote: expected 400, got %d", rr.Code)
	}
}

func TestAdminResetUnlocksAndForcesChange(t *testing.T) {
	s := newTestServer(t, 100)

	// Lock the editor account.
	for i := 0; i < 5; i++ {
		doJSON(t, s, http.MethodPost, "/api/auth/login", `{"username":"editor","password":"WrongPass1"}`, "")
	}
	rr := doJSON(t, s, http.MethodPost, "/api/auth/login", `{"username":"editor","password":"`+editorPassword+`"}`, "")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("editor should be locked, got %d", rr.Code)
	}

	rootToken, _, _ := login(t, s, "root", rootPassword)
	id := userIDByUsername(t, s, rootToken, "editor")
	rr = doJSON(t, s, http.MethodPost, "/api/users/"+id+"/reset-password", `{"new_password":"TempEdit123"}`, rootToken)
	if rr.Code != http.StatusOK {
		t.Fatalf("admin reset: %d %s", rr.Code, rr.Body.String())
	}

	// The reset cleared the lock; the temp password works and forces a change.
	token, body, loginRR := login(t, s, "editor", "TempEdit123")
	if token == "" {
		t.Fatalf("login after reset failed: %d %s", loginRR.Code, loginRR.Body.String())
	}
	user, _ := body["user"].(map[string]any)
	if user["must_reset_password"] != true {
		t.Fatal("admin reset must force a password change")
	}
}

func TestAuditLogVisibleToSuperAdminOnly(t *testing.T) {
	s := newTestServer(t, 100)
	doJSON(t, s, http.MethodPost, "/api/auth/login", `{"username":"editor","password":"WrongPass1"}`, "")

	editorToken, _, _ := login(t, s, "editor", editorPassword)
	rr := doJSON(t, s, http.MethodGet, "/api/logs", "", editorToken)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("editor logs: expected 403, got %d", rr.Code)
	}

	rootToken, _, _ := login(t, s, "root", rootPassword)
	rr = doJSON(t, s, http.MethodGet, "/api/logs", "", rootToken)
	if rr.Code != http.StatusOK {
		t.Fatalf("super admin logs: %d", rr.Code)
	}
	var body struct {
		Records []struct {
			Action string `json:"action"`
		} `json:"records"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	found := false
	for _, rec := range body.Records {
		if rec.Action == "auth.login_failed" {
			found = true
		}
	}
	if !found {
		t.Fatal("failed login attempt missing from the audit log")
	}
}
