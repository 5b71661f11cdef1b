package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"

	"portfolio-admin/config"
	"portfolio-admin/core/auth"
	"portfolio-admin/core/rbac"
	"portfolio-admin/core/store"
	"portfolio-admin/core/utils"
)

const (
	testPepper      = "api-test-pepper"
	rootPassword    = "RootPass123"
	editorPassword  = "EditPass123"
	pendingPassword = "TempPass123"
	testTokenSecret = "api-test-session-secret-32-chars!"
)

func testConfig(t *testing.T, maxAttempts int) *config.AppConfig {
	t.Helper()
	return &config.AppConfig{
		AppEnv:   "development",
		DBDriver: "sqlite",
		DBPath:   filepath.Join(t.TempDir(), "api-test.db"),
		Pepper:   testPepper,
		Session: config.SessionConfig{
			Secret: testTokenSecret,
			Issuer: "portfolio-admin",
			TTL:    24 * time.Hour,
		},
		RateLimit: config.RateLimitConfig{MaxAttempts: maxAttempts, Window: 15 * time.Minute},
	}
}

// newTestServer boots a server over a fresh sqlite database with three
// seeded accounts: a SUPER_ADMIN, an EDITOR, and an EDITOR with a pending
// password reset.
func newTestServer(t *testing.T, maxAttempts int) *Server {
	t.Helper()
	cfg := testConfig(t, maxAttempts)
	logger := utils.NewLogger()
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.ApplyMigrations(context.Background(), db, logger); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	users := store.NewUsersStore(db)
	seed := func(username, password string, role rbac.Role, mustReset bool) {
		id, err := uuid.NewV4()
		if err != nil {
			t.Fatalf("uuid: %v", err)
		}
		u := &store.User{
			ID:                id.String(),
			Username:          username,
			Email:             username + "@example.com",
			DisplayName:       username,
			PasswordDigest:    auth.MustHashPassword(password, testPepper),
			Role:              role,
			Status:            store.StatusActive,
			MustResetPassword: mustReset,
		}
		if err := users.Create(context.Background(), u); err != nil {
			t.Fatalf("seed %s: %v", username, err)
		}
	}
	seed("root", rootPassword, rbac.RoleSuperAdmin, false)
	seed("editor", editorPassword, rbac.RoleEditor, false)
	seed("pending", pendingPassword, rbac.RoleEditor, true)

	return NewServer(cfg, db, logger)
}

func testStoreUser() *store.User {
	return &store.User{
		ID:          "u-1",
		Username:    "tester",
		Email:       "tester@example.com",
		DisplayName: "Tester",
		Role:        rbac.RoleAdmin,
		Status:      store.StatusActive,
	}
}

func doJSON(t *testing.T, s *Server, method, path, body, sessionToken string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionToken != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: sessionToken})
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func login(t *testing.T, s *Server, username, password string) (string, map[string]any, *httptest.ResponseRecorder) {
	t.Helper()
	rr := doJSON(t, s, http.MethodPost, "/api/auth/login",
		`{"username":"`+username+`","password":"`+password+`"}`, "")
	if rr.Code != http.StatusOK {
		return "", nil, rr
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("login body: %v", err)
	}
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookie && c.Value != "" {
			return c.Value, body, rr
		}
	}
	t.Fatalf("login succeeded but no session cookie set")
	return "", nil, rr
}
