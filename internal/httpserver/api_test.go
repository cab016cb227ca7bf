package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"labstock/internal/auth"
	"labstock/internal/db"
	"labstock/internal/models"
)

const testPassword = "password123"

func setupTestServer(t *testing.T) (*httptest.Server, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	gdb := db.NewTestDB(t)
	srv := httptest.NewServer(NewRouter(gdb, zap.NewNop().Sugar()))
	t.Cleanup(srv.Close)
	return srv, gdb
}

func createUser(t *testing.T, gdb *gorm.DB, email string, mutate func(*models.User)) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &models.User{Email: email, HashedPassword: hash, IsActive: true}
	if mutate != nil {
		mutate(u)
	}
	if err := gdb.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func login(t *testing.T, srv *httptest.Server, email string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": testPassword})
	resp, err := http.Post(srv.URL+"/v1/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}
	var out map[string]string
	json.NewDecoder(resp.Body).Decode(&out)
	if out["access_token"] == "" {
		t.Fatal("empty access token from login")
	}
	return out["access_token"]
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader([]byte(`{}`))
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestLoginRejectsBadPassword(t *testing.T) {
	srv, gdb := setupTestServer(t)
	createUser(t, gdb, "alice@lab.test", nil)

	body, _ := json.Marshal(map[string]string{"email": "alice@lab.test", "password": "wrong"})
	resp, err := http.Post(srv.URL+"/v1/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
}

func TestInactiveUserCannotLogin(t *testing.T) {
	srv, gdb := setupTestServer(t)
	createUser(t, gdb, "ghost@lab.test", func(u *models.User) { u.IsActive = false })

	body, _ := json.Marshal(map[string]string{"email": "ghost@lab.test", "password": testPassword})
	resp, err := http.Post(srv.URL+"/v1/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for inactive user, got %d", resp.StatusCode)
	}
}

func TestMissingTokenIsUnauthorized(t *testing.T) {
	srv, _ := setupTestServer(t)
	resp := doJSON(t, http.MethodGet, srv.URL+"/v1/items/", "", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}
}

func TestSignupThenMe(t *testing.T) {
	srv, _ := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{
		"email": "New@Lab.Test", "password": testPassword, "full_name": "New Person",
	})
	resp, err := http.Post(srv.URL+"/v1/auth/signup", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("signup failed: %d", resp.StatusCode)
	}
	u := decodeBody[models.User](t, resp)
	if u.Email != "new@lab.test" {
		t.Errorf("email not normalized: %q", u.Email)
	}
	if u.IsPartOfLab || u.CanEditItems || u.CanEditLabs || u.CanEditUsers || u.IsSuperuser {
		t.Error("fresh signup must carry no lab flags")
	}

	token := login(t, srv, "new@lab.test")
	resp = doJSON(t, http.MethodGet, srv.URL+"/v1/me", token, nil)
	me := decodeBody[models.User](t, resp)
	if me.UserID != u.UserID {
		t.Errorf("me returned wrong user: %s", me.UserID)
	}
}

func TestSignupRejectsShortPassword(t *testing.T) {
	srv, _ := setupTestServer(t)
	body, _ := json.Marshal(map[string]string{"email": "short@lab.test", "password": "short"})
	resp, err := http.Post(srv.URL+"/v1/auth/signup", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for short password, got %d", resp.StatusCode)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	srv, gdb := setupTestServer(t)
	createUser(t, gdb, "taken@lab.test", nil)

	body, _ := json.Marshal(map[string]string{"email": "Taken@Lab.Test", "password": testPassword})
	resp, err := http.Post(srv.URL+"/v1/auth/signup", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for duplicate email, got %d", resp.StatusCode)
	}
}

func TestChangePassword(t *testing.T) {
	srv, gdb := setupTestServer(t)
	createUser(t, gdb, "rotate@lab.test", nil)
	token := login(t, srv, "rotate@lab.test")

	resp := doJSON(t, http.MethodPost, srv.URL+"/v1/auth/password", token, map[string]string{
		"current_password": testPassword, "new_password": "betterpassword",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("password change failed: %d", resp.StatusCode)
	}

	// Old password no longer works.
	body, _ := json.Marshal(map[string]string{"email": "rotate@lab.test", "password": testPassword})
	loginResp, _ := http.Post(srv.URL+"/v1/auth/login", "application/json", bytes.NewReader(body))
	loginResp.Body.Close()
	if loginResp.StatusCode != http.StatusUnauthorized {
		t.Errorf("old password still accepted: %d", loginResp.StatusCode)
	}
}
