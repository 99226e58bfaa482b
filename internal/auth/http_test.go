package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newAuthServer(t *testing.T) *httptest.Server {
	t.Helper()
	m := NewManager(time.Hour)
	t.Cleanup(func() { m.Close() })
	mux := http.NewServeMux()
	NewHTTPHandler(m).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postCredentials(t *testing.T, srv *httptest.Server, path, username, password string) *http.Response {
	t.Helper()
	body := strings.NewReader(`{"username":"` + username + `","password":"` + password + `"}`)
	resp, err := http.Post(srv.URL+path, "application/json", body)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func TestHTTPRegisterLoginMe(t *testing.T) {
	srv := newAuthServer(t)

	resp := postCredentials(t, srv, "/api/auth/register", "Grace", "password1")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	var reg authResponse
	if err := json.NewDecoder(resp.Body).Decode(&reg); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if reg.Token == "" || reg.Username != "grace" {
		t.Fatalf("unexpected register response %+v", reg)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+reg.Token)
	meResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /me: %v", err)
	}
	defer meResp.Body.Close()
	if meResp.StatusCode != http.StatusOK {
		t.Fatalf("me status %d, want %d", meResp.StatusCode, http.StatusOK)
	}
	var me meResponse
	if err := json.NewDecoder(meResp.Body).Decode(&me); err != nil {
		t.Fatalf("decode me response: %v", err)
	}
	if me.AccountID != reg.AccountID || me.Username != "grace" {
		t.Fatalf("unexpected me response %+v", me)
	}
}

func TestHTTPLoginRejectsBadPassword(t *testing.T) {
	srv := newAuthServer(t)

	resp := postCredentials(t, srv, "/api/auth/register", "heidi", "password1")
	resp.Body.Close()

	bad := postCredentials(t, srv, "/api/auth/login", "heidi", "nope-nope")
	defer bad.Body.Close()
	if bad.StatusCode != http.StatusUnauthorized {
		t.Fatalf("login status %d, want %d", bad.StatusCode, http.StatusUnauthorized)
	}
}

func TestHTTPRegisterDuplicateConflicts(t *testing.T) {
	srv := newAuthServer(t)

	first := postCredentials(t, srv, "/api/auth/register", "ivan", "password1")
	first.Body.Close()
	second := postCredentials(t, srv, "/api/auth/register", "Ivan", "password2")
	defer second.Body.Close()
	if second.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register status %d, want %d", second.StatusCode, http.StatusConflict)
	}
}

func TestHTTPRejectsUnknownFields(t *testing.T) {
	srv := newAuthServer(t)

	body := strings.NewReader(`{"username":"judy","password":"password1","extra":true}`)
	resp, err := http.Post(srv.URL+"/api/auth/register", "application/json", body)
	if err != nil {
		t.Fatalf("POST register: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}
