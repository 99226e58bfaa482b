package auth

import (
	"errors"
	"testing"
	"time"
)

func TestRegisterLoginResolve(t *testing.T) {
	m := NewManager(time.Hour)
	defer m.Close()

	accountID, token, err := m.Register("Alice", "hunter22")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if accountID == 0 || token == "" {
		t.Fatalf("expected account id and token, got %d %q", accountID, token)
	}

	gotID, username, ok := m.ResolveSession(token)
	if !ok {
		t.Fatalf("expected session to resolve")
	}
	if gotID != accountID {
		t.Fatalf("resolved account %d, want %d", gotID, accountID)
	}
	if username != "alice" {
		t.Fatalf("resolved username %q, want %q", username, "alice")
	}

	loginID, loginToken, err := m.Login("alice", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if loginID != accountID {
		t.Fatalf("login resolved account %d, want %d", loginID, accountID)
	}
	if loginToken == token {
		t.Fatalf("login should issue a fresh token")
	}
}

func TestRegisterRejectsDuplicateCaseInsensitive(t *testing.T) {
	m := NewManager(time.Hour)
	defer m.Close()

	if _, _, err := m.Register("Bob", "password1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, err := m.Register("BOB", "password2"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	m := NewManager(time.Hour)
	defer m.Close()

	if _, _, err := m.Register("carol", "topsecret"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, err := m.Login("carol", "wrongpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := m.Login("nobody", "topsecret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	m := NewManager(time.Hour)
	defer m.Close()

	_, token, err := m.Register("dave", "password1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	m.Logout(token)
	if _, _, ok := m.ResolveSession(token); ok {
		t.Fatalf("session should not resolve after logout")
	}
}

func TestExpiredSessionDoesNotResolve(t *testing.T) {
	m := NewManager(time.Millisecond)
	defer m.Close()

	_, token, err := m.Register("erin", "password1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, _, ok := m.ResolveSession(token); ok {
		t.Fatalf("expired session should not resolve")
	}
}

func TestCredentialValidation(t *testing.T) {
	m := NewManager(time.Hour)
	defer m.Close()

	cases := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"short username", "ab", "password1", ErrInvalidUsername},
		{"bad characters", "no spaces", "password1", ErrInvalidUsername},
		{"leading dot", ".dotty", "password1", ErrInvalidUsername},
		{"short password", "frank", "12345", ErrInvalidPassword},
		{"oversized password", "frank", string(make([]byte, 80)), ErrInvalidPassword},
	}
	for _, tc := range cases {
		if _, _, err := m.Register(tc.username, tc.password); !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.wantErr)
		}
	}
}
