package auth

import (
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Manager is the in-memory backend for single-binary or test deployments. It
// can be swapped for a persistent backend without touching callers.
type Manager struct {
	mu sync.Mutex

	nextAccountID uint64
	sessionTTL    time.Duration
	sessions      map[string]session
	accountsByID  map[uint64]account
	accountsByKey map[string]uint64 // normalized username -> account
}

type session struct {
	AccountID uint64
	ExpiresAt time.Time
}

type account struct {
	AccountID    uint64
	Username     string
	PasswordHash []byte
	LastLoginAt  time.Time
}

// NewManager creates an empty in-memory account store.
func NewManager(sessionTTL time.Duration) *Manager {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &Manager{
		nextAccountID: 100000, // readable non-trivial id range
		sessionTTL:    sessionTTL,
		sessions:      make(map[string]session),
		accountsByID:  make(map[uint64]account),
		accountsByKey: make(map[string]uint64),
	}
}

func (m *Manager) Close() error { return nil }

// Register creates an account and returns an authenticated session token.
func (m *Manager) Register(username, password string) (uint64, string, error) {
	if err := validateUsername(username); err != nil {
		return 0, "", err
	}
	if err := validatePassword(password); err != nil {
		return 0, "", err
	}

	normalized := normalizeUsername(username)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accountsByKey[normalized]; exists {
		return 0, "", ErrUsernameTaken
	}

	m.nextAccountID++
	id := m.nextAccountID
	now := time.Now()
	m.accountsByID[id] = account{
		AccountID:    id,
		Username:     normalized,
		PasswordHash: hash,
		LastLoginAt:  now,
	}
	m.accountsByKey[normalized] = id

	return id, m.issueSessionLocked(id, now), nil
}

// Login validates credentials and returns a fresh session.
func (m *Manager) Login(username, password string) (uint64, string, error) {
	normalized := normalizeUsername(username)
	if normalized == "" || password == "" {
		return 0, "", ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id, exists := m.accountsByKey[normalized]
	if !exists {
		return 0, "", ErrInvalidCredentials
	}
	acct := m.accountsByID[id]
	if bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(password)) != nil {
		return 0, "", ErrInvalidCredentials
	}

	now := time.Now()
	acct.LastLoginAt = now
	m.accountsByID[id] = acct
	return id, m.issueSessionLocked(id, now), nil
}

// ResolveSession validates and refreshes a session token.
func (m *Manager) ResolveSession(token string) (uint64, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	rec, exists := m.sessions[token]
	if token == "" || !exists {
		return 0, "", false
	}
	if !now.Before(rec.ExpiresAt) {
		delete(m.sessions, token)
		return 0, "", false
	}
	rec.ExpiresAt = now.Add(m.sessionTTL)
	m.sessions[token] = rec

	return rec.AccountID, m.accountsByID[rec.AccountID].Username, true
}

// Logout invalidates a session token.
func (m *Manager) Logout(token string) {
	if token == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

func (m *Manager) issueSessionLocked(accountID uint64, now time.Time) string {
	token := newToken()
	m.sessions[token] = session{
		AccountID: accountID,
		ExpiresAt: now.Add(m.sessionTTL),
	}
	return token
}
