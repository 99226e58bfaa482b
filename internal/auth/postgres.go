package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// PostgresManager persists accounts and sessions in PostgreSQL, for
// deployments where several server instances share one auth store.
type PostgresManager struct {
	db         *sql.DB
	sessionTTL time.Duration
}

const postgresOpTimeout = 5 * time.Second

func NewPostgresManager(dsn string, sessionTTL time.Duration) (*PostgresManager, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("empty postgres DSN")
	}
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), postgresOpTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensurePostgresAuthSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &PostgresManager{db: db, sessionTTL: sessionTTL}, nil
}

func (m *PostgresManager) Close() error {
	if m == nil || m.db == nil {
		return nil
	}
	return m.db.Close()
}

func (m *PostgresManager) Register(username, password string) (uint64, string, error) {
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

	ctx, cancel := context.WithTimeout(context.Background(), postgresOpTimeout)
	defer cancel()
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, "", err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	var id uint64
	err = tx.QueryRowContext(ctx, `
INSERT INTO accounts (username, password_hash, created_at, last_login_at)
VALUES ($1, $2, $3, $3)
RETURNING id
`, normalized, string(hash), now).Scan(&id)
	if err != nil {
		if isPostgresUniqueViolation(err) {
			return 0, "", ErrUsernameTaken
		}
		return 0, "", err
	}

	token, err := m.issueSessionTx(ctx, tx, id, now)
	if err != nil {
		return 0, "", err
	}
	if err := tx.Commit(); err != nil {
		return 0, "", err
	}
	return id, token, nil
}

func (m *PostgresManager) Login(username, password string) (uint64, string, error) {
	normalized := normalizeUsername(username)
	if normalized == "" || password == "" {
		return 0, "", ErrInvalidCredentials
	}

	ctx, cancel := context.WithTimeout(context.Background(), postgresOpTimeout)
	defer cancel()

	var accountID uint64
	var hash string
	err := m.db.QueryRowContext(ctx, `
SELECT id, password_hash FROM accounts WHERE username = $1
`, normalized).Scan(&accountID, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", ErrInvalidCredentials
		}
		return 0, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return 0, "", ErrInvalidCredentials
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, "", err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
UPDATE accounts SET last_login_at = $1 WHERE id = $2
`, now, accountID); err != nil {
		return 0, "", err
	}
	token, err := m.issueSessionTx(ctx, tx, accountID, now)
	if err != nil {
		return 0, "", err
	}
	if err := tx.Commit(); err != nil {
		return 0, "", err
	}
	return accountID, token, nil
}

func (m *PostgresManager) ResolveSession(token string) (uint64, string, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, "", false
	}
	ctx, cancel := context.WithTimeout(context.Background(), postgresOpTimeout)
	defer cancel()

	now := time.Now().UTC()
	expiresAt := now.Add(m.sessionTTL)

	var accountID uint64
	var username string
	err := m.db.QueryRowContext(ctx, `
UPDATE sessions AS s
SET last_seen_at = $1, expires_at = $2
FROM accounts AS a
WHERE s.token = $3
  AND s.revoked_at IS NULL
  AND s.expires_at > $1
  AND a.id = s.account_id
RETURNING s.account_id, a.username
`, now, expiresAt, token).Scan(&accountID, &username)
	if err != nil {
		return 0, "", false
	}
	return accountID, username, true
}

func (m *PostgresManager) Logout(token string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), postgresOpTimeout)
	defer cancel()
	_, _ = m.db.ExecContext(ctx, `
UPDATE sessions SET revoked_at = $1
WHERE token = $2 AND revoked_at IS NULL
`, time.Now().UTC(), token)
}

func (m *PostgresManager) issueSessionTx(ctx context.Context, tx *sql.Tx, accountID uint64, now time.Time) (string, error) {
	expiresAt := now.Add(m.sessionTTL)
	for i := 0; i < 5; i++ {
		token := newToken()
		if _, err := tx.ExecContext(ctx, `
INSERT INTO sessions (token, account_id, issued_at, expires_at, last_seen_at)
VALUES ($1, $2, $3, $4, $3)
`, token, accountID, now, expiresAt); err != nil {
			if isPostgresUniqueViolation(err) {
				continue
			}
			return "", err
		}
		return token, nil
	}
	return "", fmt.Errorf("failed to generate unique session token")
}

func ensurePostgresAuthSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS accounts (
    id BIGSERIAL PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    last_login_at TIMESTAMPTZ
)`,
		`
CREATE TABLE IF NOT EXISTS sessions (
    token TEXT PRIMARY KEY,
    account_id BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    issued_at TIMESTAMPTZ NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL,
    revoked_at TIMESTAMPTZ,
    last_seen_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_account ON sessions(account_id, expires_at DESC)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func isPostgresUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
