package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"clubpoker/room"

	_ "github.com/lib/pq"
)

// PostgresStore archives hands in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("empty postgres DSN")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS hands (
    id BIGSERIAL PRIMARY KEY,
    room_id TEXT NOT NULL,
    game_id TEXT NOT NULL,
    started_at_ms BIGINT NOT NULL,
    ended_at_ms BIGINT NOT NULL,
    participants JSONB NOT NULL,
    final_chips JSONB NOT NULL,
    winner TEXT NOT NULL,
    pot_amount BIGINT NOT NULL
)`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `
CREATE INDEX IF NOT EXISTS idx_hands_room ON hands(room_id, ended_at_ms DESC)`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresStore) RecordHand(ctx context.Context, roomID string, rec room.HandRecord) error {
	participants, err := json.Marshal(rec.Participants)
	if err != nil {
		return err
	}
	finalChips, err := json.Marshal(rec.FinalChips)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO hands (room_id, game_id, started_at_ms, ended_at_ms, participants, final_chips, winner, pot_amount)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, roomID, rec.GameID, rec.StartedAt.UnixMilli(), rec.EndedAt.UnixMilli(),
		string(participants), string(finalChips), rec.Winner, rec.PotAmount)
	return err
}

func (s *PostgresStore) ListRecent(ctx context.Context, roomID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT room_id, game_id, started_at_ms, ended_at_ms, participants, final_chips, winner, pot_amount
FROM hands
WHERE room_id = $1
ORDER BY ended_at_ms DESC, id DESC
LIMIT $2
`, roomID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}
