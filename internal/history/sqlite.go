package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"clubpoker/room"

	_ "modernc.org/sqlite"
)

// SQLiteStore archives hands in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		if parent := filepath.Dir(dbPath); parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS hands (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    room_id TEXT NOT NULL,
    game_id TEXT NOT NULL,
    started_at_ms INTEGER NOT NULL,
    ended_at_ms INTEGER NOT NULL,
    participants TEXT NOT NULL,
    final_chips TEXT NOT NULL,
    winner TEXT NOT NULL,
    pot_amount INTEGER NOT NULL
)`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `
CREATE INDEX IF NOT EXISTS idx_hands_room ON hands(room_id, ended_at_ms DESC)`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) RecordHand(ctx context.Context, roomID string, rec room.HandRecord) error {
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
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, roomID, rec.GameID, rec.StartedAt.UnixMilli(), rec.EndedAt.UnixMilli(),
		string(participants), string(finalChips), rec.Winner, rec.PotAmount)
	return err
}

func (s *SQLiteStore) ListRecent(ctx context.Context, roomID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT room_id, game_id, started_at_ms, ended_at_ms, participants, final_chips, winner, pot_amount
FROM hands
WHERE room_id = ?
ORDER BY ended_at_ms DESC, id DESC
LIMIT ?
`, roomID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var rec Record
		var participants, finalChips string
		if err := rows.Scan(&rec.RoomID, &rec.GameID, &rec.StartedAt, &rec.EndedAt,
			&participants, &finalChips, &rec.Winner, &rec.PotAmount); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(participants), &rec.Participants); err != nil {
			return nil, fmt.Errorf("corrupt participants column for game %s: %w", rec.GameID, err)
		}
		if err := json.Unmarshal([]byte(finalChips), &rec.FinalChips); err != nil {
			return nil, fmt.Errorf("corrupt final_chips column for game %s: %w", rec.GameID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
