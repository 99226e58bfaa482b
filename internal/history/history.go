// Package history archives finished hands so rooms can show past results
// after a restart. Backends: none (discard), SQLite, Postgres.
package history

import (
	"context"
	"fmt"

	"clubpoker/internal/config"
	"clubpoker/room"
)

// Record is one archived hand as read back from a store.
type Record struct {
	RoomID       string        `json:"room_id"`
	GameID       string        `json:"game_id"`
	StartedAt    int64         `json:"started_at_ms"`
	EndedAt      int64         `json:"ended_at_ms"`
	Participants []int         `json:"participants"`
	FinalChips   map[int]int64 `json:"final_chips"`
	Winner       string        `json:"winner"`
	PotAmount    int64         `json:"pot_amount"`
}

// Service archives finished hands. Implementations must be safe for
// concurrent use; tables call RecordHand from their event loops.
type Service interface {
	RecordHand(ctx context.Context, roomID string, rec room.HandRecord) error
	ListRecent(ctx context.Context, roomID string, limit int) ([]Record, error)
	Close() error
}

// NewService builds the history backend selected by the configuration.
func NewService(cfg config.Config) (Service, error) {
	switch cfg.HistoryMode {
	case "none":
		return NopService{}, nil
	case "sqlite":
		svc, err := NewSQLiteStore(cfg.HistoryDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite history store: %w", err)
		}
		return svc, nil
	case "postgres":
		svc, err := NewPostgresStore(cfg.HistoryDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres history store: %w", err)
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("unknown history mode %q", cfg.HistoryMode)
	}
}

// NopService discards every record. Used when persistence is disabled.
type NopService struct{}

func (NopService) RecordHand(context.Context, string, room.HandRecord) error { return nil }

func (NopService) ListRecent(context.Context, string, int) ([]Record, error) { return nil, nil }

func (NopService) Close() error { return nil }
