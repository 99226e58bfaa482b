package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"clubpoker/room"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open history store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func record(gameID string, endedAt time.Time) room.HandRecord {
	return room.HandRecord{
		GameID:       gameID,
		StartedAt:    endedAt.Add(-time.Minute),
		EndedAt:      endedAt,
		Participants: []int{1, 2, 3},
		FinalChips:   map[int]int64{1: 950, 2: 1080, 3: 970},
		Winner:       "alice",
		PotAmount:    90,
	}
}

func TestRecordAndListRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 3; i++ {
		rec := record("room-1-game-"+string(rune('1'+i)), base.Add(time.Duration(i)*time.Minute))
		if err := s.RecordHand(ctx, "room-1", rec); err != nil {
			t.Fatalf("record hand %d: %v", i, err)
		}
	}
	if err := s.RecordHand(ctx, "room-2", record("room-2-game-1", base)); err != nil {
		t.Fatalf("record hand for other room: %v", err)
	}

	records, err := s.ListRecent(ctx, "room-1", 2)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].GameID != "room-1-game-3" || records[1].GameID != "room-1-game-2" {
		t.Fatalf("expected newest first, got %s then %s", records[0].GameID, records[1].GameID)
	}

	got := records[0]
	if got.RoomID != "room-1" || got.Winner != "alice" || got.PotAmount != 90 {
		t.Fatalf("unexpected record %+v", got)
	}
	if len(got.Participants) != 3 || got.Participants[1] != 2 {
		t.Fatalf("participants did not round-trip: %v", got.Participants)
	}
	if got.FinalChips[2] != 1080 {
		t.Fatalf("final chips did not round-trip: %v", got.FinalChips)
	}
}

func TestListRecentEmptyRoom(t *testing.T) {
	s := newTestStore(t)
	records, err := s.ListRecent(context.Background(), "no-such-room", 10)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestNopServiceDiscards(t *testing.T) {
	var s Service = NopService{}
	if err := s.RecordHand(context.Background(), "room-1", record("g", time.Now())); err != nil {
		t.Fatalf("nop record: %v", err)
	}
	records, err := s.ListRecent(context.Background(), "room-1", 10)
	if err != nil || records != nil {
		t.Fatalf("nop list = (%v, %v), want (nil, nil)", records, err)
	}
}
