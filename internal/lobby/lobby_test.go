package lobby

import (
	"errors"
	"testing"
	"time"

	"clubpoker/internal/config"
	"clubpoker/internal/history"
	"clubpoker/internal/table"
)

func newTestLobby(t *testing.T) *Lobby {
	t.Helper()
	cfg := config.Config{
		SmallBlind:    10,
		BigBlind:      20,
		DefaultBuyIn:  1000,
		ActionTimeout: time.Hour,
		NextHandDelay: time.Hour,
	}
	l := New(cfg, history.NopService{}, func(int, []byte) {})
	t.Cleanup(l.Shutdown)
	return l
}

func TestCreateAndGetRoom(t *testing.T) {
	l := newTestLobby(t)

	h, err := l.CreateRoom("friday game")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	got, err := l.GetRoom(h.RoomID())
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if got != h {
		t.Fatalf("GetRoom returned a different host")
	}
	if _, err := l.GetRoom("room-999"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestQuickStartReusesOpenRoom(t *testing.T) {
	l := newTestLobby(t)

	first, err := l.QuickStart(1)
	if err != nil {
		t.Fatalf("quick start: %v", err)
	}
	if err := first.Submit(table.Event{Type: table.EventJoin, PlayerID: 1, Name: "alice"}); err != nil {
		t.Fatalf("join: %v", err)
	}

	second, err := l.QuickStart(2)
	if err != nil {
		t.Fatalf("quick start: %v", err)
	}
	if second.RoomID() != first.RoomID() {
		t.Fatalf("player 2 should land in the open room %s, got %s", first.RoomID(), second.RoomID())
	}
}

func TestListRoomsOmitsGameDetail(t *testing.T) {
	l := newTestLobby(t)
	if _, err := l.CreateRoom("a"); err != nil {
		t.Fatalf("create room: %v", err)
	}
	if _, err := l.CreateRoom("b"); err != nil {
		t.Fatalf("create room: %v", err)
	}

	infos := l.ListRooms()
	if len(infos) != 2 {
		t.Fatalf("listed %d rooms, want 2", len(infos))
	}
	for _, info := range infos {
		if info.Game != nil {
			t.Fatalf("room listing should not carry game detail")
		}
	}
}

func TestCloseEmptyRooms(t *testing.T) {
	l := newTestLobby(t)

	empty, err := l.CreateRoom("empty")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	occupied, err := l.CreateRoom("occupied")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if err := occupied.Submit(table.Event{Type: table.EventJoin, PlayerID: 1, Name: "alice"}); err != nil {
		t.Fatalf("join: %v", err)
	}

	if closed := l.CloseEmptyRooms(); closed != 1 {
		t.Fatalf("closed %d rooms, want 1", closed)
	}
	if _, err := l.GetRoom(empty.RoomID()); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("empty room should be gone, got %v", err)
	}
	if _, err := l.GetRoom(occupied.RoomID()); err != nil {
		t.Fatalf("occupied room should survive: %v", err)
	}
}
