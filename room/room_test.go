package room

import (
	"errors"
	"testing"

	"clubpoker/holdem"
)

func newTestRoom(t *testing.T) *Room {
	t.Helper()
	r, err := New("r1", "test table", 10, 20)
	if err != nil {
		t.Fatalf("New err: %v", err)
	}
	return r
}

func seat(t *testing.T, r *Room, id int, name string, chips int64) {
	t.Helper()
	if err := r.Join(id, name, chips); err != nil {
		t.Fatalf("Join(%d) err: %v", id, err)
	}
	if err := r.TakeSeat(id); err != nil {
		t.Fatalf("TakeSeat(%d) err: %v", id, err)
	}
}

// foldOut folds every player until the hand finishes.
func foldOut(t *testing.T, r *Room) {
	t.Helper()
	for i := 0; i < 20; i++ {
		info, ok := r.GameInfo()
		if !ok {
			t.Fatalf("no game")
		}
		if info.State == holdem.StateFinished {
			return
		}
		actor := info.Players[info.CurrentPlayerIndex]
		if _, err := r.Action(actor.ID, holdem.ActionFold, 0); err != nil {
			t.Fatalf("fold err: %v", err)
		}
	}
	t.Fatalf("hand did not finish")
}

func TestJoinAndSeating(t *testing.T) {
	r := newTestRoom(t)
	if err := r.Join(1, "alice", 1000); err != nil {
		t.Fatal(err)
	}
	if err := r.Join(1, "alice", 1000); !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("duplicate join: %v", err)
	}
	if err := r.TakeSeat(1); err != nil {
		t.Fatal(err)
	}
	if err := r.TakeSeat(1); !errors.Is(err, ErrBadStatus) {
		t.Fatalf("double seat: %v", err)
	}
	if err := r.TakeSeat(99); !errors.Is(err, ErrNotMember) {
		t.Fatalf("seat a stranger: %v", err)
	}

	m, ok := r.Member(1)
	if !ok || m.Status != StatusSeated {
		t.Fatalf("member = %+v", m)
	}
}

func TestSeatsCapAtNine(t *testing.T) {
	r := newTestRoom(t)
	for i := 1; i <= 9; i++ {
		seat(t, r, i, "p", 1000)
	}
	if err := r.Join(10, "late", 1000); err != nil {
		t.Fatal(err)
	}
	if err := r.TakeSeat(10); !errors.Is(err, ErrSeatsFull) {
		t.Fatalf("tenth seat: %v", err)
	}
}

func TestLeaveRequiresStandingUp(t *testing.T) {
	r := newTestRoom(t)
	seat(t, r, 1, "alice", 500)

	if _, err := r.Leave(1); !errors.Is(err, ErrBadStatus) {
		t.Fatalf("leaving while seated: %v", err)
	}
	if err := r.LeaveSeat(1); err != nil {
		t.Fatal(err)
	}
	chips, err := r.Leave(1)
	if err != nil {
		t.Fatal(err)
	}
	if chips != 500 {
		t.Fatalf("cashed out %d, want 500", chips)
	}
	if _, ok := r.Member(1); ok {
		t.Fatalf("member still present after leaving")
	}
}

func TestStartGame_NeedsTwoFundedSeated(t *testing.T) {
	r := newTestRoom(t)
	seat(t, r, 1, "alice", 1000)
	if err := r.StartGame(); err == nil {
		t.Fatalf("one player must not start a game")
	}

	seat(t, r, 2, "bob", 0)
	if err := r.StartGame(); err == nil {
		t.Fatalf("an unfunded seat must not count")
	}

	seat(t, r, 3, "carol", 1000)
	if err := r.StartGame(); err != nil {
		t.Fatalf("StartGame err: %v", err)
	}
	if err := r.StartGame(); !errors.Is(err, ErrGameRunning) {
		t.Fatalf("double start: %v", err)
	}

	info, ok := r.GameInfo()
	if !ok || len(info.Players) != 2 {
		t.Fatalf("game info = %+v", info)
	}
}

func TestRebuy_StagedUntilNextHand(t *testing.T) {
	r := newTestRoom(t)
	seat(t, r, 1, "alice", 1000)
	seat(t, r, 2, "bob", 1000)
	if err := r.StartGame(); err != nil {
		t.Fatal(err)
	}

	if err := r.Rebuy(1, 500); err != nil {
		t.Fatal(err)
	}
	if err := r.Rebuy(1, -5); err == nil {
		t.Fatalf("negative rebuy must fail")
	}

	// Mid-hand the stack is untouched; the rebuy sits as pending.
	m, _ := r.Member(1)
	if m.PendingChips != 500 {
		t.Fatalf("pending = %d, want 500", m.PendingChips)
	}
	info, _ := r.GameInfo()
	for _, p := range info.Players {
		if p.ID == 1 && p.Chips+p.BetAmount > 1000 {
			t.Fatalf("rebuy leaked into the running hand")
		}
	}

	foldOut(t, r)
	if err := r.StartNextHand(); err != nil {
		t.Fatal(err)
	}
	m, _ = r.Member(1)
	if m.PendingChips != 0 {
		t.Fatalf("pending not applied: %d", m.PendingChips)
	}
	info, _ = r.GameInfo()
	var total int64
	for _, p := range info.Players {
		total += p.Chips + p.TotalBet
	}
	if total != 2500 {
		t.Fatalf("chips in play = %d, want 2500", total)
	}
}

func TestFinishedHand_ReconcilesStacksAndHistory(t *testing.T) {
	r := newTestRoom(t)
	seat(t, r, 1, "alice", 1000)
	seat(t, r, 2, "bob", 1000)
	seat(t, r, 3, "carol", 1000)
	if err := r.StartGame(); err != nil {
		t.Fatal(err)
	}

	foldOut(t, r)

	var sum int64
	for _, m := range r.Members() {
		sum += m.Chips
	}
	if sum != 3000 {
		t.Fatalf("membership chips = %d, want 3000", sum)
	}

	history := r.History()
	if len(history) != 1 {
		t.Fatalf("history entries = %d, want 1", len(history))
	}
	rec := history[0]
	if len(rec.Participants) != 3 || rec.Winner == "unknown" || rec.PotAmount != 30 {
		t.Fatalf("record = %+v", rec)
	}
	if rec.EndedAt.Before(rec.StartedAt) {
		t.Fatalf("record times inverted")
	}
}

func TestStartNextHand_ReusesSessionWhenRosterUnchanged(t *testing.T) {
	r := newTestRoom(t)
	seat(t, r, 1, "alice", 1000)
	seat(t, r, 2, "bob", 1000)
	seat(t, r, 3, "carol", 1000)
	if err := r.StartGame(); err != nil {
		t.Fatal(err)
	}
	first, _ := r.GameInfo()

	foldOut(t, r)
	if !r.CanStartNextHand() {
		t.Fatalf("CanStartNextHand = false")
	}
	if err := r.StartNextHand(); err != nil {
		t.Fatal(err)
	}

	second, _ := r.GameInfo()
	if second.GameID != first.GameID {
		t.Fatalf("unchanged roster must keep the session")
	}
	if second.ButtonPosition == first.ButtonPosition {
		t.Fatalf("button did not rotate")
	}
}

func TestStartNextHand_RebuildsAfterSeatingChange(t *testing.T) {
	r := newTestRoom(t)
	seat(t, r, 1, "alice", 1000)
	seat(t, r, 2, "bob", 1000)
	if err := r.StartGame(); err != nil {
		t.Fatal(err)
	}
	first, _ := r.GameInfo()

	foldOut(t, r)
	seat(t, r, 3, "carol", 1000)

	if err := r.StartNextHand(); err != nil {
		t.Fatal(err)
	}
	second, _ := r.GameInfo()
	if second.GameID == first.GameID {
		t.Fatalf("seating change must rebuild the game")
	}
	if len(second.Players) != 3 {
		t.Fatalf("players = %d, want 3", len(second.Players))
	}
}

func TestAction_WithoutGame(t *testing.T) {
	r := newTestRoom(t)
	seat(t, r, 1, "alice", 1000)
	if _, err := r.Action(1, holdem.ActionFold, 0); !errors.Is(err, ErrNoGame) {
		t.Fatalf("action without game: %v", err)
	}
}

func TestClose_RefusesFurtherUse(t *testing.T) {
	r := newTestRoom(t)
	seat(t, r, 1, "alice", 1000)
	seat(t, r, 2, "bob", 1000)
	if err := r.StartGame(); err != nil {
		t.Fatal(err)
	}

	r.Close()
	if !r.Empty() {
		t.Fatalf("room not emptied")
	}
	if err := r.Join(3, "late", 100); !errors.Is(err, ErrClosed) {
		t.Fatalf("join after close: %v", err)
	}
	if err := r.StartGame(); !errors.Is(err, ErrClosed) {
		t.Fatalf("start after close: %v", err)
	}
}
