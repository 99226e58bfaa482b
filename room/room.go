// Package room wraps a sequence of hold'em hands for one persistent seating:
// membership, chip custody, rebuy staging and per-hand history.
package room

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"clubpoker/holdem"
)

const maxSeats = 9

var (
	ErrClosed        = errors.New("room is closed")
	ErrNotMember     = errors.New("player is not in the room")
	ErrAlreadyMember = errors.New("player is already in the room")
	ErrSeatsFull     = errors.New("all seats are taken")
	ErrBadStatus     = errors.New("operation not allowed in current status")
	ErrGameRunning   = errors.New("a game is in progress")
	ErrNoGame        = errors.New("no game in progress")
)

// Status is a member's position in the room lifecycle. Leaving the room
// removes the member entirely, so there is no explicit left state.
type Status int

const (
	StatusInRoom Status = iota
	StatusSeated
)

func (s Status) String() string {
	if s == StatusSeated {
		return "SEATED"
	}
	return "IN_ROOM"
}

// MarshalJSON writes the status by name.
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Member is one person's standing in the room. Chips are the room's
// authoritative custody of their stack between hands.
type Member struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Chips        int64     `json:"chips"`
	PendingChips int64     `json:"pending_chips"`
	Status       Status    `json:"status"`
	JoinedAt     time.Time `json:"joined_at"`
	SeatedAt     time.Time `json:"seated_at"`
}

// HandRecord is one finished hand's immutable history entry.
type HandRecord struct {
	GameID       string        `json:"game_id"`
	StartedAt    time.Time     `json:"started_at"`
	EndedAt      time.Time     `json:"ended_at"`
	Participants []int         `json:"participants"`
	FinalChips   map[int]int64 `json:"final_chips"`
	Winner       string        `json:"winner"`
	PotAmount    int64         `json:"pot_amount"`
}

// Info is a read-only projection of the room for serialization.
type Info struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	SmallBlind     int64            `json:"small_blind"`
	BigBlind       int64            `json:"big_blind"`
	CreatedAt      time.Time        `json:"created_at"`
	GameInProgress bool             `json:"game_in_progress"`
	Members        []Member         `json:"members"`
	HandCount      int              `json:"hand_count"`
	Game           *holdem.GameInfo `json:"game,omitempty"`
}

// Room owns one table's membership and its game engine. All methods are safe
// for concurrent use; the engine inside is only ever driven through the room.
type Room struct {
	mu sync.Mutex

	id         string
	name       string
	smallBlind int64
	bigBlind   int64
	createdAt  time.Time
	closed     bool

	members map[int]*Member
	history []HandRecord

	game       *holdem.GameEngine
	roster     []int // member ids seated into the current engine
	inProgress bool
	startedAt  time.Time
	handSeq    int

	logger *log.Logger
}

// New creates an empty room at the given stakes.
func New(id, name string, smallBlind, bigBlind int64) (*Room, error) {
	if smallBlind <= 0 || bigBlind <= smallBlind {
		return nil, fmt.Errorf("invalid blinds %d/%d", smallBlind, bigBlind)
	}
	return &Room{
		id:         id,
		name:       name,
		smallBlind: smallBlind,
		bigBlind:   bigBlind,
		createdAt:  time.Now(),
		members:    make(map[int]*Member),
		logger:     log.New(os.Stderr, fmt.Sprintf("[Room %s] ", id), log.LstdFlags),
	}, nil
}

// ID returns the room identifier.
func (r *Room) ID() string { return r.id }

// Join adds a player to the room lobby with their buy-in.
func (r *Room) Join(playerID int, name string, chips int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if _, ok := r.members[playerID]; ok {
		return ErrAlreadyMember
	}
	if chips < 0 {
		return fmt.Errorf("negative buy-in %d", chips)
	}
	r.members[playerID] = &Member{
		ID:       playerID,
		Name:     name,
		Chips:    chips,
		JoinedAt: time.Now(),
	}
	r.logger.Printf("%s joined with %d chips", name, chips)
	return nil
}

// TakeSeat moves a lobby member to a seat. Seating takes effect when the next
// game starts.
func (r *Room) TakeSeat(playerID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[playerID]
	if !ok {
		return ErrNotMember
	}
	if m.Status != StatusInRoom {
		return fmt.Errorf("%w: %s is already seated", ErrBadStatus, m.Name)
	}
	if r.seatedCountLocked() >= maxSeats {
		return ErrSeatsFull
	}
	m.Status = StatusSeated
	m.SeatedAt = time.Now()
	r.logger.Printf("%s took a seat", m.Name)
	return nil
}

// LeaveSeat returns a seated member to the lobby. A member in the current
// game keeps playing the running hand; the seat change applies afterwards.
func (r *Room) LeaveSeat(playerID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[playerID]
	if !ok {
		return ErrNotMember
	}
	if m.Status != StatusSeated {
		return fmt.Errorf("%w: %s is not seated", ErrBadStatus, m.Name)
	}
	m.Status = StatusInRoom
	r.logger.Printf("%s left their seat", m.Name)
	return nil
}

// Leave removes a lobby member from the room and returns their cashed-out
// stack. Seated members must leave their seat first.
func (r *Room) Leave(playerID int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[playerID]
	if !ok {
		return 0, ErrNotMember
	}
	if m.Status != StatusInRoom {
		return 0, fmt.Errorf("%w: leave the seat before leaving the room", ErrBadStatus)
	}
	delete(r.members, playerID)
	r.logger.Printf("%s left the room with %d chips", m.Name, m.Chips)
	return m.Chips, nil
}

// Rebuy stages additional chips. Pending chips never enter a running hand;
// they are applied atomically when the next game starts.
func (r *Room) Rebuy(playerID int, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[playerID]
	if !ok {
		return ErrNotMember
	}
	if amount <= 0 {
		return fmt.Errorf("rebuy amount must be positive, got %d", amount)
	}
	m.PendingChips += amount
	r.logger.Printf("%s staged a rebuy of %d (pending %d)", m.Name, amount, m.PendingChips)
	return nil
}

// StartGame builds a fresh game from the seated, funded members and deals the
// first hand. Pending rebuys are applied first.
func (r *Room) StartGame() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if r.inProgress {
		return ErrGameRunning
	}
	return r.startGameLocked()
}

func (r *Room) startGameLocked() error {
	r.applyPendingLocked()

	var players []*holdem.Player
	var roster []int
	for _, m := range r.sortedMembersLocked() {
		if m.Status == StatusSeated && m.Chips > 0 {
			players = append(players, holdem.NewPlayer(m.ID, m.Name, m.Chips))
			roster = append(roster, m.ID)
		}
	}
	if len(players) < 2 {
		return fmt.Errorf("need at least 2 seated funded players, got %d", len(players))
	}

	r.handSeq++
	gameID := fmt.Sprintf("%s-game-%d", r.id, r.handSeq)
	game, err := holdem.NewGameEngine(gameID, players, r.smallBlind, r.bigBlind)
	if err != nil {
		return err
	}
	if err := game.StartNewHand(); err != nil {
		return err
	}

	r.game = game
	r.roster = roster
	r.inProgress = true
	r.startedAt = time.Now()
	r.logger.Printf("game %s started with %d players", gameID, len(players))
	return nil
}

func (r *Room) applyPendingLocked() {
	for _, m := range r.members {
		if m.PendingChips > 0 {
			m.Chips += m.PendingChips
			r.logger.Printf("%s rebuy applied: +%d, stack %d", m.Name, m.PendingChips, m.Chips)
			m.PendingChips = 0
		}
	}
}

// Action submits a betting action to the running game. When the action ends
// the hand, stacks are reconciled back into membership and history recorded
// before returning.
func (r *Room) Action(playerID int, action holdem.PlayerAction, amount int64) (holdem.ActionResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.inProgress || r.game == nil {
		return holdem.ActionResult{}, ErrNoGame
	}

	res, err := r.game.ProcessPlayerAction(playerID, action, amount)
	if err != nil {
		return res, err
	}
	if res.Success && r.game.State() == holdem.StateFinished {
		r.finishHandLocked()
	}
	return res, nil
}

// finishHandLocked reconciles authoritative stacks from the finished game
// back into membership and appends the history entry.
func (r *Room) finishHandLocked() {
	info := r.game.GameInfo()

	participants := make([]int, 0, len(info.Players))
	finalChips := make(map[int]int64, len(info.Players))
	for _, p := range info.Players {
		chips := p.Chips
		if info.State != holdem.StateFinished {
			// Hand aborted mid-play: committed bets go back to their owners.
			chips += p.TotalBet
		}
		if m, ok := r.members[p.ID]; ok {
			m.Chips = chips
		}
		participants = append(participants, p.ID)
		finalChips[p.ID] = chips
	}

	winner := "unknown"
	var potAmount int64
	if info.Settlement != nil {
		potAmount = info.Settlement.TotalDistributed
		bestID, best := -1, int64(-1)
		for id, won := range info.Settlement.PlayerWinnings {
			if won > best || (won == best && (bestID < 0 || id < bestID)) {
				bestID, best = id, won
			}
		}
		if m, ok := r.members[bestID]; ok {
			winner = m.Name
		}
	}

	r.history = append(r.history, HandRecord{
		GameID:       info.GameID,
		StartedAt:    r.startedAt,
		EndedAt:      time.Now(),
		Participants: participants,
		FinalChips:   finalChips,
		Winner:       winner,
		PotAmount:    potAmount,
	})
	r.inProgress = false
	r.logger.Printf("hand %s finished, winner %s, pot %d", info.GameID, winner, potAmount)
}

// CanStartNextHand reports whether a finished game can continue with another
// hand.
func (r *Room) CanStartNextHand() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.inProgress || r.game == nil {
		return false
	}
	if r.rosterChangedLocked() {
		// A rebuilt game needs 2 seated funded members, counting rebuys.
		count := 0
		for _, m := range r.members {
			if m.Status == StatusSeated && m.Chips+m.PendingChips > 0 {
				count++
			}
		}
		return count >= 2
	}
	return r.game.CanStartNextHand()
}

// StartNextHand deals the next hand. When the seating or stacks changed
// (rebuys, new seats, members gone) the game is rebuilt; otherwise the button
// simply rotates on the running session.
func (r *Room) StartNextHand() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if r.inProgress {
		return ErrGameRunning
	}
	if r.game == nil {
		return ErrNoGame
	}

	if r.rosterChangedLocked() {
		return r.startGameLocked()
	}
	if err := r.game.StartNextHand(); err != nil {
		return err
	}
	r.inProgress = true
	r.startedAt = time.Now()
	return nil
}

// rosterChangedLocked reports whether the current engine roster no longer
// matches the seated funded members, or pending rebuys need applying.
func (r *Room) rosterChangedLocked() bool {
	var seated []int
	for _, m := range r.members {
		if m.PendingChips > 0 {
			return true
		}
		if m.Status == StatusSeated && m.Chips > 0 {
			seated = append(seated, m.ID)
		}
	}
	sort.Ints(seated)
	if len(seated) != len(r.roster) {
		return true
	}
	for i, id := range r.roster {
		if seated[i] != id {
			return true
		}
	}
	return false
}

// GameInfo returns the running or last finished game's snapshot.
func (r *Room) GameInfo() (holdem.GameInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.game == nil {
		return holdem.GameInfo{}, false
	}
	return r.game.GameInfo(), true
}

// Ranking returns the showdown ranking of the last finished hand, if any.
func (r *Room) Ranking() *holdem.GameRanking {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.game == nil {
		return nil
	}
	return r.game.Ranking()
}

// Member returns a copy of one member's record.
func (r *Room) Member(playerID int) (Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[playerID]
	if !ok {
		return Member{}, false
	}
	return *m, true
}

// Members returns a copy of every member, ordered by ID.
func (r *Room) Members() []Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Member, 0, len(r.members))
	for _, m := range r.sortedMembersLocked() {
		out = append(out, *m)
	}
	return out
}

// History returns a copy of the room's hand history.
func (r *Room) History() []HandRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]HandRecord(nil), r.history...)
}

// Info returns the room projection used by lobby listings and broadcasts.
func (r *Room) Info() Info {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := Info{
		ID:             r.id,
		Name:           r.name,
		SmallBlind:     r.smallBlind,
		BigBlind:       r.bigBlind,
		CreatedAt:      r.createdAt,
		GameInProgress: r.inProgress,
		HandCount:      len(r.history),
	}
	for _, m := range r.sortedMembersLocked() {
		info.Members = append(info.Members, *m)
	}
	if r.game != nil {
		g := r.game.GameInfo()
		info.Game = &g
	}
	return info
}

// Empty reports whether nobody is left in the room.
func (r *Room) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members) == 0
}

// Close finishes any running hand, reconciles stacks and empties the room.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if r.inProgress && r.game != nil {
		// The hand cannot continue without the room; record what stands.
		r.finishHandLocked()
	}
	r.members = make(map[int]*Member)
	r.game = nil
	r.roster = nil
	r.closed = true
	r.logger.Printf("room closed")
}

func (r *Room) seatedCountLocked() int {
	n := 0
	for _, m := range r.members {
		if m.Status == StatusSeated {
			n++
		}
	}
	return n
}

func (r *Room) sortedMembersLocked() []*Member {
	out := make([]*Member, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
