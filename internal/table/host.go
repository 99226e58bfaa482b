// Package table drives one room with an actor loop: every mutation arrives
// as an event on a channel, a ticker enforces action timeouts and schedules
// the next hand, and state pushes go out through a broadcast callback.
package table

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"clubpoker/holdem"
	"clubpoker/internal/history"
	"clubpoker/room"
)

// EventType enumerates the actor message kinds.
type EventType int

const (
	EventJoin EventType = iota
	EventTakeSeat
	EventLeaveSeat
	EventLeaveRoom
	EventRebuy
	EventStartHand
	EventAction
	EventConnLost
	EventConnResume
	EventClose
)

// Event is one message to the host actor. Response, when non-nil, receives
// the handler's error exactly once.
type Event struct {
	Type      EventType
	PlayerID  int
	Name      string
	Amount    int64
	Action    holdem.PlayerAction
	Timestamp time.Time
	Response  chan error
}

var ErrHostClosed = errors.New("table host closed")

const (
	eventQueueSize = 256
	tickInterval   = 500 * time.Millisecond
	offlineSeatTTL = 30 * time.Second
)

// Config carries the knobs a host needs beyond what the room owns.
type Config struct {
	DefaultBuyIn  int64
	ActionTimeout time.Duration
	NextHandDelay time.Duration
}

type presence struct {
	name     string
	online   bool
	lastSeen time.Time
}

// Host runs one room. All room access goes through the actor goroutine, so
// handlers never race each other; the room's own lock only guards read-side
// callers like the lobby listing.
type Host struct {
	roomID string
	cfg    Config

	room      *room.Room
	history   history.Service
	broadcast func(playerID int, data []byte)
	logger    *log.Logger

	events   chan Event
	done     chan struct{}
	stopOnce sync.Once

	// Actor-goroutine state, never touched outside run().
	closed         bool
	players        map[int]*presence
	actionPlayerID int
	actionDeadline time.Time
	nextHandAt     time.Time
	handsPersisted int
}

// NewHost creates the host and starts its actor goroutine.
func NewHost(r *room.Room, cfg Config, historyService history.Service, broadcastFn func(playerID int, data []byte)) *Host {
	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = 30 * time.Second
	}
	if cfg.NextHandDelay <= 0 {
		cfg.NextHandDelay = 5 * time.Second
	}
	h := &Host{
		roomID:         r.ID(),
		cfg:            cfg,
		room:           r,
		history:        historyService,
		broadcast:      broadcastFn,
		logger:         log.New(os.Stderr, fmt.Sprintf("[Table %s] ", r.ID()), log.LstdFlags),
		events:         make(chan Event, eventQueueSize),
		done:           make(chan struct{}),
		players:        make(map[int]*presence),
		actionPlayerID: -1,
	}
	go h.run()
	return h
}

func (h *Host) RoomID() string { return h.roomID }

// Room exposes the underlying room for read-only callers.
func (h *Host) Room() *room.Room { return h.room }

// Submit queues an event and waits for the handler's verdict.
func (h *Host) Submit(e Event) error {
	if e.Response == nil {
		e.Response = make(chan error, 1)
	}
	select {
	case h.events <- e:
	case <-h.done:
		return ErrHostClosed
	}
	select {
	case err := <-e.Response:
		return err
	case <-h.done:
		return ErrHostClosed
	}
}

// Stop shuts the actor down, settling any running hand first.
func (h *Host) Stop() {
	_ = h.Submit(Event{Type: EventClose})
}

func (h *Host) run() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case e := <-h.events:
			err := h.handleEvent(e)
			if e.Response != nil {
				e.Response <- err
			}
		case <-ticker.C:
			h.tick()
		case <-h.done:
			h.logger.Printf("actor stopped")
			return
		}
	}
}

func (h *Host) handleEvent(e Event) error {
	if h.closed && e.Type != EventClose {
		return ErrHostClosed
	}

	switch e.Type {
	case EventJoin:
		return h.handleJoin(e.PlayerID, e.Name, e.Amount)
	case EventTakeSeat:
		return h.handleTakeSeat(e.PlayerID)
	case EventLeaveSeat:
		return h.handleLeaveSeat(e.PlayerID)
	case EventLeaveRoom:
		return h.handleLeaveRoom(e.PlayerID)
	case EventRebuy:
		return h.handleRebuy(e.PlayerID, e.Amount)
	case EventStartHand:
		return h.handleStartHand()
	case EventAction:
		return h.handleAction(e.PlayerID, e.Action, e.Amount)
	case EventConnLost:
		h.handleConnLost(e.PlayerID, e.Timestamp)
		return nil
	case EventConnResume:
		h.handleConnResume(e.PlayerID, e.Timestamp)
		return nil
	case EventClose:
		h.handleClose()
		return nil
	default:
		return fmt.Errorf("unknown event type %d", e.Type)
	}
}

func (h *Host) handleJoin(playerID int, name string, buyIn int64) error {
	now := time.Now()
	if p, ok := h.players[playerID]; ok {
		// Reconnect of an existing member.
		p.online = true
		p.lastSeen = now
		h.sendRoomState(playerID)
		h.sendPromptIfActing(playerID)
		return nil
	}
	if buyIn <= 0 {
		buyIn = h.cfg.DefaultBuyIn
	}
	if err := h.room.Join(playerID, name, buyIn); err != nil {
		return err
	}
	h.players[playerID] = &presence{name: name, online: true, lastSeen: now}
	h.broadcastRoomState()
	return nil
}

func (h *Host) handleTakeSeat(playerID int) error {
	if err := h.room.TakeSeat(playerID); err != nil {
		return err
	}
	h.touch(playerID)
	h.broadcastRoomState()
	return nil
}

func (h *Host) handleLeaveSeat(playerID int) error {
	if err := h.room.LeaveSeat(playerID); err != nil {
		return err
	}
	h.touch(playerID)
	h.broadcastRoomState()
	return nil
}

func (h *Host) handleLeaveRoom(playerID int) error {
	if _, err := h.room.Leave(playerID); err != nil {
		return err
	}
	delete(h.players, playerID)
	h.broadcastRoomState()
	return nil
}

func (h *Host) handleRebuy(playerID int, amount int64) error {
	if err := h.room.Rebuy(playerID, amount); err != nil {
		return err
	}
	h.touch(playerID)
	h.broadcastRoomState()
	return nil
}

func (h *Host) handleStartHand() error {
	if info, ok := h.room.GameInfo(); ok && info.State == holdem.StateFinished {
		if err := h.room.StartNextHand(); err != nil {
			return err
		}
	} else {
		if err := h.room.StartGame(); err != nil {
			return err
		}
	}
	h.nextHandAt = time.Time{}
	h.afterHandStart()
	return nil
}

func (h *Host) afterHandStart() {
	info, ok := h.room.GameInfo()
	if !ok {
		return
	}
	h.logger.Printf("hand %s started, button=%d", info.GameID, info.ButtonPosition)
	h.broadcastMessage(MsgHandStart, nil)
	h.broadcastRoomState()
	h.promptCurrentPlayer(info)
}

func (h *Host) handleAction(playerID int, action holdem.PlayerAction, amount int64) error {
	h.touch(playerID)

	result, err := h.room.Action(playerID, action, amount)
	if err != nil {
		if errors.Is(err, room.ErrNoGame) {
			return err
		}
		h.logger.Printf("engine fault on %s by player %d: %v", action, playerID, err)
		return err
	}
	if !result.Success {
		h.send(playerID, MsgActionResult, ActionResultPayload{
			PlayerID: playerID,
			Action:   action.String(),
			Amount:   amount,
			Success:  false,
			Reason:   result.Reason,
		})
		return nil
	}
	if h.actionPlayerID == playerID {
		h.clearActionTimeout()
	}

	info, _ := h.room.GameInfo()
	h.broadcastMessage(MsgActionResult, ActionResultPayload{
		PlayerID: playerID,
		Action:   action.String(),
		Amount:   amount,
		Success:  true,
		TotalPot: info.TotalPot,
		State:    info.State.String(),
	})
	h.broadcastRoomState()

	if info.State == holdem.StateFinished {
		h.finishHand()
	} else {
		h.promptCurrentPlayer(info)
	}
	return nil
}

func (h *Host) finishHand() {
	h.clearActionTimeout()

	payload := HandEndPayload{Ranking: h.room.Ranking()}
	records := h.room.History()
	if len(records) > 0 {
		payload.Record = records[len(records)-1]
	}
	h.broadcastMessage(MsgHandEnd, payload)
	h.persistNewHands(records)

	if h.room.CanStartNextHand() {
		h.nextHandAt = time.Now().Add(h.cfg.NextHandDelay)
	} else {
		h.nextHandAt = time.Time{}
	}
}

// persistNewHands archives records the store has not seen yet. The counter
// survives rebuilds of the game engine because room history only appends.
func (h *Host) persistNewHands(records []room.HandRecord) {
	if h.history == nil {
		return
	}
	for ; h.handsPersisted < len(records); h.handsPersisted++ {
		rec := records[h.handsPersisted]
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := h.history.RecordHand(ctx, h.roomID, rec)
		cancel()
		if err != nil {
			h.logger.Printf("failed to archive hand %s: %v", rec.GameID, err)
		}
	}
}

func (h *Host) handleConnLost(playerID int, at time.Time) {
	if p, ok := h.players[playerID]; ok {
		p.online = false
		p.lastSeen = at
		h.logger.Printf("player %d connection lost", playerID)
	}
}

func (h *Host) handleConnResume(playerID int, at time.Time) {
	p, ok := h.players[playerID]
	if !ok {
		return
	}
	p.online = true
	p.lastSeen = at
	h.logger.Printf("player %d reconnected", playerID)
	h.sendRoomState(playerID)
	h.sendPromptIfActing(playerID)
}

func (h *Host) handleClose() {
	if h.closed {
		return
	}
	h.closed = true
	h.room.Close()
	h.persistNewHands(h.room.History())
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Host) tick() {
	if h.closed {
		return
	}
	now := time.Now()
	h.enforceActionTimeout(now)
	h.releaseOfflineSeats(now)
	if !h.nextHandAt.IsZero() && !now.Before(h.nextHandAt) {
		h.nextHandAt = time.Time{}
		if h.room.CanStartNextHand() {
			if err := h.room.StartNextHand(); err != nil {
				h.logger.Printf("scheduled next hand failed: %v", err)
				return
			}
			h.afterHandStart()
		}
	}
}

func (h *Host) enforceActionTimeout(now time.Time) {
	if h.actionPlayerID < 0 || h.actionDeadline.IsZero() || now.Before(h.actionDeadline) {
		return
	}
	playerID := h.actionPlayerID
	h.clearActionTimeout()

	info, ok := h.room.GameInfo()
	if !ok || info.State == holdem.StateFinished {
		return
	}
	p := currentPlayer(info)
	if p == nil || p.ID != playerID {
		return
	}

	// Check when free, otherwise fold.
	action := holdem.ActionFold
	amount := int64(0)
	if p.BetAmount >= info.CurrentBet {
		action = holdem.ActionCheck
		amount = info.CurrentBet
	}
	h.logger.Printf("player %d timed out, auto %s", playerID, action)
	if err := h.handleAction(playerID, action, amount); err != nil {
		h.logger.Printf("auto action for player %d failed: %v", playerID, err)
	}
}

func (h *Host) releaseOfflineSeats(now time.Time) {
	for playerID, p := range h.players {
		if p.online || now.Sub(p.lastSeen) < offlineSeatTTL {
			continue
		}
		m, ok := h.room.Member(playerID)
		if !ok || m.Status != room.StatusSeated {
			continue
		}
		if err := h.room.LeaveSeat(playerID); err != nil {
			p.lastSeen = now
			h.logger.Printf("auto seat release for offline player %d failed: %v", playerID, err)
			continue
		}
		h.logger.Printf("released seat of offline player %d", playerID)
		h.broadcastRoomState()
	}
}

func (h *Host) promptCurrentPlayer(info holdem.GameInfo) {
	p := currentPlayer(info)
	if p == nil {
		h.clearActionTimeout()
		return
	}
	h.actionPlayerID = p.ID
	h.actionDeadline = time.Now().Add(h.cfg.ActionTimeout)

	roomInfo := h.room.Info()
	var betting holdem.BettingEngine
	available := betting.AvailableActions(p, info.CurrentBet, roomInfo.BigBlind)
	names := make([]string, len(available))
	for i, a := range available {
		names[i] = a.String()
	}
	toCall := info.CurrentBet - p.BetAmount
	if toCall < 0 {
		toCall = 0
	}
	h.send(p.ID, MsgActionPrompt, ActionPromptPayload{
		PlayerID:   p.ID,
		DeadlineMs: h.actionDeadline.UnixMilli(),
		Actions:    names,
		ToCall:     toCall,
		MinRaise:   betting.MinRaise(info.CurrentBet, roomInfo.BigBlind),
		MaxRaise:   p.Chips + p.BetAmount,
	})
}

func (h *Host) sendPromptIfActing(playerID int) {
	if h.actionPlayerID != playerID {
		return
	}
	info, ok := h.room.GameInfo()
	if !ok || info.State == holdem.StateFinished {
		return
	}
	if p := currentPlayer(info); p != nil && p.ID == playerID {
		h.promptCurrentPlayer(info)
	}
}

func (h *Host) clearActionTimeout() {
	h.actionPlayerID = -1
	h.actionDeadline = time.Time{}
}

func (h *Host) touch(playerID int) {
	if p, ok := h.players[playerID]; ok {
		p.online = true
		p.lastSeen = time.Now()
	}
}

// sendRoomState pushes a per-recipient snapshot with opponents' hole cards
// stripped while a hand is live. After the hand only showdown hands stay
// visible; mucked cards are never broadcast.
func (h *Host) sendRoomState(playerID int) {
	info := h.room.Info()
	redactHoleCards(info.Game, playerID, h.showdownPlayers(info.Game))
	h.send(playerID, MsgRoomState, info)
}

// showdownPlayers returns the IDs whose hands went to showdown, or nil while
// the hand is live or when it ended uncontested.
func (h *Host) showdownPlayers(game *holdem.GameInfo) map[int]bool {
	if game == nil || game.State != holdem.StateFinished {
		return nil
	}
	ranking := h.room.Ranking()
	if ranking == nil {
		return nil
	}
	shown := make(map[int]bool, len(ranking.Standings))
	for _, s := range ranking.Standings {
		shown[s.PlayerID] = true
	}
	return shown
}

func (h *Host) broadcastRoomState() {
	for playerID := range h.players {
		h.sendRoomState(playerID)
	}
}

func (h *Host) broadcastMessage(msgType string, payload any) {
	data := EncodeMessage(ServerMessage{Type: msgType, RoomID: h.roomID, Payload: payload})
	if data == nil {
		return
	}
	for playerID, p := range h.players {
		if p.online {
			h.broadcast(playerID, data)
		}
	}
}

func (h *Host) send(playerID int, msgType string, payload any) {
	p, ok := h.players[playerID]
	if !ok || !p.online {
		return
	}
	data := EncodeMessage(ServerMessage{Type: msgType, RoomID: h.roomID, Payload: payload})
	if data == nil {
		return
	}
	h.broadcast(playerID, data)
}

func currentPlayer(info holdem.GameInfo) *holdem.Player {
	idx := info.CurrentPlayerIndex
	if idx < 0 || idx >= len(info.Players) {
		return nil
	}
	return info.Players[idx]
}

func redactHoleCards(game *holdem.GameInfo, viewerID int, shown map[int]bool) {
	if game == nil {
		return
	}
	for _, p := range game.Players {
		if p.ID != viewerID && !shown[p.ID] {
			p.HoleCards = nil
		}
	}
}
