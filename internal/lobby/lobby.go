// Package lobby tracks every live room and hands out hosts to the gateway.
package lobby

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"clubpoker/internal/config"
	"clubpoker/internal/history"
	"clubpoker/internal/table"
	"clubpoker/room"
)

var ErrRoomNotFound = errors.New("room not found")

// Lobby manages room hosts. The broadcast function routes a payload to one
// player's connection and is shared by every host.
type Lobby struct {
	mu     sync.RWMutex
	hosts  map[string]*table.Host
	nextID uint64

	cfg       config.Config
	history   history.Service
	broadcast func(playerID int, data []byte)
}

func New(cfg config.Config, historyService history.Service, broadcastFn func(playerID int, data []byte)) *Lobby {
	return &Lobby{
		hosts:     make(map[string]*table.Host),
		cfg:       cfg,
		history:   historyService,
		broadcast: broadcastFn,
	}
}

// CreateRoom opens a fresh room and starts its host.
func (l *Lobby) CreateRoom(name string) (*table.Host, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.createRoomLocked(name)
}

func (l *Lobby) createRoomLocked(name string) (*table.Host, error) {
	l.nextID++
	roomID := fmt.Sprintf("room-%d-%s", l.nextID, uuid.NewString()[:8])
	if name == "" {
		name = roomID
	}
	r, err := room.New(roomID, name, l.cfg.SmallBlind, l.cfg.BigBlind)
	if err != nil {
		return nil, err
	}
	h := table.NewHost(r, table.Config{
		DefaultBuyIn:  l.cfg.DefaultBuyIn,
		ActionTimeout: l.cfg.ActionTimeout,
		NextHandDelay: l.cfg.NextHandDelay,
	}, l.history, l.broadcast)
	l.hosts[roomID] = h
	log.Printf("[Lobby] created room %s (%s)", roomID, name)
	return h, nil
}

// GetRoom returns the host for a room ID.
func (l *Lobby) GetRoom(roomID string) (*table.Host, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	h, ok := l.hosts[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return h, nil
}

// QuickStart finds a room with a free seat or opens a new one.
func (l *Lobby) QuickStart(playerID int) (*table.Host, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// A player already in a room goes back to it.
	for _, h := range l.hosts {
		if _, ok := h.Room().Member(playerID); ok {
			return h, nil
		}
	}
	for _, h := range l.hosts {
		if len(h.Room().Info().Members) < 9 {
			log.Printf("[Lobby] quick start: player %d joins %s", playerID, h.RoomID())
			return h, nil
		}
	}
	log.Printf("[Lobby] quick start: opening a new room for player %d", playerID)
	return l.createRoomLocked("")
}

// ListRooms returns every live room's projection.
func (l *Lobby) ListRooms() []room.Info {
	l.mu.RLock()
	defer l.mu.RUnlock()
	infos := make([]room.Info, 0, len(l.hosts))
	for _, h := range l.hosts {
		info := h.Room().Info()
		// Listings never carry live game detail.
		info.Game = nil
		infos = append(infos, info)
	}
	return infos
}

// CloseEmptyRooms reaps rooms nobody is in. Returns how many were closed.
func (l *Lobby) CloseEmptyRooms() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	closed := 0
	for id, h := range l.hosts {
		if h.Room().Empty() {
			h.Stop()
			delete(l.hosts, id)
			closed++
			log.Printf("[Lobby] closed empty room %s", id)
		}
	}
	return closed
}

// Shutdown stops every host.
func (l *Lobby) Shutdown() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, h := range l.hosts {
		h.Stop()
		delete(l.hosts, id)
	}
}
