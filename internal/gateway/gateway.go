// Package gateway terminates websocket connections, authenticates them
// against the session store, and routes client commands to room hosts.
package gateway

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"clubpoker/holdem"
	"clubpoker/internal/auth"
	"clubpoker/internal/lobby"
	"clubpoker/internal/table"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 65536
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: restrict origins in production
	},
}

// ClientMessage is the JSON frame clients send.
type ClientMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id,omitempty"`
	Name   string `json:"name,omitempty"`
	Action string `json:"action,omitempty"`
	Amount int64  `json:"amount,omitempty"`
}

// Connection is one authenticated websocket client.
type Connection struct {
	id       string
	playerID int
	username string
	conn     *websocket.Conn
	send     chan []byte
	gateway  *Gateway

	mu        sync.Mutex
	host      *table.Host
	displaced bool // a newer socket took over this account
}

// Gateway owns the connection registry. One live connection per account;
// a newer login displaces the old socket.
type Gateway struct {
	mu         sync.RWMutex
	conns      map[string]*Connection
	userConns  map[int]*Connection
	rooms      map[int]*table.Host // survives reconnects
	nextConnID uint64

	auth  auth.Service
	lobby *lobby.Lobby
}

func New(authService auth.Service) *Gateway {
	return &Gateway{
		conns:     make(map[string]*Connection),
		userConns: make(map[int]*Connection),
		rooms:     make(map[int]*table.Host),
		auth:      authService,
	}
}

// AttachLobby wires the lobby in after construction; the lobby needs the
// gateway's send function first.
func (g *Gateway) AttachLobby(l *lobby.Lobby) {
	g.lobby = l
}

// SendToPlayer routes a payload to one player's live connection. Used as the
// broadcast callback by every room host.
func (g *Gateway) SendToPlayer(playerID int, data []byte) {
	g.mu.RLock()
	c := g.userConns[playerID]
	g.mu.RUnlock()
	if c == nil {
		return
	}
	select {
	case c.send <- data:
	default:
		// Slow consumer, drop the frame.
	}
}

// HandleWebSocket upgrades the request after validating the session token
// from the query string or Authorization header.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		http.Error(w, "missing session token", http.StatusUnauthorized)
		return
	}
	accountID, username, ok := g.auth.ResolveSession(token)
	if !ok {
		http.Error(w, "invalid or expired session", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Gateway] upgrade failed: %v", err)
		return
	}

	playerID := int(accountID)
	g.mu.Lock()
	g.nextConnID++
	c := &Connection{
		id:       fmt.Sprintf("conn-%d", g.nextConnID),
		playerID: playerID,
		username: username,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		gateway:  g,
	}
	old := g.userConns[playerID]
	g.conns[c.id] = c
	g.userConns[playerID] = c
	c.host = g.rooms[playerID]
	g.mu.Unlock()

	if old != nil {
		// The displaced socket must not report the player offline; its
		// teardown would race the new connection's resume.
		old.markDisplaced()
		old.conn.Close()
	}
	log.Printf("[Gateway] %s connected as %s (player %d)", c.id, username, playerID)

	go c.readPump()
	go c.writePump()

	if h := c.currentHost(); h != nil {
		_ = h.Submit(table.Event{Type: table.EventConnResume, PlayerID: playerID, Timestamp: time.Now()})
	}
}

func sessionToken(r *http.Request) string {
	if token := strings.TrimSpace(r.URL.Query().Get("token")); token != "" {
		return token
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func (c *Connection) readPump() {
	defer func() {
		c.gateway.removeConnection(c)
		c.conn.Close()
		if h := c.currentHost(); h != nil && !c.isDisplaced() {
			_ = h.Submit(table.Event{Type: table.EventConnLost, PlayerID: c.playerID, Timestamp: time.Now()})
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Gateway] read error on %s: %v", c.id, err)
			}
			return
		}
		if messageType == websocket.TextMessage {
			c.handleMessage(message)
		}
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Connection) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("malformed message")
		return
	}

	switch msg.Type {
	case "quick_start":
		c.handleQuickStart()
	case "join_room":
		c.handleJoinRoom(msg.RoomID)
	case "take_seat":
		c.submitToHost(table.Event{Type: table.EventTakeSeat, PlayerID: c.playerID})
	case "leave_seat":
		c.submitToHost(table.Event{Type: table.EventLeaveSeat, PlayerID: c.playerID})
	case "leave_room":
		c.handleLeaveRoom()
	case "rebuy":
		c.submitToHost(table.Event{Type: table.EventRebuy, PlayerID: c.playerID, Amount: msg.Amount})
	case "start_hand":
		c.submitToHost(table.Event{Type: table.EventStartHand, PlayerID: c.playerID})
	case "action":
		c.handleAction(msg)
	default:
		c.sendError(fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

func (c *Connection) handleQuickStart() {
	h, err := c.gateway.lobby.QuickStart(c.playerID)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.enterRoom(h)
}

func (c *Connection) handleJoinRoom(roomID string) {
	h, err := c.gateway.lobby.GetRoom(roomID)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.enterRoom(h)
}

func (c *Connection) enterRoom(h *table.Host) {
	if err := h.Submit(table.Event{Type: table.EventJoin, PlayerID: c.playerID, Name: c.username}); err != nil {
		c.sendError(err.Error())
		return
	}
	c.mu.Lock()
	c.host = h
	c.mu.Unlock()
	c.gateway.mu.Lock()
	c.gateway.rooms[c.playerID] = h
	c.gateway.mu.Unlock()
	log.Printf("[Gateway] player %d entered room %s", c.playerID, h.RoomID())
}

func (c *Connection) handleLeaveRoom() {
	h := c.currentHost()
	if h == nil {
		c.sendError("not in a room")
		return
	}
	if err := h.Submit(table.Event{Type: table.EventLeaveRoom, PlayerID: c.playerID}); err != nil {
		c.sendError(err.Error())
		return
	}
	c.mu.Lock()
	c.host = nil
	c.mu.Unlock()
	c.gateway.mu.Lock()
	delete(c.gateway.rooms, c.playerID)
	c.gateway.mu.Unlock()
}

func (c *Connection) handleAction(msg ClientMessage) {
	action, ok := holdem.ParseAction(msg.Action)
	if !ok {
		c.sendError(fmt.Sprintf("unknown action %q", msg.Action))
		return
	}
	c.submitToHost(table.Event{
		Type:     table.EventAction,
		PlayerID: c.playerID,
		Action:   action,
		Amount:   msg.Amount,
	})
}

func (c *Connection) submitToHost(e table.Event) {
	h := c.currentHost()
	if h == nil {
		c.sendError("not in a room")
		return
	}
	if err := h.Submit(e); err != nil {
		c.sendError(err.Error())
	}
}

func (c *Connection) currentHost() *table.Host {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.host
}

func (c *Connection) markDisplaced() {
	c.mu.Lock()
	c.displaced = true
	c.mu.Unlock()
}

func (c *Connection) isDisplaced() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.displaced
}

func (c *Connection) sendError(message string) {
	data := table.EncodeMessage(table.ServerMessage{
		Type:    table.MsgError,
		Payload: table.ErrorPayload{Message: message},
	})
	if data == nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (g *Gateway) removeConnection(c *Connection) {
	g.mu.Lock()
	delete(g.conns, c.id)
	if g.userConns[c.playerID] == c {
		delete(g.userConns, c.playerID)
	}
	remaining := len(g.conns)
	g.mu.Unlock()
	log.Printf("[Gateway] %s disconnected, %d left", c.id, remaining)
}
