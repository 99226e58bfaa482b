package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"clubpoker/internal/auth"
	"clubpoker/internal/config"
	"clubpoker/internal/history"
	"clubpoker/internal/lobby"
	"clubpoker/internal/table"
)

type testServer struct {
	srv  *httptest.Server
	auth *auth.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	m := auth.NewManager(time.Hour)
	t.Cleanup(func() { m.Close() })

	g := New(m)
	l := lobby.New(config.Config{
		SmallBlind:    10,
		BigBlind:      20,
		DefaultBuyIn:  1000,
		ActionTimeout: time.Hour,
		NextHandDelay: time.Hour,
	}, history.NopService{}, g.SendToPlayer)
	t.Cleanup(l.Shutdown)
	g.AttachLobby(l)

	srv := httptest.NewServer(http.HandlerFunc(g.HandleWebSocket))
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, auth: m}
}

func (ts *testServer) dial(t *testing.T, username string) *websocket.Conn {
	t.Helper()
	_, token, err := ts.auth.Register(username, "password1")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return ts.dialToken(t, token)
}

func (ts *testServer) dialToken(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", msg.Type, err)
	}
}

func waitFor(t *testing.T, conn *websocket.Conn, msgType string) table.ServerMessage {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(deadline)
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read while waiting for %s: %v", msgType, err)
		}
		var msg table.ServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		if msg.Type == msgType {
			return msg
		}
	}
	t.Fatalf("never received %s", msgType)
	return table.ServerMessage{}
}

func TestRejectsMissingToken(t *testing.T) {
	ts := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(ts.srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatalf("dial without token should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 handshake response, got %+v", resp)
	}
}

func TestQuickStartDeliversRoomState(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t, "alice")

	send(t, conn, ClientMessage{Type: "quick_start"})
	msg := waitFor(t, conn, table.MsgRoomState)
	if msg.RoomID == "" {
		t.Fatalf("room state carries no room id")
	}
}

func TestTwoPlayersReachActionPrompt(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.dial(t, "alice")
	bob := ts.dial(t, "bob")

	send(t, alice, ClientMessage{Type: "quick_start"})
	waitFor(t, alice, table.MsgRoomState)
	send(t, alice, ClientMessage{Type: "take_seat"})

	send(t, bob, ClientMessage{Type: "quick_start"})
	waitFor(t, bob, table.MsgRoomState)
	send(t, bob, ClientMessage{Type: "take_seat"})
	waitFor(t, bob, table.MsgRoomState)

	send(t, alice, ClientMessage{Type: "start_hand"})
	waitFor(t, alice, table.MsgHandStart)

	// Heads-up: the small blind (second seat) opens the betting.
	msg := waitFor(t, bob, table.MsgActionPrompt)
	if msg.Type != table.MsgActionPrompt {
		t.Fatalf("expected action prompt, got %s", msg.Type)
	}
}

func TestReconnectKeepsPlayerReceivingBroadcasts(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.dial(t, "alice")
	bob := ts.dial(t, "bob")
	carol := ts.dial(t, "carol")

	for _, conn := range []*websocket.Conn{alice, bob, carol} {
		send(t, conn, ClientMessage{Type: "quick_start"})
		waitFor(t, conn, table.MsgRoomState)
		send(t, conn, ClientMessage{Type: "take_seat"})
		waitFor(t, conn, table.MsgRoomState)
	}

	// Three seats: the first player opens the betting preflop.
	send(t, alice, ClientMessage{Type: "start_hand"})
	waitFor(t, alice, table.MsgActionPrompt)

	// Bob reconnects on a fresh socket, displacing the old one. The old
	// socket's teardown must not flag him offline.
	_, token, err := ts.auth.Login("bob", "password1")
	if err != nil {
		t.Fatalf("login bob: %v", err)
	}
	bob2 := ts.dialToken(t, token)
	waitFor(t, bob2, table.MsgRoomState)

	// Bob sends nothing himself; only a live presence entry gets this frame.
	send(t, alice, ClientMessage{Type: "action", Action: "FOLD"})
	waitFor(t, bob2, table.MsgActionResult)
}

func TestUnknownMessageTypeReturnsError(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t, "carol")

	send(t, conn, ClientMessage{Type: "teleport"})
	msg := waitFor(t, conn, table.MsgError)
	if msg.Type != table.MsgError {
		t.Fatalf("expected error frame")
	}
}

func TestActionOutsideRoomReturnsError(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t, "dave")

	send(t, conn, ClientMessage{Type: "action", Action: "FOLD"})
	waitFor(t, conn, table.MsgError)
}
