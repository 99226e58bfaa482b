package table

import (
	"encoding/json"
	"log"

	"clubpoker/holdem"
	"clubpoker/room"
)

// ServerMessage is the JSON envelope pushed to websocket clients. The
// gateway reuses it for its own errors so every frame looks the same.
type ServerMessage struct {
	Type    string `json:"type"`
	RoomID  string `json:"room_id,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

const (
	MsgRoomState    = "room_state"
	MsgActionPrompt = "action_prompt"
	MsgActionResult = "action_result"
	MsgHandStart    = "hand_start"
	MsgHandEnd      = "hand_end"
	MsgError        = "error"
)

// ActionPromptPayload tells a player it is their turn.
type ActionPromptPayload struct {
	PlayerID   int      `json:"player_id"`
	DeadlineMs int64    `json:"deadline_ms"`
	Actions    []string `json:"actions"`
	ToCall     int64    `json:"to_call"`
	MinRaise   int64    `json:"min_raise"`
	MaxRaise   int64    `json:"max_raise"`
}

// ActionResultPayload echoes a processed action to the whole table.
type ActionResultPayload struct {
	PlayerID int    `json:"player_id"`
	Action   string `json:"action"`
	Amount   int64  `json:"amount"`
	Success  bool   `json:"success"`
	Reason   string `json:"reason,omitempty"`
	TotalPot int64  `json:"total_pot"`
	State    string `json:"state"`
}

// HandEndPayload closes out a hand with the final standings.
type HandEndPayload struct {
	Ranking *holdem.GameRanking `json:"ranking,omitempty"`
	Record  room.HandRecord     `json:"record"`
}

// ErrorPayload carries a request failure back to one client.
type ErrorPayload struct {
	Message string `json:"message"`
}

// EncodeMessage marshals an envelope, returning nil on failure so callers
// can skip the send.
func EncodeMessage(msg ServerMessage) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[table] marshal %s message: %v", msg.Type, err)
		return nil
	}
	return data
}
