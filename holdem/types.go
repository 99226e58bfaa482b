package holdem

import "strings"

// GameState is the hand lifecycle state machine.
type GameState int

const (
	StateWaitingForPlayers GameState = iota
	StatePreFlop
	StateFlop
	StateTurn
	StateRiver
	StateShowdown
	StateFinished
)

var gameStateNames = map[GameState]string{
	StateWaitingForPlayers: "WAITING_FOR_PLAYERS",
	StatePreFlop:           "PRE_FLOP",
	StateFlop:              "FLOP",
	StateTurn:              "TURN",
	StateRiver:             "RIVER",
	StateShowdown:          "SHOWDOWN",
	StateFinished:          "FINISHED",
}

func (s GameState) String() string {
	if name, ok := gameStateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// MarshalJSON writes the state by name so snapshots stay readable on the wire.
func (s GameState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// PlayerAction is a betting action submitted by a player.
type PlayerAction int

const (
	ActionFold PlayerAction = iota
	ActionCheck
	ActionCall
	ActionRaise
	ActionAllIn
)

var playerActionNames = map[PlayerAction]string{
	ActionFold:  "FOLD",
	ActionCheck: "CHECK",
	ActionCall:  "CALL",
	ActionRaise: "RAISE",
	ActionAllIn: "ALL_IN",
}

func (a PlayerAction) String() string {
	if name, ok := playerActionNames[a]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseAction converts the wire name of an action ("FOLD", "call", ...) back
// into a PlayerAction.
func ParseAction(name string) (PlayerAction, bool) {
	for a, n := range playerActionNames {
		if strings.EqualFold(n, name) {
			return a, true
		}
	}
	return 0, false
}
