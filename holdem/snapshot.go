package holdem

import "clubpoker/card"

// GameInfo is a read-only projection of the engine, safe to hold after the
// lock is released and to serialize as-is. Players are deep copies.
type GameInfo struct {
	GameID             string            `json:"game_id"`
	State              GameState         `json:"state"`
	Players            []*Player         `json:"players"`
	CommunityCards     []card.Card       `json:"community_cards"`
	CurrentBet         int64             `json:"current_bet"`
	TotalPot           int64             `json:"total_pot"`
	ButtonPosition     int               `json:"button_position"`
	CurrentPlayerIndex int               `json:"current_player_index"`
	SmallBlind         int64             `json:"small_blind"`
	BigBlind           int64             `json:"big_blind"`
	PotStructure       *PotStructure     `json:"pot_structure,omitempty"`
	Settlement         *SettlementResult `json:"settlement,omitempty"`
}

// GameInfo snapshots the current game. Callers own the returned value.
func (g *GameEngine) GameInfo() GameInfo {
	g.mu.Lock()
	defer g.mu.Unlock()

	players := make([]*Player, len(g.players))
	for i, p := range g.players {
		players[i] = p.clone()
	}
	board := make([]card.Card, len(g.communityCards))
	copy(board, g.communityCards)

	return GameInfo{
		GameID:             g.gameID,
		State:              g.state,
		Players:            players,
		CommunityCards:     board,
		CurrentBet:         g.currentBet,
		TotalPot:           g.totalPotLocked(),
		ButtonPosition:     g.buttonPos,
		CurrentPlayerIndex: g.currentPlayerIndex,
		SmallBlind:         g.smallBlind,
		BigBlind:           g.bigBlind,
		PotStructure:       g.potStructure,
		Settlement:         g.settlement,
	}
}

// State returns the current lifecycle state.
func (g *GameEngine) State() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}
