package holdem

import (
	"fmt"
	"log"
	"os"
	"sync"

	"clubpoker/card"
)

// ActionResult is the synchronous outcome of a player action. Illegal actions
// (wrong turn, below min-raise, checking into a bet) come back as failed
// results, not errors; errors are reserved for engine-level faults.
type ActionResult struct {
	Success bool
	Reason  string
}

func actionOK() ActionResult {
	return ActionResult{Success: true}
}

func actionFail(format string, args ...any) ActionResult {
	return ActionResult{Reason: fmt.Sprintf(format, args...)}
}

// GameEngine runs the hand lifecycle for one table session. It owns the deck
// and the players and is single-writer: every mutating call takes the engine
// lock, so one engine serves exactly one room.
type GameEngine struct {
	mu sync.Mutex

	gameID         string
	state          GameState
	players        []*Player
	communityCards []card.Card
	deck           *Deck
	betting        BettingEngine
	pots           PotManager

	currentBet         int64
	buttonPos          int
	currentPlayerIndex int
	smallBlind         int64
	bigBlind           int64
	bigBlindPos        int

	potStructure *PotStructure
	settlement   *SettlementResult

	logger *log.Logger
}

// NewGameEngine binds players and stakes to a fresh session. The session
// starts in WAITING_FOR_PLAYERS until StartNewHand.
func NewGameEngine(gameID string, players []*Player, smallBlind, bigBlind int64) (*GameEngine, error) {
	if len(players) < 2 {
		return nil, precondition("initialize", "need at least 2 players, got %d", len(players))
	}
	if smallBlind <= 0 || bigBlind <= smallBlind {
		return nil, precondition("initialize", "invalid blinds %d/%d", smallBlind, bigBlind)
	}
	seen := make(map[int]bool, len(players))
	for _, p := range players {
		if seen[p.ID] {
			return nil, precondition("initialize", "duplicate player id %d", p.ID)
		}
		seen[p.ID] = true
	}

	return &GameEngine{
		gameID:             gameID,
		state:              StateWaitingForPlayers,
		players:            players,
		deck:               NewDeck(),
		smallBlind:         smallBlind,
		bigBlind:           bigBlind,
		currentPlayerIndex: -1,
		bigBlindPos:        -1,
		logger:             log.New(os.Stderr, fmt.Sprintf("[Game %s] ", gameID), log.LstdFlags),
	}, nil
}

// StartNewHand deals a fresh hand: shuffle, hole cards, blinds, first to act.
// Players without chips sit the hand out.
func (g *GameEngine) StartNewHand() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateWaitingForPlayers && g.state != StateFinished {
		return precondition("start hand", "cannot start a hand from %s", g.state)
	}
	return g.startHandLocked()
}

func (g *GameEngine) startHandLocked() error {
	funded := 0
	for _, p := range g.players {
		p.ResetForNewHand()
		if p.Chips <= 0 {
			p.Active = false
			p.Folded = true
			continue
		}
		funded++
	}
	if funded < 2 {
		return precondition("start hand", "need at least 2 funded players, got %d", funded)
	}

	g.communityCards = nil
	g.potStructure = nil
	g.settlement = nil
	g.currentBet = 0

	g.deck.Shuffle(g.gameID)

	seats := make([]int, 0, funded)
	for i, p := range g.players {
		if p.Active {
			seats = append(seats, i)
		}
	}
	hole, err := g.deck.DealHoleCards(len(seats))
	if err != nil {
		return err
	}
	for i, seat := range seats {
		g.players[seat].HoleCards = hole[i]
	}

	sbPos := g.nextActiveSeat(g.buttonPos)
	bbPos := g.nextActiveSeat(sbPos)
	g.postBlind(g.players[sbPos], g.smallBlind)
	g.postBlind(g.players[bbPos], g.bigBlind)
	g.bigBlindPos = bbPos
	g.currentBet = g.bigBlind

	g.state = StatePreFlop
	g.currentPlayerIndex = g.betting.NextPlayerToAct(g.players, bbPos)
	g.logger.Printf("hand started, %d players, button at seat %d", funded, g.buttonPos)
	return nil
}

// postBlind commits the blind and restores the player's option: posting a
// blind is not a voluntary action.
func (g *GameEngine) postBlind(p *Player, amount int64) {
	p.Bet(amount)
	p.Acted = false
}

func (g *GameEngine) nextActiveSeat(from int) int {
	n := len(g.players)
	for i := 1; i <= n; i++ {
		idx := (from + i) % n
		if g.players[idx].Active && !g.players[idx].Folded {
			return idx
		}
	}
	return from
}

// ProcessPlayerAction applies one betting action. The result carries the
// reason for any rejection; the error return is reserved for faults that
// corrupt the hand (deck exhaustion, pot reconciliation failure).
func (g *GameEngine) ProcessPlayerAction(playerID int, action PlayerAction, amount int64) (ActionResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case StatePreFlop, StateFlop, StateTurn, StateRiver:
	default:
		return actionFail("no betting in progress (state %s)", g.state), nil
	}

	idx := g.playerIndex(playerID)
	if idx < 0 {
		return actionFail("unknown player %d", playerID), nil
	}
	if idx != g.currentPlayerIndex {
		return actionFail("not player %d's turn", playerID), nil
	}

	actor := g.players[idx]
	prevBet := g.currentBet
	res := g.betting.ExecuteAction(actor, action, amount, g.currentBet, g.bigBlind)
	if !res.Success {
		return ActionResult{Reason: res.Message}, nil
	}
	g.currentBet = res.NewCurrentBet
	g.logger.Printf("%s", res.Message)

	// A raise, or an all-in that pushed the bet higher, reopens the round
	// for everyone else still able to act.
	if g.currentBet > prevBet {
		for _, p := range g.players {
			if p.ID != actor.ID && p.Active && !p.Folded && !p.AllIn {
				p.Acted = false
			}
		}
	}

	if err := g.resolveAfterActionLocked(); err != nil {
		return ActionResult{}, err
	}
	return actionOK(), nil
}

func (g *GameEngine) resolveAfterActionLocked() error {
	active := g.activePlayers()
	if len(active) == 1 {
		g.awardToSurvivorLocked(active[0])
		return nil
	}

	if !g.betting.IsBettingRoundComplete(g.players, g.currentBet, g.state, g.bigBlindPos, g.bigBlind) {
		g.currentPlayerIndex = g.betting.NextPlayerToAct(g.players, g.currentPlayerIndex)
		return nil
	}

	if g.countCanAct() == 0 {
		// Everyone left is all-in: run out the board with no further input.
		for g.state != StateShowdown {
			if err := g.advanceStreetLocked(); err != nil {
				return err
			}
		}
		return g.performShowdownLocked()
	}

	if err := g.advanceStreetLocked(); err != nil {
		return err
	}
	if g.state == StateShowdown {
		return g.performShowdownLocked()
	}
	g.currentPlayerIndex = g.betting.NextPlayerToAct(g.players, g.buttonPos)
	return nil
}

// advanceStreetLocked deals the next street and resets the round baseline.
// Cumulative hand bets are untouched.
func (g *GameEngine) advanceStreetLocked() error {
	for _, p := range g.players {
		p.ResetForNewRound()
	}
	g.currentBet = 0

	switch g.state {
	case StatePreFlop:
		flop, err := g.deck.DealFlop()
		if err != nil {
			return err
		}
		g.communityCards = append(g.communityCards, flop...)
		g.state = StateFlop
	case StateFlop:
		turn, err := g.deck.DealTurn()
		if err != nil {
			return err
		}
		g.communityCards = append(g.communityCards, turn)
		g.state = StateTurn
	case StateTurn:
		river, err := g.deck.DealRiver()
		if err != nil {
			return err
		}
		g.communityCards = append(g.communityCards, river)
		g.state = StateRiver
	case StateRiver:
		g.state = StateShowdown
	default:
		return invariant("cannot advance street from %s", g.state)
	}
	g.logger.Printf("street advanced to %s, board %v", g.state, g.communityCards)
	return nil
}

// awardToSurvivorLocked hands the whole pot to the last player standing. No
// cards are shown and no hands are evaluated.
func (g *GameEngine) awardToSurvivorLocked(winner *Player) {
	var total int64
	for _, p := range g.players {
		total += p.TotalBet
	}
	winner.AddChips(total)

	g.settlement = &SettlementResult{
		PlayerWinnings:   map[int]int64{winner.ID: total},
		TotalDistributed: total,
		Summary:          fmt.Sprintf("%s wins %d uncontested", winner.Name, total),
	}
	g.state = StateFinished
	g.currentPlayerIndex = -1
	g.logger.Printf("%s", g.settlement.Summary)
}

func (g *GameEngine) performShowdownLocked() error {
	bets := make([]PlayerBetInfo, 0, len(g.players))
	for i, p := range g.players {
		bets = append(bets, PlayerBetInfo{
			PlayerID: p.ID,
			Name:     p.Name,
			TotalBet: p.TotalBet,
			Folded:   p.Folded || !p.Active,
			Seat:     i,
		})
	}
	structure, err := g.pots.CreatePots(bets)
	if err != nil {
		return err
	}
	g.potStructure = structure

	hands := make(map[int]HandRank)
	for _, p := range g.players {
		if !p.Active || p.Folded {
			continue
		}
		seven := make([]card.Card, 0, 7)
		seven = append(seven, p.HoleCards...)
		seven = append(seven, g.communityCards...)
		rank, err := EvaluateHand(seven)
		if err != nil {
			return err
		}
		hands[p.ID] = rank
	}

	settlement, err := g.pots.SettlePots(structure, hands)
	if err != nil {
		return err
	}
	g.settlement = settlement

	for _, p := range g.players {
		if won := settlement.PlayerWinnings[p.ID]; won > 0 {
			p.AddChips(won)
		}
	}

	g.state = StateFinished
	g.currentPlayerIndex = -1
	g.logger.Printf("showdown: %s", settlement.Summary)
	return nil
}

// CanStartNextHand reports whether the session can deal again.
func (g *GameEngine) CanStartNextHand() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateFinished {
		return false
	}
	funded := 0
	for _, p := range g.players {
		if p.Chips > 0 {
			funded++
		}
	}
	return funded >= 2
}

// StartNextHand rotates the button and deals the next hand. Legal only once
// the previous hand has finished.
func (g *GameEngine) StartNextHand() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateFinished {
		return precondition("next hand", "previous hand not finished (state %s)", g.state)
	}
	g.buttonPos = (g.buttonPos + 1) % len(g.players)
	return g.startHandLocked()
}

func (g *GameEngine) playerIndex(playerID int) int {
	for i, p := range g.players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

func (g *GameEngine) activePlayers() []*Player {
	var out []*Player
	for _, p := range g.players {
		if p.Active && !p.Folded {
			out = append(out, p)
		}
	}
	return out
}

func (g *GameEngine) countCanAct() int {
	n := 0
	for _, p := range g.players {
		if p.Active && !p.Folded && !p.AllIn {
			n++
		}
	}
	return n
}

// TotalPot is the sum of every player's cumulative bet this hand.
func (g *GameEngine) TotalPot() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.totalPotLocked()
}

func (g *GameEngine) totalPotLocked() int64 {
	var total int64
	for _, p := range g.players {
		total += p.TotalBet
	}
	return total
}
