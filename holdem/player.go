package holdem

import "clubpoker/card"

// Player is one seat's state inside a hand. The chip stack persists across
// hands; everything else is reset when a new hand starts.
type Player struct {
	ID   int    `json:"id"`
	Name string `json:"name"`

	Chips     int64 `json:"chips"`      // current stack
	BetAmount int64 `json:"bet_amount"` // committed this betting round
	TotalBet  int64 `json:"total_bet"`  // committed this hand

	HoleCards []card.Card `json:"hole_cards,omitempty"`

	Active bool `json:"active"` // dealt into the current hand and not folded
	AllIn  bool `json:"all_in"`
	Folded bool `json:"folded"`
	Acted  bool `json:"acted"` // acted in the current betting round
}

// NewPlayer creates a seated player with a starting stack.
func NewPlayer(id int, name string, chips int64) *Player {
	return &Player{
		ID:     id,
		Name:   name,
		Chips:  chips,
		Active: true,
	}
}

// Bet moves amount from the stack into the current bet and returns the
// amount actually committed. A bet of the whole stack (or more) is an all-in
// for the stack.
func (p *Player) Bet(amount int64) int64 {
	if amount >= p.Chips {
		amount = p.Chips
		p.AllIn = true
	}
	p.BetAmount += amount
	p.TotalBet += amount
	p.Chips -= amount
	p.Acted = true
	return amount
}

// Fold removes the player from the hand. Folded chips stay committed.
func (p *Player) Fold() {
	p.Folded = true
	p.Active = false
	p.Acted = true
}

// AddChips credits winnings (or refunds) to the stack.
func (p *Player) AddChips(amount int64) {
	p.Chips += amount
}

// ResetForNewRound prepares the player for the next betting round of the same
// hand. All-in players keep Acted so they are never prompted again.
func (p *Player) ResetForNewRound() {
	p.BetAmount = 0
	if !p.AllIn {
		p.Acted = false
	}
	if p.Chips > 0 {
		p.AllIn = false
	}
}

// ResetForNewHand clears all per-hand state. The stack persists. The caller
// decides whether an unfunded player sits the hand out.
func (p *Player) ResetForNewHand() {
	p.BetAmount = 0
	p.TotalBet = 0
	p.HoleCards = p.HoleCards[:0]
	p.Active = true
	p.Acted = false
	p.AllIn = false
	p.Folded = false
}

// CanAct reports whether the player can still take betting actions.
func (p *Player) CanAct() bool {
	return p.Active && !p.AllIn && !p.Folded
}

// clone returns a deep copy for read-only snapshots.
func (p *Player) clone() *Player {
	cp := *p
	cp.HoleCards = append([]card.Card(nil), p.HoleCards...)
	return &cp
}
