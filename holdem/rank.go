package holdem

import (
	"strings"

	"clubpoker/card"
)

// HandType is the 9-level hand category. A royal flush is the ace-high
// straight flush; it needs no category of its own for correct ordering.
type HandType int

const (
	HighCard HandType = iota + 1
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

var handTypeNames = map[HandType]string{
	HighCard:      "High Card",
	OnePair:       "One Pair",
	TwoPair:       "Two Pair",
	ThreeOfAKind:  "Three of a Kind",
	Straight:      "Straight",
	Flush:         "Flush",
	FullHouse:     "Full House",
	FourOfAKind:   "Four of a Kind",
	StraightFlush: "Straight Flush",
}

func (t HandType) String() string {
	if name, ok := handTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// HandRank is a totally ordered hand-strength value: hand type first, then
// kicker ranks positionally, descending. Suits never break ties.
type HandRank struct {
	Type     HandType    `json:"type"`
	Kickers  []card.Rank `json:"kickers"`
	BestFive []card.Card `json:"best_five"`
}

// Compare returns <0, 0 or >0 as r sorts below, equal to or above other.
func (r HandRank) Compare(other HandRank) int {
	if r.Type != other.Type {
		return int(r.Type) - int(other.Type)
	}
	n := len(r.Kickers)
	if len(other.Kickers) < n {
		n = len(other.Kickers)
	}
	for i := 0; i < n; i++ {
		if r.Kickers[i] != other.Kickers[i] {
			return r.Kickers[i].Value() - other.Kickers[i].Value()
		}
	}
	return 0
}

// Beats reports whether r is strictly stronger than other.
func (r HandRank) Beats(other HandRank) bool { return r.Compare(other) > 0 }

// IsRoyal reports whether r is the ace-high straight flush.
func (r HandRank) IsRoyal() bool {
	return r.Type == StraightFlush && len(r.Kickers) > 0 && r.Kickers[0] == card.Ace
}

// Describe renders a human-readable hand description, e.g.
// "Full House, Kings over Fours" or "Royal Flush".
func (r HandRank) Describe() string {
	if r.IsRoyal() {
		return "Royal Flush"
	}
	if len(r.Kickers) == 0 {
		return r.Type.String()
	}
	switch r.Type {
	case OnePair, ThreeOfAKind, FourOfAKind:
		return r.Type.String() + ", " + r.Kickers[0].Name() + "s"
	case TwoPair:
		return r.Type.String() + ", " + r.Kickers[0].Name() + "s and " + r.Kickers[1].Name() + "s"
	case FullHouse:
		return r.Type.String() + ", " + r.Kickers[0].Name() + "s over " + r.Kickers[1].Name() + "s"
	case Straight, StraightFlush, Flush, HighCard:
		return r.Type.String() + ", " + r.Kickers[0].Name() + " High"
	}
	return r.Type.String()
}

func (r HandRank) String() string {
	parts := make([]string, 0, len(r.BestFive))
	for _, c := range r.BestFive {
		parts = append(parts, c.String())
	}
	if len(parts) == 0 {
		return r.Describe()
	}
	return r.Describe() + " [" + strings.Join(parts, " ") + "]"
}
