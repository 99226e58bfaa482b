// Package card defines the immutable playing-card value types shared by the
// hold'em engine.
//
// Encoding:
//   - high 4 bits: suit (0 spade, 1 heart, 2 club, 3 diamond)
//   - low 4 bits: rank value (2..14, ace high)
package card

import (
	"fmt"
	"strings"
)

// Card is a single playing card. The zero value is invalid.
type Card byte

const Invalid Card = 0

// New builds a card from suit and rank. Invalid input yields Invalid.
func New(s Suit, r Rank) Card {
	if s > Diamond || r < Two || r > Ace {
		return Invalid
	}
	return Card(byte(s)<<4 | byte(r))
}

// Suit returns the card's suit.
func (c Card) Suit() Suit {
	return Suit(c >> 4)
}

// Rank returns the card's rank (2..14, ace high).
func (c Card) Rank() Rank {
	return Rank(c & 0x0F)
}

func (c Card) Valid() bool {
	return c != Invalid && c.Suit() <= Diamond && c.Rank() >= Two && c.Rank() <= Ace
}

// String renders the card in compact notation, e.g. "As", "Td", "9c".
func (c Card) String() string {
	if !c.Valid() {
		return "??"
	}
	return c.Rank().String() + c.Suit().Letter()
}

// MarshalJSON writes the card in compact notation so hands read naturally in
// serialized snapshots.
func (c Card) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON parses compact notation back into a Card.
func (c *Card) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid card JSON %s", data)
	}
	parsed, err := Parse(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Parse converts compact notation ("As", "10h", "td") into a Card.
func Parse(s string) (Card, error) {
	if len(s) < 2 {
		return Invalid, fmt.Errorf("invalid card string %q", s)
	}

	suit, err := parseSuit(s[len(s)-1])
	if err != nil {
		return Invalid, err
	}

	rank, err := parseRank(s[:len(s)-1])
	if err != nil {
		return Invalid, err
	}

	return New(suit, rank), nil
}

// MustParse is Parse for test fixtures and constants; it panics on bad input.
func MustParse(s string) Card {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

func parseSuit(b byte) (Suit, error) {
	switch b {
	case 's', 'S':
		return Spade, nil
	case 'h', 'H':
		return Heart, nil
	case 'c', 'C':
		return Club, nil
	case 'd', 'D':
		return Diamond, nil
	}
	return Spade, fmt.Errorf("invalid suit %q", string(b))
}

func parseRank(s string) (Rank, error) {
	switch strings.ToUpper(s) {
	case "2", "3", "4", "5", "6", "7", "8", "9":
		return Rank(s[0] - '0'), nil
	case "T", "10":
		return Ten, nil
	case "J":
		return Jack, nil
	case "Q":
		return Queen, nil
	case "K":
		return King, nil
	case "A":
		return Ace, nil
	}
	return 0, fmt.Errorf("invalid rank %q", s)
}

// FullDeck returns the 52 distinct cards in suit-then-rank order.
func FullDeck() []Card {
	cards := make([]Card, 0, 52)
	for s := Spade; s <= Diamond; s++ {
		for r := Two; r <= Ace; r++ {
			cards = append(cards, New(s, r))
		}
	}
	return cards
}
