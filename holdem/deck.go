package holdem

import (
	"crypto/sha256"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"clubpoker/card"
)

// Deck is a 52-card deck with disjoint dealt and burned piles.
//
// Fairness: every shuffle derives a fresh seed from the wall clock, a random
// UUID token and optional caller material, hashes it with SHA-256 and keys a
// ChaCha8 generator for a Fisher-Yates permutation followed by a random cut.
// Caller material influences but never determines the permutation, so a
// guessable seed cannot be exploited. The seed string and timestamp are kept
// for after-the-fact audit only.
type Deck struct {
	cards  []card.Card
	dealt  []card.Card
	burned []card.Card

	seed       string
	shuffledAt time.Time
}

// DeckStatus is a read-only snapshot of the deck's piles and audit trail.
type DeckStatus struct {
	Remaining  int       `json:"remaining"`
	Dealt      int       `json:"dealt"`
	Burned     int       `json:"burned"`
	Seed       string    `json:"seed,omitempty"`
	ShuffledAt time.Time `json:"shuffled_at"`
}

func (s DeckStatus) String() string {
	return fmt.Sprintf("deck{remaining:%d dealt:%d burned:%d}", s.Remaining, s.Dealt, s.Burned)
}

// NewDeck returns an unshuffled deck in canonical order.
func NewDeck() *Deck {
	d := &Deck{}
	d.Reset()
	return d
}

// Reset restores the canonical 52-card order and clears the piles and audit
// trail.
func (d *Deck) Reset() {
	d.cards = card.FullDeck()
	d.dealt = d.dealt[:0]
	d.burned = d.burned[:0]
	d.seed = ""
	d.shuffledAt = time.Time{}
}

// Shuffle rebuilds the full deck and applies a fresh random permutation.
// material is optional caller-supplied seed material; it is mixed into the
// recorded seed but never determines the outcome on its own.
func (d *Deck) Shuffle(material string) {
	d.Reset()

	d.shuffledAt = time.Now()
	token := uuid.NewString()
	material = strings.TrimSpace(material)
	if material != "" {
		d.seed = fmt.Sprintf("%d_%s_%s", d.shuffledAt.UnixMilli(), material, token)
	} else {
		d.seed = fmt.Sprintf("%d_%s", d.shuffledAt.UnixMilli(), token)
	}

	rng := rand.New(rand.NewChaCha8(sha256.Sum256([]byte(d.seed))))

	// Fisher-Yates
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}

	d.cut(rng)
}

// cut rotates the deck at a random position, moving the bottom portion on top.
func (d *Deck) cut(rng *rand.Rand) {
	if len(d.cards) < 2 {
		return
	}
	pos := 1 + rng.IntN(len(d.cards)-1)
	rotated := make([]card.Card, 0, len(d.cards))
	rotated = append(rotated, d.cards[pos:]...)
	rotated = append(rotated, d.cards[:pos]...)
	d.cards = rotated
}

// DealCard removes and returns the top card. An empty deck is fatal for the
// in-progress hand and reported as a PreconditionError.
func (d *Deck) DealCard() (card.Card, error) {
	if len(d.cards) == 0 {
		return card.Invalid, precondition("deal", "deck is empty")
	}
	c := d.cards[0]
	d.cards = d.cards[1:]
	d.dealt = append(d.dealt, c)
	return c, nil
}

// BurnCard discards the top card face down.
func (d *Deck) BurnCard() (card.Card, error) {
	if len(d.cards) == 0 {
		return card.Invalid, precondition("burn", "deck is empty")
	}
	c := d.cards[0]
	d.cards = d.cards[1:]
	d.burned = append(d.burned, c)
	return c, nil
}

// DealCards deals up to count cards from the top.
func (d *Deck) DealCards(count int) ([]card.Card, error) {
	if count <= 0 {
		return nil, nil
	}
	if count > len(d.cards) {
		return nil, precondition("deal", "need %d cards, %d remaining", count, len(d.cards))
	}
	out := make([]card.Card, 0, count)
	for i := 0; i < count; i++ {
		c, err := d.DealCard()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// DealHoleCards burns once, then deals two rounds of one card per seat in seat
// order. The result is indexed by seat (0-based).
func (d *Deck) DealHoleCards(seats int) ([][]card.Card, error) {
	if seats <= 0 || seats > 10 {
		return nil, precondition("hole cards", "seat count must be 1-10, got %d", seats)
	}
	if required := 1 + seats*2; required > len(d.cards) {
		return nil, precondition("hole cards", "need %d cards, %d remaining", required, len(d.cards))
	}

	if _, err := d.BurnCard(); err != nil {
		return nil, err
	}

	hole := make([][]card.Card, seats)
	for round := 0; round < 2; round++ {
		for seat := 0; seat < seats; seat++ {
			c, err := d.DealCard()
			if err != nil {
				return nil, err
			}
			hole[seat] = append(hole[seat], c)
		}
	}
	return hole, nil
}

// DealFlop burns one card and deals the three flop cards.
func (d *Deck) DealFlop() ([]card.Card, error) {
	if _, err := d.BurnCard(); err != nil {
		return nil, err
	}
	return d.DealCards(3)
}

// DealTurn burns one card and deals the turn.
func (d *Deck) DealTurn() (card.Card, error) {
	if _, err := d.BurnCard(); err != nil {
		return card.Invalid, err
	}
	return d.DealCard()
}

// DealRiver burns one card and deals the river.
func (d *Deck) DealRiver() (card.Card, error) {
	if _, err := d.BurnCard(); err != nil {
		return card.Invalid, err
	}
	return d.DealCard()
}

// Remaining reports how many cards are still in the deck.
func (d *Deck) Remaining() int { return len(d.cards) }

// Status returns the deck's pile sizes and shuffle audit trail.
func (d *Deck) Status() DeckStatus {
	return DeckStatus{
		Remaining:  len(d.cards),
		Dealt:      len(d.dealt),
		Burned:     len(d.burned),
		Seed:       d.seed,
		ShuffledAt: d.shuffledAt,
	}
}
