package holdem

import (
	"sort"

	"clubpoker/card"
)

// EvaluateHand scores the best 5-card hand out of exactly 7 cards (two hole
// cards plus the full board). All C(7,5)=21 subsets are classified and the
// maximum by HandRank order wins.
func EvaluateHand(seven []card.Card) (HandRank, error) {
	if len(seven) != 7 {
		return HandRank{}, precondition("evaluate", "need exactly 7 cards, got %d", len(seven))
	}

	var best HandRank
	var found bool
	five := make([]card.Card, 5)

	for a := 0; a < 3; a++ {
		for b := a + 1; b < 4; b++ {
			for c := b + 1; c < 5; c++ {
				for d := c + 1; d < 6; d++ {
					for e := d + 1; e < 7; e++ {
						five[0], five[1], five[2], five[3], five[4] =
							seven[a], seven[b], seven[c], seven[d], seven[e]
						hr := evaluateFive(five)
						if !found || hr.Beats(best) {
							best = hr
							found = true
						}
					}
				}
			}
		}
	}
	return best, nil
}

// evaluateFive classifies exactly five cards. Classification order matters:
// the first matching category wins.
func evaluateFive(five []card.Card) HandRank {
	sorted := make([]card.Card, 5)
	copy(sorted, five)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Rank() > sorted[j].Rank()
	})

	counts := rankCounts(sorted)
	flush := isFlush(sorted)
	straightHigh, straight := straightHighCard(sorted)

	switch {
	case flush && straight:
		return HandRank{Type: StraightFlush, Kickers: []card.Rank{straightHigh}, BestFive: sorted}
	case counts.has(4):
		quad := counts.ranksWithCount(4)[0]
		kicker := counts.ranksWithCount(1)[0]
		return HandRank{Type: FourOfAKind, Kickers: []card.Rank{quad, kicker}, BestFive: sorted}
	case counts.has(3) && counts.has(2):
		trips := counts.ranksWithCount(3)[0]
		pair := counts.ranksWithCount(2)[0]
		return HandRank{Type: FullHouse, Kickers: []card.Rank{trips, pair}, BestFive: sorted}
	case flush:
		return HandRank{Type: Flush, Kickers: ranksDescending(sorted), BestFive: sorted}
	case straight:
		return HandRank{Type: Straight, Kickers: []card.Rank{straightHigh}, BestFive: sorted}
	case counts.has(3):
		trips := counts.ranksWithCount(3)[0]
		kickers := append([]card.Rank{trips}, counts.ranksWithCount(1)...)
		return HandRank{Type: ThreeOfAKind, Kickers: kickers, BestFive: sorted}
	case counts.pairCount() == 2:
		pairs := counts.ranksWithCount(2)
		kickers := append(pairs, counts.ranksWithCount(1)...)
		return HandRank{Type: TwoPair, Kickers: kickers, BestFive: sorted}
	case counts.has(2):
		pair := counts.ranksWithCount(2)[0]
		kickers := append([]card.Rank{pair}, counts.ranksWithCount(1)...)
		return HandRank{Type: OnePair, Kickers: kickers, BestFive: sorted}
	default:
		return HandRank{Type: HighCard, Kickers: ranksDescending(sorted), BestFive: sorted}
	}
}

type multiplicity map[card.Rank]int

func rankCounts(cards []card.Card) multiplicity {
	m := make(multiplicity, 5)
	for _, c := range cards {
		m[c.Rank()]++
	}
	return m
}

func (m multiplicity) has(n int) bool {
	for _, count := range m {
		if count == n {
			return true
		}
	}
	return false
}

func (m multiplicity) pairCount() int {
	pairs := 0
	for _, count := range m {
		if count == 2 {
			pairs++
		}
	}
	return pairs
}

// ranksWithCount returns the ranks appearing exactly count times, descending.
func (m multiplicity) ranksWithCount(count int) []card.Rank {
	var out []card.Rank
	for r, c := range m {
		if c == count {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] > out[j] })
	return out
}

func ranksDescending(sorted []card.Card) []card.Rank {
	out := make([]card.Rank, 0, len(sorted))
	for _, c := range sorted {
		out = append(out, c.Rank())
	}
	return out
}

func isFlush(cards []card.Card) bool {
	suit := cards[0].Suit()
	for _, c := range cards[1:] {
		if c.Suit() != suit {
			return false
		}
	}
	return true
}

// straightHighCard detects a five-card run. The wheel (A-2-3-4-5) counts as a
// straight whose comparison high card is the Five, not the Ace.
func straightHighCard(sorted []card.Card) (card.Rank, bool) {
	// sorted is descending by rank and may contain duplicates, which can
	// never form a straight.
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Rank() == sorted[i-1].Rank() {
			return 0, false
		}
	}

	// Wheel: A 5 4 3 2 in descending order.
	if sorted[0].Rank() == card.Ace &&
		sorted[1].Rank() == card.Five &&
		sorted[2].Rank() == card.Four &&
		sorted[3].Rank() == card.Three &&
		sorted[4].Rank() == card.Two {
		return card.Five, true
	}

	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].Rank().Value()-sorted[i].Rank().Value() != 1 {
			return 0, false
		}
	}
	return sorted[0].Rank(), true
}
