package holdem

import (
	"fmt"
	"sort"
	"strings"
)

// PlayerBetInfo is a player's total contribution to the hand, as consumed by
// pot construction. Folded players' chips stay in the pot but folding removes
// eligibility to win.
type PlayerBetInfo struct {
	PlayerID int
	Name     string
	TotalBet int64
	Folded   bool
	Seat     int
}

// Pot is one layer of the pot structure. Index 0 is the main pot; higher
// indexes are side pots. Winners and Winnings are filled in by settlement.
type Pot struct {
	Amount            int64 `json:"amount"`
	EligiblePlayerIDs []int `json:"eligible_player_ids"`
	Index             int   `json:"index"`

	Winners  []int         `json:"winners,omitempty"`
	Winnings map[int]int64 `json:"winnings,omitempty"`
	Settled  bool          `json:"settled"`
}

// Description names the pot for logs and summaries.
func (p *Pot) Description() string {
	if p.Index == 0 {
		return "main pot"
	}
	return fmt.Sprintf("side pot %d", p.Index)
}

// PotStructure is the full set of pots built from one hand's contributions.
type PotStructure struct {
	Pots          []*Pot        `json:"pots"`
	TotalAmount   int64         `json:"total_amount"`
	Contributions map[int]int64 `json:"contributions"`
}

// MainPot returns pot 0, or nil for an empty structure.
func (ps *PotStructure) MainPot() *Pot {
	if len(ps.Pots) == 0 {
		return nil
	}
	return ps.Pots[0]
}

// SidePots returns every pot past the main pot.
func (ps *PotStructure) SidePots() []*Pot {
	if len(ps.Pots) <= 1 {
		return nil
	}
	return ps.Pots[1:]
}

// SettlementResult is the outcome of settling a pot structure against hand
// ranks.
type SettlementResult struct {
	Pots             []*Pot        `json:"pots,omitempty"`
	PlayerWinnings   map[int]int64 `json:"player_winnings"`
	TotalDistributed int64         `json:"total_distributed"`
	Summary          string        `json:"summary"`
}

// Winning returns playerID's total across all pots.
func (r *SettlementResult) Winning(playerID int) int64 {
	if r == nil {
		return 0
	}
	return r.PlayerWinnings[playerID]
}

// PotManager builds and settles main/side pots. It is stateless; every hand
// gets a fresh structure.
type PotManager struct{}

// CreatePots slices the hand's contributions into main and side pots.
//
// Distinct non-zero bet totals, ascending, form the levels. Each level's pot
// holds (level - previousLevel) chips from every player whose total reaches
// the level, folded or not. Eligibility to win excludes folded players. The
// reconstructed total is validated against the sum of contributions; a
// mismatch is an InvariantViolation.
func (PotManager) CreatePots(bets []PlayerBetInfo) (*PotStructure, error) {
	valid := make([]PlayerBetInfo, 0, len(bets))
	var expectedTotal int64
	for _, b := range bets {
		expectedTotal += b.TotalBet
		if b.TotalBet > 0 {
			valid = append(valid, b)
		}
	}

	structure := &PotStructure{Contributions: make(map[int]int64, len(valid))}
	if len(valid) == 0 {
		return structure, nil
	}

	levels := betLevels(valid)

	var prev int64
	for i, level := range levels {
		slice := level - prev

		var contributors, eligible []int
		for _, b := range valid {
			if b.TotalBet >= level {
				contributors = append(contributors, b.PlayerID)
				if !b.Folded {
					eligible = append(eligible, b.PlayerID)
				}
			}
		}
		sort.Ints(eligible)

		pot := &Pot{
			Amount:            slice * int64(len(contributors)),
			EligiblePlayerIDs: eligible,
			Index:             i,
		}
		structure.Pots = append(structure.Pots, pot)
		structure.TotalAmount += pot.Amount
		for _, id := range contributors {
			structure.Contributions[id] += slice
		}

		prev = level
	}

	if structure.TotalAmount != expectedTotal {
		return nil, invariant("pot total %d does not match contributions %d",
			structure.TotalAmount, expectedTotal)
	}
	for _, b := range bets {
		if structure.Contributions[b.PlayerID] != b.TotalBet {
			return nil, invariant("player %d contribution %d does not match bet %d",
				b.PlayerID, structure.Contributions[b.PlayerID], b.TotalBet)
		}
	}

	return structure, nil
}

func betLevels(bets []PlayerBetInfo) []int64 {
	seen := make(map[int64]bool, len(bets))
	var levels []int64
	for _, b := range bets {
		if !seen[b.TotalBet] {
			seen[b.TotalBet] = true
			levels = append(levels, b.TotalBet)
		}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })
	return levels
}

// SettlePots awards each pot to the eligible players holding the best hand.
//
// Pots settle independently; winner sets can legitimately differ pot to pot.
// Ties split by integer division with the remainder handed out one chip at a
// time to winners in ascending player-ID order, so odd splits are
// deterministic. Pots with no eligible ranked player stay unsettled.
func (PotManager) SettlePots(structure *PotStructure, hands map[int]HandRank) (*SettlementResult, error) {
	if structure == nil {
		return nil, precondition("settle", "nil pot structure")
	}

	result := &SettlementResult{
		PlayerWinnings: make(map[int]int64),
	}
	var summary []string

	for _, pot := range structure.Pots {
		winners := potWinners(pot.EligiblePlayerIDs, hands)
		if len(winners) == 0 || pot.Amount <= 0 {
			continue
		}

		winnings := splitPot(pot.Amount, winners)

		pot.Winners = winners
		pot.Winnings = winnings
		pot.Settled = true
		result.Pots = append(result.Pots, pot)

		for id, amount := range winnings {
			result.PlayerWinnings[id] += amount
			result.TotalDistributed += amount
		}
		summary = append(summary, fmt.Sprintf("%s (%d) won by %s",
			pot.Description(), pot.Amount, joinPlayerIDs(winners)))
	}

	if len(summary) == 0 {
		result.Summary = "no pots to settle"
	} else {
		result.Summary = strings.Join(summary, "; ")
	}
	return result, nil
}

// potWinners picks the eligible players sharing the maximum hand rank.
// Players with no recorded hand (folded) never win.
func potWinners(eligible []int, hands map[int]HandRank) []int {
	var winners []int
	var best HandRank
	for _, id := range eligible {
		hand, ok := hands[id]
		if !ok {
			continue
		}
		switch {
		case len(winners) == 0 || hand.Beats(best):
			winners = []int{id}
			best = hand
		case hand.Compare(best) == 0:
			winners = append(winners, id)
		}
	}
	sort.Ints(winners)
	return winners
}

// splitPot divides amount between winners; the remainder goes one chip at a
// time to winners in ascending player-ID order.
func splitPot(amount int64, winners []int) map[int]int64 {
	winnings := make(map[int]int64, len(winners))
	base := amount / int64(len(winners))
	remainder := amount % int64(len(winners))

	for _, id := range winners {
		winnings[id] = base
	}
	for i := int64(0); i < remainder; i++ {
		winnings[winners[i]]++
	}
	return winnings
}

func joinPlayerIDs(ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("player %d", id))
	}
	return strings.Join(parts, ", ")
}
