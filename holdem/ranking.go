package holdem

import (
	"fmt"
	"sort"
	"strings"

	"clubpoker/card"
)

// PlayerStanding is one player's line in the showdown ranking.
type PlayerStanding struct {
	Rank      int         `json:"rank"`
	PlayerID  int         `json:"player_id"`
	Name      string      `json:"name"`
	HoleCards []card.Card `json:"hole_cards"`
	Hand      HandRank    `json:"hand"`
	HandName  string      `json:"hand_name"`
	Winner    bool        `json:"winner"`
}

// GameRanking orders the players who reached showdown from strongest to
// weakest hand. Tied hands share a rank number; the next rank skips past the
// tie, so two players tied at 1 put the next player at 3.
type GameRanking struct {
	Standings []PlayerStanding `json:"standings"`
	Summary   string           `json:"summary"`
}

// RankShowdown builds the ranking for broadcast after a showdown. Only
// players with a recorded hand appear; folded players never show.
func RankShowdown(players []*Player, hands map[int]HandRank, settlement *SettlementResult) *GameRanking {
	var standings []PlayerStanding
	for _, p := range players {
		hand, ok := hands[p.ID]
		if !ok {
			continue
		}
		standings = append(standings, PlayerStanding{
			PlayerID:  p.ID,
			Name:      p.Name,
			HoleCards: append([]card.Card(nil), p.HoleCards...),
			Hand:      hand,
			HandName:  hand.Describe(),
			Winner:    settlement != nil && settlement.Winning(p.ID) > 0,
		})
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Hand.Beats(standings[j].Hand)
	})

	for i := range standings {
		if i > 0 && standings[i].Hand.Compare(standings[i-1].Hand) == 0 {
			standings[i].Rank = standings[i-1].Rank
		} else {
			standings[i].Rank = i + 1
		}
	}

	ranking := &GameRanking{Standings: standings}
	if len(standings) > 0 {
		var leaders []string
		for _, s := range standings {
			if s.Rank != 1 {
				break
			}
			leaders = append(leaders, s.Name)
		}
		ranking.Summary = fmt.Sprintf("%s with %s",
			strings.Join(leaders, " and "), standings[0].HandName)
	}
	return ranking
}

// Ranking returns the showdown ranking for the finished hand, or nil when the
// hand ended without a showdown.
func (g *GameEngine) Ranking() *GameRanking {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateFinished || g.potStructure == nil {
		return nil
	}

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
			continue
		}
		hands[p.ID] = rank
	}
	return RankShowdown(g.players, hands, g.settlement)
}
