package holdem

import "testing"

func testPlayer(id int, chips int64) *Player {
	return NewPlayer(id, "p", chips)
}

func TestValidateAction_CheckFacingBet(t *testing.T) {
	var e BettingEngine
	p := testPlayer(1, 1000)

	if v := e.ValidateAction(p, ActionCheck, 0, 100, 20); v.Valid {
		t.Fatalf("check into a bet must be invalid")
	}
	p.BetAmount = 100
	if v := e.ValidateAction(p, ActionCheck, 0, 100, 20); !v.Valid {
		t.Fatalf("check with a matched bet must be valid: %s", v.Reason)
	}
}

func TestValidateAction_CallWithNothingOwed(t *testing.T) {
	var e BettingEngine
	p := testPlayer(1, 1000)
	p.BetAmount = 100
	if v := e.ValidateAction(p, ActionCall, 0, 100, 20); v.Valid {
		t.Fatalf("call with nothing to call must be invalid")
	}
}

func TestValidateAction_RaiseBounds(t *testing.T) {
	var e BettingEngine
	p := testPlayer(1, 1000)

	v := e.ValidateAction(p, ActionRaise, 110, 100, 20)
	if v.Valid {
		t.Fatalf("raise below min must be invalid")
	}
	if v.MinAmount != 120 || v.MaxAmount != 1000 {
		t.Fatalf("bounds = %d/%d, want 120/1000", v.MinAmount, v.MaxAmount)
	}

	if v := e.ValidateAction(p, ActionRaise, 120, 100, 20); !v.Valid {
		t.Fatalf("min raise must be valid: %s", v.Reason)
	}
	if v := e.ValidateAction(p, ActionRaise, 1001, 100, 20); v.Valid {
		t.Fatalf("raise above stack must be invalid")
	}
}

func TestValidateAction_ShortStackCannotRaise(t *testing.T) {
	var e BettingEngine
	p := testPlayer(1, 80)

	if v := e.ValidateAction(p, ActionRaise, 120, 100, 20); v.Valid {
		t.Fatalf("stack below current bet cannot raise")
	}
	if v := e.ValidateAction(p, ActionAllIn, 0, 100, 20); !v.Valid {
		t.Fatalf("short stack must still be able to go all-in: %s", v.Reason)
	}
}

func TestValidateAction_OutOfHand(t *testing.T) {
	var e BettingEngine

	folded := testPlayer(1, 1000)
	folded.Fold()
	if v := e.ValidateAction(folded, ActionCheck, 0, 0, 20); v.Valid {
		t.Fatalf("folded player cannot act")
	}

	allIn := testPlayer(2, 1000)
	allIn.Bet(1000)
	if v := e.ValidateAction(allIn, ActionCall, 0, 2000, 20); v.Valid {
		t.Fatalf("all-in player cannot act")
	}
}

func TestExecuteAction_CallCommitsTheDifference(t *testing.T) {
	var e BettingEngine
	p := testPlayer(1, 1000)
	p.BetAmount = 20
	p.TotalBet = 20
	p.Chips = 980

	res := e.ExecuteAction(p, ActionCall, 0, 100, 20)
	if !res.Success {
		t.Fatalf("call failed: %s", res.Message)
	}
	if res.ActualAmount != 80 || p.BetAmount != 100 || p.Chips != 900 {
		t.Fatalf("call paid %d, bet %d, chips %d", res.ActualAmount, p.BetAmount, p.Chips)
	}
	if !p.Acted {
		t.Fatalf("caller must be marked acted")
	}
}

func TestExecuteAction_ShortCallIsAllIn(t *testing.T) {
	var e BettingEngine
	p := testPlayer(1, 50)

	res := e.ExecuteAction(p, ActionCall, 0, 100, 20)
	if !res.Success || !res.AllIn {
		t.Fatalf("short call should succeed as all-in: %+v", res)
	}
	if p.Chips != 0 || p.BetAmount != 50 {
		t.Fatalf("chips %d bet %d", p.Chips, p.BetAmount)
	}
	if res.NewCurrentBet != 100 {
		t.Fatalf("a short call must not move the bet, got %d", res.NewCurrentBet)
	}
}

func TestExecuteAction_RaiseMovesTheBet(t *testing.T) {
	var e BettingEngine
	p := testPlayer(1, 1000)

	res := e.ExecuteAction(p, ActionRaise, 300, 100, 20)
	if !res.Success {
		t.Fatalf("raise failed: %s", res.Message)
	}
	if res.NewCurrentBet != 300 || p.BetAmount != 300 || p.Chips != 700 {
		t.Fatalf("newBet %d bet %d chips %d", res.NewCurrentBet, p.BetAmount, p.Chips)
	}
}

func TestExecuteAction_AllInAboveBetMovesTheBet(t *testing.T) {
	var e BettingEngine
	p := testPlayer(1, 500)

	res := e.ExecuteAction(p, ActionAllIn, 0, 100, 20)
	if !res.Success || !res.AllIn {
		t.Fatalf("all-in failed: %+v", res)
	}
	if res.NewCurrentBet != 500 {
		t.Fatalf("all-in above the bet must move it, got %d", res.NewCurrentBet)
	}

	short := testPlayer(2, 60)
	res = e.ExecuteAction(short, ActionAllIn, 0, 100, 20)
	if !res.Success || res.NewCurrentBet != 100 {
		t.Fatalf("short all-in must leave the bet, got %+v", res)
	}
}

func TestExecuteAction_InvalidActionDoesNotMutate(t *testing.T) {
	var e BettingEngine
	p := testPlayer(1, 1000)

	res := e.ExecuteAction(p, ActionRaise, 50, 100, 20)
	if res.Success {
		t.Fatalf("undersized raise must fail")
	}
	if p.Chips != 1000 || p.BetAmount != 0 || p.Acted {
		t.Fatalf("failed action mutated the player: %+v", p)
	}
}

func roundPlayers(chips ...int64) []*Player {
	out := make([]*Player, len(chips))
	for i, c := range chips {
		out[i] = NewPlayer(i+1, "p", c)
	}
	return out
}

func TestIsBettingRoundComplete_BigBlindOption(t *testing.T) {
	var e BettingEngine
	players := roundPlayers(1000, 1000, 1000)
	bb := players[2]

	// Everyone has limped to the big blind; the big blind has not acted.
	for _, p := range players {
		p.BetAmount = 20
		p.Acted = true
	}
	bb.Acted = false

	if e.IsBettingRoundComplete(players, 20, StatePreFlop, 2, 20) {
		t.Fatalf("round must stay open until the big blind acts")
	}

	bb.Acted = true
	if !e.IsBettingRoundComplete(players, 20, StatePreFlop, 2, 20) {
		t.Fatalf("round complete once the big blind has acted")
	}
}

func TestIsBettingRoundComplete_NoOptionAfterRaise(t *testing.T) {
	var e BettingEngine
	players := roundPlayers(1000, 1000, 1000)

	// A raise to 60 has been called around; the big blind already called.
	for _, p := range players {
		p.BetAmount = 60
		p.Acted = true
	}
	if !e.IsBettingRoundComplete(players, 60, StatePreFlop, 2, 20) {
		t.Fatalf("no option once the bet was raised")
	}
}

func TestIsBettingRoundComplete_UnmatchedBet(t *testing.T) {
	var e BettingEngine
	players := roundPlayers(1000, 1000)
	players[0].BetAmount = 100
	players[0].Acted = true
	players[1].BetAmount = 40
	players[1].Acted = true

	if e.IsBettingRoundComplete(players, 100, StateFlop, -1, 20) {
		t.Fatalf("round incomplete while a bet is unmatched")
	}
}

func TestIsBettingRoundComplete_SingleActivePlayer(t *testing.T) {
	var e BettingEngine
	players := roundPlayers(1000, 1000)
	players[1].Fold()

	if !e.IsBettingRoundComplete(players, 0, StateFlop, -1, 20) {
		t.Fatalf("round complete with one player left")
	}
}

func TestNextPlayerToAct_SkipsFoldedAndAllIn(t *testing.T) {
	var e BettingEngine
	players := roundPlayers(1000, 1000, 1000, 1000)
	players[1].Fold()
	players[2].Bet(1000)

	if got := e.NextPlayerToAct(players, 0); got != 3 {
		t.Fatalf("next = %d, want 3", got)
	}

	players[3].Acted = true
	if got := e.NextPlayerToAct(players, 3); got != 0 {
		t.Fatalf("next = %d, want 0 (wraps around)", got)
	}
}

func TestAvailableActions(t *testing.T) {
	var e BettingEngine
	p := testPlayer(1, 1000)

	got := e.AvailableActions(p, 100, 20)
	want := map[PlayerAction]bool{
		ActionFold: true, ActionCall: true, ActionRaise: true, ActionAllIn: true,
	}
	if len(got) != len(want) {
		t.Fatalf("actions = %v", got)
	}
	for _, a := range got {
		if !want[a] {
			t.Fatalf("unexpected action %v", a)
		}
	}
}
