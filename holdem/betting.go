package holdem

import "fmt"

// ValidationResult says whether an action is legal right now and, for raises,
// the legal amount bounds.
type ValidationResult struct {
	Valid     bool
	Reason    string
	MinAmount int64
	MaxAmount int64
}

func validationOK() ValidationResult {
	return ValidationResult{Valid: true}
}

func validationFail(format string, args ...any) ValidationResult {
	return ValidationResult{Reason: fmt.Sprintf(format, args...)}
}

// BettingResult is the outcome of executing a validated action.
type BettingResult struct {
	Success       bool
	Message       string
	ActualAmount  int64
	AllIn         bool
	NewCurrentBet int64
}

// BettingEngine validates and executes betting actions. It mutates only the
// acting player; table-level consequences (reopening action, advancing the
// street) belong to the game engine.
type BettingEngine struct{}

// ValidateAction checks action legality against the player's state and the
// bet to match. It never mutates anything.
func (e BettingEngine) ValidateAction(p *Player, action PlayerAction, amount, currentBet, bigBlind int64) ValidationResult {
	if p == nil {
		return validationFail("no player")
	}
	if !p.Active || p.Folded {
		return validationFail("player %d is not in the hand", p.ID)
	}
	if p.AllIn {
		return validationFail("player %d is already all-in", p.ID)
	}

	switch action {
	case ActionFold:
		return validationOK()

	case ActionCheck:
		if p.BetAmount < currentBet {
			return validationFail("cannot check facing a bet of %d", currentBet)
		}
		return validationOK()

	case ActionCall:
		toCall := currentBet - p.BetAmount
		if toCall <= 0 {
			return validationFail("nothing to call")
		}
		return validationOK()

	case ActionRaise:
		min := e.MinRaise(currentBet, bigBlind)
		max := p.Chips + p.BetAmount
		if max <= currentBet {
			return ValidationResult{
				Reason:    "not enough chips to raise, go all-in instead",
				MinAmount: min,
				MaxAmount: max,
			}
		}
		if amount < min {
			return ValidationResult{
				Reason:    fmt.Sprintf("raise must be at least %d", min),
				MinAmount: min,
				MaxAmount: max,
			}
		}
		if amount > max {
			return ValidationResult{
				Reason:    fmt.Sprintf("raise of %d exceeds stack, maximum is %d", amount, max),
				MinAmount: min,
				MaxAmount: max,
			}
		}
		return ValidationResult{Valid: true, MinAmount: min, MaxAmount: max}

	case ActionAllIn:
		if p.Chips <= 0 {
			return validationFail("player %d has no chips", p.ID)
		}
		return validationOK()

	default:
		return validationFail("unknown action %q", action)
	}
}

// ExecuteAction applies a validated action to the player and reports the new
// bet level. Callers must validate first; executing an invalid action returns
// a failed result without mutating the player.
func (e BettingEngine) ExecuteAction(p *Player, action PlayerAction, amount, currentBet, bigBlind int64) BettingResult {
	if v := e.ValidateAction(p, action, amount, currentBet, bigBlind); !v.Valid {
		return BettingResult{Message: v.Reason, NewCurrentBet: currentBet}
	}

	switch action {
	case ActionFold:
		p.Fold()
		return BettingResult{
			Success:       true,
			Message:       fmt.Sprintf("%s folds", p.Name),
			NewCurrentBet: currentBet,
		}

	case ActionCheck:
		p.Acted = true
		return BettingResult{
			Success:       true,
			Message:       fmt.Sprintf("%s checks", p.Name),
			NewCurrentBet: currentBet,
		}

	case ActionCall:
		toCall := currentBet - p.BetAmount
		paid := p.Bet(toCall)
		msg := fmt.Sprintf("%s calls %d", p.Name, paid)
		if p.AllIn {
			msg = fmt.Sprintf("%s calls %d and is all-in", p.Name, paid)
		}
		return BettingResult{
			Success:       true,
			Message:       msg,
			ActualAmount:  paid,
			AllIn:         p.AllIn,
			NewCurrentBet: currentBet,
		}

	case ActionRaise:
		paid := p.Bet(amount - p.BetAmount)
		newBet := p.BetAmount
		msg := fmt.Sprintf("%s raises to %d", p.Name, newBet)
		if p.AllIn {
			msg = fmt.Sprintf("%s raises all-in to %d", p.Name, newBet)
		}
		return BettingResult{
			Success:       true,
			Message:       msg,
			ActualAmount:  paid,
			AllIn:         p.AllIn,
			NewCurrentBet: newBet,
		}

	case ActionAllIn:
		paid := p.Bet(p.Chips)
		newBet := currentBet
		if p.BetAmount > currentBet {
			newBet = p.BetAmount
		}
		return BettingResult{
			Success:       true,
			Message:       fmt.Sprintf("%s is all-in for %d", p.Name, p.BetAmount),
			ActualAmount:  paid,
			AllIn:         true,
			NewCurrentBet: newBet,
		}
	}

	return BettingResult{Message: "unreachable", NewCurrentBet: currentBet}
}

// MinRaise is the lowest legal raise-to amount. A short all-in may still push
// the bet above currentBet without meeting this.
func (BettingEngine) MinRaise(currentBet, bigBlind int64) int64 {
	return currentBet + bigBlind
}

// IsBettingRoundComplete reports whether every player still able to act has
// acted and matched the current bet.
//
// Pre-flop, when everyone merely limps to the big blind, the big blind still
// holds the option: the round is not complete until that player has acted.
func (BettingEngine) IsBettingRoundComplete(players []*Player, currentBet int64, state GameState, bigBlindPos int, bigBlind int64) bool {
	active := 0
	for _, p := range players {
		if p.Active && !p.Folded {
			active++
		}
	}
	if active <= 1 {
		return true
	}

	for _, p := range players {
		if !p.CanAct() {
			continue
		}
		if !p.Acted {
			return false
		}
		if p.BetAmount < currentBet {
			return false
		}
	}

	if state == StatePreFlop && currentBet == bigBlind &&
		bigBlindPos >= 0 && bigBlindPos < len(players) {
		if bb := players[bigBlindPos]; bb.CanAct() && !bb.Acted {
			return false
		}
	}

	return true
}

// NextPlayerToAct scans clockwise from the seat after `from` for a player who
// can still act and has not acted this round. Returns -1 when nobody is left.
func (BettingEngine) NextPlayerToAct(players []*Player, from int) int {
	n := len(players)
	if n == 0 {
		return -1
	}
	for i := 1; i <= n; i++ {
		idx := (from + i) % n
		if p := players[idx]; p.CanAct() && !p.Acted {
			return idx
		}
	}
	return -1
}

// AvailableActions lists the actions the player could legally take right now.
func (e BettingEngine) AvailableActions(p *Player, currentBet, bigBlind int64) []PlayerAction {
	var actions []PlayerAction
	for _, a := range []PlayerAction{ActionFold, ActionCheck, ActionCall, ActionRaise, ActionAllIn} {
		amount := int64(0)
		if a == ActionRaise {
			amount = e.MinRaise(currentBet, bigBlind)
		}
		if e.ValidateAction(p, a, amount, currentBet, bigBlind).Valid {
			actions = append(actions, a)
		}
	}
	return actions
}
