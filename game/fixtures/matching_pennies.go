package fixtures

import "github.com/lox/obscuro/game"

// Side is a Matching Pennies move.
type Side int8

const (
	Heads Side = iota
	Tails
)

func (s Side) Key() string {
	if s == Heads {
		return "H"
	}
	return "T"
}

// MatchingPennies is the textbook simultaneous-move zero-sum game: P1 wins
// a unit if both sides match, loses a unit otherwise. Implemented as P1
// moving first into a state P2 cannot observe (P2's trace never includes
// P1's move), which is how simultaneous moves are encoded in a sequential
// Game interface.
type MatchingPennies struct {
	p1, p2 *Side
}

// NewMatchingPennies returns the initial (P1 to move) state.
func NewMatchingPennies() *MatchingPennies { return &MatchingPennies{} }

func (g *MatchingPennies) ActivePlayer() game.Player {
	if g.p1 == nil {
		return game.PlayerOne
	}
	return game.PlayerTwo
}

func (g *MatchingPennies) AvailableActions() []game.Action {
	return []game.Action{Heads, Tails}
}

func (g *MatchingPennies) Play(a game.Action) game.Game {
	side := a.(Side)
	next := *g
	if g.p1 == nil {
		next.p1 = &side
	} else {
		next.p2 = &side
	}
	return &next
}

func (g *MatchingPennies) IsOver() bool { return g.p1 != nil && g.p2 != nil }

func (g *MatchingPennies) Evaluate() game.Reward {
	if !g.IsOver() {
		panic("fixtures: Evaluate called before both sides have moved")
	}
	if *g.p1 == *g.p2 {
		return 1
	}
	return -1
}

func (g *MatchingPennies) Identifier() (mine, opponent game.Trace) {
	return g.TraceFor(g.ActivePlayer()), g.TraceFor(g.ActivePlayer().Other())
}

func (g *MatchingPennies) TraceFor(p game.Player) game.Trace {
	// P2 never observes P1's move before acting, so P2's trace is constant
	// regardless of g.p1.
	if p == game.PlayerOne {
		return PrefixTrace("P1")
	}
	return PrefixTrace("P2")
}

func (g *MatchingPennies) State() game.State { return g }

// DecodeMatchingPennies is the game.Decoder for MatchingPennies states.
func DecodeMatchingPennies(s game.State) game.Game { return s.(*MatchingPennies) }

// HeuristicMatchingPennies is a trivial heuristic: terminal states evaluate
// exactly, non-terminal states are scored at 0 (no informative signal until
// both sides have moved).
func HeuristicMatchingPennies(g game.Game) game.Reward {
	mp := g.(*MatchingPennies)
	if mp.IsOver() {
		return mp.Evaluate()
	}
	return 0
}
