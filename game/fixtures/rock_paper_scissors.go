package fixtures

import "github.com/lox/obscuro/game"

// Throw is a Rock-Paper-Scissors move.
type Throw int8

const (
	Rock Throw = iota
	Paper
	Scissors
)

func (t Throw) Key() string {
	switch t {
	case Rock:
		return "R"
	case Paper:
		return "P"
	default:
		return "S"
	}
}

// beats reports whether a beats b under standard RPS rules.
func (t Throw) beats(other Throw) bool {
	return (t == Rock && other == Scissors) ||
		(t == Paper && other == Rock) ||
		(t == Scissors && other == Paper)
}

// RockPaperScissors is the three-action simultaneous-move sibling of
// MatchingPennies: P1 throws first into a state P2 cannot observe, so P2's
// trace is constant regardless of P1's throw.
type RockPaperScissors struct {
	p1, p2 *Throw
}

// NewRockPaperScissors returns the initial (P1 to move) state.
func NewRockPaperScissors() *RockPaperScissors { return &RockPaperScissors{} }

func (g *RockPaperScissors) ActivePlayer() game.Player {
	if g.p1 == nil {
		return game.PlayerOne
	}
	return game.PlayerTwo
}

func (g *RockPaperScissors) AvailableActions() []game.Action {
	return []game.Action{Rock, Paper, Scissors}
}

func (g *RockPaperScissors) Play(a game.Action) game.Game {
	throw := a.(Throw)
	next := *g
	if g.p1 == nil {
		next.p1 = &throw
	} else {
		next.p2 = &throw
	}
	return &next
}

func (g *RockPaperScissors) IsOver() bool { return g.p1 != nil && g.p2 != nil }

func (g *RockPaperScissors) Evaluate() game.Reward {
	if !g.IsOver() {
		panic("fixtures: Evaluate called before both sides have moved")
	}
	switch {
	case *g.p1 == *g.p2:
		return 0
	case g.p1.beats(*g.p2):
		return 1
	default:
		return -1
	}
}

func (g *RockPaperScissors) Identifier() (mine, opponent game.Trace) {
	return g.TraceFor(g.ActivePlayer()), g.TraceFor(g.ActivePlayer().Other())
}

func (g *RockPaperScissors) TraceFor(p game.Player) game.Trace {
	if p == game.PlayerOne {
		return PrefixTrace("RPS:P1")
	}
	return PrefixTrace("RPS:P2")
}

func (g *RockPaperScissors) State() game.State { return g }

// DecodeRockPaperScissors is the game.Decoder for RockPaperScissors states.
func DecodeRockPaperScissors(s game.State) game.Game { return s.(*RockPaperScissors) }

// HeuristicRockPaperScissors mirrors HeuristicMatchingPennies: exact at
// terminals, uninformative (0) everywhere else.
func HeuristicRockPaperScissors(g game.Game) game.Reward {
	rps := g.(*RockPaperScissors)
	if rps.IsOver() {
		return rps.Evaluate()
	}
	return 0
}
