// Package game defines the narrow interface the Obscuro core consumes from
// an external game implementation. No rules engine lives here: chess, Liar's
// Dice, Kuhn poker and the rest are collaborators that satisfy Game, Action,
// Trace and State and are plugged in by the caller.
package game

import (
	"fmt"
	"iter"
)

// Player is a tagged value identifying whose turn it is, or that a node is
// a chance event or a settled terminal.
type Player int8

const (
	PlayerOne Player = iota
	PlayerTwo
	PlayerChance
	PlayerTerminal
)

func (p Player) String() string {
	switch p {
	case PlayerOne:
		return "P1"
	case PlayerTwo:
		return "P2"
	case PlayerChance:
		return "Chance"
	case PlayerTerminal:
		return "Terminal"
	default:
		return fmt.Sprintf("Player(%d)", int8(p))
	}
}

// Other is an involution on {P1, P2}. It panics on Chance/Terminal, which
// have no "other side" — callers must only invoke it on a decision player.
func (p Player) Other() Player {
	switch p {
	case PlayerOne:
		return PlayerTwo
	case PlayerTwo:
		return PlayerOne
	default:
		panic("game: Other called on non-decision player " + p.String())
	}
}

// Reward, Probability and Counterfactual are all plain 64-bit floats; the
// names exist only to document intent at call sites.
type (
	Reward         = float64
	Probability    = float64
	Counterfactual = float64
)

// Align flips the sign of a reward stored from P1's perspective so it reads
// from p's perspective instead. Defined only for P1/P2.
func Align(r Reward, p Player) Reward {
	if p == PlayerTwo {
		return -r
	}
	return r
}

// Action is an opaque, game-supplied move identifier. Key must be stable and
// unique per distinct action so it can serve as an equality/hash surrogate;
// Policy keeps actions in the order the game returns them rather than
// re-sorting by Key.
type Action interface {
	Key() string
}

// Trace is the canonical identifier of an information set from one player's
// perspective. LessEq defines the "is a prefix/ancestor of" partial order
// used by k-cover: t.LessEq(u) holds when t is an ancestor of (or equal to)
// u in the observation sequence.
type Trace interface {
	Key() string
	LessEq(other Trace) bool
}

// State is an opaque, serializable snapshot sufficient to resume play via a
// Decoder. The core never inspects a State directly.
type State = any

// Decoder produces a playable Game from a State snapshot.
type Decoder func(State) Game

// Game is the live, playable instance the engine drives. Everything outside
// this interface — rules, hand evaluation, network encodings — belongs to
// the external collaborator that implements it.
type Game interface {
	// ActivePlayer returns the mover at this state. Only meaningful when
	// IsOver is false.
	ActivePlayer() Player
	// AvailableActions enumerates the legal actions at this state, in a
	// fixed, game-defined order.
	AvailableActions() []Action
	// Play returns the successor state reached by taking action a. It
	// must not mutate the receiver.
	Play(a Action) Game
	// IsOver reports whether this state is a terminal.
	IsOver() bool
	// Evaluate returns a heuristic value in [-1, 1] from P1's perspective.
	// Must always return; a game that cannot evaluate is a caller bug.
	Evaluate() Reward
	// Identifier returns both players' traces at this state.
	Identifier() (mine, opponent Trace)
	// TraceFor returns a specific player's trace at this state.
	TraceFor(p Player) Trace
	// State returns a snapshot sufficient to resume play via a Decoder.
	State() State
}

// Sampler produces games consistent with a given trace. The sequence may be
// infinite and may yield duplicate identifiers; the engine deduplicates via
// Identifier equality.
type Sampler func(Trace) iter.Seq[Game]
