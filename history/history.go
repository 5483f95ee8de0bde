// Package history implements the game-tree node used by the subgame and
// engine packages: a tagged sum type over Terminal, Visited (reached but
// not yet expanded) and Expanded (decision node with a live Info and
// materialized children). Modeled on the tagged-state pattern used
// throughout the teacher's internal/game package, generalized from poker
// table states to the opaque game.State the rest of this module treats as
// a black box.
package history

import (
	"fmt"

	"github.com/lox/obscuro/game"
	"github.com/lox/obscuro/infoset"
	"github.com/lox/obscuro/policy"
)

// Kind tags which of the three shapes a Node currently holds.
type Kind int8

const (
	KindTerminal Kind = iota
	KindVisited
	KindExpanded
)

func (k Kind) String() string {
	switch k {
	case KindTerminal:
		return "Terminal"
	case KindVisited:
		return "Visited"
	case KindExpanded:
		return "Expanded"
	default:
		return fmt.Sprintf("Kind(%d)", int8(k))
	}
}

// Node is one position in the constructed subgame tree. Exactly one of the
// field groups below is meaningful, selected by kind.
type Node struct {
	kind Kind

	reach game.Probability

	// Terminal
	payoff game.Reward

	// Visited
	state game.State

	// Expanded
	player   game.Player
	info     *infoset.Info
	children []*Node

	// Cached on both Terminal and Expanded at Expand time (both players'
	// traces, not just the mover's), so k-cover can compare either
	// player's view of a history without needing to re-decode a cleared
	// Visited state.
	p1Trace game.Trace
	p2Trace game.Trace
}

// NewTerminal wraps a settled payoff (from P1's perspective) reached with
// the given net probability.
func NewTerminal(payoff game.Reward, reach game.Probability) *Node {
	return &Node{kind: KindTerminal, payoff: payoff, reach: reach}
}

// NewVisited wraps a reached-but-not-yet-expanded state together with its
// heuristic payoff (from P1's perspective), computed once up front per
// spec section 4.2 ("computes payoff = game.evaluate(state)"). Visit is
// usually more convenient — it computes payoff for you from a Decoder and
// heuristic.
func NewVisited(state game.State, reach game.Probability, payoff game.Reward) *Node {
	return &Node{kind: KindVisited, state: state, reach: reach, payoff: payoff}
}

// Visit decodes state and evaluates it via heuristic to build a Visited
// node in one step.
func Visit(state game.State, reach game.Probability, dec game.Decoder, heuristic func(game.Game) game.Reward) *Node {
	return NewVisited(state, reach, heuristic(dec(state)))
}

// Kind reports which shape this Node currently holds.
func (n *Node) Kind() Kind { return n.kind }

// NetReachProb returns the probability mass with which this node is
// reached under the current joint strategy.
func (n *Node) NetReachProb() game.Probability { return n.reach }

// SetReach overwrites the node's net reach probability. The engine's CFR
// sweep does not call it: it carries reach in its own per-call vector.
func (n *Node) SetReach(reach game.Probability) { n.reach = reach }

// RenormalizeReach divides the node's reach probability by total, guarding
// against divide-by-zero (a node with zero accumulated reach stays at
// zero). Used after k-cover survivor collection, where survivor reach
// masses are accumulated unnormalized and must sum to 1 across all
// survivors.
func (n *Node) RenormalizeReach(total game.Probability) {
	if total <= 0 {
		return
	}
	n.reach /= total
}

// Payoff returns this node's value from P1's perspective: the stored
// heuristic value for Terminal and Visited, or the reach-weighted
// expectation over children for an Expanded node.
func (n *Node) Payoff() game.Reward {
	switch n.kind {
	case KindTerminal, KindVisited:
		return n.payoff
	case KindExpanded:
		inst := n.info.Policy.InstPolicy()
		total := 0.0
		for i, child := range n.children {
			total += inst[i] * child.Payoff()
		}
		return total
	default:
		panic("history: unreachable node kind")
	}
}

// PlayerTag returns the acting player at an Expanded node without needing a
// Decoder. It panics on Terminal/Visited, where the player is not yet
// known without decoding the state.
func (n *Node) PlayerTag() game.Player {
	if n.kind != KindExpanded {
		panic("history: PlayerTag called on a non-Expanded node")
	}
	return n.player
}

// Player returns the acting player at this node, decoding the state via dec
// if necessary (Visited) or reading the cached tag (Expanded). It panics on
// Terminal, which has no acting player.
func (n *Node) Player(dec game.Decoder) game.Player {
	switch n.kind {
	case KindExpanded:
		return n.player
	case KindVisited:
		return dec(n.state).ActivePlayer()
	default:
		panic("history: Player called on a Terminal node")
	}
}

// Trace returns player's trace at this node, decoding via dec if
// necessary (Visited) or reading the cached value (Terminal, Expanded).
// player must be PlayerOne or PlayerTwo: both are cached at expansion
// time regardless of which player (or Chance) actually moves at this
// node, so the trace comparisons k-cover performs are well-defined even
// when walking through a chance event.
func (n *Node) Trace(dec game.Decoder, player game.Player) game.Trace {
	switch n.kind {
	case KindExpanded, KindTerminal:
		switch player {
		case game.PlayerOne:
			return n.p1Trace
		case game.PlayerTwo:
			return n.p2Trace
		default:
			panic("history: Trace only accepts PlayerOne or PlayerTwo")
		}
	case KindVisited:
		return dec(n.state).TraceFor(player)
	default:
		panic("history: unreachable node kind")
	}
}

// VillainTrace returns the trace of relativeTo's opponent at a Terminal or
// Expanded node — the key the subgame groups survivors by. A Visited node
// has no cached trace; decode it and call Trace directly instead.
func (n *Node) VillainTrace(relativeTo game.Player) game.Trace {
	if n.kind == KindVisited {
		panic("history: VillainTrace requires an expanded or terminal node")
	}
	return n.Trace(nil, relativeTo.Other())
}

// Info returns the Info backing an Expanded node.
func (n *Node) Info() *infoset.Info {
	if n.kind != KindExpanded {
		panic("history: Info called on a non-Expanded node")
	}
	return n.info
}

// Children returns an Expanded node's children, indexed in the same order
// as Info().Policy.Actions().
func (n *Node) Children() []*Node {
	if n.kind != KindExpanded {
		panic("history: Children called on a non-Expanded node")
	}
	return n.children
}

// ChildAt returns the i'th child of an Expanded node.
func (n *Node) ChildAt(i int) *Node {
	return n.Children()[i]
}

// Expand turns a Visited node into either a Terminal (if the decoded state
// is over) or an Expanded node: it decodes the state, seeds a Policy from
// heuristic-evaluated one-ply lookahead rewards (as spec section 4.2
// describes), registers (or reuses) the resulting Info in m, and builds one
// Visited child per action. It panics if called on a non-Visited node.
func (n *Node) Expand(m infoset.Map, dec game.Decoder, heuristic func(game.Game) game.Reward) {
	if n.kind != KindVisited {
		panic("history: Expand called on a non-Visited node")
	}

	g := dec(n.state)
	p1Trace := g.TraceFor(game.PlayerOne)
	p2Trace := g.TraceFor(game.PlayerTwo)

	if g.IsOver() {
		n.kind = KindTerminal
		n.payoff = g.Evaluate()
		n.p1Trace = p1Trace
		n.p2Trace = p2Trace
		n.state = nil
		return
	}

	player := g.ActivePlayer()
	actions := g.AvailableActions()
	pairs := make([]policy.ActionReward, len(actions))
	children := make([]*Node, len(actions))
	for i, a := range actions {
		next := g.Play(a)
		nextPayoff := heuristic(next)
		pairs[i] = policy.ActionReward{Action: a, Reward: game.Align(nextPayoff, player)}
		children[i] = NewVisited(next.State(), 0, nextPayoff)
	}

	mine, _ := g.Identifier()
	info := m.GetOrCreate(mine, player, func() *policy.Policy {
		return policy.FromRewards(pairs, player)
	})

	n.kind = KindExpanded
	n.player = player
	n.info = info
	n.children = children
	n.p1Trace = p1Trace
	n.p2Trace = p2Trace
	n.state = nil
}
