// Package resolver implements the safe-resolving gadget: a two-action
// ENTER/SKIP policy attached to each opponent information set retained in
// a constructed subgame, plus the sampling policy used to pick among the
// member histories that share that opponent trace. Grounded in the
// teacher's per-infoset policy pattern (sdk/solver/regret.go), narrowed to
// exactly the two fixed actions the gadget needs.
package resolver

import (
	"strconv"

	"github.com/lox/obscuro/game"
	"github.com/lox/obscuro/history"
	"github.com/lox/obscuro/infoset"
	"github.com/lox/obscuro/policy"
)

// Action is the resolver gadget's fixed two-action set.
type Action int8

const (
	Enter Action = iota
	Skip
)

func (a Action) Key() string {
	if a == Enter {
		return "ENTER"
	}
	return "SKIP"
}

// Gadget is a ResolverGadget: the histories consistent with one retained
// opponent information set J, a Chance-owned policy sampling among them,
// an opponent-owned ENTER/SKIP policy, the alternate value v_alt(J), and
// the blend prior alpha(J). Alt is stored from P1's perspective, the same
// convention history.Node.Payoff uses; callers align it to whichever
// player's perspective they need at the point of use (the CFR+ sweep
// aligns it to the optimizing player, same as every other utility it
// touches).
type Gadget struct {
	Children []*history.Node
	Sampling *infoset.Info
	Resolver *policy.Policy
	Alt      game.Reward
	Prior    game.Probability
}

// NewGadget builds a ResolverGadget for opponent trace J. heuristics holds
// one heuristic payoff per entry in children, in the same order, used to
// seed the sampling policy. actingPlayer is the player currently solving
// for a move; per the spec's resolved Open Question, the resolver policy
// is owned by actingPlayer.Other() — the opponent choosing whether to
// enter the resolved subgame or settle for alt.
func NewGadget(
	trace game.Trace,
	children []*history.Node,
	heuristics []game.Reward,
	actingPlayer game.Player,
	alt game.Reward,
	prior game.Probability,
) *Gadget {
	if len(children) == 0 {
		panic("resolver: NewGadget requires at least one member history")
	}
	if len(children) != len(heuristics) {
		panic("resolver: children and heuristics must be the same length")
	}

	samplingPairs := make([]policy.ActionReward, len(children))
	for i := range children {
		samplingPairs[i] = policy.ActionReward{Action: memberAction(i), Reward: heuristics[i]}
	}
	samplingPolicy := policy.FromRewards(samplingPairs, game.PlayerChance)
	sampling := infoset.New(trace, game.PlayerChance, samplingPolicy)

	owner := actingPlayer.Other()
	resolverPolicy := policy.FromRewards([]policy.ActionReward{
		{Action: Enter, Reward: alt},
		{Action: Skip, Reward: alt},
	}, owner)

	return &Gadget{
		Children: children,
		Sampling: sampling,
		Resolver: resolverPolicy,
		Alt:      alt,
		Prior:    prior,
	}
}

// PEnter returns the resolver policy's current ENTER probability.
func (g *Gadget) PEnter() game.Probability { return g.Resolver.PExploit(int(Enter)) }

// PSkip returns the resolver policy's current SKIP probability.
func (g *Gadget) PSkip() game.Probability { return g.Resolver.PExploit(int(Skip)) }

// SampleChild draws a member history index from the sampling policy's
// instantaneous distribution and returns the corresponding child.
func (g *Gadget) SampleChild(draw func(weights []float64) int) *history.Node {
	return g.Children[draw(g.Sampling.Policy.InstPolicy())]
}

// memberAction is the sampling policy's action identifier for the i'th
// member history; the sampling policy never needs any other action
// identity than "which index".
type memberAction int

func (a memberAction) Key() string { return strconv.Itoa(int(a)) }
