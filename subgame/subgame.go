// Package subgame implements KLUSS (Knowledge-Limited Unfrozen Subgame
// Solving): constructing a fresh, bounded SubgameRoot for the current
// decision point out of a previous subgame's retained histories plus
// freshly sampled ones. Grounded in the teacher's parallel trainer setup
// code (sdk/solver/trainer.go's per-run tree construction) for overall
// shape, generalized to the trace-indexed, knowledge-pruned construction
// spec section 4.3 describes.
package subgame

import (
	"strconv"

	"github.com/lox/obscuro/game"
	"github.com/lox/obscuro/history"
	"github.com/lox/obscuro/policy"
	"github.com/lox/obscuro/resolver"
)

// Params holds the construction-time tunables from spec section 6's
// configuration table that apply to construct_subgame specifically.
type Params struct {
	KCover         int
	MinInfosetSize int
}

// Root is a SubgameRoot: an ordered set of ResolverGadgets plus the
// acting player's maxmargin policy over them.
type Root struct {
	Gadgets   []*resolver.Gadget
	Maxmargin *policy.Policy
	Acting    game.Player

	index *traceIndex
}

// GadgetFor returns the gadget covering opponent trace t, if any.
func (r *Root) GadgetFor(t game.Trace) (*resolver.Gadget, bool) {
	idx, ok := r.index.Lookup(t.Key())
	if !ok {
		return nil, false
	}
	return r.Gadgets[idx], true
}

// survivor pairs a retained history with the opponent trace it is grouped
// under, relative to a fixed acting player.
type survivor struct {
	node     *history.Node
	oppTrace game.Trace
}

// group is one opponent infoset's accumulated state across the KLUSS
// construction pipeline.
type group struct {
	key                 game.Trace
	members             []survivor
	infoExpectation     game.Reward
	giftValue           game.Reward
	reachBeforePopulate game.Probability
	alt                 game.Reward
	priorValue          game.Probability
	sampled             bool
}

func (g *group) prior() game.Probability { return g.priorValue }

// Construct builds a fresh SubgameRoot for the observation
// seed.TraceFor(acting), reusing whatever of prev's retained histories
// survive k-cover and sampling fresh ones via sampler until
// MinInfosetSize distinct opponent infosets are reached. prev may be nil
// (first call for this game). valueEstimate is the engine's current
// estimate of the subgame's value, used as the ceiling on freshly-sampled
// alternate values (spec step 5). Construct does not touch the engine's
// infoset map: every history it retains or samples was already expanded
// (and so already registered) by a prior expansion_step, or is a fresh
// Visited leaf that only gets registered once the engine expands it.
func Construct(
	prev *Root,
	seed game.Game,
	acting game.Player,
	dec game.Decoder,
	heuristic func(game.Game) game.Reward,
	sampler game.Sampler,
	valueEstimate game.Reward,
	params Params,
) *Root {
	observation := seed.TraceFor(acting)

	frontier := drain(prev)
	frontier = append(frontier, history.Visit(seed.State(), 1, dec, heuristic))

	final := kCover(frontier, acting, observation, dec, params.KCover)
	survivors := toSurvivors(final, dec, acting)
	normalizeReach(survivors)

	groups, order := groupSurvivors(survivors)
	for _, g := range order {
		evaluateGroup(g, acting)
	}

	populate(groups, &order, sampler, observation, acting, heuristic, valueEstimate, params.MinInfosetSize, dec)

	assignPriors(order)

	gadgets := make([]*resolver.Gadget, len(order))
	keys := make([]string, len(order))
	for i, g := range order {
		children := make([]*history.Node, len(g.members))
		heuristics := make([]game.Reward, len(g.members))
		for j, m := range g.members {
			children[j] = m.node
			heuristics[j] = m.node.Payoff()
		}
		gadgets[i] = resolver.NewGadget(g.key, children, heuristics, acting, g.alt, g.prior())
		keys[i] = g.key.Key()
	}

	maxmargin := buildMaxmargin(gadgets, acting)

	idx, err := buildTraceIndex(keys)
	if err != nil {
		panic("subgame: failed to build trace index: " + err.Error())
	}

	return &Root{Gadgets: gadgets, Maxmargin: maxmargin, Acting: acting, index: idx}
}

func drain(prev *Root) []*history.Node {
	if prev == nil {
		return nil
	}
	var out []*history.Node
	for _, g := range prev.Gadgets {
		out = append(out, g.Children...)
	}
	return out
}

// traceRelation classifies how a node's trace relates to the current
// round's search set.
type traceRelation int

const (
	traceIncomparable traceRelation = iota
	traceAncestor
	traceEqual
)

func classifyTrace(trace game.Trace, searchTraces []game.Trace) traceRelation {
	for _, s := range searchTraces {
		if trace.Key() == s.Key() {
			return traceEqual
		}
	}
	for _, s := range searchTraces {
		if trace.LessEq(s) || s.LessEq(trace) {
			return traceAncestor
		}
	}
	return traceIncomparable
}

// kCover runs k rounds of alternating-perspective knowledge pruning,
// returning the final surviving frontier (spec section 4.3 step 2).
func kCover(frontier []*history.Node, me game.Player, observation game.Trace, dec game.Decoder, rounds int) []*history.Node {
	searchTraces := []game.Trace{observation}
	currentPlayer := me

	for round := 0; round < rounds; round++ {
		var recordedTraces []game.Trace
		var next []*history.Node

		for _, n := range frontier {
			switch n.Kind() {
			case history.KindTerminal, history.KindVisited:
				next = append(next, n)
			case history.KindExpanded:
				trace := n.Trace(dec, currentPlayer)
				switch classifyTrace(trace, searchTraces) {
				case traceEqual:
					next = append(next, n)
					recordedTraces = append(recordedTraces, n.VillainTrace(currentPlayer))
				case traceAncestor:
					next = append(next, n.Children()...)
				case traceIncomparable:
					// pruned: not within this round's knowledge cover.
				}
			}
		}

		frontier = next
		if len(recordedTraces) > 0 {
			searchTraces = recordedTraces
		}
		currentPlayer = currentPlayer.Other()
	}

	return frontier
}

// toSurvivors assigns each surviving node its opponent trace, always
// relative to the fixed acting player me (not the alternating perspective
// kCover used internally to refine its search set). Node.Trace already
// handles all three kinds (decoding Visited states on demand), so no
// kind-switch is needed here.
func toSurvivors(frontier []*history.Node, dec game.Decoder, me game.Player) []survivor {
	out := make([]survivor, len(frontier))
	for i, n := range frontier {
		out[i] = survivor{node: n, oppTrace: n.Trace(dec, me.Other())}
	}
	return out
}

func normalizeReach(survivors []survivor) {
	total := 0.0
	for _, s := range survivors {
		total += s.node.NetReachProb()
	}
	for _, s := range survivors {
		s.node.RenormalizeReach(total)
	}
}

func groupSurvivors(survivors []survivor) (map[string]*group, []*group) {
	index := make(map[string]*group)
	var order []*group
	for _, s := range survivors {
		key := s.oppTrace.Key()
		g, ok := index[key]
		if !ok {
			g = &group{key: s.oppTrace}
			index[key] = g
			order = append(order, g)
		}
		g.members = append(g.members, s)
	}
	return index, order
}

// giftValue recursively sums the opponent's already-accumulated positive
// advantage along the path under node, per spec section 4.3 step 4.
func giftValue(node *history.Node, me game.Player) game.Reward {
	if node.Kind() != history.KindExpanded {
		return 0
	}
	current := node.Payoff()
	total := 0.0
	if node.PlayerTag() == me.Other() {
		for _, child := range node.Children() {
			if diff := child.Payoff() - current; diff > 0 {
				total += diff
			}
			total += giftValue(child, me)
		}
		return total
	}
	for _, child := range node.Children() {
		total += giftValue(child, me)
	}
	return total
}

func evaluateGroup(g *group, me game.Player) {
	totalReach := 0.0
	weighted := 0.0
	for _, m := range g.members {
		r := m.node.NetReachProb()
		totalReach += r
		weighted += r * m.node.Payoff()
	}
	if totalReach > 0 {
		g.infoExpectation = weighted / totalReach
	}
	g.reachBeforePopulate = totalReach

	gift := 0.0
	for _, m := range g.members {
		gift += giftValue(m.node, me)
	}
	g.giftValue = gift
	g.alt = g.infoExpectation - g.giftValue
}

// populate samples additional opponent infosets via the external sampler
// until len(order) reaches minInfosetSize or the sampler is exhausted
// (spec section 4.3 step 5).
func populate(
	groups map[string]*group,
	order *[]*group,
	sampler game.Sampler,
	observation game.Trace,
	acting game.Player,
	heuristic func(game.Game) game.Reward,
	valueEstimate game.Reward,
	minInfosetSize int,
	dec game.Decoder,
) {
	if sampler == nil || len(*order) >= minInfosetSize {
		return
	}

	for sampled := range sampler(observation) {
		if len(*order) >= minInfosetSize {
			return
		}
		_, opp := sampled.Identifier()
		key := opp.Key()
		g, ok := groups[key]
		if !ok {
			h := heuristic(sampled)
			alt := h
			if valueEstimate < alt {
				alt = valueEstimate
			}
			g = &group{key: opp, alt: alt, sampled: true}
			groups[key] = g
			*order = append(*order, g)
		}
		node := history.Visit(sampled.State(), 0, dec, heuristic)
		g.members = append(g.members, survivor{node: node, oppTrace: opp})
	}
}

// assignPriors computes alpha(J) for every group: spec section 4.3 step 6.
func assignPriors(order []*group) {
	m := float64(len(order))
	sumY := 0.0
	for _, g := range order {
		sumY += g.reachBeforePopulate
	}
	for _, g := range order {
		belief := 0.0
		if sumY > 0 {
			belief = g.reachBeforePopulate / sumY
		}
		g.priorValue = 0.5 * (1/m + belief)
	}
}

func buildMaxmargin(gadgets []*resolver.Gadget, acting game.Player) *policy.Policy {
	pairs := make([]policy.ActionReward, len(gadgets))
	for i, g := range gadgets {
		pairs[i] = policy.ActionReward{Action: gadgetIndex(i), Reward: game.Align(g.Alt, acting)}
	}
	return policy.FromRewards(pairs, acting)
}

// gadgetIndex is the maxmargin policy's action identifier for gadget i.
type gadgetIndex int

func (a gadgetIndex) Key() string { return strconv.Itoa(int(a)) }
