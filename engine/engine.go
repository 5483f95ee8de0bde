// Package engine implements the Obscuro orchestrator: construct_subgame,
// expansion_step, solve_step, study_position and make_move from spec
// section 4.4-4.6. Engine's own StudyPosition wires these together in
// single-threaded mode's prescribed order (section 5); ConstructSubgame,
// ExpansionStep and SolveStep are exported separately so package parallel
// can drive the same algorithm from its own worker goroutines under its
// own locking instead. Grounded in the teacher's sdk/solver/trainer.go
// Trainer, generalized from poker-specific blueprint training to the
// game-agnostic construct/expand/solve loop.
package engine

import (
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/lox/obscuro/game"
	"github.com/lox/obscuro/history"
	"github.com/lox/obscuro/infoset"
	"github.com/lox/obscuro/internal/randutil"
	"github.com/lox/obscuro/policy"
	"github.com/lox/obscuro/resolver"
	"github.com/lox/obscuro/subgame"
)

// Config collects the tunables from spec section 6's configuration table
// that govern one Engine's search.
type Config struct {
	SolveTime             time.Duration
	MinInfosetSize        int
	KCover                int
	ExploreConstant       float64
	CFRSweepsPerExpansion int
}

// DefaultConfig mirrors the defaults spec section 6 documents.
func DefaultConfig() Config {
	return Config{
		SolveTime:             5 * time.Second,
		MinInfosetSize:        256,
		KCover:                3,
		ExploreConstant:       1.4,
		CFRSweepsPerExpansion: 10,
	}
}

// Engine owns the infoset map, the current subgame root, a heuristic
// evaluator, and the global CFR update counter (spec section 2's package
// inventory). One Engine serves one game; callers run multiple Engines for
// multiple concurrent games.
//
// The infoset map is injected rather than always built in-house so the
// parallel facade (package parallel) can hand this same Engine an
// infoset.ShardedMap and drive ExpansionStep/SolveStep concurrently from
// its own worker goroutines; t is an atomic counter for the same reason —
// spec section 5's parallel mode has multiple solver goroutines bumping
// the global update counter with no other serialization between them.
type Engine struct {
	infosets  infoset.Map
	dec       game.Decoder
	heuristic func(game.Game) game.Reward
	sampler   game.Sampler
	cfg       Config
	clock     quartz.Clock
	log       zerolog.Logger
	rng       *rand.Rand

	t atomic.Int64

	root          *subgame.Root
	valueEstimate game.Reward

	hasStudied    bool
	studiedFor    game.Trace
	studiedPlayer game.Player
}

// New builds an Engine over infosets. sampler may be nil for games small
// enough that k-cover alone always reaches MinInfosetSize (e.g. Matching
// Pennies). Pass infoset.NewMap() for single-threaded use, or
// infoset.NewShardedMap() when the engine will be driven concurrently by
// package parallel. seed determines the expansion-sampling draws;
// spec section 8's purified-action property holds regardless of which
// seed is passed, so callers are free to vary it (e.g. per process, per
// test run) without changing observed behavior after enough iterations.
func New(infosets infoset.Map, dec game.Decoder, heuristic func(game.Game) game.Reward, sampler game.Sampler, cfg Config, seed int64, clock quartz.Clock, log zerolog.Logger) *Engine {
	return &Engine{
		infosets:  infosets,
		dec:       dec,
		heuristic: heuristic,
		sampler:   sampler,
		cfg:       cfg,
		clock:     clock,
		log:       log,
		rng:       randutil.New(seed),
	}
}

// Size reports how many distinct infosets have been registered so far.
func (e *Engine) Size() int { return e.infosets.Size() }

// Infosets returns the engine's infoset registry, so callers (and the
// parallel facade) can look up the purified policy at an observation
// without reaching into engine internals.
func (e *Engine) Infosets() infoset.Map { return e.infosets }

// ConstructSubgame is construct_subgame(o, player): builds a fresh
// subgame.Root for seed, draining whatever of the previous root's retained
// histories survive k-cover. Exported so the parallel facade can run it
// once under its own tree lock before spinning up worker goroutines.
func (e *Engine) ConstructSubgame(seed game.Game, player game.Player) {
	o := seed.TraceFor(player)
	e.root = subgame.Construct(e.root, seed, player, e.dec, e.heuristic, e.sampler, e.valueEstimate, subgame.Params{
		KCover:         e.cfg.KCover,
		MinInfosetSize: e.cfg.MinInfosetSize,
	})

	event := e.log.Debug().Str("observation", o.Key()).Int("gadgets", len(e.root.Gadgets))
	if gadget, ok := e.root.GadgetFor(seed.TraceFor(player.Other())); ok {
		event = event.Str("true_opponent_trace", gadget.Sampling.Trace().Key())
	} else {
		event = event.Bool("true_opponent_trace_uncovered", true)
	}
	event.Msg("construct_subgame complete")
}

// ExpansionStep runs one call of expansion_step for exploringPlayer (spec
// section 4.4). Exported so the parallel facade's expansion goroutines can
// drive it directly under their own tree lock.
func (e *Engine) ExpansionStep(exploringPlayer game.Player) { e.expansionStep(exploringPlayer) }

// SolveStep runs one full bi-level CFR+ sweep plus the blend pass (spec
// section 4.5). Exported so the parallel facade's solver goroutines can
// drive it directly under their own tree lock.
func (e *Engine) SolveStep() { e.solveStep() }

// StudyPosition is study_position(o, player): constructs a fresh subgame
// rooted at seed (reusing whatever of the previous subgame's retained
// histories survive k-cover) and alternates expansion_step/solve_step
// until the configured solve-time budget elapses. It is idempotent:
// calling it again for the same (seed.TraceFor(player), player) observation
// is a no-op, so a subsequent MakeMove reuses the already-solved subgame
// rather than re-solving from scratch (spec section 6).
func (e *Engine) StudyPosition(seed game.Game, player game.Player) {
	o := seed.TraceFor(player)
	if e.hasStudied && e.studiedPlayer == player && e.studiedFor != nil && e.studiedFor.Key() == o.Key() {
		return
	}

	start := e.clock.Now()
	e.ConstructSubgame(seed, player)

	deadline := start.Add(e.cfg.SolveTime)
	for {
		e.expansionStep(game.PlayerOne)
		e.expansionStep(game.PlayerTwo)
		for i := 0; i < e.cfg.CFRSweepsPerExpansion; i++ {
			e.solveStep()
		}
		if !e.clock.Now().Before(deadline) {
			break
		}
	}

	if info, ok := e.infosets.Get(o); ok {
		e.valueEstimate = info.Policy.PExploit(info.Policy.Exploit())
	}

	e.studiedFor = o
	e.studiedPlayer = player
	e.hasStudied = true
	e.log.Info().Str("observation", o.Key()).Int64("updates", e.t.Load()).Msg("study_position complete")
}

// MakeMove is make_move(o, player): studies the position if it isn't
// already cached, then returns purified()'s choice at the resulting
// infoset, translated back into a concrete game.Action.
func (e *Engine) MakeMove(seed game.Game, player game.Player) game.Action {
	e.StudyPosition(seed, player)

	o := seed.TraceFor(player)
	info, ok := e.infosets.Get(o)
	if !ok {
		// No expansion ever touched this observation: a zero-budget study
		// or a game that terminates without offering a real decision.
		// Fall back to the first legal action.
		actions := seed.AvailableActions()
		if len(actions) == 0 {
			panic("engine: make_move called on a state with no legal actions")
		}
		return actions[0]
	}

	idx := info.Policy.Purified()
	return info.Policy.Actions()[idx]
}

// expansionStep is one call of 4.4's per-call protocol: sample a starting
// history via the maxmargin and gadget sampling policies, descend via
// PUCT/exploit alternation, then expand the leaf reached.
func (e *Engine) expansionStep(exploringPlayer game.Player) {
	if e.root == nil || len(e.root.Gadgets) == 0 {
		return
	}

	gIdx := weightedDraw(e.rng, e.root.Maxmargin.InstPolicy())
	gadget := e.root.Gadgets[gIdx]
	node := gadget.SampleChild(func(weights []float64) int { return weightedDraw(e.rng, weights) })

	for node.Kind() == history.KindExpanded {
		info := node.Info()
		var idx int
		if node.PlayerTag() == exploringPlayer {
			idx = info.Policy.Explore(e.cfg.ExploreConstant)
		} else {
			idx = info.Policy.Exploit()
		}
		info.Policy.AddExpansion(idx)
		node = node.ChildAt(idx)
	}

	if node.Kind() == history.KindVisited {
		node.Expand(e.infosets, e.dec, e.heuristic)
	}
}

// solveStep is one call of solve_step: a full bi-level CFR+ sweep (4.5)
// over the current subgame, followed by the blend pass.
func (e *Engine) solveStep() {
	for _, optimizing := range [2]game.Player{game.PlayerOne, game.PlayerTwo} {
		t := int(e.t.Add(1))

		touched := make(map[*policy.Policy]struct{})
		maxmarginInst := e.root.Maxmargin.InstPolicy()

		for j, gadget := range e.root.Gadgets {
			rJ := maxmarginInst[j]
			pEnter := gadget.PEnter()
			samplingInst := gadget.Sampling.Policy.InstPolicy()

			enterValue := 0.0
			for h, child := range gadget.Children {
				sH := samplingInst[h]

				var base reachVec
				base[e.root.Acting] = 1
				base[e.root.Acting.Other()] = rJ * pEnter
				base[game.PlayerChance] = sH

				enterValue += sH * e.utility(child, optimizing, base, touched)
			}

			alt := game.Align(gadget.Alt, optimizing)
			gadget.Resolver.AddCounterfactual(int(resolver.Enter), enterValue, rJ)
			gadget.Resolver.AddCounterfactual(int(resolver.Skip), alt, rJ)
			gadget.Resolver.Update(t)

			resolverValue := (1-pEnter)*alt + pEnter*enterValue
			e.root.Maxmargin.AddCounterfactual(j, resolverValue, 1)
		}

		e.root.Maxmargin.Update(t)
		for p := range touched {
			p.Update(t)
		}
	}

	e.blend()
}

// utility recursively computes optimizing's aligned value of node under
// reach map r, accumulating counterfactuals onto every Info where
// optimizing is the mover (spec section 4.5 step 2's inner recursion).
// touched collects every Policy read along the way, so solveStep can apply
// the CFR+ update to each of them exactly once after the full sweep.
func (e *Engine) utility(node *history.Node, optimizing game.Player, r reachVec, touched map[*policy.Policy]struct{}) game.Reward {
	switch node.Kind() {
	case history.KindTerminal, history.KindVisited:
		return game.Align(node.Payoff(), optimizing)
	case history.KindExpanded:
		info := node.Info()
		touched[info.Policy] = struct{}{}

		pi := info.Policy.InstPolicy()
		mover := node.PlayerTag()
		cfReach := r.excluding(optimizing)

		value := 0.0
		for i, child := range node.Children() {
			childValue := e.utility(child, optimizing, r.with(mover, pi[i]), touched)
			value += pi[i] * childValue
			if mover == optimizing {
				info.Policy.AddCounterfactual(i, childValue, cfReach)
			}
		}
		return value
	default:
		panic("engine: unreachable node kind")
	}
}

// blend performs spec section 4.5's post-sweep blend pass. The spec's prose
// leaves "p_resolve" and "p_maxmargin" unnamed; see DESIGN.md for the
// resolution this implements: p_resolve is gadget j's own PEnter(), and
// p_maxmargin is the maxmargin policy's own current share of gadget j.
func (e *Engine) blend() {
	inst := e.root.Maxmargin.InstPolicy()

	pMax := 0.0
	for _, gadget := range e.root.Gadgets {
		if v := gadget.PEnter() * gadget.Prior; v > pMax {
			pMax = v
		}
	}

	for j, gadget := range e.root.Gadgets {
		blended := pMax*gadget.Prior*gadget.PEnter() + (1-pMax)*inst[j]
		e.root.Maxmargin.AddCounterfactual(j, blended, 1)
	}

	e.root.Maxmargin.Update(int(e.t.Add(1)))
}

// reachVec holds one reach-probability entry per player, indexed directly
// by game.Player (PlayerOne=0, PlayerTwo=1, PlayerChance=2).
type reachVec [3]float64

func (r reachVec) with(p game.Player, mult float64) reachVec {
	r[p] *= mult
	return r
}

func (r reachVec) excluding(p game.Player) float64 {
	total := 1.0
	for i, v := range r {
		if game.Player(i) != p {
			total *= v
		}
	}
	return total
}

// weightedDraw samples an index in [0, len(weights)) proportionally to
// weights, falling back to index 0 if the weights sum to zero or less.
func weightedDraw(rng *rand.Rand, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return 0
	}
	r := rng.Float64() * total
	cum := 0.0
	for i, w := range weights {
		cum += w
		if r < cum {
			return i
		}
	}
	return len(weights) - 1
}
