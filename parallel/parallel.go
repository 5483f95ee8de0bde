// Package parallel is the thread-safe facade over engine.Engine described
// in spec section 5: N solver goroutines and 2 expansion goroutines (one
// per exploring player) racing a shared deadline, coordinated by a single
// coarse lock over the growing game tree. Grounded in the teacher's
// internal/evaluator.EstimateEquityParallel worker-pool pattern (errgroup
// plus a fixed worker count derived from runtime.NumCPU), adapted from a
// batch Monte Carlo fan-out to a long-lived, deadline-bounded CFR+ loop.
package parallel

import (
	"context"
	"runtime"
	"sync"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lox/obscuro/engine"
	"github.com/lox/obscuro/game"
	"github.com/lox/obscuro/infoset"
)

// Config extends engine.Config with the parallel facade's own tunable:
// how many concurrent solver goroutines to run alongside the two fixed
// expansion goroutines (one per player).
type Config struct {
	engine.Config
	SolverThreads int
}

// DefaultConfig mirrors engine.DefaultConfig, picking a solver thread
// count from the host's CPU count the way the teacher's
// EstimateEquityParallel sizes its worker pool (NumCPU, capped).
func DefaultConfig() Config {
	threads := runtime.NumCPU()
	if threads > 8 {
		threads = 8
	}
	if threads < 1 {
		threads = 1
	}
	return Config{Config: engine.DefaultConfig(), SolverThreads: threads}
}

// Engine drives a single engine.Engine from multiple goroutines under a
// shared sync.RWMutex: expansion goroutines (which graft new nodes onto
// the subgame tree) take the write lock, solver goroutines (which only
// read the tree's shape while updating per-node policies, themselves
// already internally synchronized) take the read lock. This mirrors spec
// section 5's parallel-mode resource policy: a process-wide RW-locked
// infoset registry (infoset.ShardedMap, injected into the core engine),
// a per-Info lock around each Policy (already internal to policy.Policy),
// and a coarse lock around the shared game tree.
type Engine struct {
	core *engine.Engine
	cfg  Config
	log  zerolog.Logger

	treeMu sync.RWMutex

	mu            sync.Mutex
	hasStudied    bool
	studiedFor    game.Trace
	studiedPlayer game.Player
}

// New builds a parallel Engine over a fresh infoset.ShardedMap. seed is
// threaded straight through to the underlying engine.Engine; as in
// single-threaded mode, spec section 8's purified-action property holds
// regardless of which seed callers pass.
func New(dec game.Decoder, heuristic func(game.Game) game.Reward, sampler game.Sampler, cfg Config, seed int64, clock quartz.Clock, log zerolog.Logger) *Engine {
	core := engine.New(infoset.NewShardedMap(), dec, heuristic, sampler, cfg.Config, seed, clock, log)
	return &Engine{core: core, cfg: cfg, log: log}
}

func (e *Engine) Size() int { return e.core.Size() }

// StudyPosition runs study_position under the worker pool described in
// spec section 5: ConstructSubgame happens once under the write lock, then
// SolverThreads solver goroutines and 2 expansion goroutines (one per
// player) run until ctx is cancelled or cfg.SolveTime elapses, whichever
// comes first. Idempotent for a repeated (observation, player) pair, same
// as engine.Engine.StudyPosition.
func (e *Engine) StudyPosition(ctx context.Context, seed game.Game, player game.Player) error {
	o := seed.TraceFor(player)

	e.mu.Lock()
	if e.hasStudied && e.studiedPlayer == player && e.studiedFor != nil && e.studiedFor.Key() == o.Key() {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	e.treeMu.Lock()
	e.core.ConstructSubgame(seed, player)
	e.treeMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.SolveTime)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	for _, exploring := range [2]game.Player{game.PlayerOne, game.PlayerTwo} {
		exploring := exploring
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				default:
				}
				e.treeMu.Lock()
				e.core.ExpansionStep(exploring)
				e.treeMu.Unlock()
			}
		})
	}

	threads := e.cfg.SolverThreads
	if threads < 1 {
		threads = 1
	}
	for i := 0; i < threads; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				default:
				}
				e.treeMu.RLock()
				e.core.SolveStep()
				e.treeMu.RUnlock()
			}
		})
	}

	g.Wait()

	e.mu.Lock()
	e.studiedFor = o
	e.studiedPlayer = player
	e.hasStudied = true
	e.mu.Unlock()

	e.log.Info().Str("observation", o.Key()).Int("infosets", e.core.Size()).Msg("parallel study_position complete")
	return nil
}

// MakeMove is make_move driven through the parallel facade: it studies the
// position (a no-op if already studied for this exact observation/player)
// then reads the purified action off the resulting infoset.
func (e *Engine) MakeMove(ctx context.Context, seed game.Game, player game.Player) (game.Action, error) {
	if err := e.StudyPosition(ctx, seed, player); err != nil {
		return nil, err
	}

	o := seed.TraceFor(player)
	e.treeMu.RLock()
	info, ok := e.core.Infosets().Get(o)
	e.treeMu.RUnlock()

	if !ok {
		actions := seed.AvailableActions()
		if len(actions) == 0 {
			panic("parallel: make_move called on a state with no legal actions")
		}
		return actions[0], nil
	}

	idx := info.Policy.Purified()
	return info.Policy.Actions()[idx], nil
}
