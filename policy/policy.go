// Package policy implements the per-infoset strategy object: cumulative
// regrets, the time-averaged strategy, PUCT visit counts, and the CFR+
// update with linear weighting. It is the per-node analogue of the
// teacher's sharded RegretTable entries (sdk/solver/regret.go in
// lox-pokerforbots), generalised from a poker-specific InfoSetKey to the
// opaque game.Trace the rest of this module uses.
package policy

import (
	"math"
	"sync"

	"github.com/lox/obscuro/game"
)

// ActionReward pairs an action with the reward used to seed the policy's
// initial regrets.
type ActionReward struct {
	Action game.Action
	Reward game.Reward
}

// Policy holds the current and time-averaged strategy at one infoset.
type Policy struct {
	mu sync.RWMutex

	player  game.Player
	actions []game.Action

	accRegrets      []float64
	counterfactuals []float64
	reachMass       float64
	avgStrategy     []float64
	expansions      []int

	firstUpdate int
	lastSet     int
	everUpdated bool

	lastPurified int
	stableSince  int
}

// FromRewards constructs a Policy seeded from one reward per action. Regrets
// are initialized to the positive part of each reward shifted by the
// minimum reward across the set, so that equal rewards yield all-zero
// regrets (and therefore an exactly-uniform instantaneous policy, via the
// same zero-sum fallback InstPolicy uses elsewhere).
func FromRewards(pairs []ActionReward, player game.Player) *Policy {
	if len(pairs) == 0 {
		panic("policy: FromRewards requires a non-empty action list")
	}

	n := len(pairs)
	actions := make([]game.Action, n)
	accRegrets := make([]float64, n)

	minReward := pairs[0].Reward
	for _, pr := range pairs[1:] {
		if pr.Reward < minReward {
			minReward = pr.Reward
		}
	}
	for i, pr := range pairs {
		actions[i] = pr.Action
		if v := pr.Reward - minReward; v > 0 {
			accRegrets[i] = v
		}
	}

	return &Policy{
		player:          player,
		actions:         actions,
		accRegrets:      accRegrets,
		counterfactuals: make([]float64, n),
		avgStrategy:     make([]float64, n),
		expansions:      make([]int, n),
		lastPurified:    -1,
	}
}

// Player returns the infoset's owner (Chance for a sampling policy).
func (p *Policy) Player() game.Player { return p.player }

// Actions returns the ordered action list this policy was built over.
func (p *Policy) Actions() []game.Action {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]game.Action, len(p.actions))
	copy(out, p.actions)
	return out
}

// NumActions returns the number of actions tracked.
func (p *Policy) NumActions() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.actions)
}

// InstPolicy returns the current instantaneous strategy: uniform for a
// Chance-owned policy, otherwise the positive part of acc_regrets
// renormalized to sum to 1 (uniform on the support if all regrets are
// non-positive).
func (p *Policy) InstPolicy() []float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.instPolicyLocked()
}

func (p *Policy) instPolicyLocked() []float64 {
	n := len(p.actions)
	out := make([]float64, n)
	if p.player == game.PlayerChance {
		uniform(out)
		return out
	}
	total := 0.0
	for i, r := range p.accRegrets {
		if r > 0 {
			out[i] = r
			total += r
		}
	}
	if total <= 0 {
		uniform(out)
		return out
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

func uniform(out []float64) {
	v := 1.0 / float64(len(out))
	for i := range out {
		out[i] = v
	}
}

// AddCounterfactual accumulates value*reach into the running counterfactual
// total for action index i.
func (p *Policy) AddCounterfactual(i int, value, reach float64) {
	p.mu.Lock()
	p.counterfactuals[i] += value * reach
	p.reachMass += reach
	p.mu.Unlock()
}

// AddExpansion records one PUCT visit to action index i.
func (p *Policy) AddExpansion(i int) {
	p.mu.Lock()
	p.expansions[i]++
	p.mu.Unlock()
}

// Update performs one CFR+ sweep with linear weighting over the
// counterfactuals accumulated since the previous call. It is a no-op for a
// Chance-owned policy, and a no-op if called twice with the same t.
func (p *Policy) Update(t int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player == game.PlayerChance || t == p.lastSet {
		return
	}
	if !p.everUpdated {
		p.firstUpdate = t - 1
		p.everUpdated = true
	}
	p.lastSet = t

	n := t - p.firstUpdate
	if n < 200 {
		n = 200
	}
	lambda := float64(n) / float64(n+1)

	inst := p.instPolicyLocked()

	multiplier := 0.0
	if na := len(p.actions); na > 0 {
		multiplier = p.reachMass / float64(na)
	}

	baseline := 0.0
	if multiplier > 0 {
		for i := range p.counterfactuals {
			baseline += inst[i] * p.counterfactuals[i] / multiplier
		}
	}

	for i := range p.accRegrets {
		perActionValue := 0.0
		if multiplier > 0 {
			perActionValue = p.counterfactuals[i] / multiplier
		}
		updated := lambda*p.accRegrets[i] + multiplier*(perActionValue-baseline)
		if updated < 0 {
			updated = 0
		}
		p.accRegrets[i] = updated
	}

	for i := range p.avgStrategy {
		p.avgStrategy[i] += inst[i]
	}

	for i := range p.counterfactuals {
		p.counterfactuals[i] = 0
	}
	p.reachMass = 0
}

// PExploit returns the instantaneous probability assigned to action index i.
func (p *Policy) PExploit(i int) float64 {
	return p.InstPolicy()[i]
}

// Exploit returns argmax of the instantaneous strategy.
func (p *Policy) Exploit() int {
	inst := p.InstPolicy()
	return argmax(inst)
}

// Purified returns argmax of the time-averaged strategy, the accepted
// purification rule for two-player zero-sum play. It does not consult the
// stability tracking reported by Stable — see the Open Question recorded
// in DESIGN.md.
func (p *Policy) Purified() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	best := argmax(p.avgStrategy)
	if best == p.lastPurified {
		p.stableSince++
	} else {
		p.stableSince = 0
		p.lastPurified = best
	}
	return best
}

// Stable reports whether Purified's result has been unchanged for at least
// k consecutive calls. Recorded but never consulted by Purified itself.
func (p *Policy) Stable(k int) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stableSince >= k
}

// Explore selects an action via PUCT: argmax of inst_policy[i] plus an
// exploration bonus proportional to sqrt(ln(1+N) / (1+expansions[i])).
func (p *Policy) Explore(c float64) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	inst := p.instPolicyLocked()
	total := 0
	for _, n := range p.expansions {
		total += n
	}
	logTerm := math.Log(1 + float64(total))

	best, bestScore := 0, math.Inf(-1)
	for i := range inst {
		bonus := c * math.Sqrt(logTerm/float64(1+p.expansions[i]))
		score := inst[i] + bonus
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	return best
}

func argmax(xs []float64) int {
	best, bestScore := 0, math.Inf(-1)
	for i, x := range xs {
		if x > bestScore {
			bestScore = x
			best = i
		}
	}
	return best
}
