package fixtures

import (
	"fmt"
	"iter"
	"strings"

	"github.com/lox/obscuro/game"
)

// KuhnRank is one of Kuhn poker's three cards.
type KuhnRank int8

const (
	KuhnJack KuhnRank = iota
	KuhnQueen
	KuhnKing
)

func (r KuhnRank) String() string {
	switch r {
	case KuhnJack:
		return "J"
	case KuhnQueen:
		return "Q"
	default:
		return "K"
	}
}

// kuhnDeal is the chance node's action: a full (P1, P2) deal out of the
// three-card deck. There are six equally likely ordered deals.
type kuhnDeal struct{ p1, p2 KuhnRank }

func (d kuhnDeal) Key() string { return d.p1.String() + d.p2.String() }

var kuhnDeals = func() []game.Action {
	var out []game.Action
	for _, p1 := range [3]KuhnRank{KuhnJack, KuhnQueen, KuhnKing} {
		for _, p2 := range [3]KuhnRank{KuhnJack, KuhnQueen, KuhnKing} {
			if p1 != p2 {
				out = append(out, kuhnDeal{p1: p1, p2: p2})
			}
		}
	}
	return out
}()

// KuhnMove is a Kuhn poker action: Pass (check, if first to act this round,
// or fold, if facing a bet) or Bet (bet, if first to act this round, or
// call, if facing a bet). Kuhn poker's literature notation uses exactly
// these two always-available actions at every decision node.
type KuhnMove int8

const (
	KuhnPass KuhnMove = iota
	KuhnBet
)

func (m KuhnMove) Key() string {
	if m == KuhnPass {
		return "p"
	}
	return "b"
}

var kuhnMoves = []game.Action{KuhnPass, KuhnBet}

// terminal Kuhn histories, in the standard check/bet notation.
var kuhnTerminalHistories = map[string]bool{
	"pp": true, "pbp": true, "pbb": true, "bp": true, "bb": true,
}

// KuhnPoker is the textbook one-card-per-player poker game: both players
// ante 1, are dealt a private card from a 3-card deck, then play a single
// betting round of check/bet/call/fold. Modeled as a chance node (the deal)
// followed by a string-encoded betting history, the same shape as
// MatchingPennies' two-ply struct but with a chance-node prelude.
type KuhnPoker struct {
	dealt   bool
	p1, p2  KuhnRank
	history string
}

// NewKuhnPoker returns the initial chance node, before any card is dealt.
func NewKuhnPoker() *KuhnPoker { return &KuhnPoker{} }

func (g *KuhnPoker) ActivePlayer() game.Player {
	if !g.dealt {
		return game.PlayerChance
	}
	if len(g.history)%2 == 0 {
		return game.PlayerOne
	}
	return game.PlayerTwo
}

func (g *KuhnPoker) AvailableActions() []game.Action {
	if !g.dealt {
		return kuhnDeals
	}
	return kuhnMoves
}

func (g *KuhnPoker) Play(a game.Action) game.Game {
	next := *g
	if !g.dealt {
		deal := a.(kuhnDeal)
		next.dealt = true
		next.p1 = deal.p1
		next.p2 = deal.p2
		return &next
	}
	next.history = g.history + a.(KuhnMove).Key()
	return &next
}

func (g *KuhnPoker) IsOver() bool {
	return g.dealt && kuhnTerminalHistories[g.history]
}

// Evaluate returns the showdown/fold outcome from P1's perspective, scaled
// to [-1, 1] by dividing the raw chip result (at most a two-chip swing on
// top of each side's one-chip ante) by 2.
func (g *KuhnPoker) Evaluate() game.Reward {
	if !g.IsOver() {
		panic("fixtures: Evaluate called before a Kuhn hand is settled")
	}

	showdown := func(amount game.Reward) game.Reward {
		if g.p1 > g.p2 {
			return amount
		}
		return -amount
	}

	switch g.history {
	case "pp":
		return showdown(1) / 2
	case "bp":
		return 1.0 / 2
	case "bb":
		return showdown(2) / 2
	case "pbp":
		return -1.0 / 2
	case "pbb":
		return showdown(2) / 2
	default:
		panic("fixtures: unreachable Kuhn terminal history " + g.history)
	}
}

func (g *KuhnPoker) Identifier() (mine, opponent game.Trace) {
	switch g.ActivePlayer() {
	case game.PlayerOne:
		return g.TraceFor(game.PlayerOne), g.TraceFor(game.PlayerTwo)
	case game.PlayerTwo:
		return g.TraceFor(game.PlayerTwo), g.TraceFor(game.PlayerOne)
	default:
		// The chance node's own Info is never exercised by CFR traversal
		// (expansion_step never explores past index 0 at a chance node, per
		// DESIGN.md's engine package notes), so any stable, unique trace works.
		return PrefixTrace("Kuhn:chance"), PrefixTrace("Kuhn:chance")
	}
}

func (g *KuhnPoker) TraceFor(p game.Player) game.Trace {
	card := "?"
	if g.dealt {
		if p == game.PlayerOne {
			card = g.p1.String()
		} else {
			card = g.p2.String()
		}
	}
	if p == game.PlayerOne {
		return PrefixTrace(fmt.Sprintf("Kuhn:P1:%s:%s", card, g.history))
	}
	return PrefixTrace(fmt.Sprintf("Kuhn:P2:%s:%s", card, g.history))
}

func (g *KuhnPoker) State() game.State { return g }

// DecodeKuhnPoker is the game.Decoder for KuhnPoker states.
func DecodeKuhnPoker(s game.State) game.Game { return s.(*KuhnPoker) }

// HeuristicKuhnPoker is exact at terminals, uninformative (0) everywhere
// else, including the pre-deal chance node.
func HeuristicKuhnPoker(g game.Game) game.Reward {
	k := g.(*KuhnPoker)
	if k.IsOver() {
		return k.Evaluate()
	}
	return 0
}

func parseKuhnRank(s string) KuhnRank {
	switch s {
	case "J":
		return KuhnJack
	case "Q":
		return KuhnQueen
	default:
		return KuhnKing
	}
}

// SamplerKuhn is a game.Sampler covering KuhnPoker's hidden state: given the
// acting player's own observation (own card plus public betting history),
// it yields one alternate world per possible opponent card, letting KLUSS's
// populate step build one resolver gadget per opponent infoset instead of
// the single concrete deal the seed game happened to hold.
func SamplerKuhn(obs game.Trace) iter.Seq[game.Game] {
	parts := strings.SplitN(obs.Key(), ":", 4)
	if len(parts) != 4 {
		return func(func(game.Game) bool) {}
	}

	mine := parseKuhnRank(parts[2])
	history := parts[3]
	actingP1 := parts[1] == "P1"

	return func(yield func(game.Game) bool) {
		for _, opp := range [3]KuhnRank{KuhnJack, KuhnQueen, KuhnKing} {
			if opp == mine {
				continue
			}
			g := &KuhnPoker{dealt: true, history: history}
			if actingP1 {
				g.p1, g.p2 = mine, opp
			} else {
				g.p1, g.p2 = opp, mine
			}
			if !yield(g) {
				return
			}
		}
	}
}
