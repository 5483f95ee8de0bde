package fixtures

import (
	"fmt"
	"iter"
	"strings"

	"github.com/lox/obscuro/game"
)

// AKQRank is one of the AKQ toy's three cards (Ace highest).
type AKQRank int8

const (
	AKQQueen AKQRank = iota
	AKQKing
	AKQAce
)

func (r AKQRank) String() string {
	switch r {
	case AKQQueen:
		return "Q"
	case AKQKing:
		return "K"
	default:
		return "A"
	}
}

type akqDeal struct{ p1, p2 AKQRank }

func (d akqDeal) Key() string { return "AKQ:" + d.p1.String() + d.p2.String() }

var akqDeals = func() []game.Action {
	var out []game.Action
	for _, p1 := range [3]AKQRank{AKQQueen, AKQKing, AKQAce} {
		for _, p2 := range [3]AKQRank{AKQQueen, AKQKing, AKQAce} {
			if p1 != p2 {
				out = append(out, akqDeal{p1: p1, p2: p2})
			}
		}
	}
	return out
}()

// AKQMove mirrors KuhnMove: Pass (check/fold) or Bet (bet/call).
type AKQMove int8

const (
	AKQPass AKQMove = iota
	AKQBet
)

func (m AKQMove) Key() string {
	if m == AKQPass {
		return "p"
	}
	return "b"
}

var akqMoves = []game.Action{AKQPass, AKQBet}

var akqTerminalHistories = map[string]bool{
	"pp": true, "pbp": true, "pbb": true, "bp": true, "bb": true,
}

// AKQPoker is the other 3-card, one-chance-node toy named in spec section
// 8's seed scenarios, distinct from KuhnPoker by card labels (Ace/King/
// Queen) but structurally the same one-street ante/bet/call/fold game, so
// its closed-form Nash value is the same well-known result as standard
// Kuhn poker (game value -1/18 to P1 in ante units), scaled by this
// fixture's /2 reward normalization to -1/36.
type AKQPoker struct {
	dealt   bool
	p1, p2  AKQRank
	history string
}

// NewAKQPoker returns the initial chance node, before any card is dealt.
func NewAKQPoker() *AKQPoker { return &AKQPoker{} }

func (g *AKQPoker) ActivePlayer() game.Player {
	if !g.dealt {
		return game.PlayerChance
	}
	if len(g.history)%2 == 0 {
		return game.PlayerOne
	}
	return game.PlayerTwo
}

func (g *AKQPoker) AvailableActions() []game.Action {
	if !g.dealt {
		return akqDeals
	}
	return akqMoves
}

func (g *AKQPoker) Play(a game.Action) game.Game {
	next := *g
	if !g.dealt {
		deal := a.(akqDeal)
		next.dealt = true
		next.p1 = deal.p1
		next.p2 = deal.p2
		return &next
	}
	next.history = g.history + a.(AKQMove).Key()
	return &next
}

func (g *AKQPoker) IsOver() bool {
	return g.dealt && akqTerminalHistories[g.history]
}

// Evaluate mirrors KuhnPoker.Evaluate exactly (same betting structure,
// same /2 normalization), only the rank comparison differs in spelling.
func (g *AKQPoker) Evaluate() game.Reward {
	if !g.IsOver() {
		panic("fixtures: Evaluate called before an AKQ hand is settled")
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
		panic("fixtures: unreachable AKQ terminal history " + g.history)
	}
}

func (g *AKQPoker) Identifier() (mine, opponent game.Trace) {
	switch g.ActivePlayer() {
	case game.PlayerOne:
		return g.TraceFor(game.PlayerOne), g.TraceFor(game.PlayerTwo)
	case game.PlayerTwo:
		return g.TraceFor(game.PlayerTwo), g.TraceFor(game.PlayerOne)
	default:
		return PrefixTrace("AKQ:chance"), PrefixTrace("AKQ:chance")
	}
}

func (g *AKQPoker) TraceFor(p game.Player) game.Trace {
	card := "?"
	if g.dealt {
		if p == game.PlayerOne {
			card = g.p1.String()
		} else {
			card = g.p2.String()
		}
	}
	if p == game.PlayerOne {
		return PrefixTrace(fmt.Sprintf("AKQ:P1:%s:%s", card, g.history))
	}
	return PrefixTrace(fmt.Sprintf("AKQ:P2:%s:%s", card, g.history))
}

func (g *AKQPoker) State() game.State { return g }

// DecodeAKQPoker is the game.Decoder for AKQPoker states.
func DecodeAKQPoker(s game.State) game.Game { return s.(*AKQPoker) }

// HeuristicAKQPoker is exact at terminals, uninformative (0) everywhere
// else, including the pre-deal chance node.
func HeuristicAKQPoker(g game.Game) game.Reward {
	a := g.(*AKQPoker)
	if a.IsOver() {
		return a.Evaluate()
	}
	return 0
}

func parseAKQRank(s string) AKQRank {
	switch s {
	case "Q":
		return AKQQueen
	case "K":
		return AKQKing
	default:
		return AKQAce
	}
}

// SamplerAKQ mirrors SamplerKuhn: one alternate world per possible opponent
// card, consistent with the acting player's own observation.
func SamplerAKQ(obs game.Trace) iter.Seq[game.Game] {
	parts := strings.SplitN(obs.Key(), ":", 4)
	if len(parts) != 4 {
		return func(func(game.Game) bool) {}
	}

	mine := parseAKQRank(parts[2])
	history := parts[3]
	actingP1 := parts[1] == "P1"

	return func(yield func(game.Game) bool) {
		for _, opp := range [3]AKQRank{AKQQueen, AKQKing, AKQAce} {
			if opp == mine {
				continue
			}
			g := &AKQPoker{dealt: true, history: history}
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
