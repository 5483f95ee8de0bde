package fixtures

import (
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/lox/obscuro/game"
)

// liarsDieFaces is both dice's face count; game/fixtures keeps this at the
// textbook 1-die-each scale so the full game tree stays small enough to
// solve in a unit test.
const liarsDieFaces = 6

// liarsDeal is the chance node's action: one private die value per player.
type liarsDeal struct{ p1, p2 int8 }

func (d liarsDeal) Key() string { return fmt.Sprintf("die:%d-%d", d.p1, d.p2) }

var liarsDeals = func() []game.Action {
	var out []game.Action
	for p1 := int8(1); p1 <= liarsDieFaces; p1++ {
		for p2 := int8(1); p2 <= liarsDieFaces; p2++ {
			out = append(out, liarsDeal{p1: p1, p2: p2})
		}
	}
	return out
}()

// LiarsBid claims that, across both dice, at least quantity show face
// (with face 1 wild towards any non-1 claim, the "joker" in the joker
// variant). With two dice total, quantity never needs to exceed 2.
type LiarsBid struct{ Quantity, Face int8 }

func (b LiarsBid) Key() string { return fmt.Sprintf("bid:%dx%d", b.Quantity, b.Face) }

// rank orders bids for the "must strictly increase" rule: quantity first,
// then face. Spec is silent on the usual aces-wild doubling convention for
// comparing a 1s-bid against a same-quantity non-1s bid, so this fixture
// uses a plain lexicographic order instead of inventing that convention.
func (b LiarsBid) rank() int { return int(b.Quantity)*(liarsDieFaces+1) + int(b.Face) }

var liarsBids = func() []LiarsBid {
	var out []LiarsBid
	for q := int8(1); q <= 2; q++ {
		for f := int8(1); f <= liarsDieFaces; f++ {
			out = append(out, LiarsBid{Quantity: q, Face: f})
		}
	}
	return out
}()

// LiarsCall challenges the standing bid instead of raising it.
type LiarsCall struct{}

func (LiarsCall) Key() string { return "liar" }

// LiarsDice is the 1v1, one-die-each joker variant named in spec section 8's
// seed scenarios: both dice are private, players alternately raise a bid on
// how many dice (across both) show a given face — with face 1 wild towards
// any non-1 claim — or call Liar on the standing bid, which settles the
// hand by revealing both dice.
type LiarsDice struct {
	dealt        bool
	p1Die, p2Die int8
	toMove       game.Player
	lastBid      *LiarsBid
	lastBidder   game.Player
	called       bool
	caller       game.Player
	history      string
}

// NewLiarsDice returns the initial chance node, before either die is rolled.
func NewLiarsDice() *LiarsDice { return &LiarsDice{} }

func (g *LiarsDice) ActivePlayer() game.Player {
	if !g.dealt {
		return game.PlayerChance
	}
	return g.toMove
}

func (g *LiarsDice) AvailableActions() []game.Action {
	if !g.dealt {
		return liarsDeals
	}

	var actions []game.Action
	for _, b := range liarsBids {
		if g.lastBid == nil || b.rank() > g.lastBid.rank() {
			actions = append(actions, b)
		}
	}
	if g.lastBid != nil {
		actions = append(actions, LiarsCall{})
	}
	return actions
}

func (g *LiarsDice) Play(a game.Action) game.Game {
	next := *g

	if !g.dealt {
		deal := a.(liarsDeal)
		next.dealt = true
		next.p1Die = deal.p1
		next.p2Die = deal.p2
		next.toMove = game.PlayerOne
		return &next
	}

	switch v := a.(type) {
	case LiarsCall:
		next.called = true
		next.caller = g.toMove
		next.history = g.history + ",liar"
	case LiarsBid:
		bid := v
		next.lastBid = &bid
		next.lastBidder = g.toMove
		next.toMove = g.toMove.Other()
		next.history = g.history + "," + bid.Key()
	default:
		panic("fixtures: unrecognized Liar's Dice action")
	}
	return &next
}

func (g *LiarsDice) IsOver() bool { return g.dealt && g.called }

// Evaluate reveals both dice and counts the standing bid's face (1s wild
// towards any non-1 claim) to decide whether the bidder or the caller was
// telling the truth, returning ±1 from P1's perspective.
func (g *LiarsDice) Evaluate() game.Reward {
	if !g.IsOver() {
		panic("fixtures: Evaluate called before a Liar's Dice hand is settled")
	}

	count := 0
	for _, d := range [2]int8{g.p1Die, g.p2Die} {
		if d == g.lastBid.Face || (g.lastBid.Face != 1 && d == 1) {
			count++
		}
	}

	bidWasTrue := count >= int(g.lastBid.Quantity)
	winner := g.caller
	if bidWasTrue {
		winner = g.lastBidder
	}

	if winner == game.PlayerOne {
		return 1
	}
	return -1
}

func (g *LiarsDice) Identifier() (mine, opponent game.Trace) {
	switch g.ActivePlayer() {
	case game.PlayerOne:
		return g.TraceFor(game.PlayerOne), g.TraceFor(game.PlayerTwo)
	case game.PlayerTwo:
		return g.TraceFor(game.PlayerTwo), g.TraceFor(game.PlayerOne)
	default:
		return PrefixTrace("Liars:chance"), PrefixTrace("Liars:chance")
	}
}

func (g *LiarsDice) TraceFor(p game.Player) game.Trace {
	die := "?"
	if g.dealt {
		if p == game.PlayerOne {
			die = fmt.Sprintf("%d", g.p1Die)
		} else {
			die = fmt.Sprintf("%d", g.p2Die)
		}
	}
	if p == game.PlayerOne {
		return PrefixTrace(fmt.Sprintf("Liars:P1:%s:%s", die, g.history))
	}
	return PrefixTrace(fmt.Sprintf("Liars:P2:%s:%s", die, g.history))
}

func (g *LiarsDice) State() game.State { return g }

// DecodeLiarsDice is the game.Decoder for LiarsDice states.
func DecodeLiarsDice(s game.State) game.Game { return s.(*LiarsDice) }

// HeuristicLiarsDice is exact at terminals, uninformative (0) everywhere
// else, including the pre-deal chance node.
func HeuristicLiarsDice(g game.Game) game.Reward {
	l := g.(*LiarsDice)
	if l.IsOver() {
		return l.Evaluate()
	}
	return 0
}

// SamplerLiarsDice mirrors SamplerKuhn/SamplerAKQ: one alternate world per
// possible opponent die value, consistent with the acting player's own
// observation (own die plus the public bid history so far). Unlike the
// poker fixtures' cards, dice are independent draws, so no opponent value
// is excluded.
func SamplerLiarsDice(obs game.Trace) iter.Seq[game.Game] {
	parts := strings.SplitN(obs.Key(), ":", 4)
	if len(parts) != 4 {
		return func(func(game.Game) bool) {}
	}

	mineVal, err := strconv.Atoi(parts[2])
	if err != nil {
		return func(func(game.Game) bool) {}
	}
	mine := int8(mineVal)
	history := parts[3]
	actingP1 := parts[1] == "P1"

	var tokens []string
	for _, t := range strings.Split(history, ",") {
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	var lastBid *LiarsBid
	if len(tokens) > 0 {
		b := parseLiarsBidToken(tokens[len(tokens)-1])
		lastBid = &b
	}
	toMove := game.PlayerOne
	if len(tokens)%2 == 1 {
		toMove = game.PlayerTwo
	}

	return func(yield func(game.Game) bool) {
		for opp := int8(1); opp <= liarsDieFaces; opp++ {
			g := &LiarsDice{dealt: true, history: history, toMove: toMove, lastBid: lastBid, lastBidder: toMove.Other()}
			if actingP1 {
				g.p1Die, g.p2Die = mine, opp
			} else {
				g.p1Die, g.p2Die = opp, mine
			}
			if !yield(g) {
				return
			}
		}
	}
}

func parseLiarsBidToken(tok string) LiarsBid {
	var q, f int
	fmt.Sscanf(tok, "bid:%dx%d", &q, &f)
	return LiarsBid{Quantity: int8(q), Face: int8(f)}
}
