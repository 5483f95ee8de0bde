package subgame

import (
	"fmt"
	"iter"
	"testing"

	"github.com/lox/obscuro/game"
	"github.com/lox/obscuro/game/fixtures"
)

func TestConstructSingleGroupFromSeed(t *testing.T) {
	seed := fixtures.NewMatchingPennies()
	root := Construct(nil, seed, game.PlayerOne, fixtures.DecodeMatchingPennies, fixtures.HeuristicMatchingPennies, nil, 0, Params{KCover: 3, MinInfosetSize: 1})

	if len(root.Gadgets) != 1 {
		t.Fatalf("expected exactly 1 retained opponent group, got %d", len(root.Gadgets))
	}
	if root.Acting != game.PlayerOne {
		t.Fatalf("expected acting player P1, got %v", root.Acting)
	}
	if root.Maxmargin.NumActions() != 1 {
		t.Fatalf("expected maxmargin over 1 gadget, got %d", root.Maxmargin.NumActions())
	}

	gadget, ok := root.GadgetFor(fixtures.PrefixTrace("P2"))
	if !ok {
		t.Fatalf("expected a gadget covering opponent trace P2")
	}
	if len(gadget.Children) != 1 {
		t.Fatalf("expected the gadget to retain the single seed history, got %d children", len(gadget.Children))
	}
}

func TestGadgetForReturnsFalseForUnknownTrace(t *testing.T) {
	seed := fixtures.NewMatchingPennies()
	root := Construct(nil, seed, game.PlayerOne, fixtures.DecodeMatchingPennies, fixtures.HeuristicMatchingPennies, nil, 0, Params{KCover: 3, MinInfosetSize: 1})

	if _, ok := root.GadgetFor(fixtures.PrefixTrace("nonexistent")); ok {
		t.Fatalf("expected no gadget for an unknown trace")
	}
}

// --- a minimal one-card-one-action toy used to exercise populate/grouping
// across more than one opponent infoset, since Matching Pennies only ever
// has a single opponent infoset. ---

type card int

type dealtGame struct {
	p1Card card
	p2Move *card
}

func (g *dealtGame) ActivePlayer() game.Player {
	if g.p2Move == nil {
		return game.PlayerTwo
	}
	return game.PlayerTerminal
}

func (g *dealtGame) AvailableActions() []game.Action {
	return []game.Action{move(0), move(1)}
}

type move int

func (m move) Key() string { return fmt.Sprintf("m%d", m) }

func (g *dealtGame) Play(a game.Action) game.Game {
	mv := card(a.(move))
	next := *g
	next.p2Move = &mv
	return &next
}

func (g *dealtGame) IsOver() bool { return g.p2Move != nil }

func (g *dealtGame) Evaluate() game.Reward {
	if *g.p2Move == g.p1Card {
		return 1
	}
	return -1
}

func (g *dealtGame) Identifier() (mine, opponent game.Trace) {
	return g.TraceFor(g.ActivePlayer()), g.TraceFor(g.ActivePlayer().Other())
}

func (g *dealtGame) TraceFor(p game.Player) game.Trace {
	if p == game.PlayerOne {
		return fixtures.PrefixTrace(fmt.Sprintf("P1:%d", g.p1Card))
	}
	return fixtures.PrefixTrace("P2")
}

func (g *dealtGame) State() game.State { return g }

func decodeDealt(s game.State) game.Game { return s.(*dealtGame) }

func heuristicDealt(g game.Game) game.Reward {
	d := g.(*dealtGame)
	if d.IsOver() {
		return d.Evaluate()
	}
	return 0
}

func TestConstructPopulatesAdditionalGroupsViaSampler(t *testing.T) {
	seed := &dealtGame{p1Card: 0}

	alternate := &dealtGame{p1Card: 1}
	sampler := game.Sampler(func(game.Trace) iter.Seq[game.Game] {
		return func(yield func(game.Game) bool) {
			yield(alternate)
		}
	})

	root := Construct(nil, seed, game.PlayerTwo, decodeDealt, heuristicDealt, sampler, 0, Params{KCover: 3, MinInfosetSize: 2})

	if len(root.Gadgets) != 2 {
		t.Fatalf("expected populate to bring the group count to 2, got %d", len(root.Gadgets))
	}

	if _, ok := root.GadgetFor(fixtures.PrefixTrace("P1:0")); !ok {
		t.Fatalf("expected a gadget for the true deal P1:0")
	}
	if _, ok := root.GadgetFor(fixtures.PrefixTrace("P1:1")); !ok {
		t.Fatalf("expected populate to have added a gadget for the sampled deal P1:1")
	}

	total := 0.0
	for _, gd := range root.Gadgets {
		total += gd.Prior
	}
	if total < 0.99 || total > 1.01 {
		t.Fatalf("expected priors to roughly sum to 1, got %v", total)
	}
}

func TestConstructStopsPopulatingOnceMinInfosetSizeReached(t *testing.T) {
	seed := &dealtGame{p1Card: 0}

	calls := 0
	sampler := game.Sampler(func(game.Trace) iter.Seq[game.Game] {
		return func(yield func(game.Game) bool) {
			for i := 0; i < 10; i++ {
				calls++
				alt := &dealtGame{p1Card: card(i + 1)}
				if !yield(alt) {
					return
				}
			}
		}
	})

	root := Construct(nil, seed, game.PlayerTwo, decodeDealt, heuristicDealt, sampler, 0, Params{KCover: 3, MinInfosetSize: 3})

	if len(root.Gadgets) != 3 {
		t.Fatalf("expected exactly MinInfosetSize (3) groups, got %d", len(root.Gadgets))
	}
}
