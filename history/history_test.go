package history

import (
	"testing"

	"github.com/lox/obscuro/game"
	"github.com/lox/obscuro/game/fixtures"
	"github.com/lox/obscuro/infoset"
)

func TestExpandOnTerminalStateProducesTerminal(t *testing.T) {
	g := fixtures.NewMatchingPennies()
	g2 := g.Play(fixtures.Heads).(*fixtures.MatchingPennies)
	g3 := g2.Play(fixtures.Heads)

	n := Visit(g3.State(), 1, fixtures.DecodeMatchingPennies, fixtures.HeuristicMatchingPennies)
	n.Expand(infoset.NewMap(), fixtures.DecodeMatchingPennies, fixtures.HeuristicMatchingPennies)

	if n.Kind() != KindTerminal {
		t.Fatalf("expected Terminal after expanding a finished state, got %v", n.Kind())
	}
	if n.Payoff() != 1 {
		t.Fatalf("expected payoff 1 for a matching pair, got %v", n.Payoff())
	}
}

func TestExpandOnDecisionStateProducesExpanded(t *testing.T) {
	g := fixtures.NewMatchingPennies()
	n := Visit(g.State(), 1, fixtures.DecodeMatchingPennies, fixtures.HeuristicMatchingPennies)
	m := infoset.NewMap()
	n.Expand(m, fixtures.DecodeMatchingPennies, fixtures.HeuristicMatchingPennies)

	if n.Kind() != KindExpanded {
		t.Fatalf("expected Expanded after expanding a decision state, got %v", n.Kind())
	}
	if n.PlayerTag() != game.PlayerOne {
		t.Fatalf("expected P1 to act first, got %v", n.PlayerTag())
	}
	if len(n.Children()) != 2 {
		t.Fatalf("expected 2 children, got %d", len(n.Children()))
	}
	for _, c := range n.Children() {
		if c.Kind() != KindVisited {
			t.Fatalf("expected fresh children to be Visited, got %v", c.Kind())
		}
	}
	if m.Size() != 1 {
		t.Fatalf("expected exactly one infoset registered, got %d", m.Size())
	}
}

func TestExpandReusesInfoForSameTrace(t *testing.T) {
	g := fixtures.NewMatchingPennies()
	m := infoset.NewMap()

	// P2's two children (after P1 plays Heads or Tails) must land in the
	// same infoset, since P2 never observes P1's move.
	root := Visit(g.State(), 1, fixtures.DecodeMatchingPennies, fixtures.HeuristicMatchingPennies)
	root.Expand(m, fixtures.DecodeMatchingPennies, fixtures.HeuristicMatchingPennies)

	for _, c := range root.Children() {
		c.Expand(m, fixtures.DecodeMatchingPennies, fixtures.HeuristicMatchingPennies)
	}

	p2Children := root.Children()
	if p2Children[0].Info() != p2Children[1].Info() {
		t.Fatalf("expected P2's two decision nodes to share one Info (imperfect information)")
	}
	if m.Size() != 2 {
		t.Fatalf("expected 2 total infosets (P1 root, shared P2 node), got %d", m.Size())
	}
}

func TestExpandPanicsOnNonVisited(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected Expand on a Terminal node to panic")
		}
	}()
	n := NewTerminal(1, 1)
	n.Expand(infoset.NewMap(), fixtures.DecodeMatchingPennies, fixtures.HeuristicMatchingPennies)
}

func TestVisitedPayoffIsHeuristicValue(t *testing.T) {
	g := fixtures.NewMatchingPennies()
	n := Visit(g.State(), 1, fixtures.DecodeMatchingPennies, fixtures.HeuristicMatchingPennies)
	if n.Payoff() != 0 {
		t.Fatalf("expected the root's heuristic payoff to be 0 (uninformative before both sides move), got %v", n.Payoff())
	}
}

func TestExpandedPayoffIsReachWeightedExpectation(t *testing.T) {
	g := fixtures.NewMatchingPennies()
	m := infoset.NewMap()
	root := Visit(g.State(), 1, fixtures.DecodeMatchingPennies, fixtures.HeuristicMatchingPennies)
	root.Expand(m, fixtures.DecodeMatchingPennies, fixtures.HeuristicMatchingPennies)
	for _, c := range root.Children() {
		c.Expand(m, fixtures.DecodeMatchingPennies, fixtures.HeuristicMatchingPennies)
		for _, gc := range c.Children() {
			gc.Expand(m, fixtures.DecodeMatchingPennies, fixtures.HeuristicMatchingPennies)
		}
	}

	// P1's fresh policy is uniform (both children score 0). P2's shared
	// policy is seeded from the first P2 node expanded (after Heads), where
	// Tails scores +1 for P2 and Heads -1, so P2 always plays Tails. The
	// root payoff is then 0.5*HT + 0.5*TT = 0.5*(-1) + 0.5*1 = 0.
	if got := root.Payoff(); got != 0 {
		t.Fatalf("expected expected payoff 0 under uniform play, got %v", got)
	}
}

func TestRenormalizeReachGuardsZeroTotal(t *testing.T) {
	n := NewTerminal(1, 5)
	n.RenormalizeReach(0)
	if n.NetReachProb() != 5 {
		t.Fatalf("expected reach unchanged on zero total, got %v", n.NetReachProb())
	}
	n.RenormalizeReach(10)
	if n.NetReachProb() != 0.5 {
		t.Fatalf("expected reach 0.5 after renormalizing by 10, got %v", n.NetReachProb())
	}
}
