// Package fixtures provides small, fully-solvable games used only by this
// module's own tests: Matching Pennies and Rock-Paper-Scissors (no chance
// node), and Kuhn poker, a three-card AKQ toy, and a 1v1 one-die-each joker
// variant of Liar's Dice (each with a single chance node, the deal). None
// of this is part of the public API;
// production games are supplied by callers.
package fixtures

import (
	"strings"

	"github.com/lox/obscuro/game"
)

// PrefixTrace is a string-keyed game.Trace whose partial order is prefix
// containment: t.LessEq(u) holds when t is a prefix of u. All five fixture
// games build their traces out of this.
type PrefixTrace string

func (t PrefixTrace) Key() string { return string(t) }

func (t PrefixTrace) LessEq(other game.Trace) bool {
	return strings.HasPrefix(other.Key(), string(t))
}
