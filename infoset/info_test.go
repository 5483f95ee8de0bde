package infoset

import (
	"sync"
	"testing"

	"github.com/lox/obscuro/game"
	"github.com/lox/obscuro/policy"
)

type strTrace string

func (t strTrace) Key() string { return string(t) }
func (t strTrace) LessEq(other game.Trace) bool {
	o, ok := other.(strTrace)
	return ok && len(t) <= len(o) && o[:len(t)] == t
}

type strAction string

func (a strAction) Key() string { return string(a) }

func newTestPolicy() *policy.Policy {
	return policy.FromRewards([]policy.ActionReward{
		{Action: strAction("a"), Reward: 0},
		{Action: strAction("b"), Reward: 0},
	}, game.PlayerOne)
}

func TestPlainMapGetOrCreateReturnsSameInfo(t *testing.T) {
	m := NewMap()
	calls := 0
	builder := func() *policy.Policy {
		calls++
		return newTestPolicy()
	}

	first := m.GetOrCreate(strTrace("A"), game.PlayerOne, builder)
	second := m.GetOrCreate(strTrace("A"), game.PlayerOne, builder)

	if first != second {
		t.Fatalf("expected the same *Info for repeated GetOrCreate on the same trace")
	}
	if calls != 1 {
		t.Fatalf("expected newPolicy to be called once, got %d", calls)
	}
	if m.Size() != 1 {
		t.Fatalf("expected map size 1, got %d", m.Size())
	}
}

func TestPlainMapGetReportsAbsence(t *testing.T) {
	m := NewMap()
	if _, ok := m.Get(strTrace("missing")); ok {
		t.Fatalf("expected Get on an empty map to report absence")
	}
}

func TestShardedMapGetOrCreateIsRaceSafe(t *testing.T) {
	m := NewShardedMap()

	var wg sync.WaitGroup
	results := make([]*Info, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = m.GetOrCreate(strTrace("shared"), game.PlayerTwo, newTestPolicy)
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatalf("concurrent GetOrCreate on the same trace produced distinct *Info values")
		}
	}
	if m.Size() != 1 {
		t.Fatalf("expected sharded map size 1 after deduplication, got %d", m.Size())
	}
}

func TestShardedMapDistinctTracesGetDistinctInfo(t *testing.T) {
	m := NewShardedMap()
	a := m.GetOrCreate(strTrace("A"), game.PlayerOne, newTestPolicy)
	b := m.GetOrCreate(strTrace("B"), game.PlayerOne, newTestPolicy)

	if a == b {
		t.Fatalf("expected distinct traces to receive distinct Info")
	}
	if m.Size() != 2 {
		t.Fatalf("expected sharded map size 2, got %d", m.Size())
	}
}

func TestShardedMapGetReportsAbsence(t *testing.T) {
	m := NewShardedMap()
	if _, ok := m.Get(strTrace("nope")); ok {
		t.Fatalf("expected Get on an empty sharded map to report absence")
	}
}
