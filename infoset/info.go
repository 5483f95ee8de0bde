// Package infoset holds Info — a (policy, player, trace) triple under
// shared ownership — and the infoset map that is the canonical registry
// every History's Info pointer is looked up through. The map comes in two
// shapes: a plain map for single-threaded mode, and a sharded, read/write
// locked map for the parallel facade, directly adapted from the teacher's
// RegretTable (lox-pokerforbots sdk/solver/regret.go).
package infoset

import (
	"sync"

	"github.com/lox/obscuro/game"
	"github.com/lox/obscuro/policy"
)

// Info is a (policy, player, trace) triple. Identity is by trace: multiple
// Expanded history nodes in the same infoset share the same *Info.
type Info struct {
	trace  game.Trace
	player game.Player
	Policy *policy.Policy
}

// New wraps a freshly-built Policy for the given trace/player.
func New(trace game.Trace, player game.Player, p *policy.Policy) *Info {
	return &Info{trace: trace, player: player, Policy: p}
}

func (i *Info) Trace() game.Trace  { return i.trace }
func (i *Info) Player() game.Player { return i.player }

// Map is the infoset registry. GetOrCreate must be safe to call from
// multiple goroutines for the ShardedMap implementation used by the
// parallel facade; the plain Map used by the single-threaded engine has no
// such requirement.
type Map interface {
	// GetOrCreate returns the Info for trace, building a new one via
	// newPolicy (called at most once per missing trace) when absent.
	GetOrCreate(trace game.Trace, player game.Player, newPolicy func() *policy.Policy) *Info
	Get(trace game.Trace) (*Info, bool)
	Size() int
}

// plainMap is an unsynchronized map, used by the single-threaded engine
// where traversal order already disciplines aliasing.
type plainMap struct {
	entries map[string]*Info
}

// NewMap returns an unsynchronized infoset registry.
func NewMap() Map {
	return &plainMap{entries: make(map[string]*Info)}
}

func (m *plainMap) GetOrCreate(trace game.Trace, player game.Player, newPolicy func() *policy.Policy) *Info {
	key := trace.Key()
	if info, ok := m.entries[key]; ok {
		return info
	}
	info := New(trace, player, newPolicy())
	m.entries[key] = info
	return info
}

func (m *plainMap) Get(trace game.Trace) (*Info, bool) {
	info, ok := m.entries[trace.Key()]
	return info, ok
}

func (m *plainMap) Size() int { return len(m.entries) }

// shardCount mirrors the teacher's regretTableShardCount: a power of two so
// shard selection is a mask rather than a modulo.
const shardCount = 64
const shardMask = shardCount - 1

type shard struct {
	mu      sync.RWMutex
	entries map[string]*Info
}

// ShardedMap is a process-wide, read/write-locked infoset registry for
// parallel mode: reads during traversal, writes only on new-infoset
// insertion at expansion time.
type ShardedMap struct {
	shards [shardCount]shard
}

// NewShardedMap returns a concurrency-safe infoset registry.
func NewShardedMap() *ShardedMap {
	m := &ShardedMap{}
	for i := range m.shards {
		m.shards[i].entries = make(map[string]*Info)
	}
	return m
}

func (m *ShardedMap) shardFor(key string) *shard {
	return &m.shards[fnv1a(key)&shardMask]
}

func (m *ShardedMap) GetOrCreate(trace game.Trace, player game.Player, newPolicy func() *policy.Policy) *Info {
	key := trace.Key()
	s := m.shardFor(key)

	s.mu.RLock()
	info, ok := s.entries[key]
	s.mu.RUnlock()
	if ok {
		return info
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if info, ok = s.entries[key]; ok {
		return info
	}
	info = New(trace, player, newPolicy())
	s.entries[key] = info
	return info
}

func (m *ShardedMap) Get(trace game.Trace) (*Info, bool) {
	key := trace.Key()
	s := m.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.entries[key]
	return info, ok
}

func (m *ShardedMap) Size() int {
	total := 0
	for i := range m.shards {
		m.shards[i].mu.RLock()
		total += len(m.shards[i].entries)
		m.shards[i].mu.RUnlock()
	}
	return total
}

func fnv1a(key string) uint32 {
	const offset32 = 2166136261
	const prime32 = 16777619
	hash := uint32(offset32)
	for i := 0; i < len(key); i++ {
		hash ^= uint32(key[i])
		hash *= prime32
	}
	return hash
}
