package subgame

import chd "github.com/opencoff/go-chd"

// traceIndex is a static, build-once/query-many minimal perfect hash over
// a SubgameRoot's finalized set of opponent traces, used by GadgetFor to
// answer "which gadget covers this trace" in O(1). The engine calls
// GadgetFor once per construct_subgame, for a diagnostic log line; the CFR
// sweep does not use it. This is the one
// component in this repo that wires github.com/opencoff/go-chd — declared
// in the teacher's go.mod but never imported anywhere in its source. The
// exact go-chd API could not be inspected (no vendored copy ships in the
// example pack); the builder/lookup shape below follows the conventional
// two-phase CHD construction (accumulate keys, freeze into a table, query
// by byte key) documented for the package. See DESIGN.md for the
// assumption this rests on.
type traceIndex struct {
	keys []string
	mph  *chd.Chd
}

// buildTraceIndex builds a minimal perfect hash over keys. keys must be
// distinct; duplicate keys are a caller bug (group keys are already
// deduplicated by groupSurvivors before this is called).
func buildTraceIndex(keys []string) (*traceIndex, error) {
	b, err := chd.NewBuilder()
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		b.Add([]byte(k))
	}
	mph, err := b.Build()
	if err != nil {
		return nil, err
	}
	return &traceIndex{keys: keys, mph: mph}, nil
}

// Lookup returns the index of key among the keys the index was built
// over, or false if key was not one of them (the CHD table can return a
// plausible-looking index for an unknown key, so the result is always
// verified against the stored key set).
func (t *traceIndex) Lookup(key string) (int, bool) {
	if t == nil {
		return 0, false
	}
	idx := int(t.mph.Find([]byte(key)))
	if idx < 0 || idx >= len(t.keys) || t.keys[idx] != key {
		return 0, false
	}
	return idx, true
}
