// Package stateutils provides lookups derived from, but not stored inside,
// the Merkleized state itself: the validator pubkey->index map spec.md §5
// singles out as safe to share unmodified across every clone of a state,
// since the registry only ever appends new validators and never mutates an
// existing entry's public key.
package stateutils

import (
	"sync"

	types "github.com/zephyrus-chain/zephyr/consensus-types/primitives"
)

// PubkeyIndexMap maps a BLS public key to its validator index. It is built
// once per distinct validator set and shared by reference across every
// clone descended from that set, rather than being recomputed or deep
// copied on every BeaconState.Clone (spec.md §5, §9 "Global/singleton
// state" — this is the one cache explicitly allowed to be shared rather
// than owned per-state, because it is append-only and derivable).
type PubkeyIndexMap struct {
	mu    sync.RWMutex
	byKey map[[48]byte]types.ValidatorIndex
}

// NewPubkeyIndexMap builds a map from an initial validator public key list.
func NewPubkeyIndexMap(pubkeys [][48]byte) *PubkeyIndexMap {
	m := &PubkeyIndexMap{byKey: make(map[[48]byte]types.ValidatorIndex, len(pubkeys))}
	for i, pk := range pubkeys {
		m.byKey[pk] = types.ValidatorIndex(i)
	}
	return m
}

// Index returns the validator index for pubkey, if known.
func (m *PubkeyIndexMap) Index(pubkey [48]byte) (types.ValidatorIndex, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.byKey[pubkey]
	return idx, ok
}

// Set records a newly appended validator's index. Existing entries are
// never overwritten: a pubkey is permanently bound to the first index it
// was assigned, matching the registry's append-only semantics.
func (m *PubkeyIndexMap) Set(pubkey [48]byte, idx types.ValidatorIndex) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byKey[pubkey]; exists {
		return
	}
	m.byKey[pubkey] = idx
}

// Len reports how many entries are tracked.
func (m *PubkeyIndexMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byKey)
}
