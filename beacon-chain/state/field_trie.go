// field_trie.go implements the per-field Merkleized container described in
// spec.md §4.1: a fixed-depth binary tree over a sequence field, with a
// cached root that hash_tree_root returns while the field is unchanged (after
// any mutation the whole field is rehashed, not only the touched branches),
// and copy-on-write sharing so cloning a BeaconState is cheap until one of
// the clones is actually mutated.
package state

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/zephyrus-chain/zephyr/crypto/hash"
)

// LeafHasher turns one logical element into its 32-byte SSZ leaf.
type LeafHasher[T any] func(T) [32]byte

// FieldTrie is a copy-on-write, dirty-tracked Merkle tree over a slice
// field. Two FieldTries created by Clone share the same backing leaves slice
// and cached hash layers until one of them is mutated via Update, at which
// point that trie alone copies its backing storage before writing (spec.md
// §4.1 "returns a new tree sharing all unchanged subtrees").
type FieldTrie[T any] struct {
	mu       *sync.Mutex
	shared   *sharedLeaves[T]
	hasher   LeafHasher[T]
	dirty    map[int]struct{}
	rootGood bool
	root     [32]byte
}

// sharedLeaves is the copy-on-write backing store. refCount tracks how many
// FieldTries currently alias it; Update forces a private copy whenever more
// than one trie still points at it.
type sharedLeaves[T any] struct {
	values   []T
	layers   [][][32]byte // cached hash layers, layers[0] == leaves
	refCount int
}

// NewFieldTrie builds a trie over an initial set of values.
func NewFieldTrie[T any](values []T, hasher LeafHasher[T]) *FieldTrie[T] {
	cp := make([]T, len(values))
	copy(cp, values)
	return &FieldTrie[T]{
		mu:     &sync.Mutex{},
		shared: &sharedLeaves[T]{values: cp, refCount: 1},
		hasher: hasher,
		dirty:  map[int]struct{}{},
	}
}

// Len returns the number of elements.
func (f *FieldTrie[T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.shared.values)
}

// At returns the element at i (O(1); the O(log N) contract in spec.md §4.1
// refers to tree traversal for hashing, not for plain reads of a slice-backed
// field, which Go slices already serve in O(1)).
func (f *FieldTrie[T]) At(i int) T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shared.values[i]
}

// Values returns a read-only view of every element. Callers must not mutate
// the returned slice; use Update or SetFlat instead.
func (f *FieldTrie[T]) Values() []T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shared.values
}

// ensurePrivate forces this trie to hold its own backing slice, copying out
// of the shared one if another clone still references it.
func (f *FieldTrie[T]) ensurePrivate() {
	if f.shared.refCount > 1 {
		cp := make([]T, len(f.shared.values))
		copy(cp, f.shared.values)
		f.shared.refCount--
		f.shared = &sharedLeaves[T]{values: cp, refCount: 1}
	}
}

// Update writes a new value at index i and drops the cached hash layers, so
// the next HashTreeRoot rehashes every leaf.
func (f *FieldTrie[T]) Update(i int, val T) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.shared.values) {
		return errors.Errorf("state: index %d out of range [0,%d)", i, len(f.shared.values))
	}
	f.ensurePrivate()
	f.shared.values[i] = val
	f.shared.layers = nil
	f.dirty[i] = struct{}{}
	f.rootGood = false
	return nil
}

// SetFlat replaces the entire backing array in one step and marks every leaf
// dirty. This is the "flat view" bulk-mutation path spec.md §4.1/§9 require
// for phases that touch every balance: one O(N) copy under one lock instead
// of N individual Update calls. Either way the next HashTreeRoot rehashes the
// whole field.
func (f *FieldTrie[T]) SetFlat(values []T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]T, len(values))
	copy(cp, values)
	f.shared = &sharedLeaves[T]{values: cp, refCount: 1}
	f.dirty = map[int]struct{}{}
	f.rootGood = false
}

// Clone returns a new FieldTrie sharing this one's backing leaves and cached
// hash layers; the clone is fully independent from the caller's perspective
// (its own Update calls copy-on-write) but costs O(1) until either side
// mutates.
func (f *FieldTrie[T]) Clone() *FieldTrie[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shared.refCount++
	return &FieldTrie[T]{
		mu:       &sync.Mutex{},
		shared:   f.shared,
		hasher:   f.hasher,
		dirty:    map[int]struct{}{},
		rootGood: f.rootGood,
		root:     f.root,
	}
}

// HashTreeRoot computes the SSZ root of the field. It returns the cached root
// when nothing has changed since the last call; otherwise it rehashes every
// leaf (Update and SetFlat drop the cached layers) and every layer above them.
func (f *FieldTrie[T]) HashTreeRoot() ([32]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rootGood && len(f.dirty) == 0 {
		return f.root, nil
	}

	leaves := make([][32]byte, len(f.shared.values))
	if f.shared.layers != nil && len(f.shared.layers[0]) == len(leaves) {
		copy(leaves, f.shared.layers[0])
	}
	for i, v := range f.shared.values {
		if _, isDirty := f.dirty[i]; isDirty || f.shared.layers == nil {
			leaves[i] = f.hasher(v)
		}
	}
	leaves = hash.PadToPowerOfTwo(leaves)

	layers := [][][32]byte{leaves}
	layer := leaves
	for len(layer) > 1 {
		next, err := hash.MerkleizeChunks(layer)
		if err != nil {
			return [32]byte{}, errors.Wrap(err, "could not merkleize field trie")
		}
		layers = append(layers, next)
		layer = next
	}

	f.shared.layers = layers
	f.dirty = map[int]struct{}{}
	f.root = layer[0]
	f.rootGood = true
	return f.root, nil
}
