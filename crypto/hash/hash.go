// Package hash provides the pairwise tree-hashing primitive the Merkleized
// state store (spec.md §4.1) builds on: combining two 32-byte child roots
// into their parent root, batched across many pairs at once via gohashtree's
// SIMD-accelerated implementation where the batch is large enough to be
// worth it, falling back to crypto/sha256 otherwise.
package hash

import (
	"crypto/sha256"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/gohashtree"
)

// gohashtreeBatchThreshold is the smallest pair count for which delegating
// to gohashtree's batched hashing beats the fixed call overhead; below it we
// just hash in a tight loop.
const gohashtreeBatchThreshold = 4

// HashPair combines two 32-byte child roots into one parent root.
func HashPair(left, right [32]byte) [32]byte {
	var buf [64]byte
	copy(buf[:32], left[:])
	copy(buf[32:], right[:])
	return sha256.Sum256(buf[:])
}

// MerkleizeChunks combines adjacent pairs of chunks into their parents,
// returning a slice half the length of chunks. len(chunks) must be even; an
// odd length is a caller bug (the state store always pads vectors to a
// power of two before merkleizing).
func MerkleizeChunks(chunks [][32]byte) ([][32]byte, error) {
	if len(chunks)%2 != 0 {
		return nil, errors.New("hash: odd number of chunks")
	}
	parents := make([][32]byte, len(chunks)/2)
	if len(parents) >= gohashtreeBatchThreshold {
		if err := gohashtree.Hash(parents, chunks); err != nil {
			return nil, errors.Wrap(err, "could not batch-hash chunks")
		}
		return parents, nil
	}
	for i := 0; i < len(chunks); i += 2 {
		parents[i/2] = HashPair(chunks[i], chunks[i+1])
	}
	return parents, nil
}

// MerkleRoot folds a power-of-two-length, non-empty slice of leaves down to
// a single root by repeated pairwise hashing.
func MerkleRoot(leaves [][32]byte) ([32]byte, error) {
	if len(leaves) == 0 {
		return [32]byte{}, errors.New("hash: no leaves to merkleize")
	}
	layer := leaves
	for len(layer) > 1 {
		next, err := MerkleizeChunks(layer)
		if err != nil {
			return [32]byte{}, err
		}
		layer = next
	}
	return layer[0], nil
}

// NextPowerOfTwo returns the smallest power of two >= n, with 1 for n == 0.
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// PadToPowerOfTwo pads leaves with zero-chunks up to the next power of two.
func PadToPowerOfTwo(leaves [][32]byte) [][32]byte {
	target := NextPowerOfTwo(len(leaves))
	if target == len(leaves) {
		return leaves
	}
	padded := make([][32]byte, target)
	copy(padded, leaves)
	return padded
}
