package helpers

import "crypto/sha256"

// shaBytes hashes an arbitrary-length buffer with sha256. The Merkleized
// state store (beacon-chain/state) uses gohashtree's batched pairwise
// hashing for fixed 32-byte tree nodes; shuffling and proposer selection
// instead hash variable-length seed+round buffers, for which a single
// sha256 call is the right tool and matches the spec's plain `hash(...)`.
func shaBytes(b []byte) [32]byte {
	return sha256.Sum256(b)
}
