package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMerkleRoot_SingleLeaf(t *testing.T) {
	leaf := [32]byte{1}
	root, err := MerkleRoot([][32]byte{leaf})
	require.NoError(t, err)
	require.Equal(t, leaf, root)
}

func TestMerkleRoot_MatchesManualPairing(t *testing.T) {
	leaves := [][32]byte{{1}, {2}, {3}, {4}}
	want := HashPair(HashPair(leaves[0], leaves[1]), HashPair(leaves[2], leaves[3]))
	got, err := MerkleRoot(leaves)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestPadToPowerOfTwo(t *testing.T) {
	padded := PadToPowerOfTwo([][32]byte{{1}, {2}, {3}})
	require.Len(t, padded, 4)
	require.Equal(t, [32]byte{1}, padded[0])
	require.Equal(t, [32]byte{}, padded[3])
}

func TestMerkleizeChunks_OddLength(t *testing.T) {
	_, err := MerkleizeChunks([][32]byte{{1}, {2}, {3}})
	require.Error(t, err)
}
