package bls

import (
	"testing"

	"github.com/herumi/bls-eth-go-binary/bls"
	"github.com/stretchr/testify/require"
)

func randomPubkey(t *testing.T) [48]byte {
	t.Helper()
	require.NoError(t, ensureInit())
	var sec bls.SecretKey
	sec.SetByCSPRNG()
	pub := sec.GetPublicKey()
	var out [48]byte
	copy(out[:], pub.Serialize())
	return out
}

func TestAggregatePublicKeys_RejectsEmptySet(t *testing.T) {
	_, err := AggregatePublicKeys(nil)
	require.Error(t, err)
}

func TestAggregatePublicKeys_SingleKeyIsItself(t *testing.T) {
	pk := randomPubkey(t)
	agg, err := AggregatePublicKeys([][48]byte{pk})
	require.NoError(t, err)
	require.Equal(t, pk, agg)
}

func TestAggregatePublicKeys_MultipleKeysDifferFromAnyMember(t *testing.T) {
	keys := [][48]byte{randomPubkey(t), randomPubkey(t), randomPubkey(t)}
	agg, err := AggregatePublicKeys(keys)
	require.NoError(t, err)
	for _, k := range keys {
		require.NotEqual(t, k, agg)
	}
}

func TestAggregatePublicKeys_RejectsMalformedKey(t *testing.T) {
	_, err := AggregatePublicKeys([][48]byte{{0xFF, 0xFF, 0xFF}})
	require.Error(t, err)
}
