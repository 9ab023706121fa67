// Package bls wraps the herumi BLS12-381 binding for the one place the
// epoch transition needs a real signature-scheme operation: folding a sync
// committee's member pubkeys into its aggregate pubkey (spec.md §4.4(l)).
// Grounded on the teacher's go.mod, which carries
// github.com/herumi/bls-eth-go-binary for exactly this purpose.
package bls

import (
	"sync"

	"github.com/herumi/bls-eth-go-binary/bls"
	"github.com/pkg/errors"
)

var initOnce sync.Once
var initErr error

func ensureInit() error {
	initOnce.Do(func() {
		if err := bls.Init(bls.BLS12_381); err != nil {
			initErr = errors.Wrap(err, "bls: could not initialize BLS12-381")
			return
		}
		initErr = bls.SetETHmode(bls.EthModeDraft07)
	})
	return initErr
}

// AggregatePublicKeys folds a sync committee's member pubkeys into their
// BLS aggregate, matching get_next_sync_committee's aggregate_pubkey field.
func AggregatePublicKeys(pubkeys [][48]byte) ([48]byte, error) {
	var agg [48]byte
	if len(pubkeys) == 0 {
		return agg, errors.New("bls: cannot aggregate an empty pubkey set")
	}
	if err := ensureInit(); err != nil {
		return agg, err
	}

	var sum bls.PublicKey
	for i, raw := range pubkeys {
		var pk bls.PublicKey
		if err := pk.Deserialize(raw[:]); err != nil {
			return agg, errors.Wrapf(err, "bls: invalid pubkey at index %d", i)
		}
		if i == 0 {
			sum = pk
			continue
		}
		sum.Add(&pk)
	}
	copy(agg[:], sum.Serialize())
	return agg, nil
}
