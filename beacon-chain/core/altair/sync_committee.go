package altair

import (
	"context"

	"github.com/zephyrus-chain/zephyr/beacon-chain/cache"
	zstate "github.com/zephyrus-chain/zephyr/beacon-chain/state"
	"github.com/zephyrus-chain/zephyr/beacon-chain/core/helpers"
	"github.com/zephyrus-chain/zephyr/config/params"
	blsutil "github.com/zephyrus-chain/zephyr/crypto/bls"
)

// ProcessSyncCommitteeUpdates implements spec.md §4.4(l): on a sync
// committee period boundary, rotate the next committee into current and
// draw a fresh next committee from the epoch cache's next-epoch active set.
// Has no phase 0 counterpart; the orchestrator only calls this on the
// Altair path.
func ProcessSyncCommitteeUpdates(_ context.Context, st *zstate.BeaconState, ec *cache.EpochCache) error {
	cfg := params.BeaconConfig()
	if uint64(ec.NextEpoch)%cfg.EpochsPerSyncCommitteePeriod != 0 {
		return nil
	}

	next, err := computeSyncCommittee(st, ec)
	if err != nil {
		return err
	}
	st.SetSyncCommittees(st.NextSyncCommittee(), next)
	return nil
}

// computeSyncCommittee implements get_next_sync_committee(state): draw
// SYNC_COMMITTEE_SIZE members (with repetition) from the next epoch's
// active validator set, weighted by effective balance, then aggregate
// their pubkeys.
func computeSyncCommittee(st *zstate.BeaconState, ec *cache.EpochCache) (*zstate.SyncCommittee, error) {
	cfg := params.BeaconConfig()
	seed := cache.SyncCommitteeSeed(st, ec.NextEpoch)

	indices, err := helpers.ComputeSyncCommitteeIndices(ec.ActiveValidatorsNext, seed, int(cfg.SyncCommitteeSize), ec.EffectiveBalance)
	if err != nil {
		return nil, err
	}

	validators := st.Validators()
	pubkeys := make([][48]byte, len(indices))
	for i, idx := range indices {
		if int(idx) >= len(validators) {
			continue
		}
		pubkeys[i] = validators[idx].PublicKey
	}

	aggregate, err := blsutil.AggregatePublicKeys(pubkeys)
	if err != nil {
		return nil, err
	}

	return &zstate.SyncCommittee{
		Pubkeys:         pubkeys,
		AggregatePubkey: aggregate,
	}, nil
}
