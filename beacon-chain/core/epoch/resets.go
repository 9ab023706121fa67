package epoch

import (
	"context"

	"github.com/zephyrus-chain/zephyr/beacon-chain/core/epoch/precompute"
	zstate "github.com/zephyrus-chain/zephyr/beacon-chain/state"
	"github.com/zephyrus-chain/zephyr/config/params"
	"github.com/zephyrus-chain/zephyr/crypto/hash"
	"github.com/zephyrus-chain/zephyr/runtime/version"
)

// ProcessEth1DataReset implements spec.md §4.4(f): clear the eth1 vote
// accumulator once the voting period closes.
func ProcessEth1DataReset(_ context.Context, st *zstate.BeaconState, summary *precompute.EpochSummary) error {
	cfg := params.BeaconConfig()
	votingPeriod := cfg.EpochsPerEth1VotingPeriod
	if uint64(summary.CurrEpoch+1)%votingPeriod == 0 {
		st.ClearEth1DataVotes()
	}
	return nil
}

// ProcessEffectiveBalanceUpdates implements spec.md §4.4(g): move each
// validator's effective balance toward its real balance, but only once the
// gap clears the hysteresis band, so small balance wobble near a threshold
// doesn't churn the effective balance every epoch.
func ProcessEffectiveBalanceUpdates(_ context.Context, st *zstate.BeaconState) error {
	cfg := params.BeaconConfig()
	increment := cfg.EffectiveBalanceIncrement
	hysteresisIncrement := increment / cfg.HysteresisQuotient
	downward := hysteresisIncrement * cfg.HysteresisDownwardMultiplier
	upward := hysteresisIncrement * cfg.HysteresisUpwardMultiplier

	balances := st.Balances()
	for i, v := range st.Validators() {
		balance := balances[i]
		if balance+downward < v.EffectiveBalance || v.EffectiveBalance+upward < balance {
			newEffective := balance - balance%increment
			if newEffective > cfg.MaxEffectiveBalance {
				newEffective = cfg.MaxEffectiveBalance
			}
			if newEffective != v.EffectiveBalance {
				cpy := v.Copy()
				cpy.EffectiveBalance = newEffective
				if err := st.UpdateValidator(i, cpy); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// ProcessSlashingsReset implements spec.md §4.4(h): zero the slashings
// accumulator slot the next epoch is about to reuse.
func ProcessSlashingsReset(_ context.Context, st *zstate.BeaconState, summary *precompute.EpochSummary) error {
	cfg := params.BeaconConfig()
	nextEpoch := summary.CurrEpoch + 1
	position := uint64(nextEpoch) % cfg.EpochsPerSlashingsVector
	return st.SetSlashingAt(position, 0)
}

// ProcessRandaoMixesReset implements spec.md §4.4(i): seed the next epoch's
// randao mix slot with the current mix, so future lookback reads resolve
// even before a block contributes fresh randomness for that slot.
func ProcessRandaoMixesReset(_ context.Context, st *zstate.BeaconState, summary *precompute.EpochSummary) error {
	cfg := params.BeaconConfig()
	nextEpoch := summary.CurrEpoch + 1
	currentPosition := uint64(summary.CurrEpoch) % cfg.EpochsPerHistoricalVector
	nextPosition := uint64(nextEpoch) % cfg.EpochsPerHistoricalVector
	return st.SetRandaoMixAt(nextPosition, st.RandaoMixAt(currentPosition))
}

// ProcessHistoricalRootsUpdate implements spec.md §4.4(j): every
// SLOTS_PER_HISTORICAL_ROOT-worth of epochs, fold the accumulated block and
// state root vectors into a single historical root entry.
func ProcessHistoricalRootsUpdate(_ context.Context, st *zstate.BeaconState, summary *precompute.EpochSummary) error {
	cfg := params.BeaconConfig()
	nextEpoch := summary.CurrEpoch + 1
	epochsPerHistoricalRoot := cfg.SlotsPerHistoricalRoot / cfg.SlotsPerEpoch
	if uint64(nextEpoch)%epochsPerHistoricalRoot != 0 {
		return nil
	}
	root, err := historicalBatchRoot(st.BlockRoots(), st.StateRoots())
	if err != nil {
		return err
	}
	st.AppendHistoricalRoot(root)
	return nil
}

// historicalBatchRoot folds the block-root and state-root vectors into a
// single root the same way the rest of the state Merkleizes a two-field
// container: hash each vector, then pair the two field roots.
func historicalBatchRoot(blockRoots, stateRoots [][32]byte) ([32]byte, error) {
	blockRoot, err := hash.MerkleRoot(hash.PadToPowerOfTwo(blockRoots))
	if err != nil {
		return [32]byte{}, err
	}
	stateRoot, err := hash.MerkleRoot(hash.PadToPowerOfTwo(stateRoots))
	if err != nil {
		return [32]byte{}, err
	}
	return hash.HashPair(blockRoot, stateRoot), nil
}

// ProcessParticipationRecordUpdates implements spec.md §4.4(k): rotate the
// fork-specific participation ledger (pending attestations for phase 0,
// participation-flag bytes for Altair) so the epoch just finished becomes
// "previous" and a fresh "current" ledger opens.
func ProcessParticipationRecordUpdates(_ context.Context, st *zstate.BeaconState) error {
	if st.Fork() == version.Phase0 {
		st.RotatePhase0Attestations()
	} else {
		st.RotateAltairParticipation()
	}
	return nil
}
