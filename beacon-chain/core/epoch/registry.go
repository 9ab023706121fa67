// Package epoch hosts the sub-phase processors shared by both forks: the
// registry update, eth1/randao/slashings/participation resets (spec.md
// §4.4). Grounded on the teacher's beacon-chain/core/epoch package shape.
package epoch

import (
	"context"
	"sort"

	"github.com/zephyrus-chain/zephyr/beacon-chain/core/epoch/precompute"
	"github.com/zephyrus-chain/zephyr/beacon-chain/core/helpers"
	zstate "github.com/zephyrus-chain/zephyr/beacon-chain/state"
	"github.com/zephyrus-chain/zephyr/consensus-types/primitives"
)

// ProcessRegistryUpdates implements spec.md §4.4(d): eject over-ejectable
// validators, assign activation eligibility to validators whose effective
// balance reached MAX_EFFECTIVE_BALANCE, then activate the eligible queue
// in activation-eligibility order, bounded by the per-epoch churn limit and
// by finality (an index past the finalized checkpoint waits for the next
// epoch, exactly like the rest of the queue behind it).
func ProcessRegistryUpdates(_ context.Context, st *zstate.BeaconState, summary *precompute.EpochSummary) error {
	currentEpoch := summary.CurrEpoch
	finalizedEpoch := st.FinalizedCheckpoint().Epoch

	activeCount := uint64(0)
	for _, v := range summary.Validators {
		if v.Active {
			activeCount++
		}
	}
	churnLimit := helpers.ValidatorChurnLimit(activeCount)

	tracker := helpers.NewExitQueueTracker(st.Validators(), currentEpoch, churnLimit)

	for _, idx := range summary.IndicesToEject {
		v := st.ValidatorAt(int(idx)).Copy()
		tracker.InitiateExit(v)
		if err := st.UpdateValidator(int(idx), v); err != nil {
			return err
		}
	}

	for _, idx := range summary.IndicesEligibleForActivationQueue {
		v := st.ValidatorAt(int(idx)).Copy()
		v.ActivationEligibilityEpoch = currentEpoch + 1
		if err := st.UpdateValidator(int(idx), v); err != nil {
			return err
		}
	}

	activationQueue := make([]primitives.ValidatorIndex, len(summary.IndicesEligibleForActivation))
	copy(activationQueue, summary.IndicesEligibleForActivation)
	sort.Slice(activationQueue, func(i, j int) bool {
		a := st.ValidatorAt(int(activationQueue[i]))
		b := st.ValidatorAt(int(activationQueue[j]))
		if a.ActivationEligibilityEpoch != b.ActivationEligibilityEpoch {
			return a.ActivationEligibilityEpoch < b.ActivationEligibilityEpoch
		}
		return activationQueue[i] < activationQueue[j]
	})

	activationExitEpoch := helpers.ComputeActivationExitEpoch(currentEpoch)
	activated := uint64(0)
	for _, idx := range activationQueue {
		if activated >= churnLimit {
			break
		}
		v := st.ValidatorAt(int(idx)).Copy()
		if v.ActivationEligibilityEpoch > finalizedEpoch {
			break
		}
		v.ActivationEpoch = activationExitEpoch
		if err := st.UpdateValidator(int(idx), v); err != nil {
			return err
		}
		activated++
	}

	return nil
}
