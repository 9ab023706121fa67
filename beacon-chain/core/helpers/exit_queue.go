// exit_queue.go implements the exit-queue churn tracker that
// process_registry_updates(d) uses to stagger exits past the per-epoch churn
// limit (spec.md §4.4(d)).
package helpers

import (
	"github.com/zephyrus-chain/zephyr/config/params"
	types "github.com/zephyrus-chain/zephyr/consensus-types"
	"github.com/zephyrus-chain/zephyr/consensus-types/primitives"
)

// ExitQueueTracker accumulates exit-epoch churn across a single registry
// update phase so repeated InitiateExit calls don't each rescan every
// validator for the current queue depth.
type ExitQueueTracker struct {
	queueEpoch primitives.Epoch
	churn      uint64
	churnLimit uint64
}

// NewExitQueueTracker seeds the tracker from the validator set's existing
// exit epochs, exactly as initiate_validator_exit's first call would compute
// exit_queue_epoch/exit_queue_churn from scratch.
func NewExitQueueTracker(validators []*types.Validator, currentEpoch primitives.Epoch, churnLimit uint64) *ExitQueueTracker {
	far := params.BeaconConfig().FarFutureEpoch
	queueEpoch := helpersComputeActivationExitEpoch(currentEpoch)
	for _, v := range validators {
		if v.ExitEpoch != far && v.ExitEpoch > queueEpoch {
			queueEpoch = v.ExitEpoch
		}
	}
	churn := uint64(0)
	for _, v := range validators {
		if v.ExitEpoch == queueEpoch {
			churn++
		}
	}
	return &ExitQueueTracker{queueEpoch: queueEpoch, churn: churn, churnLimit: churnLimit}
}

func helpersComputeActivationExitEpoch(epoch primitives.Epoch) primitives.Epoch {
	return ComputeActivationExitEpoch(epoch)
}

// InitiateExit assigns v's exit_epoch and withdrawable_epoch, advancing the
// tracked queue epoch once its churn limit is reached. A validator whose
// exit is already initiated is left untouched.
func (t *ExitQueueTracker) InitiateExit(v *types.Validator) {
	far := params.BeaconConfig().FarFutureEpoch
	if v.ExitEpoch != far {
		return
	}
	if t.churn >= t.churnLimit {
		t.queueEpoch++
		t.churn = 0
	}
	v.ExitEpoch = t.queueEpoch
	v.WithdrawableEpoch = v.ExitEpoch + primitives.Epoch(params.BeaconConfig().MinValidatorWithdrawabilityDelay)
	t.churn++
}
