package helpers

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zephyrus-chain/zephyr/config/params"
	types "github.com/zephyrus-chain/zephyr/consensus-types"
	"github.com/zephyrus-chain/zephyr/consensus-types/primitives"
)

func TestExitQueueTracker_StaggersPastChurnLimit(t *testing.T) {
	cfg := params.BeaconConfig()
	validators := make([]*types.Validator, 6)
	for i := range validators {
		validators[i] = &types.Validator{ExitEpoch: cfg.FarFutureEpoch}
	}

	tracker := NewExitQueueTracker(validators, 10, 2)
	queueStart := ComputeActivationExitEpoch(10)
	for i, v := range validators {
		tracker.InitiateExit(v)
		if i < 2 {
			require.Equal(t, queueStart, v.ExitEpoch)
		} else if i < 4 {
			require.Equal(t, queueStart+1, v.ExitEpoch)
		} else {
			require.Equal(t, queueStart+2, v.ExitEpoch)
		}
		require.Equal(t, v.ExitEpoch+primitives.Epoch(cfg.MinValidatorWithdrawabilityDelay), v.WithdrawableEpoch)
	}
}

func TestExitQueueTracker_LeavesAlreadyExitingValidatorsUntouched(t *testing.T) {
	cfg := params.BeaconConfig()
	already := &types.Validator{ExitEpoch: 7, WithdrawableEpoch: 20}
	tracker := NewExitQueueTracker([]*types.Validator{already}, 10, 4)
	tracker.InitiateExit(already)
	require.Equal(t, primitives.Epoch(7), already.ExitEpoch)
	require.Equal(t, primitives.Epoch(20), already.WithdrawableEpoch)
	_ = cfg
}
