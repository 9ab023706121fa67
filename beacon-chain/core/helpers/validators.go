// Package helpers implements the validator predicates, shuffling, proposer
// selection, churn-limit, and balance-mutation primitives the epoch summary
// builder and sub-phase processors are built from (spec.md §4.1-§4.4).
package helpers

import (
	"github.com/zephyrus-chain/zephyr/config/params"
	types "github.com/zephyrus-chain/zephyr/consensus-types"
	"github.com/zephyrus-chain/zephyr/consensus-types/primitives"
)

// IsActiveValidator returns true if v is active at epoch: it has been
// activated and has not yet exited.
func IsActiveValidator(v *types.Validator, epoch primitives.Epoch) bool {
	return v.ActivationEpoch <= epoch && epoch < v.ExitEpoch
}

// IsSlashableValidator returns true if v can still be slashed at epoch:
// already activated (exited validators included), not already slashed, and
// not yet withdrawable.
func IsSlashableValidator(v *types.Validator, epoch primitives.Epoch) bool {
	return !v.Slashed && v.ActivationEpoch <= epoch && epoch < v.WithdrawableEpoch
}

// IsEligibleForActivationQueue returns true if v should be queued for
// activation eligibility: not yet queued, and fully funded.
func IsEligibleForActivationQueue(v *types.Validator) bool {
	return v.ActivationEligibilityEpoch == params.BeaconConfig().FarFutureEpoch &&
		v.EffectiveBalance == params.BeaconConfig().MaxEffectiveBalance
}

// IsEligibleForActivation returns true if v has cleared the eligibility
// queue as of finalizedEpoch and has not yet been activated.
func IsEligibleForActivation(v *types.Validator, finalizedEpoch primitives.Epoch) bool {
	return v.ActivationEligibilityEpoch <= finalizedEpoch &&
		v.ActivationEpoch == params.BeaconConfig().FarFutureEpoch
}

// ComputeActivationExitEpoch returns the earliest epoch an activation or
// exit triggered at epoch may take effect: one full MaxSeedLookahead past
// the next epoch, so the shuffling committed to by the randao mix can see it.
func ComputeActivationExitEpoch(epoch primitives.Epoch) primitives.Epoch {
	return epoch + 1 + primitives.Epoch(params.BeaconConfig().MaxSeedLookahead)
}

// ValidatorChurnLimit returns the per-epoch cap on activations and exits for
// an active set of the given size (spec.md §4.2).
func ValidatorChurnLimit(activeValidatorCount uint64) uint64 {
	limit := activeValidatorCount / params.BeaconConfig().ChurnLimitQuotient
	if limit < params.BeaconConfig().MinPerEpochChurnLimit {
		return params.BeaconConfig().MinPerEpochChurnLimit
	}
	return limit
}
