package precompute

import (
	"context"

	"github.com/pkg/errors"
	"github.com/zephyrus-chain/zephyr/beacon-chain/cache"
	beacontime "github.com/zephyrus-chain/zephyr/beacon-chain/core/time"
	zstate "github.com/zephyrus-chain/zephyr/beacon-chain/state"
	"github.com/zephyrus-chain/zephyr/config/params"
	types "github.com/zephyrus-chain/zephyr/consensus-types"
	"github.com/zephyrus-chain/zephyr/consensus-types/primitives"
	"github.com/zephyrus-chain/zephyr/runtime/version"
)

// ProcessAttestations folds participation into the per-validator statuses
// already produced by New, dispatching on fork per spec.md §4.3
// "Participation attribution". It must run after New (which establishes
// ELIGIBLE_ATTESTER) and before the unslashed stake sums are read by
// justification/finalization or rewards.
func ProcessAttestations(_ context.Context, st *zstate.BeaconState, ec *cache.EpochCache, summary *EpochSummary) error {
	if st.Fork() == version.Phase0 {
		if err := processPendingAttestations(st, ec, summary); err != nil {
			return err
		}
	} else {
		processParticipationBytes(st, summary)
	}
	foldUnslashedStake(summary)
	return nil
}

func foldUnslashedStake(summary *EpochSummary) {
	for _, v := range summary.Validators {
		if !HasFlag(v.Status, FlagUnslashed) {
			continue
		}
		if HasFlag(v.Status, FlagPrevSource) {
			summary.Balances.PrevSourceStake += v.EffectiveBalance
		}
		if HasFlag(v.Status, FlagPrevTarget) {
			summary.Balances.PrevTargetStake += v.EffectiveBalance
		}
		if HasFlag(v.Status, FlagPrevHead) {
			summary.Balances.PrevHeadStake += v.EffectiveBalance
		}
		if HasFlag(v.Status, FlagCurrTarget) {
			summary.Balances.CurrTargetStake += v.EffectiveBalance
		}
	}
	increment := params.BeaconConfig().EffectiveBalanceIncrement
	summary.Balances.PrevSourceStake = floorToIncrement(summary.Balances.PrevSourceStake, increment)
	summary.Balances.PrevTargetStake = floorToIncrement(summary.Balances.PrevTargetStake, increment)
	summary.Balances.PrevHeadStake = floorToIncrement(summary.Balances.PrevHeadStake, increment)
	summary.Balances.CurrTargetStake = floorToIncrement(summary.Balances.CurrTargetStake, increment)
}

// processParticipationBytes implements Altair's participation attribution:
// read each eligible attester's byte out of the previous/current
// participation vectors and translate the flag bits directly (spec.md
// §4.3 "Altair: read per-validator byte ... map bit positions").
func processParticipationBytes(st *zstate.BeaconState, summary *EpochSummary) {
	prev := st.PreviousEpochParticipation()
	curr := st.CurrentEpochParticipation()
	for _, v := range summary.Validators {
		if !HasFlag(v.Status, FlagEligibleAttester) {
			continue
		}
		if int(v.Index) < len(prev) {
			b := prev[v.Index]
			if zstate.HasFlag(b, zstate.TimelySourceFlag) {
				v.Status |= FlagPrevSource
			}
			if zstate.HasFlag(b, zstate.TimelyTargetFlag) {
				v.Status |= FlagPrevTarget
			}
			if zstate.HasFlag(b, zstate.TimelyHeadFlag) {
				v.Status |= FlagPrevHead
			}
		}
		if int(v.Index) < len(curr) {
			b := curr[v.Index]
			if zstate.HasFlag(b, zstate.TimelyTargetFlag) {
				v.Status |= FlagCurrTarget
			}
		}
	}
}

// processPendingAttestations implements phase 0's participation
// attribution: fold previous_epoch_attestations into PREV_* flags and
// current_epoch_attestations into CURR_TARGET — the only current-epoch
// signal any phase 0 sub-phase reads (spec.md §4.3, §4.4(a)).
func processPendingAttestations(st *zstate.BeaconState, ec *cache.EpochCache, summary *EpochSummary) error {
	if err := foldPendingAttestationList(st, ec, summary, st.PreviousEpochAttestations(), ec.PreviousEpoch, st.PreviousJustifiedCheckpoint(), true); err != nil {
		return errors.Wrap(err, "could not fold previous epoch attestations")
	}
	if err := foldPendingAttestationList(st, ec, summary, st.CurrentEpochAttestations(), ec.CurrentEpoch, st.CurrentJustifiedCheckpoint(), false); err != nil {
		return errors.Wrap(err, "could not fold current epoch attestations")
	}
	return nil
}

func foldPendingAttestationList(
	st *zstate.BeaconState,
	ec *cache.EpochCache,
	summary *EpochSummary,
	attestations []*zstate.PendingAttestation,
	epoch primitives.Epoch,
	justified types.Checkpoint,
	isPrev bool,
) error {
	targetRoot := st.BlockRootAtSlot(beacontime.StartSlot(epoch))

	for _, a := range attestations {
		if a == nil || a.Data == nil {
			continue
		}
		data := a.Data

		committee, err := ec.Committee(data.Slot, data.CommitteeIndex)
		if err != nil {
			return err
		}

		matchingSource := data.Source == justified
		matchingTarget := matchingSource && data.Target.Root == targetRoot
		matchingHead := matchingTarget && data.BeaconBlockRoot == st.BlockRootAtSlot(data.Slot)

		for i, idx := range committee {
			if !a.AggregationBits.BitAt(uint64(i)) {
				continue
			}
			if int(idx) >= len(summary.Validators) {
				continue
			}
			v := summary.Validators[idx]
			if isPrev {
				if matchingSource {
					v.Status |= FlagPrevSource
					if !v.hasInclusion || a.InclusionDelay < v.InclusionDelay {
						v.InclusionDelay = a.InclusionDelay
						v.ProposerIndex = a.ProposerIndex
						v.hasInclusion = true
					}
				}
				if matchingTarget {
					v.Status |= FlagPrevTarget
				}
				if matchingHead {
					v.Status |= FlagPrevHead
				}
			} else if matchingTarget {
				v.Status |= FlagCurrTarget
			}
		}
	}
	return nil
}
