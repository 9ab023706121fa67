package precompute

import (
	"context"

	"github.com/zephyrus-chain/zephyr/beacon-chain/core/helpers"
	zstate "github.com/zephyrus-chain/zephyr/beacon-chain/state"
	"github.com/zephyrus-chain/zephyr/config/params"
	"github.com/zephyrus-chain/zephyr/consensus-types/primitives"
	zmath "github.com/zephyrus-chain/zephyr/math"
	"github.com/zephyrus-chain/zephyr/runtime/version"
)

// ProcessRewardsAndPenaltiesPrecompute implements spec.md §4.4(c): skipped
// entirely at epoch 0, otherwise computes every validator's reward/penalty
// delta against a flat balances buffer and rebuilds the balances tree once
// at the end (spec.md §9 "Tree-versus-flat balance handling").
func ProcessRewardsAndPenaltiesPrecompute(_ context.Context, st *zstate.BeaconState, summary *EpochSummary) error {
	if summary.CurrEpoch == 0 {
		return nil
	}

	balances := st.Balances()
	flat := make([]uint64, len(balances))
	copy(flat, balances)

	var err error
	if st.Fork() == version.Phase0 {
		err = applyPhase0Deltas(st, summary, flat)
	} else {
		err = applyAltairDeltas(st, summary, flat)
	}
	if err != nil {
		return err
	}

	st.SetBalances(flat)
	return nil
}

func baseReward(effectiveBalance uint64, sqrtActiveStake uint64, cfg *params.BeaconConfig) uint64 {
	if sqrtActiveStake == 0 {
		return 0
	}
	return effectiveBalance * cfg.BaseRewardFactor / sqrtActiveStake / cfg.BaseRewardsPerEpoch
}

func applyPhase0Deltas(st *zstate.BeaconState, summary *EpochSummary, flat []uint64) error {
	cfg := params.BeaconConfig()
	sqrtStake := zmath.IntegerSquareRoot(summary.Balances.TotalActiveStake)
	leak := helpers.IsInInactivityLeak(summary.PrevEpoch, st.FinalizedCheckpoint().Epoch)
	finalityDelay := finalityDelayEpochs(summary.PrevEpoch, st.FinalizedCheckpoint().Epoch)

	proposerCredits := make(map[primitives.ValidatorIndex]uint64)

	for _, v := range summary.Validators {
		if !HasFlag(v.Status, FlagEligibleAttester) {
			continue
		}
		br := baseReward(v.EffectiveBalance, sqrtStake, cfg)

		matchedSource := HasFlag(v.Status, FlagUnslashed) && HasFlag(v.Status, FlagPrevSource)
		matchedTarget := HasFlag(v.Status, FlagUnslashed) && HasFlag(v.Status, FlagPrevTarget)
		matchedHead := HasFlag(v.Status, FlagUnslashed) && HasFlag(v.Status, FlagPrevHead)

		if matchedSource {
			proposerShare := br / cfg.ProposerRewardQuotient
			attesterShare := br - proposerShare
			delay := uint64(v.InclusionDelay)
			if delay == 0 {
				delay = 1
			}
			flat[v.Index] = helpers.IncreaseBalance(flat[v.Index], attesterShare/delay)
			proposerCredits[v.ProposerIndex] += proposerShare
		} else if !leak {
			flat[v.Index] = helpers.DecreaseBalance(flat[v.Index], br)
		}

		if matchedTarget {
			rewardOrPenaltyByStake(flat, v, br, summary.Balances.PrevTargetStake, summary.Balances.TotalActiveStake, leak)
		} else if !leak {
			flat[v.Index] = helpers.DecreaseBalance(flat[v.Index], br)
		}

		if matchedHead {
			rewardOrPenaltyByStake(flat, v, br, summary.Balances.PrevHeadStake, summary.Balances.TotalActiveStake, leak)
		} else if !leak {
			flat[v.Index] = helpers.DecreaseBalance(flat[v.Index], br)
		}

		if leak {
			leakPenalty, err := zmath.MulDiv64(v.EffectiveBalance, finalityDelay, cfg.InactivityPenaltyQuotient)
			if err != nil {
				return err
			}
			flat[v.Index] = helpers.DecreaseBalance(flat[v.Index], leakPenalty)
		}
	}

	for idx, credit := range proposerCredits {
		if int(idx) < len(flat) {
			flat[idx] = helpers.IncreaseBalance(flat[idx], credit)
		}
	}
	return nil
}

// rewardOrPenaltyByStake applies a reward scaled by matchingStake/totalStake
// when not in a leak (outside a leak, a matched flag is always rewarded
// here; the leak-case penalty path is handled by the caller).
func rewardOrPenaltyByStake(flat []uint64, v *Validator, br, matchingStake, totalStake uint64, leak bool) {
	if leak {
		return
	}
	reward, err := zmath.MulDiv64(br, matchingStake, totalStake)
	if err != nil {
		return
	}
	flat[v.Index] = helpers.IncreaseBalance(flat[v.Index], reward)
}

func applyAltairDeltas(st *zstate.BeaconState, summary *EpochSummary, flat []uint64) error {
	cfg := params.BeaconConfig()
	leak := helpers.IsInInactivityLeak(summary.PrevEpoch, st.FinalizedCheckpoint().Epoch)
	increment := cfg.EffectiveBalanceIncrement

	type flagWeight struct {
		flag        uint8
		weight      uint64
		penalizable bool
	}
	flags := []flagWeight{
		{FlagPrevSource, cfg.TimelySourceWeight, true},
		{FlagPrevTarget, cfg.TimelyTargetWeight, true},
		{FlagPrevHead, cfg.TimelyHeadWeight, false},
	}

	for _, v := range summary.Validators {
		if !HasFlag(v.Status, FlagEligibleAttester) {
			continue
		}
		increments := v.EffectiveBalance / increment
		baseRewardTotal := increments * summary.Balances.BaseRewardPerIncrement

		for _, fw := range flags {
			component, err := zmath.MulDiv64(baseRewardTotal, fw.weight, cfg.WeightDenominator)
			if err != nil {
				return err
			}
			matched := HasFlag(v.Status, FlagUnslashed) && HasFlag(v.Status, fw.flag)
			switch {
			case matched && !leak:
				flat[v.Index] = helpers.IncreaseBalance(flat[v.Index], component)
			case !matched && fw.penalizable:
				flat[v.Index] = helpers.DecreaseBalance(flat[v.Index], component)
			}
		}

		inactivityPenalty, err := zmath.MulDiv64(v.EffectiveBalance, v.InactivityScore, cfg.InactivityScoreBias*cfg.InactivityPenaltyQuotientAltair)
		if err != nil {
			return err
		}
		flat[v.Index] = helpers.DecreaseBalance(flat[v.Index], inactivityPenalty)
	}
	return nil
}

func finalityDelayEpochs(prevEpoch, finalizedEpoch primitives.Epoch) uint64 {
	if finalizedEpoch > prevEpoch {
		return 0
	}
	return uint64(prevEpoch - finalizedEpoch)
}
