package precompute

import (
	"context"

	"github.com/zephyrus-chain/zephyr/beacon-chain/core/helpers"
	zstate "github.com/zephyrus-chain/zephyr/beacon-chain/state"
	"github.com/zephyrus-chain/zephyr/config/params"
	zmath "github.com/zephyrus-chain/zephyr/math"
	"github.com/zephyrus-chain/zephyr/runtime/version"
)

// ProcessSlashingsPrecompute implements spec.md §4.4(e): penalize every
// index New placed in IndicesToSlash in proportion to the total slashed
// balance across the EPOCHS_PER_SLASHINGS_VECTOR window, floored to the
// increment like every other stake-weighted quantity in this package.
func ProcessSlashingsPrecompute(_ context.Context, st *zstate.BeaconState, summary *EpochSummary) error {
	if len(summary.IndicesToSlash) == 0 {
		return nil
	}
	cfg := params.BeaconConfig()

	var totalSlashed uint64
	for _, s := range st.Slashings() {
		totalSlashed += s
	}
	multiplier := cfg.ProportionalSlashingMultiplier
	if st.Fork() != version.Phase0 {
		multiplier = cfg.ProportionalSlashingMultiplierAltair
	}
	adjusted := totalSlashed * multiplier
	if adjusted > summary.Balances.TotalActiveStake {
		adjusted = summary.Balances.TotalActiveStake
	}

	increment := cfg.EffectiveBalanceIncrement
	balances := st.Balances()
	flat := make([]uint64, len(balances))
	copy(flat, balances)

	for _, idx := range summary.IndicesToSlash {
		if int(idx) >= len(flat) {
			continue
		}
		effectiveBalance := summary.Validators[idx].EffectiveBalance
		quotient := effectiveBalance / increment
		penaltyNumerator, err := zmath.MulDiv64(quotient, adjusted, summary.Balances.TotalActiveStake)
		if err != nil {
			return err
		}
		penalty := penaltyNumerator * increment
		flat[idx] = helpers.DecreaseBalance(flat[idx], penalty)
	}

	st.SetBalances(flat)
	return nil
}
