// rewards_penalties.go implements the saturating balance mutation and
// inactivity-leak predicates shared by the justification/finalization,
// inactivity, and rewards sub-phases (spec.md §4.4 a-c).
package helpers

import (
	"github.com/zephyrus-chain/zephyr/config/params"
	"github.com/zephyrus-chain/zephyr/consensus-types/primitives"
	zmath "github.com/zephyrus-chain/zephyr/math"
)

// IncreaseBalance adds delta to balance.
func IncreaseBalance(balance, delta uint64) uint64 {
	return balance + delta
}

// DecreaseBalance subtracts delta from balance, saturating at zero instead
// of underflowing (spec.md §4.7).
func DecreaseBalance(balance, delta uint64) uint64 {
	return zmath.SubUint64Saturating(balance, delta)
}

// TotalBalance sums the effective balances of the given validator indices,
// resolved through balanceOf.
func TotalBalance(indices []primitives.ValidatorIndex, balanceOf EffectiveBalanceLookup) uint64 {
	var total uint64
	for _, idx := range indices {
		total += balanceOf(idx)
	}
	return total
}

// TotalActiveStake floors raw to one EFFECTIVE_BALANCE_INCREMENT so later
// divisions never hit zero (spec.md §3 EpochSummary.total_active_stake).
func TotalActiveStake(raw uint64) uint64 {
	increment := params.BeaconConfig().EffectiveBalanceIncrement
	if raw < increment {
		return increment
	}
	return raw
}

// IsInInactivityLeak reports whether the chain is in an inactivity leak:
// more than MinEpochsToInactivityPenalty epochs have elapsed since the last
// finalized epoch (spec.md §4.4(b), GLOSSARY "Inactivity leak").
func IsInInactivityLeak(prevEpoch, finalizedEpoch primitives.Epoch) bool {
	return uint64(prevEpoch)-uint64(finalizedEpoch) > params.BeaconConfig().MinEpochsToInactivityPenalty
}
