// Package precompute implements the Epoch Summary Builder (C3): a single
// pass over the validator set that produces the disposable EpochSummary
// every sub-phase processor reads instead of re-scanning validators itself
// (spec.md §3 "Epoch Summary", §4.3, §9 "Disposable epoch state"). Grounded
// on the historical precompute package's Validator/Balance split
// (beacon-chain/core/altair epoch_precompute.go in the retrieved reference
// set) and on the teacher's own precompute test fixtures.
package precompute

import "github.com/zephyrus-chain/zephyr/consensus-types/primitives"

// Attester status bits, folded during the single validator scan (spec.md §3
// "Attester Status").
const (
	FlagUnslashed uint8 = 1 << iota
	FlagEligibleAttester
	FlagPrevSource
	FlagPrevTarget
	FlagPrevHead
	FlagCurrSource
	FlagCurrTarget
	FlagCurrHead
)

// HasFlag reports whether bit is set in status.
func HasFlag(status uint8, bit uint8) bool { return status&bit == bit }

// Validator is the disposable per-validator record the summary builder
// produces: the attester status bitflags plus whatever fields later
// sub-phases need without touching the validator registry again.
type Validator struct {
	Index             primitives.ValidatorIndex
	EffectiveBalance  uint64
	Active            bool
	Slashed           bool
	WithdrawableEpoch primitives.Epoch
	Status            uint8
	InactivityScore   uint64

	// Phase 0 only: the inclusion delay and proposer of the source-matching
	// attestation with the smallest inclusion delay, used by the phase 0
	// reward formula's proposer share and inclusion-delay scaling (spec.md
	// §4.4(c) "inclusion delay (for attesters: proposer share
	// 1/PROPOSER_REWARD_QUOTIENT)"). Zero/unset when the validator earned no
	// source-matching attestation.
	InclusionDelay primitives.Slot
	ProposerIndex  primitives.ValidatorIndex
	hasInclusion   bool
}

// Balance accumulates the unslashed-stake sums the reward formulas and the
// justification rule read; every stake sum here is floored to one
// EFFECTIVE_BALANCE_INCREMENT so later divisions never hit zero (spec.md §3,
// §8 "zero active validators").
type Balance struct {
	TotalActiveStake uint64

	PrevSourceStake uint64
	PrevTargetStake uint64
	PrevHeadStake   uint64
	CurrTargetStake uint64

	BaseRewardPerIncrement uint64
}

// EpochSummary is the full disposable output of New: per-validator
// statuses, the folded balance sums, and the index buckets the registry,
// slashings, and rewards sub-phases consume directly (spec.md §3 "Epoch
// Summary"). It is created at the start of process_epoch and discarded at
// the end (spec.md §9).
type EpochSummary struct {
	PrevEpoch primitives.Epoch
	CurrEpoch primitives.Epoch

	Validators []*Validator
	Balances   Balance

	IndicesToSlash                    []primitives.ValidatorIndex
	IndicesEligibleForActivationQueue []primitives.ValidatorIndex
	// IndicesEligibleForActivation is sorted by (activation_eligibility_epoch, index).
	IndicesEligibleForActivation []primitives.ValidatorIndex
	IndicesToEject               []primitives.ValidatorIndex
	NextEpochActiveIndices       []primitives.ValidatorIndex
}
