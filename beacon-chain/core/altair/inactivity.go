// Package altair implements the Altair-only epoch sub-phases that have no
// phase 0 counterpart: the inactivity score update (spec.md §4.4(b)) and
// the sync committee rotation (spec.md §4.4(l)). Grounded on the historical
// precompute package's ProcessInactivityScores shape (see
// beacon-chain/core/altair/epoch_precompute.go in the retrieved reference
// set) and on the teacher's own beacon-chain/core/altair package layout.
package altair

import (
	"context"

	"github.com/zephyrus-chain/zephyr/beacon-chain/core/epoch/precompute"
	"github.com/zephyrus-chain/zephyr/beacon-chain/core/helpers"
	zstate "github.com/zephyrus-chain/zephyr/beacon-chain/state"
	"github.com/zephyrus-chain/zephyr/config/params"
	zmath "github.com/zephyrus-chain/zephyr/math"
)

// ProcessInactivityScores implements spec.md §4.4(b): for every eligible
// attester, decrement the inactivity score toward zero on a timely target
// vote and otherwise increment it by INACTIVITY_SCORE_BIAS; outside a leak,
// additionally decay it by INACTIVITY_SCORE_RECOVERY_RATE. The updated
// scores are written back to both the summary (so rewards read the
// post-update value, matching the orchestrator's fixed ordering) and the
// state.
func ProcessInactivityScores(_ context.Context, st *zstate.BeaconState, summary *precompute.EpochSummary) error {
	if summary.CurrEpoch == 0 {
		return nil
	}

	cfg := params.BeaconConfig()
	leak := helpers.IsInInactivityLeak(summary.PrevEpoch, st.FinalizedCheckpoint().Epoch)

	scores := st.InactivityScores()
	flat := make([]uint64, len(scores))
	copy(flat, scores)

	for _, v := range summary.Validators {
		if !precompute.HasFlag(v.Status, precompute.FlagEligibleAttester) {
			continue
		}
		score := v.InactivityScore
		if precompute.HasFlag(v.Status, precompute.FlagUnslashed) && precompute.HasFlag(v.Status, precompute.FlagPrevTarget) {
			score = zmath.SubUint64Saturating(score, 1)
		} else {
			score += cfg.InactivityScoreBias
		}
		if !leak {
			score = zmath.SubUint64Saturating(score, cfg.InactivityScoreRecoveryRate)
		}
		v.InactivityScore = score
		if int(v.Index) < len(flat) {
			flat[v.Index] = score
		}
	}

	st.SetInactivityScores(flat)
	return nil
}
