package precompute

import (
	"context"

	"github.com/prysmaticlabs/go-bitfield"
	beacontime "github.com/zephyrus-chain/zephyr/beacon-chain/core/time"
	zstate "github.com/zephyrus-chain/zephyr/beacon-chain/state"
	types "github.com/zephyrus-chain/zephyr/consensus-types"
)

// ProcessJustificationAndFinalizationPreCompute implements spec.md §4.4(a):
// it shifts the justification bitvector, tests the previous and current
// epoch's unslashed target stake against the 2/3 supermajority threshold,
// and applies the 4-bit finality rule. A no-op for the first two epochs
// after genesis (spec.md §8 "Boundary behavior").
func ProcessJustificationAndFinalizationPreCompute(_ context.Context, st *zstate.BeaconState, summary *EpochSummary) error {
	if summary.CurrEpoch <= 1 {
		return nil
	}

	oldPrevJustified := st.PreviousJustifiedCheckpoint()
	oldCurrJustified := st.CurrentJustifiedCheckpoint()
	oldBits := st.JustificationBits()

	bits := bitfield.Bitvector4{0x00}
	bits.SetBitAt(1, oldBits.BitAt(0))
	bits.SetBitAt(2, oldBits.BitAt(1))
	bits.SetBitAt(3, oldBits.BitAt(2))

	st.SetPreviousJustifiedCheckpoint(oldCurrJustified)

	total := summary.Balances.TotalActiveStake

	newCurrJustified := oldCurrJustified
	if summary.Balances.PrevTargetStake*3 >= total*2 {
		bits.SetBitAt(1, true)
		newCurrJustified = types.Checkpoint{
			Epoch: summary.PrevEpoch,
			Root:  st.BlockRootAtSlot(beacontime.StartSlot(summary.PrevEpoch)),
		}
	}
	if summary.Balances.CurrTargetStake*3 >= total*2 {
		bits.SetBitAt(0, true)
		newCurrJustified = types.Checkpoint{
			Epoch: summary.CurrEpoch,
			Root:  st.BlockRootAtSlot(beacontime.StartSlot(summary.CurrEpoch)),
		}
	}
	st.SetCurrentJustifiedCheckpoint(newCurrJustified)

	// Four independent sequential tests, not a first-match switch: later
	// tests override earlier ones when more than one is satisfiable, so the
	// most recent finalizable checkpoint wins (canonical
	// process_justification_and_finalization; the teacher's
	// processJustificationAndFinalizationPreCompute is the same four ifs).
	finalized := st.FinalizedCheckpoint()
	if bits.BitAt(1) && bits.BitAt(2) && bits.BitAt(3) && oldPrevJustified.Epoch+3 == summary.CurrEpoch {
		finalized = oldPrevJustified
	}
	if bits.BitAt(1) && bits.BitAt(2) && oldPrevJustified.Epoch+2 == summary.CurrEpoch {
		finalized = oldPrevJustified
	}
	if bits.BitAt(0) && bits.BitAt(1) && bits.BitAt(2) && oldCurrJustified.Epoch+2 == summary.CurrEpoch {
		finalized = oldCurrJustified
	}
	if bits.BitAt(0) && bits.BitAt(1) && oldCurrJustified.Epoch+1 == summary.CurrEpoch {
		finalized = oldCurrJustified
	}
	st.SetFinalizedCheckpoint(finalized)
	st.SetJustificationBits(bits)

	return nil
}
