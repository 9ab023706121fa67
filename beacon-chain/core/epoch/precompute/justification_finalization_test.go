package precompute

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/go-bitfield"
	beacontime "github.com/zephyrus-chain/zephyr/beacon-chain/core/time"
	"github.com/zephyrus-chain/zephyr/config/params"
	types "github.com/zephyrus-chain/zephyr/consensus-types"
	"github.com/zephyrus-chain/zephyr/consensus-types/primitives"
	"github.com/zephyrus-chain/zephyr/runtime/version"
)

func TestProcessJustificationAndFinalizationPreCompute_JustifiesCurrentEpoch(t *testing.T) {
	params.OverrideBeaconConfig(params.MinimalConfig())
	defer params.OverrideBeaconConfig(params.MainnetConfig())
	cfg := params.BeaconConfig()

	st := buildTestState(t, version.Phase0, activeValidatorSet(4, cfg), primitives.Slot(2*cfg.SlotsPerEpoch))
	root := [32]byte{7}
	if err := st.SetBlockRootAtSlot(beacontime.StartSlot(2), root); err != nil {
		t.Fatalf("SetBlockRootAtSlot: %v", err)
	}

	total := 4 * cfg.MaxEffectiveBalance
	summary := &EpochSummary{
		PrevEpoch: 1,
		CurrEpoch: 2,
		Balances: Balance{
			TotalActiveStake: total,
			CurrTargetStake:  total,
		},
	}

	if err := ProcessJustificationAndFinalizationPreCompute(context.Background(), st, summary); err != nil {
		t.Fatalf("ProcessJustificationAndFinalizationPreCompute: %v", err)
	}

	if !st.JustificationBits().BitAt(0) {
		t.Error("expected bit 0 set after justifying the current epoch")
	}
	cjc := st.CurrentJustifiedCheckpoint()
	if cjc.Epoch != 2 || cjc.Root != root {
		t.Errorf("unexpected current justified checkpoint: %+v", cjc)
	}
}

func TestProcessJustificationAndFinalizationPreCompute_NoOpBeforeEpochTwo(t *testing.T) {
	params.OverrideBeaconConfig(params.MinimalConfig())
	defer params.OverrideBeaconConfig(params.MainnetConfig())
	cfg := params.BeaconConfig()

	st := buildTestState(t, version.Phase0, activeValidatorSet(2, cfg), primitives.Slot(cfg.SlotsPerEpoch))
	before := st.JustificationBits()
	summary := &EpochSummary{PrevEpoch: 0, CurrEpoch: 1}
	if err := ProcessJustificationAndFinalizationPreCompute(context.Background(), st, summary); err != nil {
		t.Fatalf("ProcessJustificationAndFinalizationPreCompute: %v", err)
	}
	if !bitsEqual(before, st.JustificationBits()) {
		t.Error("expected justification bits untouched when CurrEpoch <= 1")
	}
}

// TestProcessJustificationAndFinalizationPreCompute_SteadyStateFinalizesMostRecent
// covers the ordinary steady-state case where both the one-back and
// two-back finality rules are satisfiable at once: bits 0-2 all set from a
// prior justification streak, oldPrevJustified.Epoch == CurrEpoch-2, and
// oldCurrJustified.Epoch == CurrEpoch-1. The most recent checkpoint
// (oldCurrJustified) must win, not the first rule that happens to match.
func TestProcessJustificationAndFinalizationPreCompute_SteadyStateFinalizesMostRecent(t *testing.T) {
	params.OverrideBeaconConfig(params.MinimalConfig())
	defer params.OverrideBeaconConfig(params.MainnetConfig())
	cfg := params.BeaconConfig()

	st := buildTestState(t, version.Phase0, activeValidatorSet(4, cfg), primitives.Slot(4*cfg.SlotsPerEpoch))
	currRoot := [32]byte{9}
	if err := st.SetBlockRootAtSlot(beacontime.StartSlot(3), currRoot); err != nil {
		t.Fatalf("SetBlockRootAtSlot: %v", err)
	}

	prevJustified := types.Checkpoint{Epoch: 1, Root: [32]byte{1}}
	currJustified := types.Checkpoint{Epoch: 2, Root: [32]byte{2}}
	st.SetPreviousJustifiedCheckpoint(prevJustified)
	st.SetCurrentJustifiedCheckpoint(currJustified)
	bits := bitfield.Bitvector4{0b0111}
	st.SetJustificationBits(bits)

	total := 4 * cfg.MaxEffectiveBalance
	summary := &EpochSummary{
		PrevEpoch: 2,
		CurrEpoch: 3,
		Balances: Balance{
			TotalActiveStake: total,
			PrevTargetStake:  total,
			CurrTargetStake:  total,
		},
	}

	if err := ProcessJustificationAndFinalizationPreCompute(context.Background(), st, summary); err != nil {
		t.Fatalf("ProcessJustificationAndFinalizationPreCompute: %v", err)
	}

	finalized := st.FinalizedCheckpoint()
	if finalized.Epoch != currJustified.Epoch {
		t.Errorf("expected finalized checkpoint at epoch %d (most recent match), got epoch %d", currJustified.Epoch, finalized.Epoch)
	}
}

func bitsEqual(a, b interface{ BitAt(uint64) bool }) bool {
	for i := uint64(0); i < 4; i++ {
		if a.BitAt(i) != b.BitAt(i) {
			return false
		}
	}
	return true
}
