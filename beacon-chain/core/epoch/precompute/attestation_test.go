package precompute

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/go-bitfield"
	"github.com/zephyrus-chain/zephyr/beacon-chain/cache"
	zstate "github.com/zephyrus-chain/zephyr/beacon-chain/state"
	"github.com/zephyrus-chain/zephyr/config/params"
	types "github.com/zephyrus-chain/zephyr/consensus-types"
	"github.com/zephyrus-chain/zephyr/consensus-types/primitives"
	"github.com/zephyrus-chain/zephyr/runtime/version"
)

func activeValidatorSet(n int, cfg *params.BeaconConfig) []*types.Validator {
	out := make([]*types.Validator, n)
	for i := range out {
		out[i] = &types.Validator{
			EffectiveBalance:  cfg.MaxEffectiveBalance,
			ExitEpoch:         cfg.FarFutureEpoch,
			WithdrawableEpoch: cfg.FarFutureEpoch,
		}
	}
	return out
}

func TestProcessAttestations_Phase0_MatchesFullCommittee(t *testing.T) {
	params.OverrideBeaconConfig(params.MinimalConfig())
	defer params.OverrideBeaconConfig(params.MainnetConfig())
	cfg := params.BeaconConfig()

	validators := activeValidatorSet(4, cfg)
	st := buildTestState(t, version.Phase0, validators, primitives.Slot(cfg.SlotsPerEpoch))

	ec, err := cache.Build(st)
	if err != nil {
		t.Fatalf("cache.Build: %v", err)
	}
	committee, err := ec.Committee(0, 0)
	if err != nil {
		t.Fatalf("Committee: %v", err)
	}
	if len(committee) == 0 {
		t.Fatal("expected a non-empty committee for slot 0")
	}

	bits := bitfield.NewBitlist(uint64(len(committee)))
	for i := range committee {
		bits.SetBitAt(uint64(i), true)
	}

	att := &zstate.PendingAttestation{
		AggregationBits: bits,
		Data: &zstate.AttestationData{
			Slot:           0,
			CommitteeIndex: 0,
			Source:         st.PreviousJustifiedCheckpoint(),
			Target:         types.Checkpoint{Epoch: 0},
		},
		InclusionDelay: 1,
		ProposerIndex:  0,
	}
	st.AppendCurrentEpochAttestation(att)
	st.RotatePhase0Attestations()

	summary, err := New(context.Background(), st, ec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := ProcessAttestations(context.Background(), st, ec, summary); err != nil {
		t.Fatalf("ProcessAttestations: %v", err)
	}

	for _, idx := range committee {
		v := summary.Validators[idx]
		if !HasFlag(v.Status, FlagPrevSource) {
			t.Errorf("validator %d: expected PrevSource flag set", idx)
		}
		if !HasFlag(v.Status, FlagPrevTarget) {
			t.Errorf("validator %d: expected PrevTarget flag set", idx)
		}
		if !HasFlag(v.Status, FlagPrevHead) {
			t.Errorf("validator %d: expected PrevHead flag set", idx)
		}
	}
	if summary.Balances.PrevSourceStake == 0 {
		t.Error("expected non-zero PrevSourceStake after folding a matching attestation")
	}
}

func TestProcessAttestations_Altair_ReadsParticipationBytes(t *testing.T) {
	params.OverrideBeaconConfig(params.MinimalConfig())
	defer params.OverrideBeaconConfig(params.MainnetConfig())
	cfg := params.BeaconConfig()

	validators := activeValidatorSet(2, cfg)
	st := buildTestState(t, version.Altair, validators, primitives.Slot(cfg.SlotsPerEpoch))
	if err := st.SetCurrentEpochParticipationAt(0, zstate.TimelySourceFlag|zstate.TimelyTargetFlag); err != nil {
		t.Fatalf("SetCurrentEpochParticipationAt: %v", err)
	}
	st.RotateAltairParticipation()

	ec, err := cache.Build(st)
	if err != nil {
		t.Fatalf("cache.Build: %v", err)
	}
	summary, err := New(context.Background(), st, ec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := ProcessAttestations(context.Background(), st, ec, summary); err != nil {
		t.Fatalf("ProcessAttestations: %v", err)
	}

	if !HasFlag(summary.Validators[0].Status, FlagPrevSource) {
		t.Error("validator 0: expected PrevSource flag from participation byte")
	}
	if !HasFlag(summary.Validators[0].Status, FlagPrevTarget) {
		t.Error("validator 0: expected PrevTarget flag from participation byte")
	}
	if HasFlag(summary.Validators[1].Status, FlagPrevSource) {
		t.Error("validator 1: expected no PrevSource flag")
	}
}
