package epoch

import (
	"context"
	"testing"

	"github.com/zephyrus-chain/zephyr/beacon-chain/core/epoch/precompute"
	zstate "github.com/zephyrus-chain/zephyr/beacon-chain/state"
	"github.com/zephyrus-chain/zephyr/config/params"
	types "github.com/zephyrus-chain/zephyr/consensus-types"
	"github.com/zephyrus-chain/zephyr/consensus-types/primitives"
	"github.com/zephyrus-chain/zephyr/runtime/version"
)

func TestProcessEth1DataReset_ClearsOnPeriodBoundary(t *testing.T) {
	params.OverrideBeaconConfig(params.MinimalConfig())
	defer params.OverrideBeaconConfig(params.MainnetConfig())
	cfg := params.BeaconConfig()

	st := zstate.New(version.Phase0, 1)
	st.AppendEth1DataVote(&types.Eth1Data{})
	if st.Eth1DataVotesLen() != 1 {
		t.Fatal("expected one vote recorded before reset")
	}

	summary := &precompute.EpochSummary{CurrEpoch: cfg.EpochsPerEth1VotingPeriod - 1}
	if err := ProcessEth1DataReset(context.Background(), st, summary); err != nil {
		t.Fatalf("ProcessEth1DataReset: %v", err)
	}
	if st.Eth1DataVotesLen() != 0 {
		t.Errorf("expected votes cleared at period boundary, got %d", st.Eth1DataVotesLen())
	}
}

func TestProcessEth1DataReset_NoOpMidPeriod(t *testing.T) {
	params.OverrideBeaconConfig(params.MinimalConfig())
	defer params.OverrideBeaconConfig(params.MainnetConfig())

	st := zstate.New(version.Phase0, 1)
	st.AppendEth1DataVote(&types.Eth1Data{})

	summary := &precompute.EpochSummary{CurrEpoch: 0}
	if err := ProcessEth1DataReset(context.Background(), st, summary); err != nil {
		t.Fatalf("ProcessEth1DataReset: %v", err)
	}
	if st.Eth1DataVotesLen() != 1 {
		t.Errorf("expected vote untouched mid-period, got %d", st.Eth1DataVotesLen())
	}
}

func TestProcessEffectiveBalanceUpdates_AppliesOutsideHysteresisBand(t *testing.T) {
	params.OverrideBeaconConfig(params.MinimalConfig())
	defer params.OverrideBeaconConfig(params.MainnetConfig())
	cfg := params.BeaconConfig()

	v := &types.Validator{
		EffectiveBalance:  cfg.MaxEffectiveBalance,
		ExitEpoch:         cfg.FarFutureEpoch,
		WithdrawableEpoch: cfg.FarFutureEpoch,
	}
	st := zstate.New(version.Phase0, 1)
	if err := st.UpdateValidator(0, v); err != nil {
		t.Fatalf("UpdateValidator: %v", err)
	}
	st.SetBalances([]uint64{cfg.MaxEffectiveBalance - cfg.EffectiveBalanceIncrement*10})

	if err := ProcessEffectiveBalanceUpdates(context.Background(), st); err != nil {
		t.Fatalf("ProcessEffectiveBalanceUpdates: %v", err)
	}
	if st.ValidatorAt(0).EffectiveBalance == cfg.MaxEffectiveBalance {
		t.Error("expected effective balance to move down outside the hysteresis band")
	}
}

func TestProcessEffectiveBalanceUpdates_NoOpWithinHysteresisBand(t *testing.T) {
	params.OverrideBeaconConfig(params.MinimalConfig())
	defer params.OverrideBeaconConfig(params.MainnetConfig())
	cfg := params.BeaconConfig()

	v := &types.Validator{
		EffectiveBalance:  cfg.MaxEffectiveBalance,
		ExitEpoch:         cfg.FarFutureEpoch,
		WithdrawableEpoch: cfg.FarFutureEpoch,
	}
	st := zstate.New(version.Phase0, 1)
	if err := st.UpdateValidator(0, v); err != nil {
		t.Fatalf("UpdateValidator: %v", err)
	}
	st.SetBalances([]uint64{cfg.MaxEffectiveBalance})

	if err := ProcessEffectiveBalanceUpdates(context.Background(), st); err != nil {
		t.Fatalf("ProcessEffectiveBalanceUpdates: %v", err)
	}
	if st.ValidatorAt(0).EffectiveBalance != cfg.MaxEffectiveBalance {
		t.Error("expected effective balance untouched within the hysteresis band")
	}
}

func TestProcessSlashingsReset_ZeroesNextEpochSlot(t *testing.T) {
	params.OverrideBeaconConfig(params.MinimalConfig())
	defer params.OverrideBeaconConfig(params.MainnetConfig())
	cfg := params.BeaconConfig()

	st := zstate.New(version.Phase0, 1)
	nextPosition := uint64(1) % cfg.EpochsPerSlashingsVector
	if err := st.SetSlashingAt(nextPosition, cfg.MaxEffectiveBalance); err != nil {
		t.Fatalf("SetSlashingAt: %v", err)
	}

	summary := &precompute.EpochSummary{CurrEpoch: 0}
	if err := ProcessSlashingsReset(context.Background(), st, summary); err != nil {
		t.Fatalf("ProcessSlashingsReset: %v", err)
	}
	if st.SlashingAt(nextPosition) != 0 {
		t.Errorf("expected next epoch's slashings slot zeroed, got %d", st.SlashingAt(nextPosition))
	}
}

func TestProcessRandaoMixesReset_CopiesCurrentMixForward(t *testing.T) {
	params.OverrideBeaconConfig(params.MinimalConfig())
	defer params.OverrideBeaconConfig(params.MainnetConfig())
	cfg := params.BeaconConfig()

	st := zstate.New(version.Phase0, 1)
	mix := [32]byte{9}
	currentPosition := uint64(0) % cfg.EpochsPerHistoricalVector
	if err := st.SetRandaoMixAt(currentPosition, mix); err != nil {
		t.Fatalf("SetRandaoMixAt: %v", err)
	}

	summary := &precompute.EpochSummary{CurrEpoch: 0}
	if err := ProcessRandaoMixesReset(context.Background(), st, summary); err != nil {
		t.Fatalf("ProcessRandaoMixesReset: %v", err)
	}
	nextPosition := uint64(1) % cfg.EpochsPerHistoricalVector
	if st.RandaoMixAt(nextPosition) != mix {
		t.Error("expected next epoch's randao mix slot seeded with the current mix")
	}
}

func TestProcessParticipationRecordUpdates_RotatesPerFork(t *testing.T) {
	params.OverrideBeaconConfig(params.MinimalConfig())
	defer params.OverrideBeaconConfig(params.MainnetConfig())

	phase0St := zstate.New(version.Phase0, 1)
	if err := ProcessParticipationRecordUpdates(context.Background(), phase0St); err != nil {
		t.Fatalf("ProcessParticipationRecordUpdates (phase0): %v", err)
	}
	if len(phase0St.PreviousEpochAttestations()) != 0 || len(phase0St.CurrentEpochAttestations()) != 0 {
		t.Error("expected empty phase0 attestation ledgers after rotating a fresh state")
	}

	altairSt := zstate.New(version.Altair, 1)
	if err := ProcessParticipationRecordUpdates(context.Background(), altairSt); err != nil {
		t.Fatalf("ProcessParticipationRecordUpdates (altair): %v", err)
	}
}

func TestProcessHistoricalRootsUpdate_FoldsOnBoundary(t *testing.T) {
	params.OverrideBeaconConfig(params.MinimalConfig())
	defer params.OverrideBeaconConfig(params.MainnetConfig())
	cfg := params.BeaconConfig()

	st := zstate.New(version.Phase0, 1)
	epochsPerHistoricalRoot := cfg.SlotsPerHistoricalRoot / cfg.SlotsPerEpoch
	summary := &precompute.EpochSummary{CurrEpoch: primitives.Epoch(epochsPerHistoricalRoot - 1)}

	if err := ProcessHistoricalRootsUpdate(context.Background(), st, summary); err != nil {
		t.Fatalf("ProcessHistoricalRootsUpdate: %v", err)
	}
	if len(st.HistoricalRoots()) != 1 {
		t.Errorf("expected one historical root folded at the boundary, got %d", len(st.HistoricalRoots()))
	}
}
