package precompute

import (
	"context"
	"testing"

	"github.com/zephyrus-chain/zephyr/beacon-chain/cache"
	zstate "github.com/zephyrus-chain/zephyr/beacon-chain/state"
	"github.com/zephyrus-chain/zephyr/config/params"
	types "github.com/zephyrus-chain/zephyr/consensus-types"
	"github.com/zephyrus-chain/zephyr/consensus-types/primitives"
	"github.com/zephyrus-chain/zephyr/runtime/version"
)

func buildTestState(t *testing.T, fork version.Fork, validators []*types.Validator, slot primitives.Slot) *zstate.BeaconState {
	t.Helper()
	st := zstate.New(fork, len(validators))
	st.SetSlot(slot)
	for i, v := range validators {
		if err := st.UpdateValidator(i, v); err != nil {
			t.Fatalf("UpdateValidator(%d): %v", i, err)
		}
	}
	balances := make([]uint64, len(validators))
	for i, v := range validators {
		balances[i] = v.EffectiveBalance
	}
	st.SetBalances(balances)
	return st
}

func TestNew_ValidatorStatuses(t *testing.T) {
	params.OverrideBeaconConfig(params.MinimalConfig())
	defer params.OverrideBeaconConfig(params.MainnetConfig())
	cfg := params.BeaconConfig()
	ffe := cfg.FarFutureEpoch

	validators := []*types.Validator{
		// 0: slashed, withdrawable right at this epoch's slashing bucket boundary.
		{Slashed: true, WithdrawableEpoch: primitives.Epoch(1 + cfg.EpochsPerSlashingsVector/2), EffectiveBalance: cfg.MaxEffectiveBalance, ExitEpoch: ffe},
		// 1: active both prev and current epoch.
		{WithdrawableEpoch: ffe, ExitEpoch: ffe, ActivationEpoch: 0, EffectiveBalance: cfg.MaxEffectiveBalance},
		// 2: exited before current epoch, never active at current.
		{WithdrawableEpoch: ffe, ExitEpoch: 1, ActivationEpoch: 0, EffectiveBalance: cfg.MaxEffectiveBalance},
		// 3: brand new, eligible for the activation-eligibility queue.
		{WithdrawableEpoch: ffe, ExitEpoch: ffe, ActivationEligibilityEpoch: ffe, ActivationEpoch: ffe, EffectiveBalance: cfg.MaxEffectiveBalance},
	}
	st := buildTestState(t, version.Phase0, validators, primitives.Slot(cfg.SlotsPerEpoch))

	ec, err := cache.Build(st)
	if err != nil {
		t.Fatalf("cache.Build: %v", err)
	}
	summary, err := New(context.Background(), st, ec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if summary.Validators[0].Status&FlagUnslashed != 0 {
		t.Error("validator 0 should not be unslashed this epoch")
	}
	if len(summary.IndicesToSlash) != 1 || summary.IndicesToSlash[0] != 0 {
		t.Errorf("expected validator 0 in IndicesToSlash, got %v", summary.IndicesToSlash)
	}
	if !summary.Validators[1].Active {
		t.Error("validator 1 should be active at current epoch")
	}
	found := false
	for _, idx := range summary.IndicesEligibleForActivationQueue {
		if idx == 3 {
			found = true
		}
	}
	if !found {
		t.Error("validator 3 should be queued for activation eligibility")
	}
}

// TestNew_EjectionAppliesOnlyToActiveLowBalanceValidators guards against
// the active/queue/activation/eject ladder inverting ejection: an active
// validator whose balance drops to the ejection threshold must be both
// counted toward total active stake and placed in IndicesToEject, while a
// not-yet-active validator pending activation at the same low balance must
// never be ejected (spec.md §4.3 step 6, §8 scenario 3).
func TestNew_EjectionAppliesOnlyToActiveLowBalanceValidators(t *testing.T) {
	params.OverrideBeaconConfig(params.MinimalConfig())
	defer params.OverrideBeaconConfig(params.MainnetConfig())
	cfg := params.BeaconConfig()
	ffe := cfg.FarFutureEpoch

	validators := []*types.Validator{
		// 0: active, balance fell below the ejection threshold.
		{WithdrawableEpoch: ffe, ExitEpoch: ffe, ActivationEpoch: 0, EffectiveBalance: cfg.EjectionBalance - cfg.EffectiveBalanceIncrement},
		// 1: not yet active (activation pending), same low balance.
		{WithdrawableEpoch: ffe, ExitEpoch: ffe, ActivationEligibilityEpoch: 0, ActivationEpoch: ffe, EffectiveBalance: cfg.EjectionBalance - cfg.EffectiveBalanceIncrement},
	}
	st := buildTestState(t, version.Phase0, validators, primitives.Slot(cfg.SlotsPerEpoch))

	ec, err := cache.Build(st)
	if err != nil {
		t.Fatalf("cache.Build: %v", err)
	}
	summary, err := New(context.Background(), st, ec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if !summary.Validators[0].Active {
		t.Error("validator 0 should still be counted active at current epoch")
	}
	ejected := map[primitives.ValidatorIndex]bool{}
	for _, idx := range summary.IndicesToEject {
		ejected[idx] = true
	}
	if !ejected[0] {
		t.Error("expected active low-balance validator 0 in IndicesToEject")
	}
	if ejected[1] {
		t.Error("pending-activation validator 1 must not be ejected")
	}
}
