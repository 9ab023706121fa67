package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zephyrus-chain/zephyr/beacon-chain/state"
	"github.com/zephyrus-chain/zephyr/config/params"
	types "github.com/zephyrus-chain/zephyr/consensus-types"
	"github.com/zephyrus-chain/zephyr/consensus-types/primitives"
	"github.com/zephyrus-chain/zephyr/runtime/version"
)

func newCacheTestState(t *testing.T, fork version.Fork, n int) *state.BeaconState {
	t.Helper()
	cfg := params.BeaconConfig()
	st := state.New(fork, n)
	for i := 0; i < n; i++ {
		v := &types.Validator{
			EffectiveBalance:  cfg.MaxEffectiveBalance,
			ActivationEpoch:   0,
			ExitEpoch:         cfg.FarFutureEpoch,
			WithdrawableEpoch: cfg.FarFutureEpoch,
		}
		require.NoError(t, st.UpdateValidator(i, v))
	}
	return st
}

func TestBuild_PopulatesActiveSetsAndChurnLimit(t *testing.T) {
	params.OverrideBeaconConfig(params.MinimalConfig())
	defer params.OverrideBeaconConfig(params.MainnetConfig())
	cfg := params.BeaconConfig()

	st := newCacheTestState(t, version.Phase0, 10)
	ec, err := Build(st)
	require.NoError(t, err)

	require.Len(t, ec.ActiveValidatorsCurrent, 10)
	require.Len(t, ec.ShuffledIndicesCurrent, 10)
	require.Len(t, ec.ProposerIndices, int(cfg.SlotsPerEpoch))
	require.Equal(t, cfg.MinPerEpochChurnLimit, ec.ChurnLimit)
}

func TestBuild_EffectiveBalanceSnapshotMatchesValidators(t *testing.T) {
	params.OverrideBeaconConfig(params.MinimalConfig())
	defer params.OverrideBeaconConfig(params.MainnetConfig())
	cfg := params.BeaconConfig()

	st := newCacheTestState(t, version.Phase0, 4)
	ec, err := Build(st)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		require.Equal(t, cfg.MaxEffectiveBalance, ec.EffectiveBalance(primitives.ValidatorIndex(i)))
	}
}

func TestCommittee_PartitionsActiveSetWithoutOverlap(t *testing.T) {
	params.OverrideBeaconConfig(params.MinimalConfig())
	defer params.OverrideBeaconConfig(params.MainnetConfig())
	cfg := params.BeaconConfig()

	st := newCacheTestState(t, version.Phase0, 20)
	ec, err := Build(st)
	require.NoError(t, err)

	countPerSlot := ec.CommitteeCountPerSlot(ec.CurrentEpoch)
	seen := make(map[primitives.ValidatorIndex]bool)
	for slotOffset := uint64(0); slotOffset < cfg.SlotsPerEpoch; slotOffset++ {
		slot := primitives.Slot(uint64(ec.CurrentEpoch)*cfg.SlotsPerEpoch + slotOffset)
		for ci := uint64(0); ci < countPerSlot; ci++ {
			committee, err := ec.Committee(slot, primitives.CommitteeIndex(ci))
			require.NoError(t, err)
			for _, idx := range committee {
				require.False(t, seen[idx], "validator assigned to more than one committee slot")
				seen[idx] = true
			}
		}
	}
	require.Len(t, seen, 20)
}

func TestBuild_AltairPopulatesSyncCommitteeIndices(t *testing.T) {
	params.OverrideBeaconConfig(params.MinimalConfig())
	defer params.OverrideBeaconConfig(params.MainnetConfig())

	st := newCacheTestState(t, version.Altair, 4)
	pubkeys := make([][48]byte, st.NumValidators())
	for i := 0; i < st.NumValidators(); i++ {
		v := st.ValidatorAt(i).Copy()
		v.PublicKey = [48]byte{byte(i + 1)}
		require.NoError(t, st.UpdateValidator(i, v))
		pubkeys[i] = v.PublicKey
	}
	st.SetSyncCommittees(&state.SyncCommittee{Pubkeys: pubkeys}, &state.SyncCommittee{Pubkeys: pubkeys})

	ec, err := Build(st)
	require.NoError(t, err)
	require.Len(t, ec.SyncCommitteeIndices, len(pubkeys))
}
