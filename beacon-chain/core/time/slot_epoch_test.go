package time

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zephyrus-chain/zephyr/config/params"
	"github.com/zephyrus-chain/zephyr/consensus-types/primitives"
)

type fakeStateReader struct {
	slot primitives.Slot
}

func (f fakeStateReader) Slot() primitives.Slot { return f.slot }

func TestSlotToEpoch(t *testing.T) {
	params.OverrideBeaconConfig(params.MinimalConfig())
	defer params.OverrideBeaconConfig(params.MainnetConfig())
	cfg := params.BeaconConfig()

	require.Equal(t, primitives.Epoch(0), SlotToEpoch(0))
	require.Equal(t, primitives.Epoch(0), SlotToEpoch(primitives.Slot(cfg.SlotsPerEpoch-1)))
	require.Equal(t, primitives.Epoch(1), SlotToEpoch(primitives.Slot(cfg.SlotsPerEpoch)))
}

func TestCurrentPrevNextEpoch(t *testing.T) {
	params.OverrideBeaconConfig(params.MinimalConfig())
	defer params.OverrideBeaconConfig(params.MainnetConfig())
	cfg := params.BeaconConfig()

	st := fakeStateReader{slot: primitives.Slot(2 * cfg.SlotsPerEpoch)}
	require.Equal(t, primitives.Epoch(2), CurrentEpoch(st))
	require.Equal(t, primitives.Epoch(1), PrevEpoch(st))
	require.Equal(t, primitives.Epoch(3), NextEpoch(st))
}

func TestPrevEpochClampsAtGenesis(t *testing.T) {
	params.OverrideBeaconConfig(params.MinimalConfig())
	defer params.OverrideBeaconConfig(params.MainnetConfig())

	st := fakeStateReader{slot: 0}
	require.Equal(t, params.BeaconConfig().GenesisEpoch, PrevEpoch(st))
}

func TestStartSlotEndSlot(t *testing.T) {
	params.OverrideBeaconConfig(params.MinimalConfig())
	defer params.OverrideBeaconConfig(params.MainnetConfig())
	cfg := params.BeaconConfig()

	require.Equal(t, primitives.Slot(cfg.SlotsPerEpoch), StartSlot(1))
	require.Equal(t, primitives.Slot(2*cfg.SlotsPerEpoch-1), EndSlot(1))
}

func TestCanProcessEpoch(t *testing.T) {
	params.OverrideBeaconConfig(params.MinimalConfig())
	defer params.OverrideBeaconConfig(params.MainnetConfig())
	cfg := params.BeaconConfig()

	require.True(t, CanProcessEpoch(fakeStateReader{slot: primitives.Slot(cfg.SlotsPerEpoch - 1)}))
	require.False(t, CanProcessEpoch(fakeStateReader{slot: primitives.Slot(cfg.SlotsPerEpoch - 2)}))
}

func TestIsEpochStart(t *testing.T) {
	params.OverrideBeaconConfig(params.MinimalConfig())
	defer params.OverrideBeaconConfig(params.MainnetConfig())
	cfg := params.BeaconConfig()

	require.True(t, IsEpochStart(0))
	require.True(t, IsEpochStart(primitives.Slot(cfg.SlotsPerEpoch)))
	require.False(t, IsEpochStart(primitives.Slot(cfg.SlotsPerEpoch+1)))
}
