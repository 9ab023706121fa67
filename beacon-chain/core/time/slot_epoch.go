// Package time implements epoch/slot arithmetic shared by every sub-phase:
// CurrentEpoch, PrevEpoch, NextEpoch, StartSlot, EndSlot, and the epoch-
// boundary predicate the façade uses to decide when to fire the orchestrator.
package time

import (
	"github.com/zephyrus-chain/zephyr/config/params"
	"github.com/zephyrus-chain/zephyr/consensus-types/primitives"
)

// StateReader is the minimal slot accessor the time helpers need, satisfied
// by beacon-chain/state.BeaconState.
type StateReader interface {
	Slot() primitives.Slot
}

// SlotToEpoch returns the epoch that contains slot.
func SlotToEpoch(slot primitives.Slot) primitives.Epoch {
	return primitives.Epoch(uint64(slot) / params.BeaconConfig().SlotsPerEpoch)
}

// CurrentEpoch returns the epoch of the state's current slot.
func CurrentEpoch(st StateReader) primitives.Epoch {
	return SlotToEpoch(st.Slot())
}

// PrevEpoch returns the epoch before the current one, clamped to the
// genesis epoch (never negative) per spec.md §8 boundary behavior.
func PrevEpoch(st StateReader) primitives.Epoch {
	current := CurrentEpoch(st)
	if current == params.BeaconConfig().GenesisEpoch {
		return params.BeaconConfig().GenesisEpoch
	}
	return current - 1
}

// NextEpoch returns the epoch following the current one.
func NextEpoch(st StateReader) primitives.Epoch {
	return CurrentEpoch(st) + 1
}

// StartSlot returns the first slot of epoch.
func StartSlot(epoch primitives.Epoch) primitives.Slot {
	return primitives.Slot(uint64(epoch) * params.BeaconConfig().SlotsPerEpoch)
}

// EndSlot returns the last slot of epoch.
func EndSlot(epoch primitives.Epoch) primitives.Slot {
	return StartSlot(epoch+1) - 1
}

// CanProcessEpoch reports whether the state's current slot is the last slot
// of its epoch, i.e. whether advancing one more slot crosses an epoch
// boundary (spec.md §4.6 step 1).
func CanProcessEpoch(st StateReader) bool {
	return (uint64(st.Slot())+1)%params.BeaconConfig().SlotsPerEpoch == 0
}

// IsEpochStart reports whether slot is the first slot of its epoch.
func IsEpochStart(slot primitives.Slot) bool {
	return uint64(slot)%params.BeaconConfig().SlotsPerEpoch == 0
}
