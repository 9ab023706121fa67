package transition

import (
	"context"
	"encoding/binary"

	"github.com/pkg/errors"
	beacontime "github.com/zephyrus-chain/zephyr/beacon-chain/core/time"
	zstate "github.com/zephyrus-chain/zephyr/beacon-chain/state"
	types "github.com/zephyrus-chain/zephyr/consensus-types"
	"github.com/zephyrus-chain/zephyr/consensus-types/primitives"
	"github.com/zephyrus-chain/zephyr/crypto/hash"
)

// ErrSlotBehind is returned when the caller asks ProcessSlots to advance to
// a slot at or before the state's current slot (spec.md §7 SlotBehind).
var ErrSlotBehind = errors.New("transition: target slot is not ahead of state slot")

// ProcessSlots advances st one slot at a time up to and including target,
// running ProcessSlot for every intervening slot and firing the epoch
// orchestrator whenever a step crosses an epoch boundary (spec.md §4.6).
// This is the only entry point that moves a state's slot forward.
func ProcessSlots(ctx context.Context, st *zstate.BeaconState, target primitives.Slot) error {
	if target <= st.Slot() {
		return ErrSlotBehind
	}
	for st.Slot() < target {
		if err := ProcessSlot(ctx, st); err != nil {
			return err
		}
		if beacontime.CanProcessEpoch(st) {
			if err := ProcessEpoch(ctx, st); err != nil {
				return err
			}
		}
		st.SetSlot(st.Slot() + 1)
	}
	return nil
}

// ProcessSlot implements the per-slot bookkeeping spec.md §4.6 runs before
// every slot advance: cache the pre-advance state root into the ring
// buffer, backfill the latest block header's state root the first time
// it's read after being proposed, and cache the (still unchanged) block
// root for the slot about to close.
func ProcessSlot(_ context.Context, st *zstate.BeaconState) error {
	stateRoot, err := st.HashTreeRoot()
	if err != nil {
		return errors.Wrap(err, "could not compute state root")
	}
	if err := st.SetStateRootAtSlot(st.Slot(), stateRoot); err != nil {
		return err
	}

	header := st.LatestBlockHeader()
	if header.StateRoot == ([32]byte{}) {
		header.StateRoot = stateRoot
		st.SetLatestBlockHeader(header)
	}

	headerRoot, err := headerHashTreeRoot(header)
	if err != nil {
		return errors.Wrap(err, "could not compute latest block header root")
	}
	if err := st.SetBlockRootAtSlot(st.Slot(), headerRoot); err != nil {
		return err
	}

	return nil
}

// headerHashTreeRoot folds the block header's five fields into a root the
// same way every other container in this module Merkleizes: pad to a
// power-of-two leaf set, then build the binary tree over it.
func headerHashTreeRoot(h types.BeaconBlockHeader) ([32]byte, error) {
	var slotLeaf, proposerLeaf [32]byte
	binary.LittleEndian.PutUint64(slotLeaf[:8], uint64(h.Slot))
	binary.LittleEndian.PutUint64(proposerLeaf[:8], uint64(h.ProposerIndex))

	leaves := [][32]byte{slotLeaf, proposerLeaf, h.ParentRoot, h.StateRoot, h.BodyRoot}
	return hash.MerkleRoot(hash.PadToPowerOfTwo(leaves))
}
