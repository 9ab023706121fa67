// Package cache implements the Epoch Cache (C2): the per-state, owned (not
// global) set of derived values that would otherwise be recomputed on every
// sub-phase — shufflings, proposer indices, the churn limit, and a snapshot
// of effective balances — built once per epoch transition and handed to the
// epoch summary builder and sub-phase processors (spec.md §4.2). Grounded on
// the teacher's beacon-chain/core/helpers committee-cache update flow
// (UpdateCommitteeCache / precomputeProposerIndices), restructured here as a
// value owned by one transition rather than a package-level singleton,
// since spec.md §9 forbids global/singleton caches shared across states.
package cache

import (
	"crypto/sha256"

	"github.com/pkg/errors"
	"github.com/zephyrus-chain/zephyr/beacon-chain/core/helpers"
	"github.com/zephyrus-chain/zephyr/beacon-chain/state"
	"github.com/zephyrus-chain/zephyr/beacon-chain/state/stateutils"
	"github.com/zephyrus-chain/zephyr/config/params"
	types "github.com/zephyrus-chain/zephyr/consensus-types"
	"github.com/zephyrus-chain/zephyr/consensus-types/primitives"
)

// EpochCache holds every value derived from a BeaconState that the epoch
// transition needs more than once: shufflings for the previous, current and
// next epoch, the proposer assigned to each slot of the current epoch, the
// churn limit, and a flat effective-balance snapshot frozen at the moment
// the cache was built (spec.md §4.2 "read is a pure function of the
// snapshot taken at the start of the epoch transition").
type EpochCache struct {
	PreviousEpoch primitives.Epoch
	CurrentEpoch  primitives.Epoch
	NextEpoch     primitives.Epoch

	ActiveValidatorsPrevious []primitives.ValidatorIndex
	ActiveValidatorsCurrent  []primitives.ValidatorIndex
	ActiveValidatorsNext     []primitives.ValidatorIndex

	ShuffledIndicesPrevious []primitives.ValidatorIndex
	ShuffledIndicesCurrent  []primitives.ValidatorIndex
	ShuffledIndicesNext     []primitives.ValidatorIndex

	// ProposerIndices[i] is the proposer for slot StartSlot(CurrentEpoch)+i.
	ProposerIndices []primitives.ValidatorIndex

	ChurnLimit uint64

	// EffectiveBalances is a frozen snapshot of every validator's effective
	// balance, indexed by validator index, as of cache construction.
	EffectiveBalances []uint64

	// SyncCommitteeIndices resolves the current Altair sync committee's
	// member public keys to validator indices; nil for phase 0 states.
	SyncCommitteeIndices []primitives.ValidatorIndex

	pubkeys *stateutils.PubkeyIndexMap
}

// balanceLookup adapts the frozen snapshot to helpers.EffectiveBalanceLookup.
func (c *EpochCache) balanceLookup() helpers.EffectiveBalanceLookup {
	return func(idx primitives.ValidatorIndex) uint64 {
		if int(idx) >= len(c.EffectiveBalances) {
			return 0
		}
		return c.EffectiveBalances[idx]
	}
}

// EffectiveBalance returns validator idx's frozen effective balance.
func (c *EpochCache) EffectiveBalance(idx primitives.ValidatorIndex) uint64 {
	return c.balanceLookup()(idx)
}

// Build computes a fresh EpochCache from st, as of st's current slot. This
// is the single point where shuffling, proposer selection, and churn limit
// get computed; every sub-phase processor takes an *EpochCache rather than
// recomputing any of this itself (spec.md §4.2, §9).
func Build(st *state.BeaconState) (*EpochCache, error) {
	prev := epochSub1(currentEpoch(st))
	curr := currentEpoch(st)
	next := curr + 1

	validators := st.Validators()

	activePrev := activeIndices(validators, prev)
	activeCurr := activeIndices(validators, curr)
	activeNext := activeIndices(validators, next)

	seedPrev, err := epochSeed(st, prev)
	if err != nil {
		return nil, errors.Wrap(err, "could not compute previous epoch seed")
	}
	seedCurr, err := epochSeed(st, curr)
	if err != nil {
		return nil, errors.Wrap(err, "could not compute current epoch seed")
	}
	seedNext, err := epochSeed(st, next)
	if err != nil {
		return nil, errors.Wrap(err, "could not compute next epoch seed")
	}

	shuffledPrev, err := helpers.UnshuffleList(activePrev, seedPrev)
	if err != nil {
		return nil, errors.Wrap(err, "could not shuffle previous epoch active set")
	}
	shuffledCurr, err := helpers.UnshuffleList(activeCurr, seedCurr)
	if err != nil {
		return nil, errors.Wrap(err, "could not shuffle current epoch active set")
	}
	shuffledNext, err := helpers.UnshuffleList(activeNext, seedNext)
	if err != nil {
		return nil, errors.Wrap(err, "could not shuffle next epoch active set")
	}

	balances := make([]uint64, len(validators))
	for i, v := range validators {
		balances[i] = v.EffectiveBalance
	}

	c := &EpochCache{
		PreviousEpoch:            prev,
		CurrentEpoch:             curr,
		NextEpoch:                next,
		ActiveValidatorsPrevious: activePrev,
		ActiveValidatorsCurrent:  activeCurr,
		ActiveValidatorsNext:     activeNext,
		ShuffledIndicesPrevious:  shuffledPrev,
		ShuffledIndicesCurrent:   shuffledCurr,
		ShuffledIndicesNext:      shuffledNext,
		ChurnLimit:               helpers.ValidatorChurnLimit(uint64(len(activeCurr))),
		EffectiveBalances:        balances,
	}

	proposers, err := proposerIndicesForEpoch(curr, activeCurr, st, c.balanceLookup())
	if err != nil {
		return nil, errors.Wrap(err, "could not compute proposer indices")
	}
	c.ProposerIndices = proposers

	if st.Fork().String() == "altair" {
		sc := st.CurrentSyncCommittee()
		if sc != nil {
			pubkeyMap := buildPubkeyMap(validators)
			c.pubkeys = pubkeyMap
			indices := make([]primitives.ValidatorIndex, 0, len(sc.Pubkeys))
			for _, pk := range sc.Pubkeys {
				idx, ok := pubkeyMap.Index(pk)
				if !ok {
					return nil, errors.New("cache: sync committee pubkey not found in validator set")
				}
				indices = append(indices, idx)
			}
			c.SyncCommitteeIndices = indices
		}
	}

	return c, nil
}

func buildPubkeyMap(validators []*types.Validator) *stateutils.PubkeyIndexMap {
	keys := make([][48]byte, len(validators))
	for i, v := range validators {
		keys[i] = v.PublicKey
	}
	return stateutils.NewPubkeyIndexMap(keys)
}

func currentEpoch(st *state.BeaconState) primitives.Epoch {
	return primitives.Epoch(uint64(st.Slot()) / params.BeaconConfig().SlotsPerEpoch)
}

func epochSub1(e primitives.Epoch) primitives.Epoch {
	if e == 0 {
		return 0
	}
	return e - 1
}

func activeIndices(validators []*types.Validator, epoch primitives.Epoch) []primitives.ValidatorIndex {
	out := make([]primitives.ValidatorIndex, 0, len(validators))
	for i, v := range validators {
		if helpers.IsActiveValidator(v, epoch) {
			out = append(out, primitives.ValidatorIndex(i))
		}
	}
	return out
}

// SyncCommitteeSeed derives the DOMAIN_SYNC_COMMITTEE seed for epoch, the
// seed get_next_sync_committee_indices draws its weighted sample from.
func SyncCommitteeSeed(st *state.BeaconState, epoch primitives.Epoch) [32]byte {
	cfg := params.BeaconConfig()
	lookback := uint64(epoch) + cfg.EpochsPerHistoricalVector - cfg.MinSeedLookahead - 1
	mixPosition := lookback % cfg.EpochsPerHistoricalVector
	mix := st.RandaoMixAt(mixPosition)
	return helpers.Seed(mix, helpers.DomainSyncCommittee, epoch)
}

// epochSeed derives the shuffling seed for epoch from the randao mix
// MIN_SEED_LOOKAHEAD epochs before the boundary it shuffles, per
// get_seed(state, epoch, DOMAIN_BEACON_ATTESTER).
func epochSeed(st *state.BeaconState, epoch primitives.Epoch) ([32]byte, error) {
	cfg := params.BeaconConfig()
	lookback := uint64(epoch) + cfg.EpochsPerHistoricalVector - cfg.MinSeedLookahead - 1
	mixPosition := lookback % cfg.EpochsPerHistoricalVector
	mix := st.RandaoMixAt(mixPosition)
	return helpers.Seed(mix, helpers.DomainBeaconAttester, epoch), nil
}

// proposerIndicesForEpoch computes the proposer for every slot of epoch in
// one pass, matching the teacher's precomputeProposerIndices shape.
func proposerIndicesForEpoch(epoch primitives.Epoch, active []primitives.ValidatorIndex, st *state.BeaconState, balanceOf helpers.EffectiveBalanceLookup) ([]primitives.ValidatorIndex, error) {
	cfg := params.BeaconConfig()
	startSlot := uint64(epoch) * cfg.SlotsPerEpoch
	mixPosition := uint64(epoch) % cfg.EpochsPerHistoricalVector
	mix := st.RandaoMixAt(mixPosition)

	out := make([]primitives.ValidatorIndex, cfg.SlotsPerEpoch)
	for i := uint64(0); i < cfg.SlotsPerEpoch; i++ {
		slot := startSlot + i
		seed := helpers.Seed(mix, helpers.DomainBeaconProposer, epoch)
		seed = mixInSlot(seed, slot)
		proposer, err := helpers.ComputeProposerIndex(active, seed, balanceOf)
		if err != nil {
			return nil, err
		}
		out[i] = proposer
	}
	return out, nil
}

// CommitteeCountPerSlot returns the number of committees per slot for the
// named epoch's active set (previous or current).
func (c *EpochCache) CommitteeCountPerSlot(epoch primitives.Epoch) uint64 {
	if epoch == c.PreviousEpoch {
		return helpers.SlotCommitteeCount(uint64(len(c.ActiveValidatorsPrevious)))
	}
	return helpers.SlotCommitteeCount(uint64(len(c.ActiveValidatorsCurrent)))
}

// Committee returns the validator indices assigned to committeeIndex at the
// given slot, for a slot falling in either the previous or current epoch
// (the only two ranges the attestation participation pass ever queries).
func (c *EpochCache) Committee(slot primitives.Slot, committeeIndex primitives.CommitteeIndex) ([]primitives.ValidatorIndex, error) {
	cfg := params.BeaconConfig()
	epoch := primitives.Epoch(uint64(slot) / cfg.SlotsPerEpoch)

	var shuffled []primitives.ValidatorIndex
	switch epoch {
	case c.PreviousEpoch:
		shuffled = c.ShuffledIndicesPrevious
	case c.CurrentEpoch:
		shuffled = c.ShuffledIndicesCurrent
	default:
		return nil, errors.Errorf("cache: slot %d epoch %d outside previous/current epoch window", slot, epoch)
	}

	countPerSlot := c.CommitteeCountPerSlot(epoch)
	slotsPerEpoch := cfg.SlotsPerEpoch
	slotOffset := uint64(slot) % slotsPerEpoch
	committeesPerEpoch := countPerSlot * slotsPerEpoch
	index := slotOffset*countPerSlot + uint64(committeeIndex)

	return helpers.ComputeCommittee(shuffled, index, committeesPerEpoch)
}

// mixInSlot folds the absolute slot number into a proposer seed so every
// slot of the epoch gets an independent draw rather than always picking the
// epoch's single seed-0 proposer.
func mixInSlot(seed [32]byte, slot uint64) [32]byte {
	var buf [40]byte
	copy(buf[:32], seed[:])
	for i := 0; i < 8; i++ {
		buf[32+i] = byte(slot >> (8 * i))
	}
	return sha256.Sum256(buf[:])
}
