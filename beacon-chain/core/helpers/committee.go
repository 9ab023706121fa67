// committee.go implements the swap-or-not shuffle, committee composition,
// and proposer-index selection used to build the Epoch Cache (C2). Grounded
// on the teacher's beacon-chain/core/helpers/committee.go shuffle/committee
// shape, adapted to operate on plain slices so this package stays free of
// any dependency on the state package (the cache package glues the two
// together).
package helpers

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/zephyrus-chain/zephyr/config/params"
	"github.com/zephyrus-chain/zephyr/consensus-types/primitives"
)

// Domain tags distinguish the seeds used for shuffling, proposer selection,
// and randao mixing so none of them collide.
var (
	DomainBeaconAttester = [4]byte{0x01, 0x00, 0x00, 0x00}
	DomainBeaconProposer = [4]byte{0x00, 0x00, 0x00, 0x00}
	DomainRandao         = [4]byte{0x02, 0x00, 0x00, 0x00}
	DomainSyncCommittee  = [4]byte{0x07, 0x00, 0x00, 0x00}
)

// shuffleRoundCount is SHUFFLE_ROUND_COUNT from the spec.
const shuffleRoundCount = 90

// Seed derives the per-epoch, per-domain seed from a randao mix, matching
// get_seed(state, epoch, domain).
func Seed(randaoMix [32]byte, domain [4]byte, epoch primitives.Epoch) [32]byte {
	var buf [4 + 8 + 32]byte
	copy(buf[0:4], domain[:])
	binary.LittleEndian.PutUint64(buf[4:12], uint64(epoch))
	copy(buf[12:], randaoMix[:])
	return shaBytes(buf[:])
}

// hashSeedRound hashes seed with a single round byte appended, used by the
// swap-or-not shuffle's pivot and flip-bit derivation.
func hashSeedRound(seed [32]byte, round byte) [32]byte {
	var buf [33]byte
	copy(buf[:32], seed[:])
	buf[32] = round
	// A single plain sha256 over the 33-byte seed||round buffer.
	return shaBytes(buf[:])
}

// ComputeShuffledIndex returns the post-shuffle position of index within a
// list of indexCount elements, using the swap-or-not shuffle
// (protolambda/eth2-shuffle), run forward (round 0..N) to shuffle or in
// reverse (round N..0) to unshuffle.
func ComputeShuffledIndex(index, indexCount uint64, seed [32]byte, forward bool) (uint64, error) {
	if indexCount == 0 {
		return 0, errors.New("helpers: empty index count")
	}
	if index >= indexCount {
		return 0, errors.Errorf("helpers: index %d out of bound %d", index, indexCount)
	}

	rounds := make([]byte, shuffleRoundCount)
	for i := range rounds {
		rounds[i] = byte(i)
	}
	if !forward {
		for i, j := 0, len(rounds)-1; i < j; i, j = i+1, j-1 {
			rounds[i], rounds[j] = rounds[j], rounds[i]
		}
	}

	for _, round := range rounds {
		pivotHash := hashSeedRound(seed, round)
		pivot := bytesToUint64(pivotHash[:8]) % indexCount
		flip := (pivot + indexCount - index) % indexCount
		position := index
		if flip > position {
			position = flip
		}
		sourceHash := hashSeedRoundWithPosition(seed, round, position/256)
		byteVal := sourceHash[(position%256)/8]
		bit := (byteVal >> (position % 8)) & 1
		if bit == 1 {
			index = flip
		}
	}
	return index, nil
}

func hashSeedRoundWithPosition(seed [32]byte, round byte, positionDiv256 uint64) [32]byte {
	buf := make([]byte, 32+1+4)
	copy(buf[:32], seed[:])
	buf[32] = round
	binary.LittleEndian.PutUint32(buf[33:], uint32(positionDiv256))
	return shaBytes(buf)
}

func bytesToUint64(b []byte) uint64 {
	var padded [8]byte
	copy(padded[:], b)
	return binary.LittleEndian.Uint64(padded[:])
}

// UnshuffleList returns the full permutation of input produced by applying
// ComputeShuffledIndex to every position; this is the "unshuffle" direction
// used to recover committees from a flat, sorted active-index list.
func UnshuffleList(input []primitives.ValidatorIndex, seed [32]byte) ([]primitives.ValidatorIndex, error) {
	out := make([]primitives.ValidatorIndex, len(input))
	count := uint64(len(input))
	for i := range input {
		shuffled, err := ComputeShuffledIndex(uint64(i), count, seed, false)
		if err != nil {
			return nil, err
		}
		out[i] = input[shuffled]
	}
	return out, nil
}

// SlotCommitteeCount returns the number of committees per slot for an active
// set of the given size (spec.md §4.2).
func SlotCommitteeCount(activeValidatorCount uint64) uint64 {
	const targetCommitteeSize = 128
	const maxCommitteesPerSlot = 64
	count := activeValidatorCount / params.BeaconConfig().SlotsPerEpoch / targetCommitteeSize
	if count > maxCommitteesPerSlot {
		return maxCommitteesPerSlot
	}
	if count == 0 {
		return 1
	}
	return count
}

// splitOffset returns floor(listSize * index / chunks), the boundary used to
// slice a shuffled list into equally-sized committees.
func splitOffset(listSize, chunks, index uint64) uint64 {
	return (listSize * index) / chunks
}

// ComputeCommittee returns the slice of validatorIndices (already shuffled
// for the relevant epoch) assigned to the committee at position index out of
// count total committees.
func ComputeCommittee(shuffledIndices []primitives.ValidatorIndex, index, count uint64) ([]primitives.ValidatorIndex, error) {
	validatorCount := uint64(len(shuffledIndices))
	start := splitOffset(validatorCount, count, index)
	end := splitOffset(validatorCount, count, index+1)
	if start > validatorCount || end > validatorCount || start > end {
		return nil, errors.New("helpers: committee slice out of range")
	}
	return shuffledIndices[start:end], nil
}

// EffectiveBalanceLookup resolves a validator index's effective balance for
// weighted proposer sampling, without requiring callers to hand over the
// whole validator slice.
type EffectiveBalanceLookup func(idx primitives.ValidatorIndex) uint64

// ComputeProposerIndex implements the proposer-selection weighted sample:
// repeatedly draw a candidate from activeIndices via the forward shuffle, and
// accept it with probability proportional to its effective balance over
// MaxEffectiveBalance, using one random hash byte per candidate.
func ComputeProposerIndex(activeIndices []primitives.ValidatorIndex, seed [32]byte, balanceOf EffectiveBalanceLookup) (primitives.ValidatorIndex, error) {
	if len(activeIndices) == 0 {
		return 0, errors.New("helpers: empty active index set")
	}
	const maxRandomByte = 255
	maxEffectiveBalance := params.BeaconConfig().MaxEffectiveBalance
	total := uint64(len(activeIndices))
	i := uint64(0)
	for {
		shuffled, err := ComputeShuffledIndex(i%total, total, seed, true)
		if err != nil {
			return 0, err
		}
		candidateIndex := activeIndices[shuffled]
		randByte := hashForProposer(seed, i/32)[i%32]
		effectiveBalance := balanceOf(candidateIndex)
		if effectiveBalance*maxRandomByte >= maxEffectiveBalance*uint64(randByte) {
			return candidateIndex, nil
		}
		i++
		if i > 1<<20 {
			return 0, errors.New("helpers: proposer selection did not converge")
		}
	}
}

// ComputeSyncCommitteeIndices runs the same weighted-sampling draw as
// ComputeProposerIndex, but collects count members (with repetition
// allowed) instead of stopping at the first accepted candidate; this is
// get_next_sync_committee_indices from the Altair sync committee rotation
// (spec.md §4.4(l)).
func ComputeSyncCommitteeIndices(activeIndices []primitives.ValidatorIndex, seed [32]byte, count int, balanceOf EffectiveBalanceLookup) ([]primitives.ValidatorIndex, error) {
	if len(activeIndices) == 0 {
		return nil, errors.New("helpers: empty active index set")
	}
	const maxRandomByte = 255
	maxEffectiveBalance := params.BeaconConfig().MaxEffectiveBalance
	total := uint64(len(activeIndices))

	out := make([]primitives.ValidatorIndex, 0, count)
	i := uint64(0)
	for len(out) < count {
		shuffled, err := ComputeShuffledIndex(i%total, total, seed, true)
		if err != nil {
			return nil, err
		}
		candidateIndex := activeIndices[shuffled]
		randByte := hashForProposer(seed, i/32)[i%32]
		effectiveBalance := balanceOf(candidateIndex)
		if effectiveBalance*maxRandomByte >= maxEffectiveBalance*uint64(randByte) {
			out = append(out, candidateIndex)
		}
		i++
		if i > 1<<24 {
			return nil, errors.New("helpers: sync committee selection did not converge")
		}
	}
	return out, nil
}

func hashForProposer(seed [32]byte, round uint64) [32]byte {
	buf := make([]byte, 32+8)
	copy(buf[:32], seed[:])
	binary.LittleEndian.PutUint64(buf[32:], round)
	return shaBytes(buf)
}
