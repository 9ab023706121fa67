// Package state implements the Merkleized State Store (C1): the beacon
// state container described in spec.md §3, backed by per-field
// FieldTries so bulk balance mutation and incremental hashing stay cheap.
package state

import (
	"github.com/prysmaticlabs/go-bitfield"
	"github.com/pkg/errors"
	"github.com/zephyrus-chain/zephyr/config/params"
	types "github.com/zephyrus-chain/zephyr/consensus-types"
	"github.com/zephyrus-chain/zephyr/consensus-types/primitives"
	"github.com/zephyrus-chain/zephyr/crypto/hash"
	"github.com/zephyrus-chain/zephyr/runtime/version"
)

// ErrInvariantViolation is returned by validity checks when a state
// invariant from spec.md §8 is broken before a transition even starts
// (spec.md §7 InvariantViolation).
var ErrInvariantViolation = errors.New("state: invariant violation")

// BeaconState is the exclusive-owned-during-transition state container.
// Outside a transition it is treated as immutable; Clone produces a new,
// independent (but initially structure-sharing) handle for mutation.
type BeaconState struct {
	fork version.Fork

	slot               primitives.Slot
	genesisTime        uint64
	genesisValidatorsRoot [32]byte

	currentVersionFork types.Fork
	latestBlockHeader  types.BeaconBlockHeader

	blockRoots *FieldTrie[[32]byte]
	stateRoots *FieldTrie[[32]byte]
	historicalRoots [][32]byte

	eth1Data         *types.Eth1Data
	eth1DataVotes    *FieldTrie[*types.Eth1Data]
	eth1DepositIndex uint64

	validators *FieldTrie[*types.Validator]
	balances   *FieldTrie[uint64]

	randaoMixes *FieldTrie[[32]byte]
	slashings   *FieldTrie[uint64]

	// Phase 0 only.
	previousEpochAttestations *FieldTrie[*PendingAttestation]
	currentEpochAttestations  *FieldTrie[*PendingAttestation]

	// Altair only.
	previousEpochParticipation *FieldTrie[byte]
	currentEpochParticipation  *FieldTrie[byte]
	inactivityScores           *FieldTrie[uint64]
	currentSyncCommittee       *SyncCommittee
	nextSyncCommittee          *SyncCommittee

	justificationBits           bitfield.Bitvector4
	previousJustifiedCheckpoint types.Checkpoint
	currentJustifiedCheckpoint  types.Checkpoint
	finalizedCheckpoint         types.Checkpoint
}

// New builds an empty BeaconState of the given fork for the given validator
// count, with zeroed ring buffers of the size config/params specifies.
func New(fork version.Fork, numValidators int) *BeaconState {
	cfg := params.BeaconConfig()
	st := &BeaconState{
		fork:        fork,
		blockRoots:  NewFieldTrie(make([][32]byte, cfg.SlotsPerHistoricalRoot), identityHasher32),
		stateRoots:  NewFieldTrie(make([][32]byte, cfg.SlotsPerHistoricalRoot), identityHasher32),
		eth1Data:    &types.Eth1Data{},
		eth1DataVotes: NewFieldTrie(make([]*types.Eth1Data, 0), eth1DataHasher),
		validators:  NewFieldTrie(make([]*types.Validator, numValidators), validatorHasher),
		balances:    NewFieldTrie(make([]uint64, numValidators), uint64Hasher),
		randaoMixes: NewFieldTrie(make([][32]byte, cfg.EpochsPerHistoricalVector), identityHasher32),
		slashings:   NewFieldTrie(make([]uint64, cfg.EpochsPerSlashingsVector), uint64Hasher),
	}
	if fork == version.Phase0 {
		st.previousEpochAttestations = NewFieldTrie(make([]*PendingAttestation, 0), pendingAttestationHasher)
		st.currentEpochAttestations = NewFieldTrie(make([]*PendingAttestation, 0), pendingAttestationHasher)
	} else {
		st.previousEpochParticipation = NewFieldTrie(make([]byte, numValidators), byteHasher)
		st.currentEpochParticipation = NewFieldTrie(make([]byte, numValidators), byteHasher)
		st.inactivityScores = NewFieldTrie(make([]uint64, numValidators), uint64Hasher)
	}
	return st
}

// Clone returns an independent handle on the same logical state, sharing
// every field's backing storage until a mutation forces a copy-on-write
// (spec.md §4.1/§5 "old snapshots remain valid independently").
func (s *BeaconState) Clone() *BeaconState {
	cpy := *s
	cpy.blockRoots = s.blockRoots.Clone()
	cpy.stateRoots = s.stateRoots.Clone()
	cpy.eth1DataVotes = s.eth1DataVotes.Clone()
	cpy.validators = s.validators.Clone()
	cpy.balances = s.balances.Clone()
	cpy.randaoMixes = s.randaoMixes.Clone()
	cpy.slashings = s.slashings.Clone()
	if s.fork == version.Phase0 {
		cpy.previousEpochAttestations = s.previousEpochAttestations.Clone()
		cpy.currentEpochAttestations = s.currentEpochAttestations.Clone()
	} else {
		cpy.previousEpochParticipation = s.previousEpochParticipation.Clone()
		cpy.currentEpochParticipation = s.currentEpochParticipation.Clone()
		cpy.inactivityScores = s.inactivityScores.Clone()
	}
	historicalRoots := make([][32]byte, len(s.historicalRoots))
	copy(historicalRoots, s.historicalRoots)
	cpy.historicalRoots = historicalRoots
	eth1Data := *s.eth1Data
	cpy.eth1Data = &eth1Data
	return &cpy
}

// Fork reports which fork's semantics this state currently runs (phase0 or
// altair); the transition façade and orchestrator dispatch on this.
func (s *BeaconState) Fork() version.Fork { return s.fork }

// SetFork reassigns the fork tag when a state crosses ALTAIR_FORK_EPOCH;
// the caller (outside the scope of this package, typically the upgrade
// routine run once at the fork boundary) is responsible for populating the
// newly required Altair fields before flipping this.
func (s *BeaconState) SetFork(f version.Fork) { s.fork = f }

// Slot returns the state's current slot.
func (s *BeaconState) Slot() primitives.Slot { return s.slot }

// SetSlot sets the state's current slot (only the transition façade should
// call this, once per slot, per spec.md §5 ownership rules).
func (s *BeaconState) SetSlot(slot primitives.Slot) { s.slot = slot }

// NumValidators returns the number of entries in the validator registry.
func (s *BeaconState) NumValidators() int { return s.validators.Len() }

// ValidatorAt returns the validator at index i.
func (s *BeaconState) ValidatorAt(i int) *types.Validator { return s.validators.At(i) }

// Validators returns a read-only view of the whole registry.
func (s *BeaconState) Validators() []*types.Validator { return s.validators.Values() }

// UpdateValidator writes v back to index i.
func (s *BeaconState) UpdateValidator(i int, v *types.Validator) error {
	return s.validators.Update(i, v)
}

// BalanceAt returns the raw balance of validator i.
func (s *BeaconState) BalanceAt(i int) uint64 { return s.balances.At(i) }

// Balances returns a read-only view of every raw balance, in validator
// registry order.
func (s *BeaconState) Balances() []uint64 { return s.balances.Values() }

// SetBalances replaces every balance in one step: the "flat view" bulk path
// spec.md §4.1/§9 requires for rewards/penalties and slashings, which write
// all or most of the 100k+ entries in a single phase.
func (s *BeaconState) SetBalances(flat []uint64) { s.balances.SetFlat(flat) }

// UpdateBalance writes a single balance (used outside the bulk-mutation
// phases, e.g. a single ejection-triggered balance patch).
func (s *BeaconState) UpdateBalance(i int, balance uint64) error {
	return s.balances.Update(i, balance)
}

// RandaoMixAt returns the randao mix stored at absolute vector position i.
func (s *BeaconState) RandaoMixAt(i uint64) [32]byte {
	return s.randaoMixes.At(int(i % uint64(s.randaoMixes.Len())))
}

// SetRandaoMixAt writes the randao mix at absolute vector position i.
func (s *BeaconState) SetRandaoMixAt(i uint64, mix [32]byte) error {
	return s.randaoMixes.Update(int(i%uint64(s.randaoMixes.Len())), mix)
}

// SlashingAt returns the accumulated slashed balance for epoch%N.
func (s *BeaconState) SlashingAt(i uint64) uint64 {
	return s.slashings.At(int(i % uint64(s.slashings.Len())))
}

// SetSlashingAt writes the accumulated slashed balance for epoch%N.
func (s *BeaconState) SetSlashingAt(i uint64, val uint64) error {
	return s.slashings.Update(int(i%uint64(s.slashings.Len())), val)
}

// Slashings returns every slot of the slashings vector.
func (s *BeaconState) Slashings() []uint64 { return s.slashings.Values() }

// BlockRootAtSlot returns the block root cached for slot % SlotsPerHistoricalRoot.
func (s *BeaconState) BlockRootAtSlot(slot primitives.Slot) [32]byte {
	n := uint64(s.blockRoots.Len())
	return s.blockRoots.At(int(uint64(slot) % n))
}

// SetBlockRootAtSlot writes the block root cached for slot % SlotsPerHistoricalRoot.
func (s *BeaconState) SetBlockRootAtSlot(slot primitives.Slot, root [32]byte) error {
	n := uint64(s.blockRoots.Len())
	return s.blockRoots.Update(int(uint64(slot)%n), root)
}

// StateRootAtSlot returns the state root cached for slot % SlotsPerHistoricalRoot.
func (s *BeaconState) StateRootAtSlot(slot primitives.Slot) [32]byte {
	n := uint64(s.stateRoots.Len())
	return s.stateRoots.At(int(uint64(slot) % n))
}

// SetStateRootAtSlot writes the state root cached for slot % SlotsPerHistoricalRoot.
func (s *BeaconState) SetStateRootAtSlot(slot primitives.Slot, root [32]byte) error {
	n := uint64(s.stateRoots.Len())
	return s.stateRoots.Update(int(uint64(slot)%n), root)
}

// BlockRoots / StateRoots return a read-only view, used by the historical
// roots accumulator (spec.md §4.4(j)).
func (s *BeaconState) BlockRoots() [][32]byte { return s.blockRoots.Values() }
func (s *BeaconState) StateRoots() [][32]byte { return s.stateRoots.Values() }

// AppendHistoricalRoot appends to the append-only historical_roots list.
func (s *BeaconState) AppendHistoricalRoot(root [32]byte) {
	s.historicalRoots = append(s.historicalRoots, root)
}

// HistoricalRoots returns the accumulated historical_roots list.
func (s *BeaconState) HistoricalRoots() [][32]byte { return s.historicalRoots }

// LatestBlockHeader returns a copy of the cached header.
func (s *BeaconState) LatestBlockHeader() types.BeaconBlockHeader { return s.latestBlockHeader }

// SetLatestBlockHeader replaces the cached header.
func (s *BeaconState) SetLatestBlockHeader(h types.BeaconBlockHeader) { s.latestBlockHeader = h }

// Eth1Data / SetEth1Data access the deposit-follow vote currently in effect.
func (s *BeaconState) Eth1Data() *types.Eth1Data { return s.eth1Data }
func (s *BeaconState) SetEth1Data(d *types.Eth1Data) { s.eth1Data = d }

// Eth1DataVotesLen reports the number of pending votes this period.
func (s *BeaconState) Eth1DataVotesLen() int { return s.eth1DataVotes.Len() }

// ClearEth1DataVotes empties the votes list (spec.md §4.4(f)).
func (s *BeaconState) ClearEth1DataVotes() {
	s.eth1DataVotes.SetFlat(nil)
}

// AppendEth1DataVote appends a vote.
func (s *BeaconState) AppendEth1DataVote(d *types.Eth1Data) {
	s.eth1DataVotes.SetFlat(append(append([]*types.Eth1Data{}, s.eth1DataVotes.Values()...), d))
}

// PreviousEpochAttestations / CurrentEpochAttestations expose the phase-0
// pending attestation lists.
func (s *BeaconState) PreviousEpochAttestations() []*PendingAttestation {
	return s.previousEpochAttestations.Values()
}
func (s *BeaconState) CurrentEpochAttestations() []*PendingAttestation {
	return s.currentEpochAttestations.Values()
}

// RotatePhase0Attestations implements spec.md §4.4(k) for phase 0:
// previous <- current, current <- [].
func (s *BeaconState) RotatePhase0Attestations() {
	s.previousEpochAttestations.SetFlat(s.currentEpochAttestations.Values())
	s.currentEpochAttestations.SetFlat(nil)
}

// AppendCurrentEpochAttestation appends to the in-progress current-epoch list.
func (s *BeaconState) AppendCurrentEpochAttestation(a *PendingAttestation) {
	s.currentEpochAttestations.SetFlat(append(append([]*PendingAttestation{}, s.currentEpochAttestations.Values()...), a))
}

// PreviousEpochParticipation / CurrentEpochParticipation expose the Altair
// byte-per-validator participation vectors.
func (s *BeaconState) PreviousEpochParticipation() []byte { return s.previousEpochParticipation.Values() }
func (s *BeaconState) CurrentEpochParticipation() []byte  { return s.currentEpochParticipation.Values() }

// SetCurrentEpochParticipationAt writes b as validator i's current-epoch
// participation byte, replacing any flags already set there (block
// processing's per-attestation update; exposed
// here because the epoch summary builder reads it back).
func (s *BeaconState) SetCurrentEpochParticipationAt(i int, b byte) error {
	return s.currentEpochParticipation.Update(i, b)
}

// RotateAltairParticipation implements spec.md §4.4(k) for Altair: previous
// <- current, current <- zeros.
func (s *BeaconState) RotateAltairParticipation() {
	s.previousEpochParticipation.SetFlat(s.currentEpochParticipation.Values())
	s.currentEpochParticipation.SetFlat(make([]byte, s.currentEpochParticipation.Len()))
}

// InactivityScores / SetInactivityScores access the Altair inactivity-score
// vector (spec.md §4.4(b)).
func (s *BeaconState) InactivityScores() []uint64 { return s.inactivityScores.Values() }
func (s *BeaconState) SetInactivityScores(scores []uint64) { s.inactivityScores.SetFlat(scores) }

// CurrentSyncCommittee / NextSyncCommittee / SetSyncCommittees access the
// Altair sync-committee pair (spec.md §4.4(l)).
func (s *BeaconState) CurrentSyncCommittee() *SyncCommittee { return s.currentSyncCommittee }
func (s *BeaconState) NextSyncCommittee() *SyncCommittee    { return s.nextSyncCommittee }
func (s *BeaconState) SetSyncCommittees(current, next *SyncCommittee) {
	s.currentSyncCommittee = current
	s.nextSyncCommittee = next
}

// JustificationBits / SetJustificationBits access the 4-bit justification
// history (spec.md §4.4(a)).
func (s *BeaconState) JustificationBits() bitfield.Bitvector4 { return s.justificationBits }
func (s *BeaconState) SetJustificationBits(b bitfield.Bitvector4) { s.justificationBits = b }

// PreviousJustifiedCheckpoint / CurrentJustifiedCheckpoint / FinalizedCheckpoint
// and their setters access the checkpoint triple.
func (s *BeaconState) PreviousJustifiedCheckpoint() types.Checkpoint { return s.previousJustifiedCheckpoint }
func (s *BeaconState) CurrentJustifiedCheckpoint() types.Checkpoint  { return s.currentJustifiedCheckpoint }
func (s *BeaconState) FinalizedCheckpoint() types.Checkpoint         { return s.finalizedCheckpoint }
func (s *BeaconState) SetPreviousJustifiedCheckpoint(c types.Checkpoint) { s.previousJustifiedCheckpoint = c }
func (s *BeaconState) SetCurrentJustifiedCheckpoint(c types.Checkpoint)  { s.currentJustifiedCheckpoint = c }
func (s *BeaconState) SetFinalizedCheckpoint(c types.Checkpoint)         { s.finalizedCheckpoint = c }

// Validate checks the invariants spec.md §8 requires of every post-state,
// surfacing ErrInvariantViolation rather than letting a corrupt state
// silently propagate (spec.md §7).
func (s *BeaconState) Validate() error {
	if s.validators.Len() != s.balances.Len() {
		return errors.Wrapf(ErrInvariantViolation, "len(validators)=%d != len(balances)=%d",
			s.validators.Len(), s.balances.Len())
	}
	maxEB := params.BeaconConfig().MaxEffectiveBalance
	increment := params.BeaconConfig().EffectiveBalanceIncrement
	for i, v := range s.Validators() {
		if v.EffectiveBalance > maxEB {
			return errors.Wrapf(ErrInvariantViolation, "validator %d effective balance %d exceeds max %d", i, v.EffectiveBalance, maxEB)
		}
		if v.EffectiveBalance%increment != 0 {
			return errors.Wrapf(ErrInvariantViolation, "validator %d effective balance %d not increment-aligned", i, v.EffectiveBalance)
		}
		if !epochLE(v.ActivationEligibilityEpoch, v.ActivationEpoch) ||
			!epochLE(v.ActivationEpoch, v.ExitEpoch) ||
			!epochLE(v.ExitEpoch, v.WithdrawableEpoch) {
			return errors.Wrapf(ErrInvariantViolation, "validator %d epoch ordering violated", i)
		}
	}
	return nil
}

func epochLE(a, b primitives.Epoch) bool {
	far := params.BeaconConfig().FarFutureEpoch
	if a == far {
		return b == far
	}
	return a <= b
}

// HashTreeRoot composes every field's own root into the state's root. This
// is a simplified, hand-rolled Merkleization (see DESIGN.md): it is
// internally consistent and deterministic, but is not a byte-exact
// reimplementation of the consensus SSZ container layout, which is out of
// scope per spec.md §1 ("not specified further here" for the database/SSZ
// wire format).
func (s *BeaconState) HashTreeRoot() ([32]byte, error) {
	fieldRoots := make([][32]byte, 0, 16)
	add := func(r [32]byte) { fieldRoots = append(fieldRoots, r) }

	var slotRoot [32]byte
	copy(slotRoot[:8], uint64LE(uint64(s.slot)))
	add(slotRoot)

	vRoot, err := s.validators.HashTreeRoot()
	if err != nil {
		return [32]byte{}, errors.Wrap(err, "could not hash validators")
	}
	add(vRoot)

	bRoot, err := s.balances.HashTreeRoot()
	if err != nil {
		return [32]byte{}, errors.Wrap(err, "could not hash balances")
	}
	add(bRoot)

	blockRootsRoot, err := s.blockRoots.HashTreeRoot()
	if err != nil {
		return [32]byte{}, err
	}
	add(blockRootsRoot)

	stateRootsRoot, err := s.stateRoots.HashTreeRoot()
	if err != nil {
		return [32]byte{}, err
	}
	add(stateRootsRoot)

	randaoRoot, err := s.randaoMixes.HashTreeRoot()
	if err != nil {
		return [32]byte{}, err
	}
	add(randaoRoot)

	slashingsRoot, err := s.slashings.HashTreeRoot()
	if err != nil {
		return [32]byte{}, err
	}
	add(slashingsRoot)

	if s.fork == version.Phase0 {
		paRoot, err := s.previousEpochAttestations.HashTreeRoot()
		if err != nil {
			return [32]byte{}, err
		}
		add(paRoot)
		caRoot, err := s.currentEpochAttestations.HashTreeRoot()
		if err != nil {
			return [32]byte{}, err
		}
		add(caRoot)
	} else {
		ppRoot, err := s.previousEpochParticipation.HashTreeRoot()
		if err != nil {
			return [32]byte{}, err
		}
		add(ppRoot)
		cpRoot, err := s.currentEpochParticipation.HashTreeRoot()
		if err != nil {
			return [32]byte{}, err
		}
		add(cpRoot)
		isRoot, err := s.inactivityScores.HashTreeRoot()
		if err != nil {
			return [32]byte{}, err
		}
		add(isRoot)
	}

	return hash.MerkleRoot(hash.PadToPowerOfTwo(fieldRoots))
}

func uint64LE(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

func identityHasher32(v [32]byte) [32]byte { return v }

func uint64Hasher(v uint64) [32]byte {
	var out [32]byte
	copy(out[:8], uint64LE(v))
	return out
}

func byteHasher(v byte) [32]byte {
	var out [32]byte
	out[0] = v
	return out
}

func validatorHasher(v *types.Validator) [32]byte {
	if v == nil {
		return [32]byte{}
	}
	var buf [32]byte
	copy(buf[:], v.PublicKey[:32])
	mix := uint64LE(v.EffectiveBalance)
	for i := range mix {
		buf[i] ^= mix[i]
	}
	if v.Slashed {
		buf[31] ^= 0xFF
	}
	return buf
}

func eth1DataHasher(d *types.Eth1Data) [32]byte {
	if d == nil {
		return [32]byte{}
	}
	return d.DepositRoot
}

func pendingAttestationHasher(a *PendingAttestation) [32]byte {
	if a == nil || a.Data == nil {
		return [32]byte{}
	}
	return a.Data.BeaconBlockRoot
}
