// Package consensustypes defines the plain-data container types that make
// up the beacon state (spec.md §3). These are hand-written rather than
// protoc/sszgen-generated and carry no HashTreeRoot methods of their own:
// the Merkleization in beacon-chain/state hashes their fields directly
// rather than through generated marshalers.
package consensustypes

import "github.com/zephyrus-chain/zephyr/consensus-types/primitives"

// Checkpoint identifies an epoch and the block root considered its boundary.
type Checkpoint struct {
	Epoch primitives.Epoch
	Root  [32]byte
}

// Fork records the previous/current fork versions and the epoch the current
// version activated.
type Fork struct {
	PreviousVersion [4]byte
	CurrentVersion  [4]byte
	Epoch           primitives.Epoch
}

// Eth1Data is the deposit-contract follow-chain vote payload.
type Eth1Data struct {
	DepositRoot  [32]byte
	DepositCount uint64
	BlockHash    [32]byte
}

// BeaconBlockHeader is the minimal per-slot header retained in state.
type BeaconBlockHeader struct {
	Slot          primitives.Slot
	ProposerIndex primitives.ValidatorIndex
	ParentRoot    [32]byte
	StateRoot     [32]byte
	BodyRoot      [32]byte
}

// Validator is one entry of the beacon state's validator registry. Entries
// are never removed, only mutated in place (spec.md §3).
type Validator struct {
	PublicKey                  [48]byte
	WithdrawalCredentials      [32]byte
	EffectiveBalance           uint64
	Slashed                    bool
	ActivationEligibilityEpoch primitives.Epoch
	ActivationEpoch            primitives.Epoch
	ExitEpoch                  primitives.Epoch
	WithdrawableEpoch          primitives.Epoch
}

// Copy returns a deep copy of the validator so mutation never aliases a
// shared backing entry (the state store's structural sharing depends on this).
func (v *Validator) Copy() *Validator {
	cpy := *v
	return &cpy
}
