package state

import (
	"github.com/prysmaticlabs/go-bitfield"
	types "github.com/zephyrus-chain/zephyr/consensus-types"
	"github.com/zephyrus-chain/zephyr/consensus-types/primitives"
)

// AttestationData identifies what a pending attestation is attesting to.
type AttestationData struct {
	Slot            primitives.Slot
	CommitteeIndex  primitives.CommitteeIndex
	BeaconBlockRoot [32]byte
	Source          types.Checkpoint
	Target          types.Checkpoint
}

// PendingAttestation is the phase-0 attestation record retained in state
// until the epoch summary builder folds it into attester status flags.
type PendingAttestation struct {
	AggregationBits bitfield.Bitlist
	Data            *AttestationData
	InclusionDelay  primitives.Slot
	ProposerIndex   primitives.ValidatorIndex
}
