package state

import "github.com/zephyrus-chain/zephyr/consensus-types/primitives"

// SyncCommittee is the Altair committee of validators responsible for
// signing sync aggregates for one sync-committee period.
type SyncCommittee struct {
	Pubkeys         [][48]byte
	AggregatePubkey [48]byte
}

// ParticipationFlagBit indices, matching config/params's
// TimelySource/Target/HeadFlagIndex for readability at call sites.
const (
	TimelySourceFlag uint8 = 1 << 0
	TimelyTargetFlag uint8 = 1 << 1
	TimelyHeadFlag   uint8 = 1 << 2
)

// HasFlag reports whether participation byte b has bit set.
func HasFlag(b byte, bit uint8) bool {
	return b&bit == bit
}

// AddFlag returns b with bit set.
func AddFlag(b byte, bit uint8) byte {
	return b | bit
}

// SyncCommitteeIndices is a convenience alias used by the epoch cache when
// resolving the sync committee's member indices against the validator set.
type SyncCommitteeIndices []primitives.ValidatorIndex
