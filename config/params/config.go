// Package params defines the network-wide and consensus-wide constants used
// by the epoch transition engine. Values mirror the mainnet Altair preset;
// callers needing a different network load an alternate BeaconConfig and
// install it with OverrideBeaconConfig.
package params

import (
	"sync"

	"github.com/zephyrus-chain/zephyr/consensus-types/primitives"
)

// BeaconConfig holds every constant the epoch transition logic reads. Fields
// are grouped the way the spec groups them: time parameters, balance/
// incentive parameters, registry limits, and per-fork reward weights.
type BeaconConfig struct {
	// Time parameters.
	SlotsPerEpoch             uint64
	SecondsPerSlot             uint64
	MinSeedLookahead            uint64
	MaxSeedLookahead            uint64
	SlotsPerHistoricalRoot       uint64
	EpochsPerHistoricalVector     uint64
	EpochsPerSlashingsVector      uint64
	EpochsPerEth1VotingPeriod     uint64
	MinValidatorWithdrawabilityDelay uint64
	ShardCommitteePeriod         uint64
	EpochsPerSyncCommitteePeriod  uint64

	// Gwei values.
	MinDepositAmount          uint64
	MaxEffectiveBalance        uint64
	EjectionBalance            uint64
	EffectiveBalanceIncrement   uint64

	// Initial values.
	GenesisEpoch   primitives.Epoch
	GenesisSlot    primitives.Slot
	FarFutureEpoch primitives.Epoch
	ZeroHash       [32]byte

	// Rewards and penalties.
	BaseRewardFactor              uint64
	BaseRewardsPerEpoch            uint64
	ProposerRewardQuotient         uint64
	InactivityPenaltyQuotient      uint64
	InactivityPenaltyQuotientAltair uint64
	MinSlashingPenaltyQuotient     uint64
	ProportionalSlashingMultiplier uint64
	ProportionalSlashingMultiplierAltair uint64
	InactivityScoreBias           uint64
	InactivityScoreRecoveryRate   uint64
	MinEpochsToInactivityPenalty  uint64

	// Hysteresis for effective balance updates.
	HysteresisQuotient         uint64
	HysteresisDownwardMultiplier uint64
	HysteresisUpwardMultiplier   uint64

	// Max operations per block / registry limits.
	ValidatorRegistryLimit uint64
	MinPerEpochChurnLimit  uint64
	ChurnLimitQuotient     uint64

	// Altair weights. Sum of the five weights equals WeightDenominator.
	TimelySourceWeight uint64
	TimelyTargetWeight uint64
	TimelyHeadWeight   uint64
	SyncRewardWeight   uint64
	ProposerWeight     uint64
	WeightDenominator  uint64

	// Altair participation flag bit indices.
	TimelySourceFlagIndex uint8
	TimelyTargetFlagIndex uint8
	TimelyHeadFlagIndex   uint8

	// Sync committee.
	SyncCommitteeSize uint64

	// Fork schedule.
	AltairForkEpoch primitives.Epoch

	// Network-configurable values (spec.md §6) carried for completeness,
	// unused by the epoch transition itself.
	MinGenesisTime                   uint64
	MinGenesisActiveValidatorCount    uint64
	GenesisDelay                      uint64
	GenesisForkVersion                [4]byte
	DepositNetworkID                  uint64
}

// MainnetConfig returns the canonical mainnet parameter set.
func MainnetConfig() *BeaconConfig {
	return &BeaconConfig{
		SlotsPerEpoch:                32,
		SecondsPerSlot:               12,
		MinSeedLookahead:             1,
		MaxSeedLookahead:             4,
		SlotsPerHistoricalRoot:       8192,
		EpochsPerHistoricalVector:    65536,
		EpochsPerSlashingsVector:     8192,
		EpochsPerEth1VotingPeriod:    64,
		MinValidatorWithdrawabilityDelay: 256,
		ShardCommitteePeriod:         256,
		EpochsPerSyncCommitteePeriod: 256,

		MinDepositAmount:        1000000000,
		MaxEffectiveBalance:     32000000000,
		EjectionBalance:         16000000000,
		EffectiveBalanceIncrement: 1000000000,

		GenesisEpoch:   0,
		GenesisSlot:    0,
		FarFutureEpoch: 1<<64 - 1,
		ZeroHash:       [32]byte{},

		BaseRewardFactor:                64,
		BaseRewardsPerEpoch:             4,
		ProposerRewardQuotient:          8,
		InactivityPenaltyQuotient:       1 << 26,
		InactivityPenaltyQuotientAltair: 3 * (1 << 24),
		MinSlashingPenaltyQuotient:      128,
		ProportionalSlashingMultiplier:  3,
		ProportionalSlashingMultiplierAltair: 2,
		InactivityScoreBias:             4,
		InactivityScoreRecoveryRate:     16,
		MinEpochsToInactivityPenalty:    4,

		HysteresisQuotient:         4,
		HysteresisDownwardMultiplier: 1,
		HysteresisUpwardMultiplier:   5,

		ValidatorRegistryLimit: 1 << 40,
		MinPerEpochChurnLimit:  4,
		ChurnLimitQuotient:     1 << 16,

		TimelySourceWeight: 14,
		TimelyTargetWeight: 26,
		TimelyHeadWeight:   14,
		SyncRewardWeight:   2,
		ProposerWeight:     8,
		WeightDenominator:  64,

		TimelySourceFlagIndex: 0,
		TimelyTargetFlagIndex: 1,
		TimelyHeadFlagIndex:   2,

		SyncCommitteeSize: 512,

		AltairForkEpoch: 74240,

		MinGenesisTime:                1606824000,
		MinGenesisActiveValidatorCount: 16384,
		GenesisDelay:                   604800,
		DepositNetworkID:               1,
	}
}

var (
	beaconConfig   = MainnetConfig()
	beaconConfigLk sync.RWMutex
)

// BeaconConfig returns the globally installed configuration.
func BeaconConfig() *BeaconConfig {
	beaconConfigLk.RLock()
	defer beaconConfigLk.RUnlock()
	return beaconConfig
}

// OverrideBeaconConfig installs cfg as the process-wide configuration. Tests
// use this to exercise minimal presets or fork-boundary edge cases; it must
// never be called from non-test code after startup.
func OverrideBeaconConfig(cfg *BeaconConfig) {
	beaconConfigLk.Lock()
	defer beaconConfigLk.Unlock()
	beaconConfig = cfg
}

// MinimalConfig returns a small-registry preset useful for fast unit tests.
func MinimalConfig() *BeaconConfig {
	cfg := MainnetConfig()
	cfg.SlotsPerEpoch = 8
	cfg.SlotsPerHistoricalRoot = 64
	cfg.EpochsPerHistoricalVector = 64
	cfg.EpochsPerSlashingsVector = 64
	cfg.EpochsPerEth1VotingPeriod = 4
	cfg.MinValidatorWithdrawabilityDelay = 256
	cfg.ShardCommitteePeriod = 64
	cfg.EpochsPerSyncCommitteePeriod = 8
	return cfg
}
