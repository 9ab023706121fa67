// Package transition implements the Epoch Orchestrator (C5) and the
// process_slots façade (C6): the exact sub-phase ordering from spec.md §4.5
// and the per-slot advance loop from spec.md §4.6. Grounded on the
// teacher's beacon-chain/core/transition package, which plays the same
// coordinating role over its own sub-phase processors.
package transition

import (
	"context"

	"github.com/pkg/errors"
	"github.com/zephyrus-chain/zephyr/beacon-chain/cache"
	"github.com/zephyrus-chain/zephyr/beacon-chain/core/altair"
	"github.com/zephyrus-chain/zephyr/beacon-chain/core/epoch"
	"github.com/zephyrus-chain/zephyr/beacon-chain/core/epoch/precompute"
	zstate "github.com/zephyrus-chain/zephyr/beacon-chain/state"
	"github.com/zephyrus-chain/zephyr/io/logs"
	"github.com/zephyrus-chain/zephyr/metrics"
	"github.com/zephyrus-chain/zephyr/runtime/version"
)

var log = logs.New("core/transition")

// ErrForkMismatch is returned when a caller hands the orchestrator a state
// whose fork field doesn't match any sub-phase it knows how to run.
var ErrForkMismatch = errors.New("transition: unrecognized fork")

// ProcessEpoch runs every sub-phase processor for the epoch boundary the
// state currently sits on, in the fixed order spec.md §4.5 mandates:
// cache build, summary scan, attestation folding, justification/
// finalization, (Altair) inactivity scores, rewards and penalties,
// registry updates, slashings, eth1 data reset, effective balance updates,
// slashings reset, randao mixes reset, historical roots update,
// participation record update, and (Altair) sync committee update.
func ProcessEpoch(ctx context.Context, st *zstate.BeaconState) error {
	switch st.Fork() {
	case version.Phase0, version.Altair:
	default:
		return ErrForkMismatch
	}
	log.WithField("slot", st.Slot()).WithField("fork", st.Fork().String()).Debug("processing epoch")
	defer metrics.ObserveTransition(st.Fork().String())()

	ec, err := cache.Build(st)
	if err != nil {
		return errors.Wrap(err, "could not build epoch cache")
	}

	summary, err := precompute.New(ctx, st, ec)
	if err != nil {
		return errors.Wrap(err, "could not build epoch summary")
	}

	if err := precompute.ProcessAttestations(ctx, st, ec, summary); err != nil {
		return errors.Wrap(err, "could not process attestations")
	}

	if err := precompute.ProcessJustificationAndFinalizationPreCompute(ctx, st, summary); err != nil {
		return errors.Wrap(err, "could not process justification and finalization")
	}

	if st.Fork() != version.Phase0 {
		if err := altair.ProcessInactivityScores(ctx, st, summary); err != nil {
			return errors.Wrap(err, "could not process inactivity scores")
		}
	}

	if err := precompute.ProcessRewardsAndPenaltiesPrecompute(ctx, st, summary); err != nil {
		return errors.Wrap(err, "could not process rewards and penalties")
	}

	if err := epoch.ProcessRegistryUpdates(ctx, st, summary); err != nil {
		return errors.Wrap(err, "could not process registry updates")
	}

	if err := precompute.ProcessSlashingsPrecompute(ctx, st, summary); err != nil {
		return errors.Wrap(err, "could not process slashings")
	}

	if err := epoch.ProcessEth1DataReset(ctx, st, summary); err != nil {
		return errors.Wrap(err, "could not process eth1 data reset")
	}
	if err := epoch.ProcessEffectiveBalanceUpdates(ctx, st); err != nil {
		return errors.Wrap(err, "could not process effective balance updates")
	}
	if err := epoch.ProcessSlashingsReset(ctx, st, summary); err != nil {
		return errors.Wrap(err, "could not process slashings reset")
	}
	if err := epoch.ProcessRandaoMixesReset(ctx, st, summary); err != nil {
		return errors.Wrap(err, "could not process randao mixes reset")
	}
	if err := epoch.ProcessHistoricalRootsUpdate(ctx, st, summary); err != nil {
		return errors.Wrap(err, "could not process historical roots update")
	}
	if err := epoch.ProcessParticipationRecordUpdates(ctx, st); err != nil {
		return errors.Wrap(err, "could not process participation record update")
	}

	if st.Fork() != version.Phase0 {
		if err := altair.ProcessSyncCommitteeUpdates(ctx, st, ec); err != nil {
			return errors.Wrap(err, "could not process sync committee update")
		}
	}

	metrics.ActiveValidatorCount.Set(float64(len(ec.ActiveValidatorsCurrent)))
	metrics.ReportEpochTransitionMetrics(
		uint64(st.Slot()),
		uint64(st.CurrentJustifiedCheckpoint().Epoch),
		uint64(st.PreviousJustifiedCheckpoint().Epoch),
		uint64(st.FinalizedCheckpoint().Epoch),
		summary.Balances.TotalActiveStake,
	)

	log.WithField("epoch", ec.CurrentEpoch).Trace("epoch transition complete")
	return nil
}
