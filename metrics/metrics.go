// Package metrics exposes prometheus collectors describing the cost and
// outcome of epoch transitions, grounded on the teacher's
// beacon-chain/core/state/metrics.go reportEpochTransitionMetrics idiom
// (per-validator balance gauge, last-slot/justified/finalized gauges),
// generalized to this module's fork-aware BeaconState and extended with a
// transition-duration histogram for the benchmark driver in cmd/epochbench.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransitionDuration records wall-clock time spent inside ProcessEpoch,
	// labeled by fork so Phase0 and Altair costs can be compared.
	TransitionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "epoch_transition_duration_seconds",
		Help:    "Time spent running one epoch transition, by fork.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
	}, []string{"fork"})

	// ActiveValidatorCount is the size of the active set snapshotted by the
	// epoch cache at the start of the most recent transition.
	ActiveValidatorCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "epoch_active_validator_count",
		Help: "Number of active validators at the start of the last epoch transition.",
	})

	// LastSlotGauge mirrors the teacher's state_last_slot gauge.
	LastSlotGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "state_last_slot",
		Help: "Last slot number of the processed state.",
	})

	// LastJustifiedEpochGauge mirrors the teacher's state_last_justified_epoch gauge.
	LastJustifiedEpochGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "state_last_justified_epoch",
		Help: "Current justified epoch of the processed state.",
	})

	// LastPrevJustifiedEpochGauge mirrors the teacher's
	// state_last_prev_justified_epoch gauge.
	LastPrevJustifiedEpochGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "state_last_prev_justified_epoch",
		Help: "Previous justified epoch of the processed state.",
	})

	// LastFinalizedEpochGauge mirrors the teacher's state_last_finalized_epoch gauge.
	LastFinalizedEpochGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "state_last_finalized_epoch",
		Help: "Last finalized epoch of the processed state.",
	})

	// TotalActiveStakeGauge tracks the EpochSummary's total_active_stake,
	// in Gwei, after the most recent transition.
	TotalActiveStakeGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "epoch_total_active_stake_gwei",
		Help: "Total active stake, in Gwei, computed by the last epoch summary scan.",
	})
)

// ObserveTransition records how long an epoch transition for the given fork
// name took, via a deferred call at the orchestrator's call site:
//
//	defer metrics.ObserveTransition(st.Fork().String())()
func ObserveTransition(fork string) func() {
	start := time.Now()
	return func() {
		TransitionDuration.WithLabelValues(fork).Observe(time.Since(start).Seconds())
	}
}

// ReportEpochTransitionMetrics updates the last-slot/justified/finalized
// gauges and the active-stake gauge after a transition completes, the way
// the teacher's reportEpochTransitionMetrics does for its own BeaconState.
func ReportEpochTransitionMetrics(slot, currentJustifiedEpoch, previousJustifiedEpoch, finalizedEpoch, totalActiveStake uint64) {
	LastSlotGauge.Set(float64(slot))
	LastJustifiedEpochGauge.Set(float64(currentJustifiedEpoch))
	LastPrevJustifiedEpochGauge.Set(float64(previousJustifiedEpoch))
	LastFinalizedEpochGauge.Set(float64(finalizedEpoch))
	TotalActiveStakeGauge.Set(float64(totalActiveStake))
}
