package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestReportEpochTransitionMetrics_SetsGauges(t *testing.T) {
	ReportEpochTransitionMetrics(320, 9, 8, 7, 1024000000000)

	require.Equal(t, float64(320), testutil.ToFloat64(LastSlotGauge))
	require.Equal(t, float64(9), testutil.ToFloat64(LastJustifiedEpochGauge))
	require.Equal(t, float64(8), testutil.ToFloat64(LastPrevJustifiedEpochGauge))
	require.Equal(t, float64(7), testutil.ToFloat64(LastFinalizedEpochGauge))
	require.Equal(t, float64(1024000000000), testutil.ToFloat64(TotalActiveStakeGauge))
}

func TestObserveTransition_RecordsAHistogramSample(t *testing.T) {
	before := testutil.CollectAndCount(TransitionDuration)
	done := ObserveTransition("phase0")
	done()
	after := testutil.CollectAndCount(TransitionDuration)
	require.Greater(t, after, before)
}
