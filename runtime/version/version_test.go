package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFork_String(t *testing.T) {
	require.Equal(t, "phase0", Phase0.String())
	require.Equal(t, "altair", Altair.String())
	require.Equal(t, "unknown", Fork(99).String())
}
