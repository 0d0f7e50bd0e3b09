package verify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Scenario 5 (spec.md §8): current time frozen at 2025-12-17T12:00:00Z.
func TestCheckSkewBoundary(t *testing.T) {
	now := time.Date(2025, 12, 17, 12, 0, 0, 0, time.UTC)

	accepted, err := ParseTimestamp("20251217T114500Z")
	require.NoError(t, err)
	require.NoError(t, CheckSkew(accepted, now))

	rejected, err := ParseTimestamp("20251217T114459Z")
	require.NoError(t, err)
	require.ErrorIs(t, CheckSkew(rejected, now), ErrClockSkew)
}

func TestCheckSkewFutureTimestamp(t *testing.T) {
	now := time.Date(2025, 12, 17, 12, 0, 0, 0, time.UTC)
	future, err := ParseTimestamp("20251217T121501Z")
	require.NoError(t, err)
	require.ErrorIs(t, CheckSkew(future, now), ErrClockSkew)
}

func TestParseTimestampAcceptsRFC3339(t *testing.T) {
	_, err := ParseTimestamp("2025-12-17T12:00:00Z")
	require.NoError(t, err)
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	_, err := ParseTimestamp("not-a-timestamp")
	require.Error(t, err)
}
