package httpx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterSetSweepsIdleBuckets(t *testing.T) {
	set := newLimiterSet(RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2})
	require.InDelta(t, time.Minute.Seconds(), set.idleAfter.Seconds(), 0.001)

	ok, _ := set.take("stale")
	require.True(t, ok)
	ok, _ = set.take("fresh")
	require.True(t, ok)

	set.buckets["stale"].lastSeen = time.Now().Add(-2 * time.Minute)
	set.lastSweep = time.Now().Add(-sweepEvery)

	ok, _ = set.take("fresh")
	require.True(t, ok)
	require.NotContains(t, set.buckets, "stale")
	require.Contains(t, set.buckets, "fresh")
}

func TestLimiterSetRetryAfter(t *testing.T) {
	set := newLimiterSet(RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1})

	ok, _ := set.take("k")
	require.True(t, ok)

	ok, wait := set.take("k")
	require.False(t, ok)
	require.InDelta(t, time.Minute.Seconds(), wait.Seconds(), 1)

	// The rejected reservation is returned, so the bucket is not driven
	// further into debt.
	_, again := set.take("k")
	require.InDelta(t, wait.Seconds(), again.Seconds(), 1)
}
