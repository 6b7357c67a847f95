package middleware

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllowsBurstThenBlocks(t *testing.T) {
	rl := NewRateLimiter(1, 3)

	for i := 0; i < 3; i++ {
		require.True(t, rl.Allow("user-1"), "request %d within burst", i)
	}
	require.False(t, rl.Allow("user-1"))

	// Separate keys have separate buckets.
	require.True(t, rl.Allow("user-2"))
}

func TestRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	require.True(t, rl.Allow("anyone"))
}
