package collector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterUpdateAndCheck(t *testing.T) {
	r := NewRateLimiter()

	reset := time.Now().Add(30 * time.Minute)
	r.UpdateLimit(42, reset)

	remaining, resetTime, err := r.CheckLimit()
	require.NoError(t, err)
	assert.Equal(t, 42, remaining)
	assert.Equal(t, reset, resetTime)
}

func TestRateLimiterWaitHonorsCancel(t *testing.T) {
	r := &githubRateLimiter{
		remaining: 5, // below the threshold, forces a wait until reset
		resetTime: time.Now().Add(time.Hour),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRateLimiterWaitFastPath(t *testing.T) {
	r := &githubRateLimiter{
		remaining: 5000,
		resetTime: time.Now().Add(time.Hour),
	}

	start := time.Now()
	require.NoError(t, r.Wait(context.Background()))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}
