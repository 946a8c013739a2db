package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJitteredDelayWithinBounds(t *testing.T) {
	minDelay := 1 * time.Second
	maxDelay := 3 * time.Second
	limiter := NewJittered(minDelay, maxDelay)

	for i := 0; i < 100; i++ {
		d := limiter.delay()
		assert.GreaterOrEqual(t, d, minDelay)
		assert.LessOrEqual(t, d, maxDelay)
	}
}

func TestJitteredDelayEqualBounds(t *testing.T) {
	limiter := NewJittered(2*time.Second, 2*time.Second)
	assert.Equal(t, 2*time.Second, limiter.delay())
}

func TestJitteredFirstWaitDoesNotBlock(t *testing.T) {
	limiter := NewJittered(1*time.Hour, 2*time.Hour)

	start := time.Now()
	err := limiter.Wait(context.Background())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestJitteredWaitRespectsCancellation(t *testing.T) {
	limiter := NewJittered(1*time.Hour, 2*time.Hour)

	// Prime lastAction so the second Wait would block for the full delay.
	require.NoError(t, limiter.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := limiter.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNoneWait(t *testing.T) {
	assert.NoError(t, None{}.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, None{}.Wait(ctx), context.Canceled)
}

func TestAgentPoolNext(t *testing.T) {
	agents := []string{"agent-a", "agent-b", "agent-c"}
	pool := NewAgentPool(agents)

	for i := 0; i < 50; i++ {
		assert.Contains(t, agents, pool.Next())
	}
}

func TestAgentPoolEmpty(t *testing.T) {
	pool := NewAgentPool(nil)
	assert.Empty(t, pool.Next())
}
