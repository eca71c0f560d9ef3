package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewRandomDelayLimiterValidation(t *testing.T) {
	_, err := NewRandomDelayLimiter(-time.Second, time.Second)
	require.Error(t, err)

	_, err = NewRandomDelayLimiter(2*time.Second, time.Second)
	require.Error(t, err)

	limiter, err := NewRandomDelayLimiter(0, 0)
	require.NoError(t, err)
	require.NotNil(t, limiter)
}

func TestWaitZeroDelayReturnsImmediately(t *testing.T) {
	limiter, err := NewRandomDelayLimiter(0, 0)
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, limiter.Wait(context.Background()))
	require.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestPickStaysWithinBounds(t *testing.T) {
	min, max := 10*time.Millisecond, 30*time.Millisecond
	limiter, err := NewRandomDelayLimiter(min, max)
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		delay := limiter.pick()
		require.GreaterOrEqual(t, delay, min)
		require.LessOrEqual(t, delay, max)
	}
}

func TestWaitHonorsCancellation(t *testing.T) {
	limiter, err := NewRandomDelayLimiter(time.Hour, time.Hour)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- limiter.Wait(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after cancellation")
	}
}
