package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJitter(t *testing.T) {
	base := 100 * time.Millisecond

	for i := 0; i < 200; i++ {
		d := Jitter(base, 0.2)
		assert.GreaterOrEqual(t, d, 80*time.Millisecond)
		assert.LessOrEqual(t, d, 120*time.Millisecond)
	}

	assert.Equal(t, base, Jitter(base, 0))
	assert.Equal(t, time.Duration(0), Jitter(0, 0.2))
}

func TestSleep(t *testing.T) {
	t.Run("returns after delay", func(t *testing.T) {
		start := time.Now()
		err := Sleep(context.Background(), 10*time.Millisecond, 0.2)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 8*time.Millisecond)
	})

	t.Run("canceled context returns early", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		start := time.Now()
		err := Sleep(ctx, time.Second, 0.2)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})
}

func TestSimpleRateLimiter(t *testing.T) {
	limiter := NewSimpleRateLimiter(20*time.Millisecond, 30*time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	assert.NoError(t, limiter.Wait(ctx))
	assert.Less(t, time.Since(start), 15*time.Millisecond, "first action should not wait")

	assert.NoError(t, limiter.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestAdaptiveRateLimiter(t *testing.T) {
	limiter := NewAdaptiveRateLimiter(time.Second, 2*time.Second)

	limiter.RecordError()
	minDelay, _ := limiter.Delays()
	assert.Equal(t, time.Second, minDelay)

	limiter.RecordError()
	minDelay, maxDelay := limiter.Delays()
	assert.Equal(t, 1500*time.Millisecond, minDelay)
	assert.Equal(t, 3*time.Second, maxDelay)

	for i := 0; i < 6; i++ {
		limiter.RecordSuccess()
	}
	minDelay, _ = limiter.Delays()
	assert.Less(t, minDelay, 1500*time.Millisecond)
	assert.GreaterOrEqual(t, minDelay, time.Second)
}
