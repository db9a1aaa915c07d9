package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBreaker(threshold int, cooldown time.Duration) (*Breaker, *time.Time) {
	b := NewBreaker("textract", BreakerConfig{
		FailureThreshold: threshold,
		Cooldown:         cooldown,
	})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	return b, &now
}

func failTransient(ctx context.Context) error {
	return NewTransientError(errors.New("proxy returned 503"), 503)
}

func succeed(ctx context.Context) error { return nil }

func TestBreaker_OpensAfterConsecutiveTransientFailures(t *testing.T) {
	t.Parallel()

	b, _ := testBreaker(3, 30*time.Second)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.Error(t, b.Call(ctx, failTransient))
	}
	assert.True(t, b.Open())

	err := b.Call(ctx, func(ctx context.Context) error {
		t.Fatal("call should have been rejected")
		return nil
	})
	assert.ErrorIs(t, err, ErrBreakerOpen)
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	t.Parallel()

	b, _ := testBreaker(3, 30*time.Second)
	ctx := context.Background()

	require.Error(t, b.Call(ctx, failTransient))
	require.Error(t, b.Call(ctx, failTransient))
	require.NoError(t, b.Call(ctx, succeed))
	require.Error(t, b.Call(ctx, failTransient))
	require.Error(t, b.Call(ctx, failTransient))

	assert.False(t, b.Open())
}

func TestBreaker_PermanentErrorsDoNotTrip(t *testing.T) {
	t.Parallel()

	b, _ := testBreaker(2, 30*time.Second)
	ctx := context.Background()
	permanent := errors.New("invalid request body")

	for i := 0; i < 5; i++ {
		err := b.Call(ctx, func(ctx context.Context) error { return permanent })
		assert.ErrorIs(t, err, permanent)
	}
	assert.False(t, b.Open())
}

func TestBreaker_ProbeAfterCooldown(t *testing.T) {
	t.Parallel()

	b, now := testBreaker(2, 30*time.Second)
	ctx := context.Background()

	require.Error(t, b.Call(ctx, failTransient))
	require.Error(t, b.Call(ctx, failTransient))
	require.True(t, b.Open())

	// Still inside cooldown: rejected.
	*now = now.Add(10 * time.Second)
	assert.ErrorIs(t, b.Call(ctx, succeed), ErrBreakerOpen)

	// Cooldown elapsed: probe allowed, success closes the breaker.
	*now = now.Add(30 * time.Second)
	require.NoError(t, b.Call(ctx, succeed))
	assert.False(t, b.Open())
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	t.Parallel()

	b, now := testBreaker(2, 30*time.Second)
	ctx := context.Background()

	require.Error(t, b.Call(ctx, failTransient))
	require.Error(t, b.Call(ctx, failTransient))

	*now = now.Add(31 * time.Second)
	require.Error(t, b.Call(ctx, failTransient))

	assert.True(t, b.Open())
	assert.ErrorIs(t, b.Call(ctx, succeed), ErrBreakerOpen)
}
