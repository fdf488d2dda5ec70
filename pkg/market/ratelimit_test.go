package market

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterAdmitsWithinWindow(t *testing.T) {
	l := NewSlidingLimiter(3, time.Second)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Wait(ctx))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, 3, l.Pending())
}

func TestLimiterDelaysExtraRequestWithoutError(t *testing.T) {
	window := 200 * time.Millisecond
	l := NewSlidingLimiter(2, window)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx))
	require.NoError(t, l.Wait(ctx))

	// The third call must block until the oldest stamp ages out, then
	// succeed; saturation never surfaces as an error.
	start := time.Now()
	require.NoError(t, l.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), window/2)
}

func TestLimiterContextCancel(t *testing.T) {
	l := NewSlidingLimiter(1, time.Hour)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLimiterUnlimited(t *testing.T) {
	l := NewSlidingLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
}
