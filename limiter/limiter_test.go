package limiter_test

import (
	"context"
	"testing"
	"time"

	"github.com/amonks/artsy/limiter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetNextAt(t *testing.T) {
	lim := limiter.New(0, 1)

	wait, err := lim.SetNextAt("2")
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, wait)

	wait, err = lim.SetNextAt("")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, wait)

	_, err = lim.SetNextAt("Wed, 21 Oct 2015 07:28:00 GMT")
	assert.Error(t, err)
}

func TestWaitHonorsBackoff(t *testing.T) {
	lim := limiter.New(0, 1)
	require.NoError(t, lim.Wait(context.Background()))

	_, err := lim.SetNextAt("0")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, lim.Wait(ctx), context.DeadlineExceeded)
}

func TestWaitPaces(t *testing.T) {
	lim := limiter.New(20, 1)

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, lim.Wait(context.Background()))
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}
