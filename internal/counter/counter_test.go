package counter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore())

	// Unset counters read as zero.
	count, err := c.Get(ctx, CounterTopics, 1)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, c.Set(ctx, CounterTopics, 1, 42))
	count, err = c.Get(ctx, CounterTopics, 1)
	require.NoError(t, err)
	assert.Equal(t, 42, count)

	// Counters are independent per name and per user.
	count, err = c.Get(ctx, CounterReplies, 1)
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = c.Get(ctx, CounterTopics, 2)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCounterIncr(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore())

	value, err := c.Incr(ctx, CounterReplies, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, value)

	value, err = c.Incr(ctx, CounterReplies, 7, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, value)

	count, err := c.Get(ctx, CounterReplies, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestCounterSetInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore())

	require.NoError(t, c.Set(ctx, CounterTopics, 1, 1))
	count, err := c.Get(ctx, CounterTopics, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// The read cache must not serve a stale value after an overwrite.
	require.NoError(t, c.Set(ctx, CounterTopics, 1, 9))
	count, err = c.Get(ctx, CounterTopics, 1)
	require.NoError(t, err)
	assert.Equal(t, 9, count)
}
