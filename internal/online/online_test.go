package online

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRegistry(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry(time.Minute)

	online, err := r.IsOnline(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, online)

	require.NoError(t, r.MarkOnline(ctx, "alice"))
	require.NoError(t, r.MarkOnline(ctx, "bob"))

	online, err = r.IsOnline(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, online)

	users, err := r.OnlineUsers(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, users)

	require.NoError(t, r.MarkOffline(ctx, "alice"))
	online, err = r.IsOnline(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, online)
}

func TestMemoryRegistryExpiry(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry(10 * time.Millisecond)

	require.NoError(t, r.MarkOnline(ctx, "alice"))
	time.Sleep(30 * time.Millisecond)

	online, err := r.IsOnline(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, online)
}
