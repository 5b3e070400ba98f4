// Package online tracks which users are currently signed in. A user counts
// as online for a configurable window after the last activity mark.
package online

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/samber/lo"
)

// DefaultTTL is the window after which a user without activity is no
// longer considered online.
const DefaultTTL = 5 * time.Minute

// Registry exposes the set of currently signed-in usernames.
type Registry interface {
	// MarkOnline records activity for the username, extending its online window.
	MarkOnline(ctx context.Context, username string) error
	// MarkOffline removes the username from the registry immediately.
	MarkOffline(ctx context.Context, username string) error
	// IsOnline reports whether the username has marked activity within the window.
	IsOnline(ctx context.Context, username string) (bool, error)
	// OnlineUsers returns all usernames currently considered online.
	OnlineUsers(ctx context.Context) ([]string, error)
}

// MemoryRegistry keeps the online set in process memory. Suitable for
// single-instance deployments and tests.
type MemoryRegistry struct {
	cache *gocache.Cache
}

// NewMemoryRegistry creates an in-process registry with the given TTL.
// A zero ttl uses DefaultTTL.
func NewMemoryRegistry(ttl time.Duration) *MemoryRegistry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryRegistry{
		cache: gocache.New(ttl, ttl),
	}
}

func (r *MemoryRegistry) MarkOnline(_ context.Context, username string) error {
	r.cache.SetDefault(username, struct{}{})
	return nil
}

func (r *MemoryRegistry) MarkOffline(_ context.Context, username string) error {
	r.cache.Delete(username)
	return nil
}

func (r *MemoryRegistry) IsOnline(_ context.Context, username string) (bool, error) {
	_, found := r.cache.Get(username)
	return found, nil
}

func (r *MemoryRegistry) OnlineUsers(_ context.Context) ([]string, error) {
	return lo.Keys(r.cache.Items()), nil
}
