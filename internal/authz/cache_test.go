package authz

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/commonsphere/commonsphere/internal/shared"
	_ "github.com/commonsphere/commonsphere/testing"
)

func newTestCache(t *testing.T) *VerdictCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewVerdictCache(client, time.Minute)
}

func TestVerdictCacheFetchStoresVerdict(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	userID := uuid.New()
	resourceID := uuid.New()

	key, err := cache.Key(ctx, userID, ResourceTypeProgram, resourceID, "view")
	require.NoError(t, err)

	calls := 0
	loader := func(ctx context.Context) (bool, error) {
		calls++
		return true, nil
	}

	allowed, err := cache.Fetch(ctx, key, loader)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, 1, calls)

	allowed, err = cache.Fetch(ctx, key, loader)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, 1, calls, "second fetch must come from the cache")
}

func TestVerdictCacheBumpInvalidates(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	userID := uuid.New()
	resourceID := uuid.New()

	before, err := cache.Key(ctx, userID, ResourceTypeProgram, resourceID, "view")
	require.NoError(t, err)

	require.NoError(t, cache.Bump(ctx))

	after, err := cache.Key(ctx, userID, ResourceTypeProgram, resourceID, "view")
	require.NoError(t, err)
	require.NotEqual(t, before, after, "bump must rotate every verdict key")
}

func TestRoleChangeBumpDropsCachedAllow(t *testing.T) {
	cache := newTestCache(t)
	fx := newEngineFixture()
	ctx := context.Background()
	userID := uuid.New()
	item := LibraryItem{ID: uuid.New(), AccessLevel: LibraryMembers}

	fx.perms.names[shared.PermViewLibraryItem] = true

	check := func() bool {
		key, err := cache.Key(ctx, userID, ResourceTypeLibraryItem, item.ID, "view")
		require.NoError(t, err)
		allowed, err := cache.Fetch(ctx, key, func(ctx context.Context) (bool, error) {
			return fx.engine.CanViewLibraryItem(ctx, userID, item)
		})
		require.NoError(t, err)
		return allowed
	}

	require.True(t, check())

	// The permission is stripped but the old verdict is still cached.
	fx.perms.names[shared.PermViewLibraryItem] = false
	require.True(t, check(), "without a bump the cached allow is still served")

	require.NoError(t, cache.Bump(ctx))
	require.False(t, check(), "a user stripped of the permission must be denied after the bump")
}

func TestVerdictCacheNilClientPassesThrough(t *testing.T) {
	var cache *VerdictCache
	ctx := context.Background()

	key, err := cache.Key(ctx, uuid.New(), ResourceTypeProgram, uuid.New(), "view")
	require.NoError(t, err)

	calls := 0
	for i := 0; i < 2; i++ {
		allowed, err := cache.Fetch(ctx, key, func(ctx context.Context) (bool, error) {
			calls++
			return false, nil
		})
		require.NoError(t, err)
		require.False(t, allowed)
	}
	require.Equal(t, 2, calls, "without redis every fetch evaluates")
	require.NoError(t, cache.Bump(ctx))
}
