package authz

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const verdictVersionKey = "authz:version"

// VerdictCache wraps Redis based caching of authorization verdicts.
// Verdicts are keyed under a global version so a single bump after any
// grant, revoke, or role change invalidates the entire set at once.
type VerdictCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewVerdictCache instantiates the verdict cache helper.
func NewVerdictCache(client *redis.Client, ttl time.Duration) *VerdictCache {
	return &VerdictCache{client: client, ttl: ttl}
}

// Version returns the current cache version, initialising when missing.
func (c *VerdictCache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, verdictVersionKey).Int64()
	if err == redis.Nil {
		if err := c.client.Set(ctx, verdictVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Key composes a verdict key for one user, resource, and action under
// the current version.
func (c *VerdictCache) Key(ctx context.Context, userID uuid.UUID, resourceType string, resourceID uuid.UUID, action string) (string, error) {
	joined := strings.Join([]string{"authz", "verdict", userID.String(), resourceType, resourceID.String(), action}, ":")
	if c == nil || c.client == nil {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return joined + ":" + strconv.FormatInt(ver, 10), nil
}

// Fetch loads a cached verdict or populates it using the loader. The
// loader is deduplicated per key so concurrent checks for the same
// tuple evaluate once.
func (c *VerdictCache) Fetch(ctx context.Context, key string, loader func(context.Context) (bool, error)) (bool, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	raw, err := c.client.Get(ctx, key).Result()
	if err == nil {
		return raw == "1", nil
	}
	if err != redis.Nil {
		return false, err
	}
	resultChan := c.group.DoChan(key, func() (interface{}, error) {
		allowed, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		value := "0"
		if allowed {
			value = "1"
		}
		if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
			return nil, err
		}
		return allowed, nil
	})
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return false, res.Err
		}
		return res.Val.(bool), nil
	}
}

// Bump invalidates every cached verdict by incrementing the version.
func (c *VerdictCache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, verdictVersionKey).Err()
}
