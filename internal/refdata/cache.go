package refdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// cacheTTL bounds staleness of cached reference entries. Reference data only
// changes at deploy time, so a generous TTL is safe; workflow state is never
// cached here.
const cacheTTL = 10 * time.Minute

// CachedStore is a redis read-through cache in front of another Store.
// Cache failures degrade to the backing store rather than failing lookups.
type CachedStore struct {
	next  Store
	redis *redis.Client
}

func NewCachedStore(next Store, client *redis.Client) *CachedStore {
	return &CachedStore{next: next, redis: client}
}

func cacheKey(kind, idOrName string) string {
	return fmt.Sprintf("refdata:%s:%s", kind, idOrName)
}

func lookupCached[T any](
	ctx context.Context,
	c *CachedStore,
	kind, idOrName string,
	find func(ctx context.Context, idOrName string) (T, error),
) (T, error) {
	key := cacheKey(kind, idOrName)
	if raw, err := c.redis.Get(ctx, key).Bytes(); err == nil {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}

	value, err := find(ctx, idOrName)
	if err != nil {
		return value, err
	}
	if raw, err := json.Marshal(value); err == nil {
		c.redis.Set(ctx, key, raw, cacheTTL)
	}
	return value, nil
}

func (c *CachedStore) ChangeType(ctx context.Context, idOrName string) (ChangeType, error) {
	return lookupCached(ctx, c, "type", idOrName, c.next.ChangeType)
}

func (c *CachedStore) Priority(ctx context.Context, idOrName string) (Priority, error) {
	return lookupCached(ctx, c, "priority", idOrName, c.next.Priority)
}

func (c *CachedStore) RiskLevel(ctx context.Context, idOrName string) (RiskLevel, error) {
	return lookupCached(ctx, c, "risk", idOrName, c.next.RiskLevel)
}

func (c *CachedStore) ImpactLevel(ctx context.Context, idOrName string) (ImpactLevel, error) {
	return lookupCached(ctx, c, "impact", idOrName, c.next.ImpactLevel)
}

func (c *CachedStore) ListChangeTypes(ctx context.Context) ([]ChangeType, error) {
	return c.next.ListChangeTypes(ctx)
}
