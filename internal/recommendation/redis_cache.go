package recommendation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"partner-insights/internal/common/database"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "partner-insights:analysis"

// RedisCache stores results as JSON under a per-session prefix. Entries expire
// after ttl, which is the session lifetime.
type RedisCache struct {
	client  *database.RedisClient
	session string
	ttl     time.Duration
}

func NewRedisCache(client *database.RedisClient, sessionID string, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, session: sessionID, ttl: ttl}
}

func (c *RedisCache) key(partnerID string) string {
	return fmt.Sprintf("%s:%s:%s", redisKeyPrefix, c.session, partnerID)
}

func (c *RedisCache) Get(ctx context.Context, partnerID string) (Result, bool, error) {
	raw, err := c.client.Get(ctx, c.key(partnerID))
	if errors.Is(err, redis.Nil) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, fmt.Errorf("redis get: %w", err)
	}

	var res Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return Result{}, false, fmt.Errorf("decode cached analysis: %w", err)
	}
	return res, true, nil
}

func (c *RedisCache) Put(ctx context.Context, partnerID string, res Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key(partnerID), data, c.ttl); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, partnerID string) error {
	if err := c.client.Del(ctx, c.key(partnerID)); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (c *RedisCache) Len(ctx context.Context) (int, error) {
	keys, err := c.client.Keys(ctx, c.key("*"))
	if err != nil {
		return 0, fmt.Errorf("redis scan: %w", err)
	}
	return len(keys), nil
}
