package botconfig

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vipogroup/vipo-api/internal/types"
	"github.com/vipogroup/vipo-api/internal/utils"
)

const cachePrefix = "botconfig:"

// Cache holds rendered config documents by scope. Failures are logged and
// treated as misses; the database stays authoritative.
type Cache interface {
	Get(ctx context.Context, scope types.BotScope) (*types.BotConfig, bool)
	Set(ctx context.Context, scope types.BotScope, cfg *types.BotConfig)
	Delete(ctx context.Context, scope types.BotScope)
}

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache returns a Redis backed cache, or a no-op one when rdb is nil.
func NewCache(rdb *redis.Client, ttl time.Duration) Cache {
	if rdb == nil {
		return noopCache{}
	}
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, scope types.BotScope) (*types.BotConfig, bool) {
	raw, err := c.rdb.Get(ctx, cachePrefix+scope.Key()).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			utils.Zlog.Warn("Bot config cache read failed", zap.String("scope", scope.Key()), zap.Error(err))
		}
		return nil, false
	}
	var cfg types.BotConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, false
	}
	return &cfg, true
}

func (c *RedisCache) Set(ctx context.Context, scope types.BotScope, cfg *types.BotConfig) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cachePrefix+scope.Key(), raw, c.ttl).Err(); err != nil {
		utils.Zlog.Warn("Bot config cache write failed", zap.String("scope", scope.Key()), zap.Error(err))
	}
}

func (c *RedisCache) Delete(ctx context.Context, scope types.BotScope) {
	if err := c.rdb.Del(ctx, cachePrefix+scope.Key()).Err(); err != nil {
		utils.Zlog.Warn("Bot config cache invalidation failed", zap.String("scope", scope.Key()), zap.Error(err))
	}
}

type noopCache struct{}

func (noopCache) Get(context.Context, types.BotScope) (*types.BotConfig, bool) { return nil, false }
func (noopCache) Set(context.Context, types.BotScope, *types.BotConfig)        {}
func (noopCache) Delete(context.Context, types.BotScope)                       {}
