package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"main/model"

	"github.com/redis/go-redis/v9"
)

const configCacheTTL = 5 * time.Minute

// ConfigCache is a read-through Redis cache in front of the activityconfigs
// collection. Tracking reads the config on every event, so a short TTL
// keeps the hot path off Mongo without holding stale toggles for long.
type ConfigCache struct {
	client *redis.Client
}

// GlobalConfigCache is nil when REDIS_URL is not configured; every call
// site nil-guards, so the cache is strictly optional.
var GlobalConfigCache *ConfigCache

// NewConfigCache creates and connects a config cache.
func NewConfigCache(redisURL string) (*ConfigCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return &ConfigCache{client: client}, nil
}

func configKey(userID string) string {
	return fmt.Sprintf("activity_config:%s", userID)
}

// Get returns the cached config for a user, or nil on a miss.
func (cc *ConfigCache) Get(ctx context.Context, userID string) (*model.ActivityConfig, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID cannot be empty")
	}

	data, err := cc.client.Get(ctx, configKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get config from cache: %v", err)
	}

	var cfg model.ActivityConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %v", err)
	}

	return &cfg, nil
}

// Set caches a user's config.
func (cc *ConfigCache) Set(ctx context.Context, cfg *model.ActivityConfig) error {
	if cfg == nil || cfg.UserID == "" {
		return fmt.Errorf("cannot cache nil or unowned config")
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %v", err)
	}

	if err := cc.client.Set(ctx, configKey(cfg.UserID), data, configCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache config: %v", err)
	}

	return nil
}

// Invalidate drops a user's cached config after an update.
func (cc *ConfigCache) Invalidate(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("userID cannot be empty")
	}
	return cc.client.Del(ctx, configKey(userID)).Err()
}
