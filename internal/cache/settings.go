package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"matchday/internal/model"
)

const (
	// SettingsCachePrefix is the key prefix for cached notification settings
	SettingsCachePrefix = "settings:user:"

	// DefaultSettingsCacheTTL is used when no TTL is configured
	DefaultSettingsCacheTTL = 10 * time.Minute
)

// SettingsCache caches resolved notification settings per user.
// Both variants are cached, so users without a row do not hit Postgres on every event.
type SettingsCache interface {
	// Get returns the cached settings. found=false on a cache miss.
	Get(ctx context.Context, userID int64) (settings model.Settings, found bool, err error)

	// Set stores the settings with the cache TTL.
	Set(ctx context.Context, userID int64, settings model.Settings) error

	// Invalidate drops the cached entry (call after a preference update).
	Invalidate(ctx context.Context, userID int64) error
}

// cachedSettings is the JSON shape stored in Redis.
type cachedSettings struct {
	Configured bool                       `json:"configured"`
	Setting    *model.NotificationSetting `json:"setting,omitempty"`
}

// RedisSettingsCache implements SettingsCache with plain Redis strings.
type RedisSettingsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSettingsCache creates a new SettingsCache backed by Redis.
func NewSettingsCache(client *redis.Client, ttl time.Duration) SettingsCache {
	if ttl <= 0 {
		ttl = DefaultSettingsCacheTTL
	}
	return &RedisSettingsCache{client: client, ttl: ttl}
}

// settingsKey returns the Redis key for a user's settings.
func settingsKey(userID int64) string {
	return fmt.Sprintf("%s%d", SettingsCachePrefix, userID)
}

// Get reads and decodes a cached entry.
func (c *RedisSettingsCache) Get(ctx context.Context, userID int64) (model.Settings, bool, error) {
	raw, err := c.client.Get(ctx, settingsKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		log.Printf("[SettingsCache] Get FAILED: user=%d err=%v", userID, err)
		return nil, false, fmt.Errorf("get cached settings: %w", err)
	}

	var entry cachedSettings
	if err := json.Unmarshal(raw, &entry); err != nil {
		// Corrupt entry: treat as a miss so the caller reloads and overwrites it
		log.Printf("[SettingsCache] Get decode error: user=%d err=%v", userID, err)
		return nil, false, nil
	}

	if !entry.Configured || entry.Setting == nil {
		return model.DefaultSettings{UserID: userID}, true, nil
	}
	entry.Setting.UserID = userID
	return model.ConfiguredSettings{Row: *entry.Setting}, true, nil
}

// Set encodes and stores an entry with the configured TTL.
func (c *RedisSettingsCache) Set(ctx context.Context, userID int64, settings model.Settings) error {
	entry := cachedSettings{}
	if cs, ok := settings.(model.ConfiguredSettings); ok {
		row := cs.Row
		entry.Configured = true
		entry.Setting = &row
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cached settings: %w", err)
	}

	if err := c.client.Set(ctx, settingsKey(userID), raw, c.ttl).Err(); err != nil {
		log.Printf("[SettingsCache] Set FAILED: user=%d err=%v", userID, err)
		return fmt.Errorf("set cached settings: %w", err)
	}
	return nil
}

// Invalidate removes a user's cached entry.
func (c *RedisSettingsCache) Invalidate(ctx context.Context, userID int64) error {
	if err := c.client.Del(ctx, settingsKey(userID)).Err(); err != nil {
		log.Printf("[SettingsCache] Invalidate FAILED: user=%d err=%v", userID, err)
		return fmt.Errorf("invalidate cached settings: %w", err)
	}
	log.Printf("[SettingsCache] Invalidate OK: user=%d", userID)
	return nil
}
