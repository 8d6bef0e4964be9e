package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/openwarehouse/WareFleetCore/internal/config"
	"github.com/openwarehouse/WareFleetCore/internal/types"
	"go.uber.org/zap"
)

// DeviceByMACLookup is the hot-path lookup the telemetry ingest loop hits for
// every message.
type DeviceByMACLookup interface {
	DeviceByMAC(ctx context.Context, mac string) (*types.Device, error)
}

// CachedDirectory is a read-through redis cache in front of the device
// directory. Cache misses and redis outages fall through to the backing
// store; a stale entry at worst routes telemetry with outdated metadata
// until the TTL expires.
type CachedDirectory struct {
	backing DeviceByMACLookup
	rdb     *redis.Client
	ttl     time.Duration
	logger  *zap.Logger
}

func NewCachedDirectory(backing DeviceByMACLookup, cfg config.RedisConfig, logger *zap.Logger) *CachedDirectory {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &CachedDirectory{
		backing: backing,
		rdb:     rdb,
		ttl:     cfg.CacheTTL,
		logger:  logger,
	}
}

func deviceCacheKey(mac string) string {
	return "wfc:device:mac:" + mac
}

func (c *CachedDirectory) DeviceByMAC(ctx context.Context, mac string) (*types.Device, error) {
	key := deviceCacheKey(mac)

	if data, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var device types.Device
		if err := json.Unmarshal(data, &device); err == nil {
			return &device, nil
		}
		// Unreadable entry; drop it and fall through
		c.rdb.Del(ctx, key)
	} else if err != redis.Nil {
		c.logger.Warn("Device cache read failed", zap.Error(err))
	}

	device, err := c.backing.DeviceByMAC(ctx, mac)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(device); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("Device cache write failed", zap.Error(err))
		}
	}

	return device, nil
}

// Invalidate drops the cached entry for a MAC, for use after device updates.
func (c *CachedDirectory) Invalidate(ctx context.Context, mac string) {
	if err := c.rdb.Del(ctx, deviceCacheKey(mac)).Err(); err != nil {
		c.logger.Warn("Device cache invalidation failed",
			zap.String("mac", mac), zap.Error(err))
	}
}

func (c *CachedDirectory) Close() error {
	return c.rdb.Close()
}
