package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Domenick1991/paintballpark/config"
	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes a lease only when it is still held by the caller.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisCache struct {
	client   redis.UniversalClient
	zonesTTL time.Duration
}

func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
}

func NewRedisCache(client redis.UniversalClient, zonesTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:   client,
		zonesTTL: zonesTTL,
	}
}

// GetZones returns nil, nil on a cache miss.
func (c *RedisCache) GetZones(ctx context.Context) ([]domain.Zone, error) {
	data, err := c.client.Get(ctx, zonesKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var zones []domain.Zone
	if err := json.Unmarshal(data, &zones); err != nil {
		return nil, err
	}
	return zones, nil
}

func (c *RedisCache) SetZones(ctx context.Context, zones []domain.Zone) error {
	payload, err := json.Marshal(zones)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, zonesKey(), payload, c.zonesTTL).Err()
}

func (c *RedisCache) InvalidateZones(ctx context.Context) error {
	return c.client.Del(ctx, zonesKey()).Err()
}

// AcquireLease takes a cluster-wide named lease for ttl. It reports false
// when another holder owns it.
func (c *RedisCache) AcquireLease(ctx context.Context, name, holder string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, leaseKey(name), holder, ttl).Result()
}

func (c *RedisCache) ReleaseLease(ctx context.Context, name, holder string) error {
	return releaseScript.Run(ctx, c.client, []string{leaseKey(name)}, holder).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func zonesKey() string {
	return "cache:zones"
}

func leaseKey(name string) string {
	return "lease:" + name
}
