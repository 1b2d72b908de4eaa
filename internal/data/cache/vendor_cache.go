package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"account-provisioning/internal/data/entity"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "vendor_profile:"

// VendorCache keeps recently fetched vendor profiles so login enrichment does
// not hit the vendor service on every request. A miss is (nil, nil).
type VendorCache interface {
	Get(ctx context.Context, vendorID int64) (*entity.VendorProfile, error)
	Set(ctx context.Context, profile *entity.VendorProfile) error
}

// redisStore is the part of *redis.Client the cache uses.
type redisStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisVendorCache struct {
	rdb redisStore
	ttl time.Duration
	log *zap.Logger
}

// NewRedisClient parses url and checks connectivity.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return rdb, nil
}

func NewRedisVendorCache(rdb *redis.Client, ttl time.Duration, log *zap.Logger) VendorCache {
	return &redisVendorCache{
		rdb: rdb,
		ttl: ttl,
		log: log.With(zap.String("cache", "vendor_profile")),
	}
}

func key(vendorID int64) string {
	return keyPrefix + strconv.FormatInt(vendorID, 10)
}

func (c *redisVendorCache) Get(ctx context.Context, vendorID int64) (*entity.VendorProfile, error) {
	data, err := c.rdb.Get(ctx, key(vendorID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vendor profile %d: %w", vendorID, err)
	}

	var profile entity.VendorProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		// corrupt entry, drop it and treat as a miss
		c.log.Warn("Dropping undecodable cache entry", zap.Int64("vendor_id", vendorID), zap.Error(err))
		_ = c.rdb.Del(ctx, key(vendorID)).Err()
		return nil, nil
	}

	return &profile, nil
}

func (c *redisVendorCache) Set(ctx context.Context, profile *entity.VendorProfile) error {
	if profile == nil || profile.ID <= 0 {
		return nil
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal vendor profile %d: %w", profile.ID, err)
	}

	if err := c.rdb.Set(ctx, key(profile.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set vendor profile %d: %w", profile.ID, err)
	}
	return nil
}

type nopVendorCache struct{}

// NewNopVendorCache is used when no redis is configured.
func NewNopVendorCache() VendorCache {
	return nopVendorCache{}
}

func (nopVendorCache) Get(context.Context, int64) (*entity.VendorProfile, error) { return nil, nil }
func (nopVendorCache) Set(context.Context, *entity.VendorProfile) error          { return nil }
