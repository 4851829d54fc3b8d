package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rentflow-backend/internal/config"
)

const trustScoreKeyFmt = "trust_score:%d"

var client *redis.Client

// Init connects to Redis. On failure the client stays nil and every helper
// below becomes a no-op, so the service runs without a cache.
func Init(cfg *config.Config) error {
	if cfg.Redis.Addr == "" {
		return fmt.Errorf("redis addr not configured")
	}

	c := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return err
	}
	client = c
	return nil
}

// Close releases the connection pool if one was opened.
func Close() error {
	if client == nil {
		return nil
	}
	err := client.Close()
	client = nil
	return err
}

// GetCached returns cached data for a key
func GetCached(ctx context.Context, key string) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetCached stores data with a TTL
func SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if client == nil {
		return
	}
	client.Set(ctx, key, data, ttl)
}

// InvalidateKeys removes specific cache keys
func InvalidateKeys(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}

func TrustScoreKey(tenantID int) string {
	return fmt.Sprintf(trustScoreKeyFmt, tenantID)
}

// TrustScores caches rendered trust score reports per tenant.
type TrustScores struct {
	TTL time.Duration
}

func NewTrustScores(ttl time.Duration) *TrustScores {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &TrustScores{TTL: ttl}
}

func (t *TrustScores) Get(ctx context.Context, tenantID int) ([]byte, bool) {
	return GetCached(ctx, TrustScoreKey(tenantID))
}

func (t *TrustScores) Set(ctx context.Context, tenantID int, data []byte) {
	SetCached(ctx, TrustScoreKey(tenantID), data, t.TTL)
}

// Invalidate drops the cached report. Called on every recalculation and
// on payment or rating changes.
func (t *TrustScores) Invalidate(ctx context.Context, tenantID int) {
	InvalidateKeys(ctx, TrustScoreKey(tenantID))
}

// IsHealthy returns true if Redis connection is working
func IsHealthy() bool {
	if client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}
