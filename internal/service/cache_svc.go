package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
)

// Redis key TTLs. Score entries are short-lived because recomputes invalidate
// them anyway; eligibility reads tolerate slightly longer staleness.
const (
	ScoreCacheTTL       = 5 * time.Minute
	EligibilityCacheTTL = 10 * time.Minute
)

// CacheService provides a Redis cache-aside layer for score and eligibility
// lookups. If redisURL is empty or connection fails, the client is nil and
// all cache operations become no-ops.
type CacheService struct {
	rdb *redis.Client
}

func NewCacheService(redisURL string) *CacheService {
	if redisURL == "" {
		log.Info().Msg("redis: no URL configured, caching disabled")
		return &CacheService{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Str("url", redisURL).Msg("redis: invalid URL, caching disabled")
		return &CacheService{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis: connection failed, caching disabled")
		return &CacheService{}
	}

	log.Info().Msg("redis: connected, caching enabled")
	return &CacheService{rdb: rdb}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	return c.rdb
}

// GetScore retrieves a cached score response. Returns nil if not cached or
// cache is disabled.
func (c *CacheService) GetScore(ctx context.Context, target model.TargetRef) ([]byte, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, scoreKey(target)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return data, err
}

// SetScore stores a score response in cache.
func (c *CacheService) SetScore(ctx context.Context, target model.TargetRef, data interface{}) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, scoreKey(target), b, ScoreCacheTTL).Err()
}

// InvalidateScore removes a target's score and eligibility from cache
// (called after every recompute and promotion).
func (c *CacheService) InvalidateScore(ctx context.Context, target model.TargetRef) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, scoreKey(target), eligibilityKey(target)).Err()
}

// GetEligibility retrieves a cached eligibility response.
func (c *CacheService) GetEligibility(ctx context.Context, target model.TargetRef) ([]byte, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, eligibilityKey(target)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return data, err
}

// SetEligibility stores an eligibility response in cache.
func (c *CacheService) SetEligibility(ctx context.Context, target model.TargetRef, data interface{}) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, eligibilityKey(target), b, EligibilityCacheTTL).Err()
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func scoreKey(t model.TargetRef) string {
	return fmt.Sprintf("score:%s", t.Key())
}

func eligibilityKey(t model.TargetRef) string {
	return fmt.Sprintf("eligibility:%s", t.Key())
}
