package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"feedback/feedback-service/internal/app/feedback/entity"
	"feedback/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	serviceName       = "feedback-service"
	reviewsCacheKey   = "reviews:all"
	reviewsVersionKey = "reviews:version"
	reviewsPrefix     = "reviews"
)

// setIfVersionScript
// KEYS[1] список, KEYS[2] версия; ARGV[1] ожидаемая версия, ARGV[2] значение, ARGV[3] TTL в мс
var setIfVersionScript = redis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

type RedisCache struct {
	client *redis.Client
}

// NewRedisCache проверяет соединение с Redis
func NewRedisCache(ctx context.Context, addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) GetReviews(ctx context.Context) ([]entity.Review, int64, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	values, err := r.client.MGet(ctx, reviewsCacheKey, reviewsVersionKey).Result()
	timer.ObserveDuration()

	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return nil, 0, fmt.Errorf("failed to get reviews from cache: %w", err)
	}

	version, err := parseVersion(values[1])
	if err != nil {
		return nil, 0, err
	}

	data, ok := values[0].(string)
	if !ok {
		metrics.RecordCacheMiss(serviceName, reviewsPrefix)
		return nil, version, nil
	}

	var reviews []entity.Review
	if err := json.Unmarshal([]byte(data), &reviews); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal reviews: %w", err)
	}

	metrics.RecordCacheHit(serviceName, reviewsPrefix)
	return reviews, version, nil
}

func (r *RedisCache) SetReviews(ctx context.Context, reviews []entity.Review, version int64, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(reviews)
	if err != nil {
		return false, fmt.Errorf("failed to marshal reviews: %w", err)
	}

	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpScript)
	defer timer.ObserveDuration()

	keys := []string{reviewsCacheKey, reviewsVersionKey}
	stored, err := setIfVersionScript.Run(ctx, r.client, keys, version, data, ttl.Milliseconds()).Int()
	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpScript)
		return false, fmt.Errorf("failed to set reviews in cache: %w", err)
	}

	return stored == 1, nil
}

// InvalidateReviews удаляет список и увеличивает версию
func (r *RedisCache) InvalidateReviews(ctx context.Context) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)
	defer timer.ObserveDuration()

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, reviewsCacheKey)
		pipe.Incr(ctx, reviewsVersionKey)
		return nil
	})
	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to delete reviews from cache: %w", err)
	}
	return nil
}

func parseVersion(value interface{}) (int64, error) {
	raw, ok := value.(string)
	if !ok {
		return 0, nil
	}
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse reviews cache version: %w", err)
	}
	return version, nil
}

// Ping для health check
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
