package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"feedback/pkg/metrics"
	"feedback/rating-worker-service/internal/app/rating/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	serviceName = "rating-worker-service"

	fieldCount = "count"
	fieldSum   = "sum"

	scanBatch = 100
)

// applyEventScript
// KEYS[1] ключ события, KEYS[2] время снимка, KEYS[3..] ключи агрегатов
// ARGV[1] TTL ключа события в секундах, ARGV[2] время отправки в мс (-1 если неизвестно),
// далее пары count/sum для каждого агрегата.
// Возвращает 1 - применено, 0 - повтор, 2 - уже учтено снимком.
var applyEventScript = redis.NewScript(`
if not redis.call('SET', KEYS[1], '1', 'NX', 'EX', ARGV[1]) then
	return 0
end
local snapshot = redis.call('GET', KEYS[2])
local emitted = tonumber(ARGV[2])
if snapshot and emitted >= 0 and emitted < tonumber(snapshot) then
	return 2
end
for i = 3, #KEYS do
	local base = (i - 3) * 2 + 3
	local count = redis.call('HINCRBY', KEYS[i], 'count', ARGV[base])
	redis.call('HINCRBY', KEYS[i], 'sum', ARGV[base + 1])
	if count == 0 then
		redis.call('DEL', KEYS[i])
	end
end
return 1
`)

type ratingRepository struct {
	client   *redis.Client
	dedupTTL time.Duration
}

func NewRatingRepository(client *redis.Client, dedupTTL time.Duration) RatingRepository {
	return &ratingRepository{
		client:   client,
		dedupTTL: dedupTTL,
	}
}

func (r *ratingRepository) ApplyEvent(ctx context.Context, eventID uuid.UUID, emittedAt time.Time, deltas []entity.RatingDelta) (entity.ApplyResult, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpScript)
	defer timer.ObserveDuration()

	keys := make([]string, 0, len(deltas)+2)
	keys = append(keys, entity.GetRedisKeyForEvent(eventID), entity.SnapshotKey)

	emitted := int64(-1)
	if !emittedAt.IsZero() {
		emitted = emittedAt.UnixMilli()
	}

	args := make([]interface{}, 0, len(deltas)*2+2)
	args = append(args, int64(r.dedupTTL/time.Second), emitted)

	for _, d := range deltas {
		keys = append(keys, entity.GetRedisKeyForRating(d.UserID))
		args = append(args, d.Count, d.Sum)
	}

	code, err := applyEventScript.Run(ctx, r.client, keys, args...).Int()
	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpScript)
		return 0, fmt.Errorf("failed to apply rating event %s: %w", eventID, err)
	}

	switch code {
	case 0:
		return entity.EventDuplicate, nil
	case 2:
		return entity.EventCovered, nil
	}
	return entity.EventApplied, nil
}

func (r *ratingRepository) Get(ctx context.Context, userID uuid.UUID) (*entity.UserRating, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpHGet)
	defer timer.ObserveDuration()

	values, err := r.client.HGetAll(ctx, entity.GetRedisKeyForRating(userID)).Result()
	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpHGet)
		return nil, fmt.Errorf("failed to get rating from redis: %w", err)
	}

	if len(values) == 0 {
		metrics.RecordCacheMiss(serviceName, entity.RatingKeyPrefix)
		return nil, ErrRatingNotFound
	}
	metrics.RecordCacheHit(serviceName, entity.RatingKeyPrefix)

	count, err := strconv.ParseInt(values[fieldCount], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rating count: %w", err)
	}
	sum, err := strconv.ParseInt(values[fieldSum], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rating sum: %w", err)
	}

	return entity.NewUserRating(userID, count, sum), nil
}

func (r *ratingRepository) ReplaceAll(ctx context.Context, stats []entity.ReviewStat, snapshotAt time.Time) (int, error) {
	fresh := make(map[string]struct{}, len(stats))

	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpHSet)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, st := range stats {
			key := entity.GetRedisKeyForRating(st.UserID)
			fresh[key] = struct{}{}
			pipe.Del(ctx, key)
			pipe.HSet(ctx, key, fieldCount, st.ReviewCount, fieldSum, st.ScoreSum)
		}
		pipe.Set(ctx, entity.SnapshotKey, snapshotAt.UnixMilli(), 0)
		return nil
	})
	timer.ObserveDuration()
	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpHSet)
		return 0, fmt.Errorf("failed to write ratings: %w", err)
	}

	stale, err := r.staleKeys(ctx, fresh)
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	delTimer := metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)
	defer delTimer.ObserveDuration()
	if err := r.client.Del(ctx, stale...).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return 0, fmt.Errorf("failed to delete stale ratings: %w", err)
	}

	return len(stale), nil
}

func (r *ratingRepository) staleKeys(ctx context.Context, fresh map[string]struct{}) ([]string, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpScan)
	defer timer.ObserveDuration()

	var stale []string
	iter := r.client.Scan(ctx, 0, entity.RatingKeyPrefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		if _, ok := fresh[iter.Val()]; !ok {
			stale = append(stale, iter.Val())
		}
	}
	if err := iter.Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpScan)
		return nil, fmt.Errorf("failed to scan ratings: %w", err)
	}

	return stale, nil
}
