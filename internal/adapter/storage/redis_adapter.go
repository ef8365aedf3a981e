package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rl1809/fitforfun/internal/core/domain"
)

const (
	cacheKeyPrefix = "cache:"
	purgeBatchSize = 500
)

// getScript reads key at the current generation of the region.
var getScript = redis.NewScript(`
local gen = redis.call('GET', KEYS[1])
if not gen then
	gen = '0'
end
return redis.call('GET', ARGV[1] .. gen .. ':' .. ARGV[2])
`)

// putScript writes the entry only if the region is still at the generation
// the caller read before loading the value.
var putScript = redis.NewScript(`
local gen = redis.call('GET', KEYS[1])
if not gen then
	gen = '0'
end
if gen ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2])
return 1
`)

type RedisAdapter struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisAdapter(client *redis.Client, log *zap.Logger) *RedisAdapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisAdapter{client: client, log: log}
}

func genKey(region domain.Region) string {
	return cacheKeyPrefix + string(region) + ":gen"
}

func entryPrefix(region domain.Region) string {
	return cacheKeyPrefix + string(region) + ":"
}

func entryKey(region domain.Region, gen uint64, key string) string {
	return entryPrefix(region) + strconv.FormatUint(gen, 10) + ":" + key
}

func (r *RedisAdapter) Generation(ctx context.Context, region domain.Region) (uint64, error) {
	gen, err := r.client.Get(ctx, genKey(region)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get generation: %w", err)
	}
	return gen, nil
}

func (r *RedisAdapter) Get(ctx context.Context, region domain.Region, key string) ([]byte, bool, error) {
	val, err := getScript.Run(ctx, r.client, []string{genKey(region)}, entryPrefix(region), key).Text()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(val), true, nil
}

func (r *RedisAdapter) Put(ctx context.Context, region domain.Region, key string, gen uint64, value []byte) (bool, error) {
	keys := []string{genKey(region), entryKey(region, gen, key)}
	result, err := putScript.Run(ctx, r.client, keys, strconv.FormatUint(gen, 10), value).Int()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}

// EvictAll advances the generation, which hides every entry at once, and
// then unlinks the previous generation's keys. A failed purge only leaks
// unreachable keys, so it is logged rather than returned.
func (r *RedisAdapter) EvictAll(ctx context.Context, region domain.Region) error {
	gen, err := r.client.Incr(ctx, genKey(region)).Uint64()
	if err != nil {
		return fmt.Errorf("advance generation: %w", err)
	}

	if err := r.purge(ctx, region, gen-1); err != nil {
		r.log.Warn("purge of evicted generation failed",
			zap.String("region", string(region)), zap.Uint64("generation", gen-1), zap.Error(err))
	}
	return nil
}

func (r *RedisAdapter) purge(ctx context.Context, region domain.Region, gen uint64) error {
	pattern := entryPrefix(region) + strconv.FormatUint(gen, 10) + ":*"

	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, purgeBatchSize).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := r.client.Unlink(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (r *RedisAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
