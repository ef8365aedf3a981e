// Package cache implements the named read-through cache regions that hold
// the derived response views. Regions are wiped whole: an eviction advances
// the region generation and nothing written for an older generation is ever
// served again. There is no time based expiry.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/fitforfun/internal/core/domain"
	"github.com/rl1809/fitforfun/internal/port"
)

type entry struct {
	CreatedAt time.Time       `json:"created_at"`
	Value     json.RawMessage `json:"value"`
}

type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	StalePuts uint64 `json:"stale_puts"`
	Evictions uint64 `json:"evictions"`
}

type Cache struct {
	store port.CacheRepository
	log   *zap.Logger
	now   func() time.Time

	hits      atomic.Uint64
	misses    atomic.Uint64
	stalePuts atomic.Uint64
	evictions atomic.Uint64
}

func New(store port.CacheRepository, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{store: store, log: log, now: time.Now}
}

func mustRegion(region domain.Region) {
	if !region.Valid() {
		panic(fmt.Sprintf("cache: unknown region %q", region))
	}
}

// Get decodes the entry stored under key into dst. It never recomputes.
func (c *Cache) Get(ctx context.Context, region domain.Region, key string, dst any) (bool, error) {
	mustRegion(region)

	raw, ok, err := c.store.Get(ctx, region, key)
	if err != nil {
		return false, fmt.Errorf("cache get %s/%s: %w", region, key, err)
	}
	if !ok {
		c.misses.Add(1)
		return false, nil
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return false, fmt.Errorf("decode cache entry %s/%s: %w", region, key, err)
	}
	if err := json.Unmarshal(e.Value, dst); err != nil {
		return false, fmt.Errorf("decode cached value %s/%s: %w", region, key, err)
	}
	c.hits.Add(1)
	return true, nil
}

// Put overwrites key at the current generation of region.
func (c *Cache) Put(ctx context.Context, region domain.Region, key string, value any) error {
	mustRegion(region)

	gen, err := c.store.Generation(ctx, region)
	if err != nil {
		return fmt.Errorf("cache generation %s: %w", region, err)
	}
	_, err = c.put(ctx, region, key, gen, value)
	return err
}

func (c *Cache) put(ctx context.Context, region domain.Region, key string, gen uint64, value any) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("encode cached value %s/%s: %w", region, key, err)
	}
	raw, err := json.Marshal(entry{CreatedAt: c.now().UTC(), Value: data})
	if err != nil {
		return false, fmt.Errorf("encode cache entry %s/%s: %w", region, key, err)
	}

	stored, err := c.store.Put(ctx, region, key, gen, raw)
	if err != nil {
		return false, fmt.Errorf("cache put %s/%s: %w", region, key, err)
	}
	if !stored {
		c.stalePuts.Add(1)
	}
	return stored, nil
}

// EvictRegion drops every entry of region.
func (c *Cache) EvictRegion(ctx context.Context, region domain.Region) error {
	mustRegion(region)

	if err := c.store.EvictAll(ctx, region); err != nil {
		return fmt.Errorf("evict %s: %w", region, err)
	}
	c.evictions.Add(1)
	return nil
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

func (c *Cache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		StalePuts: c.stalePuts.Load(),
		Evictions: c.evictions.Load(),
	}
}

// ReadThrough serves key from region or computes it with load. The value is
// cached for the generation observed before load ran, so a load that raced
// with an eviction is dropped instead of cached. Cache failures degrade to
// serving the loaded value.
func ReadThrough[T any](ctx context.Context, c *Cache, region domain.Region, key string, load func(context.Context) (T, error)) (T, error) {
	mustRegion(region)

	gen, genErr := c.store.Generation(ctx, region)
	if genErr != nil {
		c.log.Warn("cache generation unavailable, bypassing cache",
			zap.String("region", string(region)), zap.Error(genErr))
	} else {
		var cached T
		ok, err := c.Get(ctx, region, key, &cached)
		if err != nil {
			c.log.Warn("cache read failed", zap.String("region", string(region)),
				zap.String("key", key), zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if genErr != nil {
		return v, nil
	}

	stored, err := c.put(ctx, region, key, gen, v)
	if err != nil {
		c.log.Warn("cache write failed", zap.String("region", string(region)),
			zap.String("key", key), zap.Error(err))
	} else if !stored {
		c.log.Debug("dropped value loaded before eviction",
			zap.String("region", string(region)), zap.String("key", key))
	}
	return v, nil
}
