package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/fitforfun/internal/core/cache"
	"github.com/rl1809/fitforfun/internal/core/domain"
	"github.com/rl1809/fitforfun/internal/port"
)

const (
	DefaultLockRetries = 5

	// postCommitEvictTimeout bounds the eviction that runs after the write is
	// durable, independently of the caller's deadline.
	postCommitEvictTimeout = 5 * time.Second
)

// Coordinator runs mutations as units of work and evicts the cache regions
// each mutation makes stale.
type Coordinator struct {
	db      port.DatabaseRepository
	cache   *cache.Cache
	log     *zap.Logger
	retries int
}

func NewCoordinator(db port.DatabaseRepository, c *cache.Cache, log *zap.Logger, lockRetries int) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	if lockRetries < 1 {
		lockRetries = DefaultLockRetries
	}
	return &Coordinator{db: db, cache: c, log: log, retries: lockRetries}
}

// Commit applies fn in a store transaction and evicts the regions of
// mutation twice: once before the commit, so a cache that cannot be evicted
// aborts the write, and once after it, so a reader that cached the
// pre-commit state in between is wiped.
//
// fn may run more than once when it loses an optimistic lock race and must
// not leak state from a failed attempt.
func (c *Coordinator) Commit(ctx context.Context, mutation domain.Mutation, fn func(r port.Repositories) error) error {
	regions := Regions(mutation)

	var err error
	for attempt := 1; attempt <= c.retries; attempt++ {
		err = c.db.WithinTx(ctx, func(r port.Repositories) error {
			if err := fn(r); err != nil {
				return err
			}
			if err := c.evict(ctx, regions); err != nil {
				return domain.Upstream("cache eviction failed, write rolled back", err)
			}
			return nil
		})
		if !errors.Is(err, domain.ErrOptimisticLock) {
			break
		}
		c.log.Debug("optimistic lock conflict, retrying",
			zap.Stringer("mutation", mutation), zap.Int("attempt", attempt))
		if !backoff(ctx, attempt) {
			break
		}
	}

	if err != nil {
		return c.classify(mutation, err)
	}

	evictCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), postCommitEvictTimeout)
	defer cancel()
	if err := c.evict(evictCtx, regions); err != nil {
		c.log.Error("stale cache consistency risk: eviction after commit failed",
			zap.Stringer("mutation", mutation), zap.Error(err))
		return domain.Upstream("cache eviction failed after commit", err)
	}
	return nil
}

// backoff waits a little longer after every lost race so contending writers
// spread out. It reports false when ctx is done.
func backoff(ctx context.Context, attempt int) bool {
	wait := time.Duration(attempt)*time.Millisecond + time.Duration(rand.Int64N(int64(time.Millisecond)))
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Coordinator) evict(ctx context.Context, regions []domain.Region) error {
	for _, region := range regions {
		if err := c.cache.EvictRegion(ctx, region); err != nil {
			return err
		}
	}
	return nil
}

func (c *Coordinator) classify(mutation domain.Mutation, err error) error {
	var de *domain.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, domain.ErrOptimisticLock):
		c.log.Warn("optimistic lock retries exhausted",
			zap.Stringer("mutation", mutation), zap.Int("retries", c.retries))
		return domain.Upstream("too many concurrent updates, try again", err)
	default:
		c.log.Error("mutation failed", zap.Stringer("mutation", mutation), zap.Error(err))
		return domain.Upstream("store failure", err)
	}
}
