package port

import (
	"context"

	"github.com/rl1809/fitforfun/internal/core/domain"
)

// CacheRepository stores opaque values per region. Every eviction advances
// the region generation; entries are only visible at the generation they were
// written for.
type CacheRepository interface {
	// Generation returns the current eviction generation of region.
	Generation(ctx context.Context, region domain.Region) (uint64, error)

	// Get returns the value stored under key at the current generation.
	Get(ctx context.Context, region domain.Region, key string) ([]byte, bool, error)

	// Put stores value if region is still at generation gen, returns false
	// when an eviction happened in between
	Put(ctx context.Context, region domain.Region, key string, gen uint64, value []byte) (bool, error)

	// EvictAll drops every entry of region
	EvictAll(ctx context.Context, region domain.Region) error

	Ping(ctx context.Context) error
}
