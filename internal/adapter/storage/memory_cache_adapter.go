package storage

import (
	"context"
	"fmt"
	"sync"

	gocache "github.com/patrickmn/go-cache"

	"github.com/rl1809/fitforfun/internal/core/domain"
)

type memoryRegion struct {
	mu    sync.Mutex
	gen   uint64
	items *gocache.Cache
}

// MemoryCacheAdapter keeps each region in its own go-cache instance. Entries
// never expire and there is no janitor; only EvictAll removes them.
type MemoryCacheAdapter struct {
	regions map[domain.Region]*memoryRegion
}

func NewMemoryCacheAdapter() *MemoryCacheAdapter {
	regions := make(map[domain.Region]*memoryRegion, len(domain.Regions()))
	for _, r := range domain.Regions() {
		regions[r] = &memoryRegion{items: gocache.New(gocache.NoExpiration, 0)}
	}
	return &MemoryCacheAdapter{regions: regions}
}

func (m *MemoryCacheAdapter) region(region domain.Region) (*memoryRegion, error) {
	r, ok := m.regions[region]
	if !ok {
		return nil, fmt.Errorf("unknown region %q", region)
	}
	return r, nil
}

func (m *MemoryCacheAdapter) Generation(ctx context.Context, region domain.Region) (uint64, error) {
	r, err := m.region(region)
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen, nil
}

func (m *MemoryCacheAdapter) Get(ctx context.Context, region domain.Region, key string) ([]byte, bool, error) {
	r, err := m.region(region)
	if err != nil {
		return nil, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.items.Get(key)
	if !ok {
		return nil, false, nil
	}
	return v.([]byte), true, nil
}

func (m *MemoryCacheAdapter) Put(ctx context.Context, region domain.Region, key string, gen uint64, value []byte) (bool, error) {
	r, err := m.region(region)
	if err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.gen {
		return false, nil
	}
	r.items.Set(key, value, gocache.NoExpiration)
	return true, nil
}

func (m *MemoryCacheAdapter) EvictAll(ctx context.Context, region domain.Region) error {
	r, err := m.region(region)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gen++
	r.items.Flush()
	return nil
}

// Len reports the number of live entries in region.
func (m *MemoryCacheAdapter) Len(region domain.Region) int {
	r, err := m.region(region)
	if err != nil {
		return 0
	}
	return r.items.ItemCount()
}

func (m *MemoryCacheAdapter) Ping(ctx context.Context) error {
	return nil
}
