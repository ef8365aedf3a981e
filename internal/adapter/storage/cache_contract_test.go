package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/rl1809/fitforfun/internal/core/domain"
	"github.com/rl1809/fitforfun/internal/port"
)

// runCacheContract checks the generation semantics every cache backend
// must provide. The backend may start at any generation.
func runCacheContract(t *testing.T, store port.CacheRepository) {
	ctx := context.Background()

	t.Run("put then get", func(t *testing.T) {
		gen := mustGeneration(t, store, domain.RegionShopItems)
		stored, err := store.Put(ctx, domain.RegionShopItems, "id:1", gen, []byte(`{"id":1}`))
		if err != nil || !stored {
			t.Fatalf("put = %v, %v", stored, err)
		}

		got, ok, err := store.Get(ctx, domain.RegionShopItems, "id:1")
		if err != nil || !ok {
			t.Fatalf("get = %v, %v", ok, err)
		}
		if string(got) != `{"id":1}` {
			t.Errorf("unexpected value %s", got)
		}
	})

	t.Run("evict hides entries and advances generation", func(t *testing.T) {
		gen := mustGeneration(t, store, domain.RegionUsers)
		if _, err := store.Put(ctx, domain.RegionUsers, "id:7", gen, []byte("v")); err != nil {
			t.Fatalf("put: %v", err)
		}
		if err := store.EvictAll(ctx, domain.RegionUsers); err != nil {
			t.Fatalf("evict: %v", err)
		}

		if _, ok, _ := store.Get(ctx, domain.RegionUsers, "id:7"); ok {
			t.Error("entry survived eviction")
		}
		next := mustGeneration(t, store, domain.RegionUsers)
		if next != gen+1 {
			t.Errorf("expected generation %d, got %d", gen+1, next)
		}
	})

	t.Run("stale put is dropped", func(t *testing.T) {
		gen := mustGeneration(t, store, domain.RegionFacilities)
		if err := store.EvictAll(ctx, domain.RegionFacilities); err != nil {
			t.Fatalf("evict: %v", err)
		}

		stored, err := store.Put(ctx, domain.RegionFacilities, "list:x", gen, []byte("old"))
		if err != nil {
			t.Fatalf("put: %v", err)
		}
		if stored {
			t.Error("put for an evicted generation was stored")
		}
		if _, ok, _ := store.Get(ctx, domain.RegionFacilities, "list:x"); ok {
			t.Error("stale value is visible")
		}
	})

	t.Run("regions are independent", func(t *testing.T) {
		gen := mustGeneration(t, store, domain.RegionInstructors)
		if _, err := store.Put(ctx, domain.RegionInstructors, "id:3", gen, []byte("kept")); err != nil {
			t.Fatalf("put: %v", err)
		}
		if err := store.EvictAll(ctx, domain.RegionShopItems); err != nil {
			t.Fatalf("evict: %v", err)
		}
		if _, ok, _ := store.Get(ctx, domain.RegionInstructors, "id:3"); !ok {
			t.Error("evicting shop-items dropped an instructors entry")
		}
	})

	t.Run("concurrent puts and evictions", func(t *testing.T) {
		region := domain.RegionShopItems
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				gen, err := store.Generation(ctx, region)
				if err != nil {
					t.Errorf("generation: %v", err)
					return
				}
				if _, err := store.Put(ctx, region, fmt.Sprintf("id:%d", i), gen, []byte("v")); err != nil {
					t.Errorf("put: %v", err)
				}
			}(i)
			go func() {
				defer wg.Done()
				if err := store.EvictAll(ctx, region); err != nil {
					t.Errorf("evict: %v", err)
				}
			}()
		}
		wg.Wait()

		if err := store.EvictAll(ctx, region); err != nil {
			t.Fatalf("evict: %v", err)
		}
		for i := 0; i < 20; i++ {
			if _, ok, _ := store.Get(ctx, region, fmt.Sprintf("id:%d", i)); ok {
				t.Fatalf("id:%d visible after final eviction", i)
			}
		}
	})
}

func mustGeneration(t *testing.T, store port.CacheRepository, region domain.Region) uint64 {
	t.Helper()
	gen, err := store.Generation(context.Background(), region)
	if err != nil {
		t.Fatalf("generation: %v", err)
	}
	return gen
}
