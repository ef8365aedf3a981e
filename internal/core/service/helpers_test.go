package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/rl1809/fitforfun/internal/adapter/storage"
	"github.com/rl1809/fitforfun/internal/core/cache"
	"github.com/rl1809/fitforfun/internal/core/domain"
)

var errCacheDown = errors.New("cache down")

// flakyCache wraps the memory adapter and fails evictions on demand.
type flakyCache struct {
	*storage.MemoryCacheAdapter

	failEvict atomic.Bool
	// failAfter fails every eviction once n evictions went through, 0 disables.
	failAfter atomic.Int32
	evicted   atomic.Int32

	mu      sync.Mutex
	history []domain.Region
}

func newFlakyCache() *flakyCache {
	return &flakyCache{MemoryCacheAdapter: storage.NewMemoryCacheAdapter()}
}

func (f *flakyCache) EvictAll(ctx context.Context, region domain.Region) error {
	if f.failEvict.Load() {
		return errCacheDown
	}
	// a network backend fails on a done context
	if err := ctx.Err(); err != nil {
		return err
	}
	n := f.evicted.Add(1)
	if limit := f.failAfter.Load(); limit > 0 && n > limit {
		return errCacheDown
	}

	f.mu.Lock()
	f.history = append(f.history, region)
	f.mu.Unlock()
	return f.MemoryCacheAdapter.EvictAll(ctx, region)
}

func (f *flakyCache) evictions() []domain.Region {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Region, len(f.history))
	copy(out, f.history)
	return out
}

func (f *flakyCache) reset() {
	f.mu.Lock()
	f.history = nil
	f.mu.Unlock()
}

type testEnv struct {
	db    *storage.SQLAdapter
	store *flakyCache
	cache *cache.Cache
	coord *Coordinator

	users       *UserService
	instructors *InstructorService
	facilities  *FacilityService
	shopItems   *ShopItemService
	carts       *CartService
	ratings     *RatingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	sqlDB, err := storage.OpenDB(ctx, storage.DialectSQLite, ":memory:", storage.PoolOptions{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	if err := storage.Migrate(ctx, sqlDB, storage.DialectSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := zaptest.NewLogger(t)
	db := storage.NewSQLAdapter(sqlDB, storage.DialectSQLite)
	store := newFlakyCache()
	c := cache.New(store, log)
	coord := NewCoordinator(db, c, log, DefaultLockRetries)

	users := NewUserService(db, c, coord)
	users.cost = bcrypt.MinCost

	return &testEnv{
		db:          db,
		store:       store,
		cache:       c,
		coord:       coord,
		users:       users,
		instructors: NewInstructorService(db, c, coord),
		facilities:  NewFacilityService(db, c, coord),
		shopItems:   NewShopItemService(db, c, coord),
		carts:       NewCartService(db, coord),
		ratings:     NewRatingService(db, coord, log),
	}
}

func (e *testEnv) createUser(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := e.users.Create(context.Background(), CreateUserRequest{
		FirstName: "Ana",
		LastName:  "Kovac",
		Email:     email,
		Password:  "secret-password",
	})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func (e *testEnv) createShopItem(t *testing.T, name string) *domain.ShopItem {
	t.Helper()
	item, err := e.shopItems.Create(context.Background(), ShopItemRequest{
		Name:      name,
		Category:  "equipment",
		SportType: "tennis",
		Price:     49.9,
		Stock:     10,
	})
	if err != nil {
		t.Fatalf("create shop item %s: %v", name, err)
	}
	return item
}

func (e *testEnv) createFacility(t *testing.T, name string) *domain.SportFacility {
	t.Helper()
	f, err := e.facilities.Create(context.Background(), FacilityRequest{
		Name:   name,
		Email:  "desk@example.com",
		Mobile: "+385 1 111",
		City:   "Zagreb",
		Street: "Ilica 1",
	})
	if err != nil {
		t.Fatalf("create facility %s: %v", name, err)
	}
	return f
}

func (e *testEnv) createInstructor(t *testing.T, userID int64) *domain.Instructor {
	t.Helper()
	in, err := e.instructors.Create(context.Background(), InstructorRequest{
		UserID:      userID,
		Bio:         "ten years on clay",
		HourlyPrice: 30,
	})
	if err != nil {
		t.Fatalf("create instructor for user %d: %v", userID, err)
	}
	return in
}

func sameRegions(got, want []domain.Region) bool {
	if len(got) != len(want) {
		return false
	}
	seen := make(map[domain.Region]int)
	for _, r := range got {
		seen[r]++
	}
	for _, r := range want {
		if seen[r] == 0 {
			return false
		}
		seen[r]--
	}
	return true
}
