package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rl1809/fitforfun/internal/adapter/storage"
	"github.com/rl1809/fitforfun/internal/core/cache"
	"github.com/rl1809/fitforfun/internal/core/domain"
	"github.com/rl1809/fitforfun/internal/core/service"
	"github.com/rl1809/fitforfun/internal/port"
)

const (
	sqliteDSN     = "file:stress?mode=memory&cache=shared"
	totalRequests = 50
	lockRetries   = 50
)

func main() {
	ctx := context.Background()
	log := zap.Must(zap.NewDevelopment())
	defer log.Sync()

	// SQLite by default, MySQL when MYSQL_DSN is set
	dialect, dsn := storage.DialectSQLite, sqliteDSN
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		dialect, dsn = storage.DialectMySQL, v
	}
	db, err := storage.OpenDB(ctx, dialect, dsn, storage.PoolOptions{MaxOpenConns: 50, MaxIdleConns: 25})
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()
	if err := storage.Migrate(ctx, db, dialect); err != nil {
		log.Fatal("failed to migrate", zap.Error(err))
	}

	// In-process cache by default, Redis when REDIS_ADDR is set
	var cacheStore port.CacheRepository = storage.NewMemoryCacheAdapter()
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("failed to connect redis", zap.Error(err))
		}
		defer rdb.Close()
		cacheStore = storage.NewRedisAdapter(rdb, log)
	}

	store := storage.NewSQLAdapter(db, dialect)
	regions := cache.New(cacheStore, log)
	coord := service.NewCoordinator(store, regions, log, lockRetries)

	users := service.NewUserService(store, regions, coord)
	shopItems := service.NewShopItemService(store, regions, coord)
	carts := service.NewCartService(store, coord)
	ratings := service.NewRatingService(store, coord, log)

	run := time.Now().UnixNano()
	item, err := shopItems.Create(ctx, service.ShopItemRequest{
		Name: fmt.Sprintf("stress-ball-%d", run), Category: "balls", SportType: "football", Price: 25, Stock: 1000,
	})
	if err != nil {
		log.Fatal("failed to create shop item", zap.Error(err))
	}

	buyer, err := users.Create(ctx, service.CreateUserRequest{
		FirstName: "Stress", LastName: "Buyer", Email: fmt.Sprintf("buyer-%d@stress.test", run), Password: "password123",
	})
	if err != nil {
		log.Fatal("failed to create buyer", zap.Error(err))
	}
	withCart, err := carts.AddItem(ctx, buyer.ID, item.ID, 1)
	if err != nil {
		log.Fatal("failed to add item", zap.Error(err))
	}
	lineID := withCart.Cart.Items[0].ID

	// Phase 1: concurrent increments then decrements of one cart line
	var incOK, decOK, failCount atomic.Int32
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := carts.IncrementQuantity(ctx, lineID); err != nil {
				log.Warn("increment failed", zap.Error(err))
				failCount.Add(1)
				return
			}
			incOK.Add(1)
		}()
	}
	wg.Wait()

	afterInc, err := carts.GetCart(ctx, buyer.ID)
	if err != nil {
		log.Fatal("failed to read cart", zap.Error(err))
	}

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := carts.DecrementQuantity(ctx, lineID); err != nil {
				log.Warn("decrement failed", zap.Error(err))
				failCount.Add(1)
				return
			}
			decOK.Add(1)
		}()
	}
	wg.Wait()

	afterDec, err := carts.GetCart(ctx, buyer.ID)
	if err != nil {
		log.Fatal("failed to read cart", zap.Error(err))
	}

	// Phase 2: every commenter posts twice, only the first may count
	commenters := make([]int64, totalRequests)
	for i := range commenters {
		u, err := users.Create(ctx, service.CreateUserRequest{
			FirstName: "Stress", LastName: "Commenter", Email: fmt.Sprintf("c%d-%d@stress.test", i, run), Password: "password123",
		})
		if err != nil {
			log.Fatal("failed to create commenter", zap.Error(err))
		}
		commenters[i] = u.ID
	}

	target := domain.CommentTarget{Kind: domain.TargetShopItem, ID: item.ID}
	var accepted, duplicates atomic.Int32
	var rateSum atomic.Int64
	for i, id := range commenters {
		for attempt := 0; attempt < 2; attempt++ {
			wg.Add(1)
			go func(id int64, rate int) {
				defer wg.Done()
				_, err := ratings.AddComment(ctx, target, service.CommentRequest{CommenterID: id, Text: "stress", Rate: rate})
				switch {
				case err == nil:
					accepted.Add(1)
					rateSum.Add(int64(rate))
				case errors.Is(err, domain.ErrDuplicateComment):
					duplicates.Add(1)
				default:
					log.Warn("comment failed", zap.Error(err))
					failCount.Add(1)
				}
			}(id, i%domain.MaxRate+1)
		}
	}
	wg.Wait()
	elapsed := time.Since(start)

	rating, err := ratings.Rating(ctx, target)
	if err != nil {
		log.Fatal("failed to read rating", zap.Error(err))
	}
	cached, err := shopItems.Get(ctx, item.ID)
	if err != nil {
		log.Fatal("failed to read shop item", zap.Error(err))
	}

	quantityAfterInc := afterInc.Items[0].Quantity
	quantityAfterDec := 0
	if len(afterDec.Items) > 0 {
		quantityAfterDec = afterDec.Items[0].Quantity
	}
	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Requests per phase: %d\n", totalRequests)
	fmt.Printf("Increments OK:      %d\n", incOK.Load())
	fmt.Printf("Decrements OK:      %d\n", decOK.Load())
	fmt.Printf("Comments accepted:  %d\n", accepted.Load())
	fmt.Printf("Duplicates:         %d\n", duplicates.Load())
	fmt.Printf("Failed:             %d\n", failCount.Load())
	fmt.Printf("Duration:           %v\n", elapsed)
	fmt.Printf("Cache stats:        %+v\n", regions.Stats())
	fmt.Println("==========================================")

	pass := true
	check := func(ok bool, format string, args ...any) {
		if ok {
			fmt.Printf("PASS: "+format+"\n", args...)
			return
		}
		pass = false
		fmt.Printf("FAIL: "+format+"\n", args...)
	}

	check(quantityAfterInc == 1+int(incOK.Load()), "quantity after increments is %d", quantityAfterInc)
	check(quantityAfterDec == quantityAfterInc-int(decOK.Load()) && quantityAfterDec >= 1,
		"line survived decrements with quantity %d", quantityAfterDec)
	check(int(accepted.Load()) == totalRequests && int(duplicates.Load()) == totalRequests,
		"one comment per commenter (%d accepted, %d duplicates)", accepted.Load(), duplicates.Load())
	check(rating.Counter == int(accepted.Load()), "rating counter is %d", rating.Counter)

	mean := float64(rateSum.Load()) / float64(accepted.Load())
	check(math.Abs(rating.Value-mean) < 1e-9, "rating %.4f equals mean %.4f", rating.Value, mean)
	check(cached.Rating.Counter == rating.Counter, "cached shop item shows %d comments", cached.Rating.Counter)

	if !pass {
		os.Exit(1)
	}
}
