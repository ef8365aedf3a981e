package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/rl1809/fitforfun/internal/adapter/handler"
	"github.com/rl1809/fitforfun/internal/adapter/storage"
	"github.com/rl1809/fitforfun/internal/config"
	"github.com/rl1809/fitforfun/internal/core/cache"
	"github.com/rl1809/fitforfun/internal/core/service"
	"github.com/rl1809/fitforfun/internal/logger"
	"github.com/rl1809/fitforfun/internal/port"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger is configured from cfg, so fall back to a bare one.
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		zap.NewExample().Fatal("failed to build logger", zap.Error(err))
	}
	defer log.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Entity store
	dialect := storage.Dialect(cfg.DBDriver)
	db, err := storage.OpenDB(ctx, dialect, cfg.DBDSN, storage.PoolOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		log.Fatal("failed to connect database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	if err := storage.Migrate(ctx, db, dialect); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}
	log.Info("connected to database", zap.String("driver", cfg.DBDriver))

	// Cache regions
	var (
		cacheStore port.CacheRepository
		rdb        *redis.Client
	)
	switch cfg.CacheBackend {
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal("invalid redis url", zap.Error(err))
		}
		opts.PoolSize = 100
		rdb = redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("failed to connect redis", zap.String("addr", opts.Addr), zap.Error(err))
		}
		cacheStore = storage.NewRedisAdapter(rdb, log.Named("redis"))
		log.Info("connected to redis", zap.String("addr", opts.Addr))
	default:
		cacheStore = storage.NewMemoryCacheAdapter()
		log.Info("using in-process cache")
	}

	store := storage.NewSQLAdapter(db, dialect)
	regions := cache.New(cacheStore, log.Named("cache"))
	coord := service.NewCoordinator(store, regions, log.Named("coordinator"), cfg.LockRetries)

	svc := handler.Services{
		Users:       service.NewUserService(store, regions, coord),
		Instructors: service.NewInstructorService(store, regions, coord),
		Facilities:  service.NewFacilityService(store, regions, coord),
		ShopItems:   service.NewShopItemService(store, regions, coord),
		Carts:       service.NewCartService(store, coord),
		Ratings:     service.NewRatingService(store, coord, log.Named("ratings")),
	}

	prober := handler.NewHealthProber(store, regions, log.Named("health"), cfg.HealthInterval)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		prober.Run(ctx)
	}()

	// gRPC health server
	grpcServer := grpc.NewServer()
	prober.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatal("failed to listen", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
	}

	go func() {
		log.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("gRPC server error", zap.Error(err))
		}
	}()

	// HTTP server
	httpHandler := handler.NewHTTPHandler(svc, prober, regions, log.Named("http"), cfg.RequestTimeout)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpHandler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown", zap.Error(err))
	}
	log.Info("HTTP server stopped")

	prober.Shutdown()
	grpcServer.GracefulStop()
	log.Info("gRPC server stopped")

	cancel()
	wg.Wait()

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Warn("close redis", zap.Error(err))
		}
	}
	if err := db.Close(); err != nil {
		log.Warn("close database", zap.Error(err))
	}
	log.Info("connections closed")
}
