package handler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	StoreService = "fitforfun.store"
	CacheService = "fitforfun.cache"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthReport struct {
	Status string `json:"status"`
	Store  string `json:"store"`
	Cache  string `json:"cache"`
}

// HealthProber pings the entity store and the cache and publishes the result
// through the standard grpc.health.v1 service. The overall "" service is
// SERVING only when both dependencies are.
type HealthProber struct {
	server   *health.Server
	store    Pinger
	cache    Pinger
	log      *zap.Logger
	interval time.Duration

	mu   sync.Mutex
	last HealthReport
}

func NewHealthProber(store, cache Pinger, log *zap.Logger, interval time.Duration) *HealthProber {
	if log == nil {
		log = zap.NewNop()
	}
	srv := health.NewServer()
	for _, svc := range []string{"", StoreService, CacheService} {
		srv.SetServingStatus(svc, healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return &HealthProber{server: srv, store: store, cache: cache, log: log, interval: interval}
}

func (p *HealthProber) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, p.server)
}

func (p *HealthProber) probe(ctx context.Context, service string, dep Pinger) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := dep.Ping(ctx); err != nil {
		p.log.Warn("health probe failed", zap.String("service", service), zap.Error(err))
		p.server.SetServingStatus(service, healthpb.HealthCheckResponse_NOT_SERVING)
		return false
	}
	p.server.SetServingStatus(service, healthpb.HealthCheckResponse_SERVING)
	return true
}

// Check probes both dependencies once and updates the published statuses.
func (p *HealthProber) Check(ctx context.Context) HealthReport {
	storeUp := p.probe(ctx, StoreService, p.store)
	cacheUp := p.probe(ctx, CacheService, p.cache)

	report := HealthReport{Status: "ok", Store: "up", Cache: "up"}
	if !storeUp {
		report.Store = "down"
	}
	if !cacheUp {
		report.Cache = "down"
	}
	overall := healthpb.HealthCheckResponse_SERVING
	if !storeUp || !cacheUp {
		report.Status = "degraded"
		overall = healthpb.HealthCheckResponse_NOT_SERVING
	}
	p.server.SetServingStatus("", overall)

	p.mu.Lock()
	p.last = report
	p.mu.Unlock()
	return report
}

func (p *HealthProber) Last() HealthReport {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Run probes every interval until ctx is done.
func (p *HealthProber) Run(ctx context.Context) {
	p.Check(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Check(ctx)
		}
	}
}

// Shutdown marks every service NOT_SERVING so clients drain before the
// server stops.
func (p *HealthProber) Shutdown() {
	p.server.Shutdown()
}
