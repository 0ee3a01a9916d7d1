package server

import (
	"context"
	"fmt"
	"log"

	"github.com/mohammad-safakhou/flytogether/config"
	"github.com/mohammad-safakhou/flytogether/internal/amadeus"
	"github.com/mohammad-safakhou/flytogether/internal/flights"
	"github.com/mohammad-safakhou/flytogether/internal/ratelimit"
	"github.com/mohammad-safakhou/flytogether/internal/reconcile"
	"github.com/mohammad-safakhou/flytogether/internal/sessions"
	"github.com/mohammad-safakhou/flytogether/internal/store"
	"github.com/redis/go-redis/v9"
)

// Runtime holds the long-lived collaborators built from config.
type Runtime struct {
	Config    *config.Config
	Redis     *redis.Client
	Store     store.SessionStore
	Search    *flights.Service
	Refresher *reconcile.Refresher
	Sessions  *sessions.Service
	Limiter   ratelimit.Limiter
}

// NewRuntime connects the configured backends and the flight-data client.
func NewRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	if err := cfg.Amadeus.Validate(); err != nil {
		return nil, err
	}
	rt := &Runtime{Config: cfg}

	if cfg.Storage.Redis.Enabled() {
		rc := cfg.Storage.Redis
		rt.Redis = redis.NewClient(&redis.Options{
			Addr:        rc.Addr(),
			Password:    rc.Password,
			DB:          rc.DB,
			DialTimeout: rc.Timeout,
		})
		if err := rt.Redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis connection failed (%s): %w", rc.Addr(), err)
		}
	}

	switch cfg.Storage.Driver {
	case config.DriverRedis:
		rt.Store = store.NewRedisStore(rt.Redis, cfg.Storage.SessionTTL)
	case config.DriverPostgres:
		dsn := cfg.Storage.Postgres.DSN()
		if err := store.Migrate("file://migrations", dsn, "up", 0); err != nil {
			log.Printf("migrate: %v", err)
		}
		pg, err := store.NewPostgresWithDSN(ctx, dsn)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		rt.Store = pg
	default:
		rt.Store = store.NewMemoryStore()
	}

	switch cfg.RateLimit.Backend {
	case config.LimiterRedis:
		rt.Limiter = ratelimit.NewRedis(rt.Redis, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
	default:
		mem := ratelimit.NewMemory(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
		go mem.RunPruner(ctx, 5*cfg.RateLimit.Window)
		rt.Limiter = mem
	}

	ac := cfg.Amadeus
	client, err := amadeus.NewClient(amadeus.Config{
		BaseURL:           ac.BaseURL,
		APIKey:            ac.APIKey,
		APISecret:         ac.APISecret,
		CurrencyCode:      ac.CurrencyCode,
		MaxResults:        ac.MaxResults,
		Timeout:           ac.Timeout,
		MaxRetries:        ac.MaxRetries,
		Backoff:           ac.Backoff,
		RequestsPerSecond: ac.RequestsPerSecond,
		Burst:             ac.Burst,
	}, nil)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Search = flights.NewService(client, nil)
	rt.Refresher = reconcile.NewRefresher(rt.Store, rt.Search, reconcile.Options{
		Adults:      cfg.Refresh.Adults,
		TravelClass: cfg.Refresh.TravelClass,
	}, nil)
	rt.Sessions = sessions.NewService(rt.Store, nil)
	return rt, nil
}

// Close releases database connections. The Redis client is shared by the
// store and the limiter so it is closed here, not by the store.
func (rt *Runtime) Close() {
	if pg, ok := rt.Store.(*store.PostgresStore); ok {
		_ = pg.Close()
	}
	if rt.Redis != nil {
		_ = rt.Redis.Close()
	}
}

// Run serves the API until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	rt, err := NewRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	if cfg.Refresh.Schedule != "" {
		lister, ok := rt.Store.(store.Lister)
		if !ok {
			return fmt.Errorf("storage driver %s cannot list sessions for scheduled refresh", cfg.Storage.Driver)
		}
		sched, err := NewScheduler(lister, rt.Refresher, rt.Redis, cfg.Refresh.Schedule, cfg.Refresh.LockTTL)
		if err != nil {
			return err
		}
		sched.Start(ctx)
	}

	metricsPath := ""
	if cfg.Telemetry.Enabled {
		metricsPath = cfg.Telemetry.MetricsPath
	}
	e := New(Deps{
		Searcher:    rt.Search,
		Sessions:    rt.Sessions,
		Refresher:   rt.Refresher,
		Limiter:     rt.Limiter,
		JWTSecret:   []byte(cfg.Server.JWTSecret),
		CORSOrigins: cfg.Server.CORSOrigins,
		MetricsPath: metricsPath,
	})
	return Serve(ctx, e, cfg.Server.Address)
}
