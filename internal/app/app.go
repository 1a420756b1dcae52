// Package app arma la aplicación: cache, store, métricas, rate limiter,
// services, controllers y router, en ese orden.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dropDatabas3/coches/internal/cache"
	"github.com/dropDatabas3/coches/internal/config"
	httpserver "github.com/dropDatabas3/coches/internal/http"
	"github.com/dropDatabas3/coches/internal/http/controllers"
	mw "github.com/dropDatabas3/coches/internal/http/middlewares"
	"github.com/dropDatabas3/coches/internal/http/router"
	"github.com/dropDatabas3/coches/internal/http/services"
	carsvc "github.com/dropDatabas3/coches/internal/http/services/cars"
	healthsvc "github.com/dropDatabas3/coches/internal/http/services/health"
	"github.com/dropDatabas3/coches/internal/observability/logger"
	"github.com/dropDatabas3/coches/internal/rate"
	"github.com/dropDatabas3/coches/internal/store"
)

// App representa la aplicación ya cableada.
type App struct {
	Handler http.Handler
	Store   *store.Store
	Metrics *httpserver.Metrics

	closers []func() error
}

// New crea y cablea la aplicación a partir de la config.
// Los adapters de store deben estar registrados (import de store/adapters/all).
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.From(ctx).With(logger.Component("app"))
	a := &App{}

	// ─── Cache ───
	var cacheClient cache.Client
	if cfg.Cache.Kind != "none" {
		c, err := cache.New(ctx, cache.Config{
			Driver: cfg.Cache.Kind,
			Addr:   cfg.Cache.Redis.Addr,
			DB:     cfg.Cache.Redis.DB,
			Prefix: cfg.Cache.Redis.Prefix,
			TTL:    cfg.CacheTTL(),
		})
		if err != nil {
			return nil, fmt.Errorf("cache: %w", err)
		}
		cacheClient = c
	}

	// ─── Store ───
	storeCfg := store.Config{
		Driver:   cfg.Storage.Driver,
		DSN:      cfg.Storage.DSN,
		Migrate:  cfg.Flags.Migrate,
		Cache:    cacheClient,
		CacheTTL: cfg.CacheTTL(),
	}
	storeCfg.Postgres.MaxOpenConns = cfg.Storage.Postgres.MaxOpenConns
	storeCfg.Postgres.MaxIdleConns = cfg.Storage.Postgres.MaxIdleConns

	st, err := store.Open(ctx, storeCfg)
	if err != nil {
		if cacheClient != nil {
			_ = cacheClient.Close()
		}
		return nil, err
	}
	a.Store = st
	a.closers = append(a.closers, st.Close)

	// ─── Métricas ───
	metrics, err := httpserver.NewMetrics(cacheClient)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("metrics: %w", err)
	}
	a.Metrics = metrics

	// ─── Rate limiter ───
	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		limiter = a.newLimiter(cfg, cacheClient)
		log.Info("rate limit enabled",
			logger.Int("max_requests", cfg.Rate.MaxRequests),
			logger.Duration("window", cfg.RateWindow()))
	}

	trusted, err := mw.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("server.trusted_proxies: %w", err)
	}

	// ─── Services / Controllers / Router ───
	healthDeps := healthsvc.Deps{
		StoreCheck: st.Cars.Ping,
		Driver:     st.Driver,
		IDStrategy: cfg.IDs.Strategy,
		Version:    cfg.App.Version,
	}
	if cacheClient != nil {
		healthDeps.CacheCheck = cacheClient.Ping
	}

	svcs := services.New(services.Deps{
		Cars: carsvc.Deps{
			Repo:       st.Cars,
			IDStrategy: cfg.IDs.Strategy,
			Metrics:    metrics,
		},
		Health: healthDeps,
	})

	a.Handler = router.New(router.Deps{
		Controllers:       controllers.New(svcs),
		MetricsMiddleware: metrics.Middleware(),
		MetricsHandler:    metrics.Handler(),
		RateLimiter:       limiter,
		CORSOrigins:       cfg.Server.CORSAllowedOrigins,
		TrustedProxies:    trusted,
	})

	log.Info("app wired",
		logger.Driver(st.Driver),
		logger.Strategy(cfg.IDs.Strategy),
		logger.String("cache", cfg.Cache.Kind))
	return a, nil
}

// newLimiter usa Redis si el cache es Redis; si no, contadores go-cache propios.
func (a *App) newLimiter(cfg *config.Config, c cache.Client) rate.Limiter {
	if rc, ok := c.(*cache.RedisClient); ok {
		return rate.NewRedisLimiter(rc.Redis(), cfg.Cache.Redis.Prefix+"rate:", cfg.Rate.MaxRequests, cfg.RateWindow())
	}
	counters := cache.NewMemory("rate:", cfg.RateWindow())
	a.closers = append(a.closers, counters.Close)
	return rate.NewMemoryLimiter(counters, "", cfg.Rate.MaxRequests, cfg.RateWindow())
}

// Close libera store, cache y contadores. Devuelve el primer error.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}
