package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/coches/internal/cache"
	"github.com/dropDatabas3/coches/internal/domain/repository"
	"github.com/dropDatabas3/coches/internal/observability/logger"
	"github.com/dropDatabas3/coches/internal/store/cached"
	"github.com/dropDatabas3/coches/migrations"
)

// Config configuración del Factory.
type Config struct {
	Driver   string
	DSN      string
	Postgres struct {
		MaxOpenConns, MaxIdleConns int
	}

	// Migrate aplica las migraciones embebidas al abrir (sólo backends SQL).
	Migrate bool

	// Cache opcional: si no es nil, Cars se envuelve con el decorator de cache.
	Cache    cache.Client
	CacheTTL time.Duration
}

// Store agrupa el repositorio abierto y su backend.
type Store struct {
	// Cars es el repositorio a usar por la capa de servicios (posiblemente cacheado).
	Cars repository.CarRepository

	// Backend es el repositorio sin decorar.
	Backend repository.CarRepository

	Driver string
	Cache  cache.Client
}

// Open abre el adapter configurado, corre migraciones si corresponde y aplica el cache.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	driver := normalizeDriver(cfg.Driver)
	log := logger.From(ctx).With(logger.Component("store"), logger.Driver(driver))

	backend, err := OpenAdapter(ctx, AdapterConfig{
		Name:         driver,
		DSN:          cfg.DSN,
		MaxOpenConns: cfg.Postgres.MaxOpenConns,
		MaxIdleConns: cfg.Postgres.MaxIdleConns,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}

	if cfg.Migrate {
		res, err := Migrate(ctx, backend)
		switch {
		case err == nil:
			log.Info("migrations applied",
				zap.Ints("applied", res.Applied),
				zap.Int("skipped", len(res.Skipped)),
				logger.Duration("took", res.Duration))
		case errors.Is(err, ErrNotMigratable):
			log.Debug("backend without migrations")
		default:
			_ = backend.Close()
			return nil, err
		}
	}

	s := &Store{Cars: backend, Backend: backend, Driver: driver, Cache: cfg.Cache}
	if cfg.Cache != nil {
		s.Cars = cached.New(backend, cfg.Cache, cfg.CacheTTL)
		log.Info("store cache enabled", logger.Duration("ttl", cfg.CacheTTL))
	}
	return s, nil
}

// Migrate aplica las migraciones del dialecto del backend.
// Retorna ErrNotMigratable si el backend no es SQL.
func Migrate(ctx context.Context, repo repository.CarRepository) (*MigrationResult, error) {
	mc, ok := repo.(MigratableConnection)
	if !ok {
		return nil, ErrNotMigratable
	}
	res, err := NewMigrator(migrations.FS, mc.Dialect()).Run(ctx, mc.MigrationExecutor())
	if err != nil {
		return res, fmt.Errorf("migrate %s: %w", mc.Dialect(), err)
	}
	return res, nil
}

// Close cierra el backend y el cache.
func (s *Store) Close() error {
	var firstErr error
	if s.Backend != nil {
		firstErr = s.Backend.Close()
	}
	if s.Cache != nil {
		if err := s.Cache.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func normalizeDriver(d string) string {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "pg", "postgresql", "postgres":
		return "postgres"
	case "sqlite3", "sqlite":
		return "sqlite"
	case "", "memory", "mem":
		return "memory"
	default:
		return strings.ToLower(d)
	}
}
