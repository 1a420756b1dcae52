// Package pg implementa CarRepository sobre PostgreSQL (pgx/v5).
package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/coches/internal/domain/repository"
	"github.com/dropDatabas3/coches/internal/store"
	"github.com/dropDatabas3/coches/migrations"
)

func init() {
	store.RegisterAdapter(&postgresAdapter{})
}

// postgresAdapter implementa store.Adapter para PostgreSQL.
type postgresAdapter struct{}

func (a *postgresAdapter) Name() string { return "postgres" }

func (a *postgresAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (repository.CarRepository, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("pg: empty DSN")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse config: %w", err)
	}

	// pgxpool no tiene MaxOpen/MaxIdle: MaxOpenConns → MaxConns, MaxIdleConns → MinConns
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}

	// Conectar para fallar rápido si hay problema
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}

	return &carRepo{pool: pool}, nil
}

// ─── Migraciones ───

func (r *carRepo) Dialect() string { return migrations.PostgresDir }

func (r *carRepo) MigrationExecutor() store.Executor { return &pgExecutor{pool: r.pool} }

type pgExecutor struct {
	pool *pgxpool.Pool
}

func (e *pgExecutor) Exec(ctx context.Context, query string, args ...any) error {
	_, err := e.pool.Exec(ctx, query, args...)
	return err
}

func (e *pgExecutor) QueryInts(ctx context.Context, query string, args ...any) ([]int, error) {
	rows, err := e.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
