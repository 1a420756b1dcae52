// Package sqlite implementa CarRepository sobre SQLite (sqlx + modernc.org/sqlite, sin cgo).
package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/dropDatabas3/coches/internal/domain/repository"
	"github.com/dropDatabas3/coches/internal/store"
	"github.com/dropDatabas3/coches/migrations"
)

func init() {
	store.RegisterAdapter(&sqliteAdapter{})
}

type sqliteAdapter struct{}

func (a *sqliteAdapter) Name() string { return "sqlite" }

func (a *sqliteAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (repository.CarRepository, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = ":memory:"
	}
	return Open(ctx, dsn)
}

// Open abre la base en dsn (archivo o ":memory:").
func Open(ctx context.Context, dsn string) (*Repo, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", dsn, err)
	}

	// una sola conexión: un único writer y ":memory:" compartida
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: pragma: %w", err)
	}
	return &Repo{db: db}, nil
}

// ─── Migraciones ───

func (r *Repo) Dialect() string { return migrations.SQLiteDir }

func (r *Repo) MigrationExecutor() store.Executor { return &sqlxExecutor{db: r.db} }

type sqlxExecutor struct {
	db *sqlx.DB
}

func (e *sqlxExecutor) Exec(ctx context.Context, query string, args ...any) error {
	_, err := e.db.ExecContext(ctx, query, args...)
	return err
}

func (e *sqlxExecutor) QueryInts(ctx context.Context, query string, args ...any) ([]int, error) {
	var out []int
	if err := e.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}
