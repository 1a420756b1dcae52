package store_test

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/coches/internal/cache"
	"github.com/dropDatabas3/coches/internal/domain/repository"
	"github.com/dropDatabas3/coches/internal/store"
	_ "github.com/dropDatabas3/coches/internal/store/adapters/all"
	"github.com/dropDatabas3/coches/internal/store/cached"
)

func TestListAdapters(t *testing.T) {
	assert.Equal(t, []string{"memory", "postgres", "sqlite"}, store.ListAdapters())
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := store.Open(context.Background(), store.Config{Driver: "oracle"})
	require.ErrorIs(t, err, store.ErrUnknownAdapter)
}

func TestOpen_MemoryWithoutCache(t *testing.T) {
	s, err := store.Open(context.Background(), store.Config{Driver: "", Migrate: true})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "memory", s.Driver)
	assert.Same(t, s.Backend, s.Cars)
}

func TestOpen_WrapsWithCache(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, store.Config{
		Driver:   "memory",
		Cache:    cache.NewMemory("", time.Minute),
		CacheTTL: time.Minute,
	})
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.Cars.(*cached.Repository)
	require.True(t, ok)

	c, err := s.Cars.Save(ctx, &repository.Car{Marca: "Seat"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.ID)
}

func TestOpen_SQLiteRunsMigrations(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, store.Config{Driver: "sqlite3", DSN: ":memory:", Migrate: true})
	require.NoError(t, err)
	defer s.Close()

	c, err := s.Cars.Save(ctx, &repository.Car{Marca: "Seat"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.ID)
}

func TestMigrate_MemoryIsNotMigratable(t *testing.T) {
	s, err := store.Open(context.Background(), store.Config{Driver: "memory"})
	require.NoError(t, err)

	_, err = store.Migrate(context.Background(), s.Backend)
	require.ErrorIs(t, err, store.ErrNotMigratable)
}

func TestParseMigrations_SortsAndSkipsOtherFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"x/0002_b.sql":  {Data: []byte("B")},
		"x/0001_a.sql":  {Data: []byte("A")},
		"x/README.md":   {Data: []byte("-")},
		"x/nested/0003": {Data: []byte("-")},
	}
	migs, err := store.NewMigrator(fsys, "x").ParseMigrations()
	require.NoError(t, err)
	require.Len(t, migs, 2)
	assert.Equal(t, 1, migs[0].Version)
	assert.Equal(t, "a", migs[0].Name)
	assert.Equal(t, "B", migs[1].SQL)
}
