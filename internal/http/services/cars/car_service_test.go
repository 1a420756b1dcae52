package cars

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/coches/internal/domain/repository"
	"github.com/dropDatabas3/coches/internal/idalloc"
	"github.com/dropDatabas3/coches/internal/store/adapters/memory"
)

type countingRecorder struct {
	mu                          sync.Mutex
	created, deleted, conflicts int
}

func (r *countingRecorder) CarCreated() {
	r.mu.Lock()
	r.created++
	r.mu.Unlock()
}

func (r *countingRecorder) CarDeleted() {
	r.mu.Lock()
	r.deleted++
	r.mu.Unlock()
}

func (r *countingRecorder) VersionConflict() {
	r.mu.Lock()
	r.conflicts++
	r.mu.Unlock()
}

func newService(strategy string) (CarService, *countingRecorder) {
	rec := &countingRecorder{}
	return NewCarService(memory.New(), strategy, rec), rec
}

func seat() repository.Car {
	return repository.Car{Marca: "Seat", Potencia: 90, Encendido: false}
}

func TestCreate_AssignsPositiveID(t *testing.T) {
	svc, rec := newService(StrategyStore)

	car, err := svc.Create(context.Background(), seat())
	require.NoError(t, err)
	assert.Positive(t, car.ID)
	assert.Equal(t, int64(1), car.Version)
	assert.Equal(t, 1, rec.created)
}

func TestCreate_IgnoresClientIDAndVersion(t *testing.T) {
	svc, _ := newService(StrategyStore)

	in := seat()
	in.ID = 500
	in.Version = 9
	car, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, int64(1), car.ID)
	assert.Equal(t, int64(1), car.Version)
}

func TestGet_Existing(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(StrategyStore)

	created, err := svc.Create(ctx, seat())
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Seat", got.Marca)
	assert.Equal(t, 90, got.Potencia)
}

func TestGet_MissingFails(t *testing.T) {
	svc, _ := newService(StrategyStore)

	_, err := svc.Get(context.Background(), 999)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGet_InvalidID(t *testing.T) {
	svc, _ := newService(StrategyStore)

	_, err := svc.Get(context.Background(), 0)
	require.ErrorIs(t, err, ErrInvalidID)
}

func TestList_ReturnsAll(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(StrategyStore)

	empty, err := svc.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, m := range []string{"Seat", "Audi", "Fiat"} {
		_, err := svc.Create(ctx, repository.Car{Marca: m})
		require.NoError(t, err)
	}
	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpdate_Persists(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(StrategyStore)

	created, err := svc.Create(ctx, seat())
	require.NoError(t, err)

	created.Encendido = true
	created.Potencia = 110
	updated, err := svc.Update(ctx, *created)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, int64(2), updated.Version)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.Encendido)
	assert.Equal(t, 110, got.Potencia)
}

func TestUpdate_MissingFails(t *testing.T) {
	svc, _ := newService(StrategyStore)

	in := seat()
	in.ID = 42
	_, err := svc.Update(context.Background(), in)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdate_StaleVersion(t *testing.T) {
	ctx := context.Background()
	svc, rec := newService(StrategyStore)

	created, err := svc.Create(ctx, seat())
	require.NoError(t, err)
	_, err = svc.Update(ctx, *created)
	require.NoError(t, err)

	_, err = svc.Update(ctx, *created) // sigue con version 1
	require.ErrorIs(t, err, repository.ErrVersionConflict)
	assert.Equal(t, 1, rec.conflicts)
}

func TestDelete_Removes(t *testing.T) {
	ctx := context.Background()
	svc, rec := newService(StrategyStore)

	created, err := svc.Create(ctx, seat())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, 1, rec.deleted)

	// borrar un ID inexistente no es error
	require.NoError(t, svc.Delete(ctx, created.ID))
}

func TestCreate_SequentialStrategy(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	svc := NewCarService(repo, StrategySequential, nil)

	_, err := repo.Save(ctx, &repository.Car{ID: 7, Marca: "x"})
	require.NoError(t, err)

	car, err := svc.Create(ctx, seat())
	require.NoError(t, err)
	assert.Equal(t, int64(8), car.ID)
}

func TestCreate_SequentialConcurrentUnique(t *testing.T) {
	ctx := context.Background()
	svc := NewCarService(memory.New(), StrategySequential, nil)

	const n = 30
	var wg sync.WaitGroup
	ids := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := svc.Create(ctx, seat())
			if err == nil {
				ids <- c.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

// negativeIDsRepo devuelve un keyset corrupto.
type negativeIDsRepo struct {
	repository.CarRepository
}

func (negativeIDsRepo) IDs(context.Context) ([]int64, error) { return []int64{-3, 4}, nil }

func TestCreate_SequentialRejectsInvalidIDSet(t *testing.T) {
	svc := NewCarService(negativeIDsRepo{memory.New()}, StrategySequential, nil)

	_, err := svc.Create(context.Background(), seat())
	require.ErrorIs(t, err, idalloc.ErrInvalidInput)
}

// deleteBeforeUpdate borra el coche justo antes de que llegue el update al store.
type deleteBeforeUpdate struct {
	*memory.Repo
}

func (d deleteBeforeUpdate) Update(ctx context.Context, car *repository.Car) (*repository.Car, error) {
	_ = d.Repo.DeleteByID(ctx, car.ID)
	return d.Repo.Update(ctx, car)
}

func TestUpdate_ConcurrentDeleteDoesNotRecreate(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	created, err := repo.Save(ctx, &repository.Car{Marca: "Seat"})
	require.NoError(t, err)

	svc := NewCarService(deleteBeforeUpdate{repo}, StrategyStore, nil)

	for _, v := range []int64{0, 5} {
		_, err = svc.Update(ctx, repository.Car{ID: created.ID, Marca: "Ghost", Version: v})
		require.ErrorIs(t, err, repository.ErrNotFound)
	}

	_, err = repo.FindByID(ctx, created.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}
