// Package memory implementa CarRepository en memoria.
// Los IDs se asignan con idalloc (max+1) dentro del mismo lock que la inserción.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dropDatabas3/coches/internal/domain/repository"
	"github.com/dropDatabas3/coches/internal/idalloc"
	"github.com/dropDatabas3/coches/internal/store"
)

func init() {
	store.RegisterAdapter(&memoryAdapter{})
}

// memoryAdapter implementa store.Adapter.
type memoryAdapter struct{}

func (a *memoryAdapter) Name() string { return "memory" }

func (a *memoryAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (repository.CarRepository, error) {
	return New(), nil
}

// Repo implementa repository.CarRepository sobre un map.
type Repo struct {
	mu   sync.RWMutex
	cars map[int64]repository.Car
}

// New crea un repositorio vacío.
func New() *Repo {
	return &Repo{cars: make(map[int64]repository.Car)}
}

func (r *Repo) Save(ctx context.Context, car *repository.Car) (*repository.Car, error) {
	if car == nil {
		return nil, fmt.Errorf("memory: save nil car: %w", repository.ErrInvalidInput)
	}
	if car.ID < 0 {
		return nil, fmt.Errorf("memory: negative id %d: %w", car.ID, repository.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c := *car
	if c.IsNew() {
		id, err := idalloc.NextFromKeys(r.cars)
		if err != nil {
			return nil, fmt.Errorf("memory: allocate id: %w", err)
		}
		c.ID = id
		c.Version = 1
	} else if cur, ok := r.cars[c.ID]; ok {
		if c.Version > 0 && c.Version != cur.Version {
			return nil, repository.ErrVersionConflict
		}
		c.Version = cur.Version + 1
	} else {
		c.Version = 1
	}

	r.cars[c.ID] = c
	return &c, nil
}

func (r *Repo) Update(ctx context.Context, car *repository.Car) (*repository.Car, error) {
	if car == nil || car.ID <= 0 {
		return nil, fmt.Errorf("memory: update car: %w", repository.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.cars[car.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if car.Version > 0 && car.Version != cur.Version {
		return nil, repository.ErrVersionConflict
	}

	c := *car
	c.Version = cur.Version + 1
	r.cars[c.ID] = c
	return &c, nil
}

func (r *Repo) FindByID(ctx context.Context, id int64) (*repository.Car, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.cars[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *Repo) FindAll(ctx context.Context) ([]repository.Car, error) {
	r.mu.RLock()
	out := make([]repository.Car, 0, len(r.cars))
	for _, c := range r.cars {
		out = append(out, c)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Repo) DeleteByID(ctx context.Context, id int64) error {
	r.mu.Lock()
	delete(r.cars, id)
	r.mu.Unlock()
	return nil
}

func (r *Repo) IDs(ctx context.Context) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int64, 0, len(r.cars))
	for id := range r.cars {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *Repo) Ping(ctx context.Context) error { return nil }

func (r *Repo) Close() error { return nil }

var _ repository.CarRepository = (*Repo)(nil)
