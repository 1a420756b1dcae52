// Package cached implementa un decorator de CarRepository con cache read-through.
//
//	FindByID      → cache (car:<id>) → miss → backend → set
//	Save / Update → backend → set (write-through)
//	DeleteByID    → backend → delete
//
// Cada escritura e invalidación sube la generación de la key. Un set cuyo load o
// escritura empezó en una generación anterior se descarta (y borra la key), así
// un load que se cruzó con un delete no vuelve a cachear un coche borrado.
//
// Los errores de cache nunca fallan la operación; se loguean en warn.
package cached

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/coches/internal/cache"
	"github.com/dropDatabas3/coches/internal/domain/repository"
	"github.com/dropDatabas3/coches/internal/observability/logger"
)

// Repository envuelve un CarRepository con cache.
type Repository struct {
	next  repository.CarRepository
	cache cache.Client
	ttl   time.Duration
	sf    singleflight.Group

	// generaciones por stripe de IDs; mu serializa chequeo+set contra invalidaciones
	stripes [genStripes]stripe
}

const genStripes = 64

type stripe struct {
	mu  sync.Mutex
	gen uint64
}

// New crea el decorator. ttl 0 significa sin expiración.
func New(next repository.CarRepository, c cache.Client, ttl time.Duration) *Repository {
	return &Repository{next: next, cache: c, ttl: ttl}
}

// Unwrap retorna el repositorio decorado.
func (r *Repository) Unwrap() repository.CarRepository { return r.next }

// entry es la representación serializada en cache.
type entry struct {
	ID        int64  `json:"id"`
	Marca     string `json:"marca"`
	Potencia  int    `json:"potencia"`
	Encendido bool   `json:"encendido"`
	Version   int64  `json:"version"`
}

// Key retorna la key de cache de un coche.
func Key(id int64) string { return "car:" + strconv.FormatInt(id, 10) }

func (r *Repository) FindByID(ctx context.Context, id int64) (*repository.Car, error) {
	key := Key(id)
	if car, ok := r.get(ctx, key); ok {
		return car, nil
	}

	v, err, _ := r.sf.Do(key, func() (any, error) {
		// el load es compartido: no depende de la cancelación del primer caller
		lctx := context.WithoutCancel(ctx)
		gen := r.generation(id)
		car, err := r.next.FindByID(lctx, id)
		if err != nil {
			return nil, err
		}
		r.setIfCurrent(lctx, car, gen, false)
		return car, nil
	})
	if err != nil {
		return nil, err
	}
	c := *v.(*repository.Car)
	return &c, nil
}

func (r *Repository) Save(ctx context.Context, car *repository.Car) (*repository.Car, error) {
	return r.write(ctx, car, r.next.Save)
}

func (r *Repository) Update(ctx context.Context, car *repository.Car) (*repository.Car, error) {
	return r.write(ctx, car, r.next.Update)
}

func (r *Repository) write(ctx context.Context, car *repository.Car,
	fn func(context.Context, *repository.Car) (*repository.Car, error)) (*repository.Car, error) {
	var gen uint64
	if car != nil && car.ID != 0 {
		gen = r.generation(car.ID)
	}

	saved, err := fn(ctx, car)
	if err != nil {
		if car != nil && car.ID != 0 && (repository.IsVersionConflict(err) || repository.IsNotFound(err)) {
			// la copia cacheada puede estar vieja
			r.invalidate(ctx, car.ID)
		}
		return nil, err
	}
	if car.ID == 0 {
		gen = r.generation(saved.ID)
	}
	r.setIfCurrent(ctx, saved, gen, true)
	return saved, nil
}

func (r *Repository) DeleteByID(ctx context.Context, id int64) error {
	if err := r.next.DeleteByID(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *Repository) FindAll(ctx context.Context) ([]repository.Car, error) {
	return r.next.FindAll(ctx)
}

func (r *Repository) IDs(ctx context.Context) ([]int64, error) {
	return r.next.IDs(ctx)
}

func (r *Repository) Ping(ctx context.Context) error { return r.next.Ping(ctx) }

// Close cierra el backend. El cliente de cache lo cierra su dueño.
func (r *Repository) Close() error { return r.next.Close() }

// ─── helpers ───

func (r *Repository) get(ctx context.Context, key string) (*repository.Car, bool) {
	raw, err := r.cache.Get(ctx, key)
	if err != nil {
		if !cache.IsNotFound(err) {
			logger.From(ctx).Warn("cache get failed", logger.Component("store.cached"), logger.Key(key), logger.Err(err))
		}
		return nil, false
	}
	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		logger.From(ctx).Warn("cache entry corrupt", logger.Component("store.cached"), logger.Key(key), logger.Err(err))
		_ = r.cache.Delete(ctx, key)
		return nil, false
	}
	return &repository.Car{ID: e.ID, Marca: e.Marca, Potencia: e.Potencia, Encendido: e.Encendido, Version: e.Version}, true
}

func (r *Repository) stripe(id int64) *stripe {
	return &r.stripes[uint64(id)%genStripes]
}

func (r *Repository) generation(id int64) uint64 {
	st := r.stripe(id)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.gen
}

// setIfCurrent cachea car sólo si nadie escribió ni invalidó la key desde gen.
// Si la generación cambió, borra la key. bump marca la escritura como nueva generación.
func (r *Repository) setIfCurrent(ctx context.Context, car *repository.Car, gen uint64, bump bool) {
	st := r.stripe(car.ID)
	st.mu.Lock()
	defer st.mu.Unlock()

	current := st.gen == gen
	if bump {
		st.gen++
	}
	if !current {
		r.del(ctx, car.ID)
		return
	}

	b, _ := json.Marshal(entry{ID: car.ID, Marca: car.Marca, Potencia: car.Potencia, Encendido: car.Encendido, Version: car.Version})
	if err := r.cache.Set(ctx, Key(car.ID), string(b), r.ttl); err != nil {
		logger.From(ctx).Warn("cache set failed", logger.Component("store.cached"), logger.CarID(car.ID), logger.Err(err))
	}
}

func (r *Repository) invalidate(ctx context.Context, id int64) {
	st := r.stripe(id)
	st.mu.Lock()
	defer st.mu.Unlock()

	st.gen++
	r.del(ctx, id)
}

func (r *Repository) del(ctx context.Context, id int64) {
	if err := r.cache.Delete(ctx, Key(id)); err != nil {
		logger.From(ctx).Warn("cache delete failed", logger.Component("store.cached"), logger.CarID(id), logger.Err(err))
	}
}

var _ repository.CarRepository = (*Repository)(nil)
