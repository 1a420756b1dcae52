// Package cars contiene el service de coches: delega en el CarRepository y decide
// de dónde sale el ID de un coche nuevo.
package cars

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/dropDatabas3/coches/internal/domain/repository"
	"github.com/dropDatabas3/coches/internal/idalloc"
	"github.com/dropDatabas3/coches/internal/observability/logger"
)

// Estrategias de asignación de ID para coches nuevos.
const (
	// StrategyStore: el store asigna el ID (identity/serial/max+1 según el adapter).
	StrategyStore = "store"
	// StrategySequential: el service calcula max(IDs)+1 con idalloc y lo reserva
	// bajo un mutex. Válido sólo con una única instancia escribiendo.
	StrategySequential = "sequential"
)

// ErrInvalidID indica un ID de coche inválido (≤ 0).
var ErrInvalidID = errors.New("invalid car id")

// CarService define las operaciones de /api/coches.
type CarService interface {
	Create(ctx context.Context, in repository.Car) (*repository.Car, error)
	Get(ctx context.Context, id int64) (*repository.Car, error)
	List(ctx context.Context) ([]repository.Car, error)
	// Update requiere que el coche exista. in.Version > 0 activa el chequeo optimista.
	Update(ctx context.Context, in repository.Car) (*repository.Car, error)
	Delete(ctx context.Context, id int64) error
}

// Recorder recibe los eventos de dominio para métricas.
type Recorder interface {
	CarCreated()
	CarDeleted()
	VersionConflict()
}

type noopRecorder struct{}

func (noopRecorder) CarCreated() {}
func (noopRecorder) CarDeleted() {}
func (noopRecorder) VersionConflict() {}

type carService struct {
	repo     repository.CarRepository
	strategy string
	rec      Recorder

	// serializa IDs → Next → Save en la estrategia secuencial
	allocMu sync.Mutex
}

// NewCarService crea el service. strategy vacío equivale a StrategyStore.
func NewCarService(repo repository.CarRepository, strategy string, rec Recorder) CarService {
	if strategy == "" {
		strategy = StrategyStore
	}
	if rec == nil {
		rec = noopRecorder{}
	}
	return &carService{repo: repo, strategy: strategy, rec: rec}
}

const componentCars = "cars"

func (s *carService) log(ctx context.Context, op string) *zap.Logger {
	return logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(componentCars),
		logger.Op(op),
	)
}

func (s *carService) Create(ctx context.Context, in repository.Car) (*repository.Car, error) {
	log := s.log(ctx, "Create").With(logger.Strategy(s.strategy))

	// el ID y la versión de un coche nuevo no los decide el cliente
	in.ID = 0
	in.Version = 0

	var (
		car *repository.Car
		err error
	)
	if s.strategy == StrategySequential {
		car, err = s.createSequential(ctx, in)
	} else {
		car, err = s.repo.Save(ctx, &in)
	}
	if err != nil {
		log.Error("failed to create car", logger.Err(err))
		return nil, err
	}

	s.rec.CarCreated()
	log.Info("car created", logger.CarID(car.ID))
	return car, nil
}

func (s *carService) createSequential(ctx context.Context, in repository.Car) (*repository.Car, error) {
	s.allocMu.Lock()
	defer s.allocMu.Unlock()

	ids, err := s.repo.IDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ids: %w", err)
	}
	id, err := idalloc.Next(ids)
	if err != nil {
		return nil, err
	}
	in.ID = id
	return s.repo.Save(ctx, &in)
}

func (s *carService) Get(ctx context.Context, id int64) (*repository.Car, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	car, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if !repository.IsNotFound(err) {
			s.log(ctx, "Get").Error("failed to get car", logger.CarID(id), logger.Err(err))
		}
		return nil, err
	}
	return car, nil
}

func (s *carService) List(ctx context.Context) ([]repository.Car, error) {
	log := s.log(ctx, "List")

	cars, err := s.repo.FindAll(ctx)
	if err != nil {
		log.Error("failed to list cars", logger.Err(err))
		return nil, err
	}
	if cars == nil {
		cars = []repository.Car{}
	}

	log.Debug("cars listed", logger.Count(len(cars)))
	return cars, nil
}

func (s *carService) Update(ctx context.Context, in repository.Car) (*repository.Car, error) {
	log := s.log(ctx, "Update").With(logger.CarID(in.ID), logger.Version(in.Version))

	if in.ID <= 0 {
		return nil, ErrInvalidID
	}
	// Update del store nunca inserta: un coche borrado en paralelo da ErrNotFound
	car, err := s.repo.Update(ctx, &in)
	if err != nil {
		switch {
		case repository.IsNotFound(err):
			return nil, err
		case repository.IsVersionConflict(err):
			s.rec.VersionConflict()
			log.Warn("stale version")
			return nil, err
		}
		log.Error("failed to update car", logger.Err(err))
		return nil, err
	}

	log.Info("car updated", logger.Version(car.Version))
	return car, nil
}

func (s *carService) Delete(ctx context.Context, id int64) error {
	log := s.log(ctx, "Delete").With(logger.CarID(id))

	if id <= 0 {
		return ErrInvalidID
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		log.Error("failed to delete car", logger.Err(err))
		return err
	}

	s.rec.CarDeleted()
	log.Info("car deleted")
	return nil
}
