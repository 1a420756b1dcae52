package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/coches/internal/domain/repository"
)

// carRepo implementa repository.CarRepository.
type carRepo struct {
	pool *pgxpool.Pool
}

// NewCarRepo crea el repositorio sobre un pool existente.
func NewCarRepo(pool *pgxpool.Pool) repository.CarRepository {
	return &carRepo{pool: pool}
}

const carColumns = `id, marca, potencia, encendido, version`

func scanCar(row pgx.Row) (*repository.Car, error) {
	var c repository.Car
	if err := row.Scan(&c.ID, &c.Marca, &c.Potencia, &c.Encendido, &c.Version); err != nil {
		return nil, err
	}
	return &c, nil
}

// Save inserta o actualiza dentro de una transacción.
func (r *carRepo) Save(ctx context.Context, car *repository.Car) (*repository.Car, error) {
	if car == nil || car.ID < 0 {
		return nil, fmt.Errorf("pg: save car: %w", repository.ErrInvalidInput)
	}

	if car.IsNew() {
		const q = `
			INSERT INTO cars (marca, potencia, encendido, version)
			VALUES ($1, $2, $3, 1)
			RETURNING ` + carColumns
		saved, err := scanCar(r.pool.QueryRow(ctx, q, car.Marca, car.Potencia, car.Encendido))
		if err != nil {
			return nil, fmt.Errorf("pg: insert car: %w", err)
		}
		return saved, nil
	}

	var saved *repository.Car
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		c, err := updateCar(ctx, tx, car)
		if err == nil {
			saved = c
			return nil
		}
		if !repository.IsNotFound(err) {
			return err
		}

		const ins = `
			INSERT INTO cars (id, marca, potencia, encendido, version)
			VALUES ($1, $2, $3, $4, 1)
			RETURNING ` + carColumns
		c, err = scanCar(tx.QueryRow(ctx, ins, car.ID, car.Marca, car.Potencia, car.Encendido))
		if err != nil {
			return fmt.Errorf("pg: insert car %d: %w", car.ID, err)
		}

		// el serial tiene que quedar por delante de los IDs explícitos
		const bump = `SELECT setval(pg_get_serial_sequence('cars', 'id'), GREATEST((SELECT MAX(id) FROM cars), 1))`
		if _, err := tx.Exec(ctx, bump); err != nil {
			return fmt.Errorf("pg: advance sequence: %w", err)
		}
		saved = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// Update actualiza sólo si el coche existe (nunca inserta).
func (r *carRepo) Update(ctx context.Context, car *repository.Car) (*repository.Car, error) {
	if car == nil || car.ID <= 0 {
		return nil, fmt.Errorf("pg: update car: %w", repository.ErrInvalidInput)
	}
	var saved *repository.Car
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		c, err := updateCar(ctx, tx, car)
		saved = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// updateCar aplica el UPDATE con chequeo de versión.
// Retorna ErrNotFound si no hay fila y ErrVersionConflict si la versión no coincide.
func updateCar(ctx context.Context, tx pgx.Tx, car *repository.Car) (*repository.Car, error) {
	const upd = `
		UPDATE cars
		SET marca = $2, potencia = $3, encendido = $4,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND ($5::bigint = 0 OR version = $5)
		RETURNING ` + carColumns
	c, err := scanCar(tx.QueryRow(ctx, upd, car.ID, car.Marca, car.Potencia, car.Encendido, car.Version))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("pg: update car %d: %w", car.ID, err)
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM cars WHERE id = $1)`, car.ID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("pg: check car %d: %w", car.ID, err)
	}
	if exists {
		return nil, repository.ErrVersionConflict
	}
	return nil, repository.ErrNotFound
}

func (r *carRepo) FindByID(ctx context.Context, id int64) (*repository.Car, error) {
	c, err := scanCar(r.pool.QueryRow(ctx, `SELECT `+carColumns+` FROM cars WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: get car %d: %w", id, err)
	}
	return c, nil
}

func (r *carRepo) FindAll(ctx context.Context) ([]repository.Car, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+carColumns+` FROM cars ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("pg: list cars: %w", err)
	}
	defer rows.Close()

	cars := make([]repository.Car, 0)
	for rows.Next() {
		c, err := scanCar(rows)
		if err != nil {
			return nil, fmt.Errorf("pg: scan car: %w", err)
		}
		cars = append(cars, *c)
	}
	return cars, rows.Err()
}

func (r *carRepo) DeleteByID(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM cars WHERE id = $1`, id); err != nil {
		return fmt.Errorf("pg: delete car %d: %w", id, err)
	}
	return nil
}

func (r *carRepo) IDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM cars`)
	if err != nil {
		return nil, fmt.Errorf("pg: list ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("pg: collect ids: %w", err)
	}
	return ids, nil
}

func (r *carRepo) Ping(ctx context.Context) error { return r.pool.Ping(ctx) }

func (r *carRepo) Close() error {
	r.pool.Close()
	return nil
}
