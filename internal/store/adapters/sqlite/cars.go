package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/dropDatabas3/coches/internal/domain/repository"
)

// Repo implementa repository.CarRepository.
type Repo struct {
	db *sqlx.DB
}

type carRow struct {
	ID        int64  `db:"id"`
	Marca     string `db:"marca"`
	Potencia  int    `db:"potencia"`
	Encendido bool   `db:"encendido"`
	Version   int64  `db:"version"`
}

func (r carRow) toCar() repository.Car {
	return repository.Car{ID: r.ID, Marca: r.Marca, Potencia: r.Potencia, Encendido: r.Encendido, Version: r.Version}
}

const selectCar = `SELECT id, marca, potencia, encendido, version FROM cars`

func (r *Repo) Save(ctx context.Context, car *repository.Car) (*repository.Car, error) {
	if car == nil || car.ID < 0 {
		return nil, fmt.Errorf("sqlite: save car: %w", repository.ErrInvalidInput)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id := car.ID
	if car.IsNew() {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO cars (marca, potencia, encendido, version) VALUES ($1, $2, $3, 1)`,
			car.Marca, car.Potencia, car.Encendido)
		if err != nil {
			return nil, fmt.Errorf("sqlite: insert car: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return nil, fmt.Errorf("sqlite: last insert id: %w", err)
		}
	} else if err := updateCar(ctx, tx, car); repository.IsNotFound(err) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cars (id, marca, potencia, encendido, version) VALUES ($1, $2, $3, $4, 1)`,
			car.ID, car.Marca, car.Potencia, car.Encendido); err != nil {
			return nil, fmt.Errorf("sqlite: insert car %d: %w", car.ID, err)
		}
	} else if err != nil {
		return nil, err
	}

	var row carRow
	if err := tx.GetContext(ctx, &row, selectCar+` WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("sqlite: reload car %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: commit: %w", err)
	}

	saved := row.toCar()
	return &saved, nil
}

// Update actualiza sólo si el coche existe (nunca inserta).
func (r *Repo) Update(ctx context.Context, car *repository.Car) (*repository.Car, error) {
	if car == nil || car.ID <= 0 {
		return nil, fmt.Errorf("sqlite: update car: %w", repository.ErrInvalidInput)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := updateCar(ctx, tx, car); err != nil {
		return nil, err
	}

	var row carRow
	if err := tx.GetContext(ctx, &row, selectCar+` WHERE id = $1`, car.ID); err != nil {
		return nil, fmt.Errorf("sqlite: reload car %d: %w", car.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: commit: %w", err)
	}

	saved := row.toCar()
	return &saved, nil
}

// updateCar aplica el UPDATE con chequeo de versión.
// Retorna ErrNotFound si no hay fila y ErrVersionConflict si la versión no coincide.
func updateCar(ctx context.Context, tx *sqlx.Tx, car *repository.Car) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE cars
		SET marca = $2, potencia = $3, encendido = $4,
			version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND ($5 = 0 OR version = $5)`,
		car.ID, car.Marca, car.Potencia, car.Encendido, car.Version)
	if err != nil {
		return fmt.Errorf("sqlite: update car %d: %w", car.ID, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var exists int
	if err := tx.GetContext(ctx, &exists, `SELECT COUNT(1) FROM cars WHERE id = $1`, car.ID); err != nil {
		return fmt.Errorf("sqlite: check car %d: %w", car.ID, err)
	}
	if exists > 0 {
		return repository.ErrVersionConflict
	}
	return repository.ErrNotFound
}

func (r *Repo) FindByID(ctx context.Context, id int64) (*repository.Car, error) {
	var row carRow
	err := r.db.GetContext(ctx, &row, selectCar+` WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get car %d: %w", id, err)
	}
	c := row.toCar()
	return &c, nil
}

func (r *Repo) FindAll(ctx context.Context) ([]repository.Car, error) {
	var rows []carRow
	if err := r.db.SelectContext(ctx, &rows, selectCar+` ORDER BY id`); err != nil {
		return nil, fmt.Errorf("sqlite: list cars: %w", err)
	}
	cars := make([]repository.Car, 0, len(rows))
	for _, row := range rows {
		cars = append(cars, row.toCar())
	}
	return cars, nil
}

func (r *Repo) DeleteByID(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cars WHERE id = $1`, id); err != nil {
		return fmt.Errorf("sqlite: delete car %d: %w", id, err)
	}
	return nil
}

func (r *Repo) IDs(ctx context.Context) ([]int64, error) {
	ids := make([]int64, 0)
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM cars`); err != nil {
		return nil, fmt.Errorf("sqlite: list ids: %w", err)
	}
	return ids, nil
}

func (r *Repo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

func (r *Repo) Close() error { return r.db.Close() }

var _ repository.CarRepository = (*Repo)(nil)
