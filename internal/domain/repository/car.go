package repository

import "context"

// Car es la entidad "coche".
//
// ID es 0 hasta que el store lo persiste por primera vez; a partir de ahí no cambia.
// Version la administra el store: 1 al insertar, +1 en cada update exitoso.
type Car struct {
	ID        int64
	Marca     string
	Potencia  int
	Encendido bool
	Version   int64
}

// IsNew indica si el coche todavía no fue persistido.
func (c Car) IsNew() bool { return c.ID == 0 }

// CarRepository es el entity store de coches.
type CarRepository interface {
	// Save inserta (ID == 0, el store asigna el ID) o actualiza por ID.
	// Si el ID no existe, inserta con ese ID.
	// Con car.Version > 0 y distinta de la almacenada retorna ErrVersionConflict.
	// Devuelve el estado persistido (ID y Version actualizados).
	Save(ctx context.Context, car *Car) (*Car, error)

	// Update actualiza un coche existente. Nunca inserta: si el ID no existe
	// retorna ErrNotFound. Con car.Version > 0 y distinta de la almacenada
	// retorna ErrVersionConflict.
	Update(ctx context.Context, car *Car) (*Car, error)

	// FindByID retorna ErrNotFound si no existe.
	FindByID(ctx context.Context, id int64) (*Car, error)

	// FindAll retorna todos los coches, ordenados por ID ascendente.
	FindAll(ctx context.Context) ([]Car, error)

	// DeleteByID elimina el coche. No es error si no existe.
	DeleteByID(ctx context.Context, id int64) error

	// IDs retorna los IDs en uso (keyset), usado por la asignación secuencial.
	IDs(ctx context.Context) ([]int64, error)

	// Ping verifica la conexión con el backend.
	Ping(ctx context.Context) error

	// Close libera los recursos del backend.
	Close() error
}
