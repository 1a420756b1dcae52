package repository

import "errors"

var (
	// ErrNotFound indica que el coche solicitado no existe.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict indica que la versión enviada no coincide con la almacenada
	// (concurrencia optimista).
	ErrVersionConflict = errors.New("version conflict")

	// ErrInvalidInput indica que los datos de entrada son inválidos.
	ErrInvalidInput = errors.New("invalid input")
)

// IsNotFound verifica si el error es ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsVersionConflict verifica si el error es ErrVersionConflict.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}
