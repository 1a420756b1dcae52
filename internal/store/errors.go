package store

import "errors"

var (
	// ErrUnknownAdapter indica que el driver configurado no está registrado.
	ErrUnknownAdapter = errors.New("store: unknown adapter")

	// ErrNotMigratable indica que el backend no soporta migraciones SQL.
	ErrNotMigratable = errors.New("store: backend does not support migrations")
)
