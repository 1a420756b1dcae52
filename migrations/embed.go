// Package migrations embebe los archivos SQL de migración por dialecto.
package migrations

import "embed"

// FS contiene las migraciones de todos los dialectos.
// El subdirectorio coincide con store.MigratableConnection.Dialect().
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

const (
	PostgresDir = "postgres"
	SQLiteDir   = "sqlite"
)
