// Package store provee el registry de adapters de almacenamiento y el Factory que abre
// el CarRepository configurado (con migraciones y cache opcionales).
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dropDatabas3/coches/internal/domain/repository"
)

// Adapter representa un backend capaz de abrir un CarRepository.
type Adapter interface {
	// Name retorna el nombre del adapter ("postgres", "sqlite", "memory").
	Name() string

	// Connect establece conexión con el almacenamiento.
	Connect(ctx context.Context, cfg AdapterConfig) (repository.CarRepository, error)
}

// MigratableConnection es implementada por los repositorios SQL que aceptan migraciones.
type MigratableConnection interface {
	// Dialect retorna el subdirectorio de migraciones ("postgres", "sqlite").
	Dialect() string

	// MigrationExecutor retorna el ejecutor sobre la conexión subyacente.
	MigrationExecutor() Executor
}

// AdapterConfig configuración para conectar a un almacenamiento.
type AdapterConfig struct {
	// Name del adapter: "postgres", "sqlite", "memory"
	Name string

	// DSN connection string (postgres/sqlite)
	DSN string

	// Pool settings
	MaxOpenConns int
	MaxIdleConns int
}

// ─── Registry Global ───

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// RegisterAdapter registra un adapter en el registry global.
// Llamar en init() de cada adapter.
func RegisterAdapter(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := a.Name()
	if _, exists := adapters[name]; exists {
		panic(fmt.Sprintf("adapter: %q already registered", name))
	}
	adapters[name] = a
}

// GetAdapter obtiene un adapter por nombre.
func GetAdapter(name string) (Adapter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[name]
	return a, ok
}

// ListAdapters retorna los nombres de los adapters registrados, ordenados.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OpenAdapter busca el adapter por nombre y conecta.
func OpenAdapter(ctx context.Context, cfg AdapterConfig) (repository.CarRepository, error) {
	a, ok := GetAdapter(cfg.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrUnknownAdapter, cfg.Name, ListAdapters())
	}
	return a.Connect(ctx, cfg)
}
