// Package services agrupa todos los services HTTP.
// Este es el "composition root" de services.
//
//	deps := services.Deps{...}      ← dependencias externas (repo, métricas, checks)
//	svcs := services.New(deps)      ← services por dominio
//	ctrls := controllers.New(svcs)  ← controllers con services
package services

import (
	"github.com/dropDatabas3/coches/internal/http/services/cars"
	"github.com/dropDatabas3/coches/internal/http/services/health"
)

// Deps contiene las dependencias de todos los dominios.
type Deps struct {
	Cars   cars.Deps
	Health health.Deps
}

// Services agrupa los services de todos los dominios.
type Services struct {
	Cars   cars.Services
	Health health.Services
}

// New crea todos los services.
func New(d Deps) Services {
	return Services{
		Cars:   cars.NewServices(d.Cars),
		Health: health.NewServices(d.Health),
	}
}
