// Package controllers agrupa todos los controllers HTTP.
// Este es el "composition root" de controllers: recibe los services ya creados
// (ver services.New) y los reparte por dominio.
package controllers

import (
	"github.com/dropDatabas3/coches/internal/http/controllers/cars"
	"github.com/dropDatabas3/coches/internal/http/controllers/health"
	"github.com/dropDatabas3/coches/internal/http/services"
)

// Controllers agrupa los controllers de todos los dominios.
type Controllers struct {
	Cars   *cars.Controllers
	Health *health.Controllers
}

// New crea todos los controllers.
func New(s services.Services) *Controllers {
	return &Controllers{
		Cars:   cars.NewControllers(s.Cars),
		Health: health.NewControllers(s.Health),
	}
}
