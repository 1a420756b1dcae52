package cars

import svc "github.com/dropDatabas3/coches/internal/http/services/cars"

// Controllers agrupa los controllers del dominio cars.
type Controllers struct {
	Cars *CarController
}

// NewControllers crea el agregador de controllers cars.
func NewControllers(s svc.Services) *Controllers {
	return &Controllers{
		Cars: NewCarController(s.Cars),
	}
}
