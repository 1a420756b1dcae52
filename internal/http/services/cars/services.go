package cars

import "github.com/dropDatabas3/coches/internal/domain/repository"

// Deps contiene las dependencias del dominio cars.
type Deps struct {
	Repo       repository.CarRepository
	IDStrategy string
	Metrics    Recorder
}

// Services agrupa los services del dominio cars.
type Services struct {
	Cars CarService
}

// NewServices crea el agregador de services cars.
func NewServices(d Deps) Services {
	return Services{
		Cars: NewCarService(d.Repo, d.IDStrategy, d.Metrics),
	}
}
