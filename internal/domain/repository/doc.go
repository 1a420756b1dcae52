// Package repository define el modelo de dominio (Car) y el contrato del entity store.
//
// El contrato es independiente del almacenamiento. Las implementaciones viven en
// internal/store/adapters/ y se eligen por configuración:
//
//	┌─────────────────────────────────────────────────────┐
//	│           Controllers / Services                    │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	                        ▼
//	┌─────────────────────────────────────────────────────┐
//	│     domain/repository.CarRepository (interface)     │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	      ┌─────────────────┼─────────────────┐
//	      ▼                 ▼                 ▼
//	┌───────────┐    ┌────────────┐    ┌────────────┐
//	│ adapters/ │    │  adapters/ │    │  adapters/ │     (+ store/cached como decorator)
//	│    pg     │    │   sqlite   │    │   memory   │
//	└───────────┘    └────────────┘    └────────────┘
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Errores de dominio están en errors.go y se comparan con errors.Is
package repository
