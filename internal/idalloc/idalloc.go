// Package idalloc calcula el siguiente ID secuencial a partir de los IDs en uso.
//
// Next es una función pura: no guarda estado entre llamadas. Reservar el valor devuelto
// (insertar el registro) de forma atómica es responsabilidad del caller; ver el adapter
// memory y la estrategia "sequential" del service de coches.
package idalloc

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"math"
	"slices"
)

var (
	// ErrInvalidInput indica que el conjunto de IDs contiene un valor negativo.
	ErrInvalidInput = errors.New("idalloc: invalid input")

	// ErrExhausted indica que el máximo en uso es math.MaxInt64 y no hay siguiente.
	ErrExhausted = errors.New("idalloc: id space exhausted")
)

// Next retorna max(ids)+1, o 1 si ids está vacío.
// Falla con ErrInvalidInput si algún ID es negativo y con ErrExhausted si
// el máximo es math.MaxInt64.
func Next(ids []int64) (int64, error) {
	return next(slices.Values(ids))
}

// NextFromKeys es Next sobre el keyset de un map.
func NextFromKeys[V any](m map[int64]V) (int64, error) {
	return next(maps.Keys(m))
}

func next(ids iter.Seq[int64]) (int64, error) {
	var max int64
	for id := range ids {
		if id < 0 {
			return 0, fmt.Errorf("%w: negative id %d", ErrInvalidInput, id)
		}
		if id > max {
			max = id
		}
	}
	if max == math.MaxInt64 {
		return 0, ErrExhausted
	}
	return max + 1, nil
}
