// Package validation valida los payloads de coches contra un JSON Schema embebido.
package validation

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/car.schema.json
var carSchemaJSON []byte

var carSchema = mustSchema(carSchemaJSON)

// ErrMalformedJSON indica que el body no es JSON válido.
var ErrMalformedJSON = errors.New("validation: malformed json")

// FieldError error de validación de un campo.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result resultado de validar un documento.
type Result struct {
	Valid  bool
	Errors []FieldError
}

// Detail resume los errores en una línea ("marca: String length must be ...; potencia: ...").
func (r *Result) Detail() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return strings.Join(parts, "; ")
}

// ValidateCar valida el body crudo de un create/update.
// Retorna ErrMalformedJSON si raw no es JSON.
func ValidateCar(raw []byte) (*Result, error) {
	if !json.Valid(raw) {
		return nil, ErrMalformedJSON
	}

	res, err := carSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("validation: %w", err)
	}

	out := &Result{Valid: res.Valid(), Errors: make([]FieldError, 0)}
	for _, desc := range res.Errors() {
		out.Errors = append(out.Errors, FieldError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	sort.Slice(out.Errors, func(i, j int) bool { return out.Errors[i].Field < out.Errors[j].Field })
	return out, nil
}

func mustSchema(raw []byte) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("validation: invalid embedded schema: %v", err))
	}
	return s
}
