// Package cars contiene el controller de /api/coches.
package cars

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dropDatabas3/coches/internal/domain/repository"
	dto "github.com/dropDatabas3/coches/internal/http/dto/cars"
	httperrors "github.com/dropDatabas3/coches/internal/http/errors"
	"github.com/dropDatabas3/coches/internal/http/helpers"
	svc "github.com/dropDatabas3/coches/internal/http/services/cars"
	"github.com/dropDatabas3/coches/internal/idalloc"
	"github.com/dropDatabas3/coches/internal/observability/logger"
	"github.com/dropDatabas3/coches/internal/validation"
)

// CarController maneja las rutas /api/coches
type CarController struct {
	service svc.CarService
}

// NewCarController crea un nuevo controller de coches.
func NewCarController(service svc.CarService) *CarController {
	return &CarController{service: service}
}

// Create maneja POST /api/coches
func (c *CarController) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := readCar(w, r)
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}

	car, err := c.service.Create(ctx, toCar(req))
	if err != nil {
		httperrors.WriteError(w, r, mapError(err))
		return
	}

	w.Header().Set("Location", "/api/coches/"+formatID(car.ID))
	w.Header().Set("ETag", helpers.VersionETag(car.Version))
	helpers.WriteJSON(w, http.StatusCreated, toCarResponse(*car))
}

// Get maneja GET /api/coches/{id}
func (c *CarController) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := helpers.PathID(r, "id")
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}

	car, err := c.service.Get(ctx, id)
	if err != nil {
		httperrors.WriteError(w, r, mapError(err))
		return
	}

	w.Header().Set("ETag", helpers.VersionETag(car.Version))
	helpers.WriteJSON(w, http.StatusOK, toCarResponse(*car))
}

// List maneja GET /api/coches
func (c *CarController) List(w http.ResponseWriter, r *http.Request) {
	cars, err := c.service.List(r.Context())
	if err != nil {
		httperrors.WriteError(w, r, mapError(err))
		return
	}

	resp := make([]dto.CarResponse, 0, len(cars))
	for _, car := range cars {
		resp = append(resp, toCarResponse(car))
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// Update maneja PUT /api/coches y PUT /api/coches/{id}.
// El ID de la ruta tiene prioridad sobre el del body.
// La versión esperada sale de If-Match o, si no viene, del body.
func (c *CarController) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CarController.Update"))

	req, err := readCar(w, r)
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}

	in := toCar(req)
	in.Version = req.Version

	if routeID(r) != "" {
		id, err := helpers.PathID(r, "id")
		if err != nil {
			httperrors.WriteError(w, r, err)
			return
		}
		if req.ID != 0 && req.ID != id {
			log.Debug("body id ignored", logger.CarID(req.ID))
		}
		in.ID = id
	}
	if in.ID <= 0 {
		httperrors.WriteError(w, r, httperrors.ErrValidation.WithDetail("id: required for update"))
		return
	}

	if v, ok, err := helpers.IfMatchVersion(r); err != nil {
		httperrors.WriteError(w, r, err)
		return
	} else if ok {
		in.Version = v
	}

	car, err := c.service.Update(ctx, in)
	if err != nil {
		httperrors.WriteError(w, r, mapError(err))
		return
	}

	w.Header().Set("ETag", helpers.VersionETag(car.Version))
	helpers.WriteJSON(w, http.StatusOK, toCarResponse(*car))
}

// Delete maneja DELETE /api/coches/{id}
func (c *CarController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.PathID(r, "id")
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}

	if err := c.service.Delete(r.Context(), id); err != nil {
		httperrors.WriteError(w, r, mapError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.StatusResponse{Status: "ok"})
}

// ─── helpers ───

// readCar lee el body, lo valida contra el schema y lo decodifica.
func readCar(w http.ResponseWriter, r *http.Request) (dto.CarRequest, error) {
	var req dto.CarRequest

	body, err := helpers.ReadBody(w, r)
	if err != nil {
		return req, err
	}

	res, err := validation.ValidateCar(body)
	if errors.Is(err, validation.ErrMalformedJSON) {
		return req, httperrors.ErrInvalidJSON
	}
	if err != nil {
		return req, httperrors.ErrInternalServerError.WithCause(err)
	}
	if !res.Valid {
		return req, httperrors.ErrValidation.WithDetail(res.Detail())
	}

	if err := json.Unmarshal(body, &req); err != nil {
		return req, httperrors.ErrInvalidJSON.WithCause(err)
	}
	return req, nil
}

func mapError(err error) *httperrors.AppError {
	switch {
	case repository.IsNotFound(err):
		return httperrors.ErrCarNotFound
	case repository.IsVersionConflict(err):
		return httperrors.ErrVersionConflict
	case errors.Is(err, idalloc.ErrInvalidInput), errors.Is(err, idalloc.ErrExhausted):
		return httperrors.ErrInvalidIDSet.WithDetail(err.Error())
	case errors.Is(err, svc.ErrInvalidID):
		return httperrors.ErrInvalidParameter.WithDetail(err.Error())
	case errors.Is(err, repository.ErrInvalidInput):
		return httperrors.ErrValidation.WithDetail(err.Error())
	default:
		return httperrors.FromError(err)
	}
}

func toCar(req dto.CarRequest) repository.Car {
	return repository.Car{
		ID:        req.ID,
		Marca:     req.Marca,
		Potencia:  req.Potencia,
		Encendido: req.Encendido,
	}
}

func toCarResponse(c repository.Car) dto.CarResponse {
	return dto.CarResponse{
		ID:        c.ID,
		Marca:     c.Marca,
		Potencia:  c.Potencia,
		Encendido: c.Encendido,
		Version:   c.Version,
	}
}
