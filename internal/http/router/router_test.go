package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/coches/internal/cache"
	"github.com/dropDatabas3/coches/internal/domain/repository"
	"github.com/dropDatabas3/coches/internal/http/controllers"
	dto "github.com/dropDatabas3/coches/internal/http/dto/cars"
	"github.com/dropDatabas3/coches/internal/http/services"
	carsvc "github.com/dropDatabas3/coches/internal/http/services/cars"
	healthsvc "github.com/dropDatabas3/coches/internal/http/services/health"
	"github.com/dropDatabas3/coches/internal/rate"
	"github.com/dropDatabas3/coches/internal/store/adapters/memory"
)

type testAPI struct {
	t       *testing.T
	handler http.Handler
	repo    repository.CarRepository
}

func newTestAPI(t *testing.T, strategy string, repo repository.CarRepository, limiter rate.Limiter) *testAPI {
	t.Helper()
	if repo == nil {
		repo = memory.New()
	}
	svcs := services.New(services.Deps{
		Cars:   carsvc.Deps{Repo: repo, IDStrategy: strategy},
		Health: healthsvc.Deps{StoreCheck: repo.Ping, Driver: "memory"},
	})
	h := New(Deps{
		Controllers: controllers.New(svcs),
		RateLimiter: limiter,
	})
	return &testAPI{t: t, handler: h, repo: repo}
}

func (a *testAPI) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(a.t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) create(marca string, potencia int) dto.CarResponse {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/coches", dto.CarRequest{Marca: marca, Potencia: potencia})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	var car dto.CarResponse
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &car))
	return car
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	code, _ := body["code"].(string)
	return code
}

// ─── Escenarios de la API ───

func TestCreateCar(t *testing.T) {
	api := newTestAPI(t, "", nil, nil)

	rec := api.do(http.MethodPost, "/api/coches", map[string]any{"marca": "Seat", "potencia": 90, "encendido": false})
	require.Equal(t, http.StatusCreated, rec.Code)

	var car dto.CarResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &car))
	assert.Positive(t, car.ID)
	assert.Equal(t, int64(1), car.Version)
	assert.Equal(t, "/api/coches/"+strconv.FormatInt(car.ID, 10), rec.Header().Get("Location"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestGetCar(t *testing.T) {
	api := newTestAPI(t, "", nil, nil)
	created := api.create("Seat", 90)

	rec := api.do(http.MethodGet, "/api/coches/"+strconv.FormatInt(created.ID, 10), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `"1"`, rec.Header().Get("ETag"))

	var car dto.CarResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &car))
	assert.Equal(t, created, car)
}

func TestGetCar_NotFound(t *testing.T) {
	api := newTestAPI(t, "", nil, nil)

	rec := api.do(http.MethodGet, "/api/coches/999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "CAR_NOT_FOUND", errorCode(t, rec))
}

func TestGetCar_InvalidID(t *testing.T) {
	api := newTestAPI(t, "", nil, nil)

	for _, p := range []string{"/api/coches/abc", "/api/coches/0", "/api/coches/-4"} {
		rec := api.do(http.MethodGet, p, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code, p)
		assert.Equal(t, "INVALID_PARAMETER", errorCode(t, rec))
	}
}

func TestListCars(t *testing.T) {
	api := newTestAPI(t, "", nil, nil)

	rec := api.do(http.MethodGet, "/api/coches", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	api.create("Seat", 90)
	api.create("Audi", 150)

	rec = api.do(http.MethodGet, "/api/coches", nil)
	var cars []dto.CarResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cars))
	require.Len(t, cars, 2)
	assert.Equal(t, "Seat", cars[0].Marca)
	assert.Equal(t, "Audi", cars[1].Marca)
}

func TestUpdateCar_IDInBody(t *testing.T) {
	api := newTestAPI(t, "", nil, nil)
	created := api.create("Seat", 90)

	rec := api.do(http.MethodPut, "/api/coches", dto.CarRequest{ID: created.ID, Marca: "Seat", Potencia: 90, Encendido: true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var car dto.CarResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &car))
	assert.True(t, car.Encendido)
	assert.Equal(t, int64(2), car.Version)
	assert.Equal(t, `"2"`, rec.Header().Get("ETag"))
}

func TestUpdateCar_PathIDWins(t *testing.T) {
	api := newTestAPI(t, "", nil, nil)
	a := api.create("Seat", 90)
	b := api.create("Audi", 150)

	path := "/api/coches/" + strconv.FormatInt(b.ID, 10)
	rec := api.do(http.MethodPut, path, dto.CarRequest{ID: a.ID, Marca: "Audi", Potencia: 200})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var car dto.CarResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &car))
	assert.Equal(t, b.ID, car.ID)
	assert.Equal(t, 200, car.Potencia)

	rec = api.do(http.MethodGet, "/api/coches/"+strconv.FormatInt(a.ID, 10), nil)
	var untouched dto.CarResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &untouched))
	assert.Equal(t, 90, untouched.Potencia)
}

func TestUpdateCar_NotFound(t *testing.T) {
	api := newTestAPI(t, "", nil, nil)

	rec := api.do(http.MethodPut, "/api/coches/77", dto.CarRequest{Marca: "Seat"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "CAR_NOT_FOUND", errorCode(t, rec))
}

func TestUpdateCar_MissingID(t *testing.T) {
	api := newTestAPI(t, "", nil, nil)

	rec := api.do(http.MethodPut, "/api/coches", dto.CarRequest{Marca: "Seat"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, rec))
}

func TestUpdateCar_IfMatch(t *testing.T) {
	api := newTestAPI(t, "", nil, nil)
	created := api.create("Seat", 90)
	path := "/api/coches/" + strconv.FormatInt(created.ID, 10)

	rec := api.do(http.MethodPut, path, dto.CarRequest{Marca: "Seat", Potencia: 100}, "If-Match", `"1"`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPut, path, dto.CarRequest{Marca: "Seat", Potencia: 110}, "If-Match", `"1"`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "VERSION_CONFLICT", errorCode(t, rec))

	// versión en el body
	rec = api.do(http.MethodPut, path, dto.CarRequest{Marca: "Seat", Potencia: 110, Version: 1})
	require.Equal(t, http.StatusConflict, rec.Code)

	// sin versión: incondicional
	rec = api.do(http.MethodPut, path, dto.CarRequest{Marca: "Seat", Potencia: 120})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteCar(t *testing.T) {
	api := newTestAPI(t, "", nil, nil)
	created := api.create("Seat", 90)
	path := "/api/coches/" + strconv.FormatInt(created.ID, 10)

	rec := api.do(http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = api.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateCar_InvalidBodies(t *testing.T) {
	api := newTestAPI(t, "", nil, nil)

	rec := api.do(http.MethodPost, "/api/coches", `{"marca":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_JSON", errorCode(t, rec))

	rec = api.do(http.MethodPost, "/api/coches", `{"potencia":-1}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, rec))

	rec = api.do(http.MethodPost, "/api/coches", `{"marca":"Seat"}`, "Content-Type", "text/plain")
	require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestCreateCar_SequentialInvalidIDSet(t *testing.T) {
	api := newTestAPI(t, carsvc.StrategySequential, corruptIDs{memory.New()}, nil)

	rec := api.do(http.MethodPost, "/api/coches", dto.CarRequest{Marca: "Seat"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "INVALID_ID_SET", errorCode(t, rec))
}

func TestCreateCar_Sequential(t *testing.T) {
	repo := memory.New()
	_, err := repo.Save(context.Background(), &repository.Car{ID: 10, Marca: "x"})
	require.NoError(t, err)
	api := newTestAPI(t, carsvc.StrategySequential, repo, nil)

	assert.Equal(t, int64(11), api.create("Seat", 90).ID)
}

func TestRateLimit_WritesOnly(t *testing.T) {
	limiter := rate.NewMemoryLimiter(cache.NewMemory("", 0), "", 1, time.Minute)
	api := newTestAPI(t, "", nil, limiter)

	api.create("Seat", 90)
	rec := api.do(http.MethodPost, "/api/coches", dto.CarRequest{Marca: "Audi"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", errorCode(t, rec))

	rec = api.do(http.MethodGet, "/api/coches", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	api := newTestAPI(t, "", nil, nil)

	rec := api.do(http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ready"`)

	rec = api.do(http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ROUTE_NOT_FOUND", errorCode(t, rec))

	rec = api.do(http.MethodPatch, "/api/coches/1", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

type corruptIDs struct {
	repository.CarRepository
}

func (corruptIDs) IDs(context.Context) ([]int64, error) { return []int64{-1, 2, 3}, nil }

func TestRateLimit_ForwardedForDoesNotResetLimit(t *testing.T) {
	limiter := rate.NewMemoryLimiter(cache.NewMemory("", 0), "", 1, time.Minute)
	api := newTestAPI(t, "", nil, limiter)

	rec := api.do(http.MethodPost, "/api/coches", dto.CarRequest{Marca: "Seat"}, "X-Forwarded-For", "1.1.1.1")
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = api.do(http.MethodPost, "/api/coches", dto.CarRequest{Marca: "Audi"}, "X-Forwarded-For", "2.2.2.2")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

type downStore struct {
	repository.CarRepository
}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestReadyz_StoreDown(t *testing.T) {
	api := newTestAPI(t, "", downStore{memory.New()}, nil)

	rec := api.do(http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unavailable", body["status"])
	assert.NotContains(t, body, "code")
}
