// Package health contiene el service para health checks.
package health

import (
	"context"
	"fmt"
	"time"

	dto "github.com/dropDatabas3/coches/internal/http/dto/health"
	"github.com/dropDatabas3/coches/internal/observability/logger"
)

// HealthService define las operaciones de health check.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

// Deps contiene las dependencias inyectables para el health service.
type Deps struct {
	StoreCheck func(ctx context.Context) error // crítico
	CacheCheck func(ctx context.Context) error // nil = sin cache
	Driver     string
	IDStrategy string
	Version    string
	Timeout    time.Duration
}

type healthService struct {
	deps Deps
}

// NewHealthService crea un nuevo service de health check.
func NewHealthService(deps Deps) HealthService {
	if deps.Timeout <= 0 {
		deps.Timeout = 2 * time.Second
	}
	return &healthService{deps: deps}
}

const componentHealth = "health"

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(componentHealth),
		logger.Op("Check"),
	)

	response := dto.HealthResponse{
		Components: make(map[string]dto.HealthStatus),
		Version:    s.deps.Version,
		Driver:     s.deps.Driver,
		IDStrategy: s.deps.IDStrategy,
		Timestamp:  time.Now().UTC(),
	}

	hasErrors := false
	hasCriticalErrors := false

	// 1) Store (crítico)
	if s.deps.StoreCheck == nil {
		response.Components["store"] = dto.HealthStatus{Status: "error", Message: "store not initialized"}
		hasCriticalErrors = true
	} else if err := s.probe(ctx, s.deps.StoreCheck); err != nil {
		response.Components["store"] = dto.HealthStatus{Status: "error", Message: fmt.Sprintf("unavailable: %v", err)}
		hasCriticalErrors = true
		log.Error("store unavailable", logger.Err(err))
	} else {
		response.Components["store"] = dto.HealthStatus{Status: "ok"}
	}

	// 2) Cache (no crítico)
	if s.deps.CacheCheck == nil {
		response.Components["cache"] = dto.HealthStatus{Status: "disabled"}
	} else if err := s.probe(ctx, s.deps.CacheCheck); err != nil {
		response.Components["cache"] = dto.HealthStatus{Status: "error", Message: fmt.Sprintf("unavailable: %v", err)}
		hasErrors = true
		log.Warn("cache unavailable", logger.Err(err))
	} else {
		response.Components["cache"] = dto.HealthStatus{Status: "ok"}
	}

	switch {
	case hasCriticalErrors:
		response.Status = "unavailable"
	case hasErrors:
		response.Status = "degraded"
	default:
		response.Status = "ready"
	}
	return response
}

func (s *healthService) probe(ctx context.Context, check func(context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
	defer cancel()
	return check(cctx)
}
