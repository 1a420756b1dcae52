// Package router registra las rutas de la API sobre un chi.Router.
package router

import (
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/coches/internal/http/controllers"
	httperrors "github.com/dropDatabas3/coches/internal/http/errors"
	mw "github.com/dropDatabas3/coches/internal/http/middlewares"
	"github.com/dropDatabas3/coches/internal/rate"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Controllers *controllers.Controllers

	// MetricsMiddleware y MetricsHandler son opcionales.
	MetricsMiddleware mw.Middleware
	MetricsHandler    http.Handler

	// RateLimiter opcional; aplica sólo a POST/PUT/DELETE de /api/coches.
	RateLimiter rate.Limiter

	CORSOrigins []string

	// TrustedProxies: sólo detrás de estos peers se lee X-Forwarded-For para la key del rate limit.
	TrustedProxies []netip.Prefix
}

// New crea el handler raíz.
//
//	GET    /healthz, /readyz, /metrics
//	POST   /api/coches
//	GET    /api/coches
//	PUT    /api/coches
//	GET    /api/coches/{id}
//	PUT    /api/coches/{id}
//	DELETE /api/coches/{id}
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		mw.WithRequestID(),
		mw.WithLogging(),
		mw.WithRecover(),
	)
	if d.MetricsMiddleware != nil {
		r.Use(d.MetricsMiddleware)
	}
	r.Use(mw.WithCORS(d.CORSOrigins))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, req, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, req, httperrors.ErrMethodNotAllowed)
	})

	health := d.Controllers.Health.Health
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	cars := d.Controllers.Cars.Cars
	r.Route("/api/coches", func(r chi.Router) {
		r.Use(
			mw.WithNoStore(),
			mw.WithRateLimit(mw.RateLimitConfig{
				Limiter: d.RateLimiter,
				KeyFunc: mw.RateKeyFor(mw.ClientIP(d.TrustedProxies)),
				Methods: []string{http.MethodPost, http.MethodPut, http.MethodDelete},
			}),
		)

		r.Post("/", cars.Create)
		r.Get("/", cars.List)
		r.Put("/", cars.Update)
		r.Get("/{id}", cars.Get)
		r.Put("/{id}", cars.Update)
		r.Delete("/{id}", cars.Delete)
	})

	return r
}
