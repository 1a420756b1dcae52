package http

import (
	"context"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/coches/internal/cache"
	"github.com/dropDatabas3/coches/internal/http/middlewares"
)

// Metrics agrupa las métricas HTTP y de dominio sobre un registry propio.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inflight        *prometheus.GaugeVec

	// Dominio
	carsCreated      prometheus.Counter
	carsDeleted      prometheus.Counter
	versionConflicts prometheus.Counter
}

// NewMetrics crea y registra las métricas. Si cacheClient no es nil, expone sus estadísticas.
func NewMetrics(cacheClient cache.Client) (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		inflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo por método y ruta",
		}, []string{"method", "path"}),
		carsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cars_created_total",
			Help: "Coches creados",
		}),
		carsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cars_deleted_total",
			Help: "Coches eliminados",
		}),
		versionConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "car_version_conflicts_total",
			Help: "Updates rechazados por versión desactualizada",
		}),
	}

	cs := []prometheus.Collector{
		m.requestsTotal, m.requestDuration, m.inflight,
		m.carsCreated, m.carsDeleted, m.versionConflicts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	if cacheClient != nil {
		cs = append(cs, newCacheCollector(cacheClient))
	}
	for _, c := range cs {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler expone /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry retorna el registry (tests).
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) CarCreated() { m.carsCreated.Inc() }
func (m *Metrics) CarDeleted() { m.carsDeleted.Inc() }
func (m *Metrics) VersionConflict() { m.versionConflicts.Inc() }

// Middleware instrumenta requests HTTP (contadores, latencia, inflight).
// El label path usa el patrón de chi cuando la ruta matcheó.
func (m *Metrics) Middleware() middlewares.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			method := strings.ToUpper(r.Method)
			inflightPath := normalizePath(r.URL.Path)

			m.inflight.WithLabelValues(method, inflightPath).Inc()
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				m.inflight.WithLabelValues(method, inflightPath).Dec()

				pathLabel := inflightPath
				if rctx := chi.RouteContext(r.Context()); rctx != nil {
					if p := rctx.RoutePattern(); p != "" {
						pathLabel = p
					}
				}
				m.requestDuration.WithLabelValues(method, pathLabel).Observe(time.Since(start).Seconds())

				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				m.requestsTotal.WithLabelValues(method, pathLabel, strconv.Itoa(status)).Inc()
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// ─── Cache collector ───

type cacheCollector struct {
	client cache.Client

	keysDesc   *prometheus.Desc
	hitsDesc   *prometheus.Desc
	missesDesc *prometheus.Desc
}

func newCacheCollector(c cache.Client) *cacheCollector {
	return &cacheCollector{
		client:     c,
		keysDesc:   prometheus.NewDesc("cache_keys", "Keys en el cache", []string{"driver"}, nil),
		hitsDesc:   prometheus.NewDesc("cache_hits_total", "Hits del cache", []string{"driver"}, nil),
		missesDesc: prometheus.NewDesc("cache_misses_total", "Misses del cache", []string{"driver"}, nil),
	}
}

func (c *cacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keysDesc
	ch <- c.hitsDesc
	ch <- c.missesDesc
}

func (c *cacheCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	st, err := c.client.Stats(ctx)
	if err != nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.keysDesc, prometheus.GaugeValue, float64(st.Keys), st.Driver)
	ch <- prometheus.MustNewConstMetric(c.hitsDesc, prometheus.CounterValue, float64(st.Hits), st.Driver)
	ch <- prometheus.MustNewConstMetric(c.missesDesc, prometheus.CounterValue, float64(st.Misses), st.Driver)
}

// ─── Path normalization ───

var uuidSegmentRE = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F-]{4}-[0-9a-fA-F-]{4,}$`)

// normalizePath reemplaza segmentos dinámicos (números, UUIDs) por :param
// para acotar la cardinalidad de los labels.
func normalizePath(p string) string {
	clean := strings.SplitN(p, "?", 2)[0]
	var out []string
	for _, seg := range strings.Split(clean, "/") {
		if seg == "" {
			continue
		}
		if isDynamicSegment(seg) {
			out = append(out, ":param")
		} else {
			out = append(out, seg)
		}
	}
	if len(out) == 0 {
		return "/"
	}
	return "/" + strings.Join(out, "/")
}

func isDynamicSegment(seg string) bool {
	if len(seg) > 48 || uuidSegmentRE.MatchString(seg) {
		return true
	}
	_, err := strconv.ParseInt(seg, 10, 64)
	return err == nil
}
