package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/coches/internal/config"
	_ "github.com/dropDatabas3/coches/internal/store/adapters/all"
)

func loadConfig(t *testing.T, mutate func(c *config.Config)) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNew_MemoryStoreWithCacheAndRate(t *testing.T) {
	cfg := loadConfig(t, func(c *config.Config) {
		c.Cache.Kind = "memory"
		c.Rate.Enabled = true
		c.Rate.MaxRequests = 2
	})

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "memory", a.Store.Driver)

	rec := serve(a.Handler, http.MethodPost, "/api/coches", `{"marca":"Seat","potencia":90}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = serve(a.Handler, http.MethodGet, "/api/coches/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	serve(a.Handler, http.MethodPost, "/api/coches", `{"marca":"Audi"}`)
	rec = serve(a.Handler, http.MethodPost, "/api/coches", `{"marca":"BMW"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = serve(a.Handler, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cars_created_total 2")
	assert.Contains(t, rec.Body.String(), "cache_keys")

	rec = serve(a.Handler, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ready"`)
}

func TestNew_SQLiteMigrated(t *testing.T) {
	cfg := loadConfig(t, func(c *config.Config) {
		c.Storage.Driver = "sqlite"
		c.Storage.DSN = ":memory:"
		c.Flags.Migrate = true
		c.IDs.Strategy = "sequential"
	})

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	rec := serve(a.Handler, http.MethodPost, "/api/coches", `{"marca":"Seat"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"id":1`)
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := loadConfig(t, nil)
	cfg.Storage.Driver = "oracle"

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
}
