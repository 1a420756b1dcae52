package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/coches/internal/http/controllers"
	"github.com/dropDatabas3/coches/internal/http/router"
	"github.com/dropDatabas3/coches/internal/http/services"
	carsvc "github.com/dropDatabas3/coches/internal/http/services/cars"
	"github.com/dropDatabas3/coches/internal/store/adapters/memory"
)

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	repo := memory.New()
	svcs := services.New(services.Deps{Cars: carsvc.Deps{Repo: repo}})
	srv := httptest.NewServer(router.New(router.Deps{Controllers: controllers.New(svcs)}))
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(append([]string{"--api-url", srv.URL}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCLI_CRUD(t *testing.T) {
	srv := newAPI(t)

	out, err := run(t, srv, "create", "--marca", "Seat", "--potencia", "90")
	require.NoError(t, err)
	assert.Contains(t, out, "1\tSeat\tpotencia=90")

	out, err = run(t, srv, "get", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "version=1")

	out, err = run(t, srv, "update", "1", "--marca", "Seat", "--potencia", "100", "--encendido", "--if-match", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "encendido=true\tversion=2")

	_, err = run(t, srv, "update", "1", "--marca", "Seat", "--if-match", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VERSION_CONFLICT")

	out, err = run(t, srv, "--out", "json", "list")
	require.NoError(t, err)
	assert.Contains(t, out, `"marca": "Seat"`)

	out, err = run(t, srv, "delete", "1")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)

	_, err = run(t, srv, "get", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CAR_NOT_FOUND")
}

func TestCLI_InvalidArgs(t *testing.T) {
	srv := newAPI(t)

	_, err := run(t, srv, "get", "abc")
	require.Error(t, err)

	_, err = run(t, srv, "create")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--marca")

	_, err = run(t, srv, "--out", "yaml", "list")
	require.Error(t, err)
}

func TestCheck(t *testing.T) {
	assert.NoError(t, check("x", http.StatusOK, nil))
	err := check("x", http.StatusNotFound, []byte(`{"code":"CAR_NOT_FOUND","message":"car not found"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=404")
	assert.Contains(t, err.Error(), "CAR_NOT_FOUND")

	err = check("x", http.StatusBadGateway, []byte("bad gateway"))
	assert.Contains(t, err.Error(), "bad gateway")
}
