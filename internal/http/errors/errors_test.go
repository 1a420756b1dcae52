package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDetail_DoesNotMutateBase(t *testing.T) {
	e := ErrValidation.WithDetail("marca: required")
	assert.Equal(t, "marca: required", e.Detail)
	assert.Empty(t, ErrValidation.Detail)
	assert.True(t, errors.Is(e, ErrValidation))
}

func TestFromError(t *testing.T) {
	wrapped := fmt.Errorf("ctx: %w", ErrCarNotFound)
	assert.Equal(t, "CAR_NOT_FOUND", FromError(wrapped).Code)

	cause := errors.New("boom")
	internal := FromError(cause)
	assert.Equal(t, http.StatusInternalServerError, internal.HTTPStatus)
	assert.ErrorIs(t, internal, cause)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.Header().Set("X-Request-ID", "rid-1")
	req := httptest.NewRequest(http.MethodGet, "/api/coches/9", nil)

	WriteError(rec, req, ErrVersionConflict.WithDetail("stored version is 3"))

	require.Equal(t, http.StatusConflict, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "VERSION_CONFLICT", body["code"])
	assert.Equal(t, "stored version is 3", body["detail"])
	assert.Equal(t, "rid-1", body["request_id"])
}

func TestWriteError_HidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteError(rec, req, errors.New("pg: connection refused"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}
