package helpers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/dropDatabas3/coches/internal/http/errors"
)

// PathID parsea el parámetro {name} de la ruta como ID positivo.
func PathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, httperrors.ErrInvalidParameter.WithDetail(name + " must be a positive integer")
	}
	return id, nil
}

// VersionETag ETag fuerte a partir de la versión: "3".
func VersionETag(version int64) string {
	return `"` + strconv.FormatInt(version, 10) + `"`
}

// IfMatchVersion parsea If-Match como versión esperada.
// Sin header o "*" → (0, false): update incondicional.
// Acepta ETags débiles (W/"3").
func IfMatchVersion(r *http.Request) (int64, bool, error) {
	v := strings.TrimSpace(r.Header.Get("If-Match"))
	if v == "" || v == "*" {
		return 0, false, nil
	}
	v = strings.TrimPrefix(v, "W/")
	v = strings.Trim(v, `"`)
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, false, httperrors.ErrBadRequest.WithDetail("If-Match must be a quoted version number")
	}
	return n, true, nil
}
