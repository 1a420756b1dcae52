package cars

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func routeID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
