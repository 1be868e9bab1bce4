package server

import (
	"net/http"

	"github.com/maherrera/church-records/internal/routing"
	"github.com/maherrera/church-records/pkg/httperr"
)

// writeServiceError maps service errors onto the wire. Denials and
// missing records share one answer so a caller cannot probe which
// records exist outside its scope.
func writeServiceError(w http.ResponseWriter, r *http.Request, rc routing.RouteClass, err error) {
	switch {
	case httperr.IsBadRequest(err):
		routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_request", err.Error())
	case httperr.IsNotFound(err), httperr.IsUnauthorized(err):
		routing.WriteError(w, r, rc, http.StatusNotFound, "not_found", "record not found or not accessible")
	case isPgInvalidInput(err):
		routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_request", "invalid input")
	case isPgUniqueViolation(err):
		routing.WriteError(w, r, rc, http.StatusConflict, "conflict", "record already exists")
	case isPgForeignKeyViolation(err):
		routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_request", "invalid reference")
	default:
		routing.WriteError(w, r, rc, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
