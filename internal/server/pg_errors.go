package server

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if ok := errors.As(err, &pgErr); ok && pgErr != nil {
		return strings.TrimSpace(pgErr.Code)
	}
	return ""
}

func isPgUniqueViolation(err error) bool {
	return pgErrorCode(err) == "23505"
}

func isPgForeignKeyViolation(err error) bool {
	return pgErrorCode(err) == "23503"
}

func isPgInvalidInput(err error) bool {
	switch pgErrorCode(err) {
	case "22P02", "22003", "22007", "22008":
		return true
	default:
		return false
	}
}
