package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// isUniqueViolation checks if the error is a unique constraint violation
func isUniqueViolation(err error) bool {
	return hasCode(err, codeUniqueViolation, "duplicate key")
}

// isForeignKeyViolation checks if the error references a missing parent row
func isForeignKeyViolation(err error) bool {
	return hasCode(err, codeForeignKeyViolation, "violates foreign key")
}

func hasCode(err error, code, phrase string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}

	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, code) || strings.Contains(errMsg, phrase)
}
