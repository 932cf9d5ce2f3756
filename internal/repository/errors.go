package repository

import (
	"errors"

	"entgo.io/ent/dialect/sql/sqlgraph"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrUniqueViolation is returned when an insert collides with a unique
// constraint. Callers retry or report a conflict.
var ErrUniqueViolation = errors.New("unique constraint violation")

// isUniqueViolation recognizes Postgres (23505) and SQLite unique errors.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return sqlgraph.IsUniqueConstraintError(err)
}
