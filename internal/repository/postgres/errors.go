package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/emrahgewer/yorumatorapp/pkg/errors"
)

func notFound(resource, id, code string) error {
	return apperrors.NotFound(resource, id).WithCode(code)
}

// isNoRows reports whether a single-row query found nothing.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
