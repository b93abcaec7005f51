package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emrahgewer/yorumatorapp/pkg/database"
	apperrors "github.com/emrahgewer/yorumatorapp/pkg/errors"
)

var (
	testTime = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	txOpts   = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func pgError(code, constraint string) error {
	return &pgconn.PgError{Code: code, ConstraintName: constraint}
}

func floatPtr(f float64) *float64 { return &f }

func strPtr(s string) *string { return &s }

// assertAppError checks the sentinel and stable code of an AppError.
func assertAppError(t *testing.T, err error, sentinel error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T", err)
	assert.Equal(t, code, appErr.Code)
}
