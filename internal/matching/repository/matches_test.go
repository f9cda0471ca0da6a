package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"brokerage_backend/platform/apperr"
)

func TestInsertMatchErrorMapsRemovedRecordToConflict(t *testing.T) {
	fk := fmt.Errorf("batch: %w", &pgconn.PgError{Code: "23503", ConstraintName: "matches_property_id_fkey"})
	err := insertMatchError(fk)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))
}

func TestInsertMatchErrorKeepsOtherFailures(t *testing.T) {
	err := insertMatchError(errors.New("connection reset"))
	assert.False(t, apperr.Is(err, apperr.KindConflict))
	assert.EqualError(t, err, "insert match: connection reset")
}
