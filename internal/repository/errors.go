package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/domain"
)

const (
	pgExclusionViolation = "23P01"
	pgUniqueViolation    = "23505"
)

// translateError turns store-level constraint violations into Conflict errors and returns
// every other error unchanged.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgExclusionViolation:
		return domain.NewConflictError("room is already booked for an overlapping period").
			WithDetail("constraint", pgErr.ConstraintName)
	case pgUniqueViolation:
		return domain.NewConflictError("record already exists").
			WithDetail("constraint", pgErr.ConstraintName)
	default:
		return err
	}
}
