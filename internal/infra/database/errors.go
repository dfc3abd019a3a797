package database

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/xavierca1/homni-leads/internal/entity"
)

const (
	pgUniqueViolation       = "23505"
	pgInvalidTextRepr       = "22P02"
	pgInsufficientPrivilege = "42501"
	pgInvalidAuthorization  = "28000"
	pgInvalidPassword       = "28P01"
	postgrestJWTExpired     = "PGRST301"
)

// mapError turns driver errors into the entity sentinels callers match on.
// The original error stays wrapped.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return entity.ErrLeadNotFound
	}

	switch sqlState(err) {
	case pgUniqueViolation:
		return errors.Join(entity.ErrDuplicateLead, err)
	case pgInvalidTextRepr:
		// A malformed lead id matches no row.
		return errors.Join(entity.ErrLeadNotFound, err)
	case pgInsufficientPrivilege:
		return errors.Join(entity.ErrPermissionDenied, err)
	case pgInvalidAuthorization, pgInvalidPassword, postgrestJWTExpired:
		return errors.Join(entity.ErrSessionExpired, err)
	}
	return err
}

// sqlState reads the error code from either driver. Queries run on pgx,
// migrations on lib/pq.
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
