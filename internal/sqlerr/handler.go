package sqlerr

import (
	"errors"

	"github.com/deppfellow/employees-api/internal/errs"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrCode reports the Code of the first Postgres error in err's chain.
// Errors that did not come from the server report Other.
func ErrCode(err error) Code {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return MapCode(pgErr.Code)
	}
	return Other
}

func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// HandleError converts an error that reached the HTTP boundary without being
// classified into an *errs.HTTPError. HTTP errors pass through. Anything else,
// constraint violations included, is a 500 that keeps err as its internal
// cause; a Postgres error is converted so the log carries its SQLSTATE.
func HandleError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		err = ConvertPgError(pgErr)
	}
	return errs.NewInternalServerError().WithInternal(err)
}
