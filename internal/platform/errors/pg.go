package errors

import (
	stderrs "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// sqlStates maps the SQLSTATEs the config tables can raise. Anything else is ErrorCodeDB
var sqlStates = map[string]ErrorCode{
	"23505": ErrorCodeDuplicateKey,    // unique name on detection_configs / subscription_configs
	"23503": ErrorCodeInvalidArgument, // foreign key
	"23502": ErrorCodeValidation,      // not null
	"23514": ErrorCodeValidation,      // check
	"22001": ErrorCodeInvalidArgument, // value too long
	"22P02": ErrorCodeInvalidArgument, // bad text representation
	"25006": ErrorCodeUnavailable,     // read only transaction
	"57P03": ErrorCodeUnavailable,     // cannot connect now
}

// PgError returns the *pgconn.PgError anywhere in err's chain
func PgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	ok := stderrs.As(err, &pgErr)
	return pgErr, ok
}

// SQLStateCode classifies a Postgres error. ok is false when err carries no PgError
func SQLStateCode(err error) (ErrorCode, bool) {
	pgErr, ok := PgError(err)
	if !ok {
		return ErrorCodeDB, false
	}
	if code, known := sqlStates[pgErr.Code]; known {
		return code, true
	}
	return ErrorCodeDB, true
}

// FromPostgresf wraps err with the code its SQLSTATE maps to and a formatted message.
// A nil err stays nil
func FromPostgresf(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	code, _ := SQLStateCode(err)
	return Wrap(err, code, fmt.Sprintf(format, a...))
}
