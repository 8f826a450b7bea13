package errtranslator

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var postgresErrCodes = map[string]string{
	"uniqueConstraint": "23505",
}

type PostgresErrTranslator struct{}

func (p PostgresErrTranslator) Translate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	if pgErr.Code == postgresErrCodes["uniqueConstraint"] {
		return &DuplicatedKeyError{Code: pgErr.Code, Message: pgErr.Message, Err: err}
	}
	return err
}
