package errtranslator

import (
	"errors"

	"modernc.org/sqlite"
)

// extended result codes of unique and primary key violations
var sqliteErrCodes = map[string]int{
	"uniqueConstraint":     2067,
	"primaryKeyConstraint": 1555,
}

type SqliteErrTranslator struct{}

func (s SqliteErrTranslator) Translate(err error) error {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}

	switch sqliteErr.Code() {
	case sqliteErrCodes["uniqueConstraint"], sqliteErrCodes["primaryKeyConstraint"]:
		return &DuplicatedKeyError{Code: sqliteErr.Code(), Message: sqliteErr.Error(), Err: err}
	}
	return err
}
