// Package errtranslator turns driver specific errors into errors relate callers can match.
package errtranslator

import (
	"errors"
	"fmt"
)

// ErrDuplicatedKey a write violated a unique constraint
var ErrDuplicatedKey = errors.New("duplicated key not allowed")

// ErrTranslator translates the errors of one driver, errors it does not know are returned as is
type ErrTranslator interface {
	Translate(err error) error
}

// DuplicatedKeyError a unique constraint violation reported by the driver
type DuplicatedKeyError struct {
	Code    interface{}
	Message string
	Err     error
}

func (e *DuplicatedKeyError) Error() string {
	return fmt.Sprintf("duplicated key not allowed, code: %v, message: %s", e.Code, e.Message)
}

func (e *DuplicatedKeyError) Is(target error) bool {
	return target == ErrDuplicatedKey
}

func (e *DuplicatedKeyError) Unwrap() error {
	return e.Err
}
