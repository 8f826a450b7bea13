package relate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/relate-orm/relate/errtranslator"
	"github.com/relate-orm/relate/logger"
	"github.com/relate-orm/relate/utils"
)

var (
	// ErrRecordNotFound record not found error
	ErrRecordNotFound = logger.ErrRecordNotFound
	// ErrInvalidOperation programmer errors: writes to read only results, queries on unsaved models, invalid association config
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrReadOnly collections can not be written by index
	ErrReadOnly = fmt.Errorf("%w: results are read-only", ErrInvalidOperation)
	// ErrNotLoaded the model has not been loaded from or saved to the database
	ErrNotLoaded = fmt.Errorf("%w: model not loaded", ErrInvalidOperation)
	// ErrPolymorphicCountCache count cache on a polymorphic association
	ErrPolymorphicCountCache = fmt.Errorf("%w: cannot use count cache on polymorphic associations", ErrInvalidOperation)
	// ErrModelNotRegistered model not registered
	ErrModelNotRegistered = errors.New("model not registered")
	// ErrRegistered model registered twice
	ErrRegistered = errors.New("registered")
	// ErrUnknownAssociation association not found on model
	ErrUnknownAssociation = errors.New("unknown association")
	// ErrUnsupportedAssociation association kind without a registered constructor
	ErrUnsupportedAssociation = errors.New("unsupported association")
	// ErrMissingWhereClause missing where clause
	ErrMissingWhereClause = errors.New("WHERE conditions required")
	// ErrInvalidField invalid field
	ErrInvalidField = errors.New("invalid field")
	// ErrInvalidData unsupported data
	ErrInvalidData = errors.New("unsupported data")
	// ErrDuplicatedKey a write violated a unique constraint
	ErrDuplicatedKey = errtranslator.ErrDuplicatedKey
	// ErrInvalidTransaction invalid transaction when you are trying to `Commit` or `Rollback`
	ErrInvalidTransaction = errors.New("no valid transaction")
)

// NotFoundError a lookup found no row of Model, Keys lists the missing keys if any
type NotFoundError struct {
	Model string
	Keys  []interface{}
}

func (e *NotFoundError) Error() string {
	if len(e.Keys) == 0 {
		return e.Model + " not found"
	}

	keys := make([]string, len(e.Keys))
	for idx, key := range e.Keys {
		keys[idx] = utils.ToStringKey(key)
	}
	return fmt.Sprintf("%s (%s) not found", e.Model, strings.Join(keys, ", "))
}

// Is makes errors.Is(err, ErrRecordNotFound) true
func (e *NotFoundError) Is(target error) bool {
	return target == ErrRecordNotFound
}
