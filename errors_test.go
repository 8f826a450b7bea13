package relate_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relate-orm/relate"
)

func TestNotFoundError(t *testing.T) {
	err := &relate.NotFoundError{Model: "user"}
	assert.Equal(t, "user not found", err.Error())
	assert.True(t, errors.Is(err, relate.ErrRecordNotFound))

	err = &relate.NotFoundError{Model: "pet", Keys: []interface{}{int64(3), "rex"}}
	assert.Equal(t, "pet (3, rex) not found", err.Error())

	var notFound *relate.NotFoundError
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &notFound))
	assert.Equal(t, "pet", notFound.Model)
}

func TestInvalidOperationErrors(t *testing.T) {
	for _, err := range []error{relate.ErrReadOnly, relate.ErrNotLoaded, relate.ErrPolymorphicCountCache} {
		assert.True(t, errors.Is(err, relate.ErrInvalidOperation), err.Error())
	}
	assert.False(t, errors.Is(relate.ErrRecordNotFound, relate.ErrInvalidOperation))
}
