package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	t.Run("wraps error with context", func(t *testing.T) {
		err := Wrap(ErrNotFound, "recurrence definition lookup")

		assert.Error(t, err)
		assert.Equal(t, "recurrence definition lookup: not found", err.Error())
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("returns nil for nil error", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, "context"))
	})

	t.Run("preserves chain across multiple wraps", func(t *testing.T) {
		err := Wrap(Wrap(ErrConflict, "occurrence already recorded"), "materialize order")

		assert.True(t, errors.Is(err, ErrConflict))
	})
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("outer: %w", ErrInvalidInput)

	assert.True(t, Is(err, ErrInvalidInput))
	assert.False(t, Is(err, ErrNotFound))
	assert.False(t, Is(nil, ErrNotFound))
}

func TestAs(t *testing.T) {
	type customError struct{ error }

	inner := &customError{error: errors.New("custom")}
	err := fmt.Errorf("outer: %w", inner)

	var target *customError
	assert.True(t, As(err, &target))
	assert.Equal(t, inner, target)
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrConflict, ErrInvalidInput,
		ErrUnauthorized, ErrForbidden, ErrUnavailable,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b))
		}
	}
}
