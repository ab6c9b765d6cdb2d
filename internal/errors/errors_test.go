package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type customError struct {
	Msg string
}

func (e customError) Error() string { return e.Msg }

func TestNew(t *testing.T) {
	err := New("test error")
	require.Error(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestWrap(t *testing.T) {
	t.Run("Success_WrapsNonNilError", func(t *testing.T) {
		wrapped := Wrap(ErrNotFound, "client not found")
		require.Error(t, wrapped)
		assert.Equal(t, "client not found: not found", wrapped.Error())
		assert.True(t, errors.Is(wrapped, ErrNotFound))
	})

	t.Run("Success_NilStaysNil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, "wrapped"))
	})
}

func TestWrapf(t *testing.T) {
	t.Run("Success_FormatsMessage", func(t *testing.T) {
		wrapped := Wrapf(ErrInvalidInput, "field %s", "scope")
		require.Error(t, wrapped)
		assert.Equal(t, "field scope: invalid input", wrapped.Error())
		assert.True(t, Is(wrapped, ErrInvalidInput))
	})

	t.Run("Success_NilStaysNil", func(t *testing.T) {
		assert.NoError(t, Wrapf(nil, "wrapped %d", 1))
	})
}

func TestIs(t *testing.T) {
	wrapped := Wrap(Wrap(ErrUnauthorized, "inner"), "outer")
	assert.True(t, Is(wrapped, ErrUnauthorized))
	assert.False(t, Is(wrapped, ErrForbidden))
}

func TestAs(t *testing.T) {
	wrapped := Wrap(customError{Msg: "boom"}, "context")

	var target customError
	require.True(t, As(wrapped, &target))
	assert.Equal(t, "boom", target.Msg)
}
