package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSentinelMatchesByKind(t *testing.T) {
	err := New(Conflict, "product.in_orders", 3)

	require.ErrorIs(t, err, ErrConflict)
	require.NotErrorIs(t, err, ErrNotFound)

	wrapped := fmt.Errorf("delete product: %w", err)
	require.ErrorIs(t, wrapped, ErrConflict)
	require.Equal(t, Conflict, KindOf(wrapped))
}

func TestKindOfPlainError(t *testing.T) {
	require.Equal(t, Internal, KindOf(errors.New("boom")))

	e := As(errors.New("boom"))
	require.Equal(t, Internal, e.Kind)
	require.Equal(t, "error.generic", e.Key)
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("driver: bad connection")
	err := Wrap(Internal, cause, "error.generic")

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "bad connection")
}
