package paging

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPageNavigation(t *testing.T) {
	p := New([]int{1, 2}, 2, 10, 25)

	require.Equal(t, 3, p.Pages())
	require.True(t, p.HasPrev())
	require.True(t, p.HasNext())
	require.Equal(t, 1, p.PrevNum())
	require.Equal(t, 3, p.NextNum())

	last := New([]int{}, 3, 10, 25)
	require.False(t, last.HasNext())
}

func TestNormalize(t *testing.T) {
	page, perPage := Normalize(0, 0)
	require.Equal(t, 1, page)
	require.Equal(t, 10, perPage)
	require.Equal(t, 24, Offset(3, 12))
	require.Equal(t, 0, New[int](nil, 1, 12, 0).Pages())
}
