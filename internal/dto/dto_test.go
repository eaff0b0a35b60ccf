package dto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPaginationMeta(t *testing.T) {
	require.Equal(t, PaginationMeta{Page: 1, Limit: 20, Total: 0, TotalPages: 0}, NewPaginationMeta(1, 20, 0))
	require.Equal(t, 3, NewPaginationMeta(1, 20, 41).TotalPages)
	require.Equal(t, 2, NewPaginationMeta(2, 20, 40).TotalPages)
}
