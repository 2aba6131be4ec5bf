package dbfactory

import (
	"github.com/stretchr/testify/require"
	"testing"
)

func TestDefaultLimiter(t *testing.T) {
	require.False(t, defaultLimiter.LimitReached(1000000))
}

func TestMaxRows(t *testing.T) {
	require.False(t, MaxRows(0).LimitReached(1000000))
	require.False(t, MaxRows(-1).LimitReached(5))
	require.False(t, MaxRows(2).LimitReached(1))
	require.False(t, MaxRows(2).LimitReached(2))
	require.True(t, MaxRows(2).LimitReached(3))
}

type testLimiter struct {
	limit int
}

func (n *testLimiter) LimitReached(rowCount int) bool {
	return rowCount > n.limit
}
