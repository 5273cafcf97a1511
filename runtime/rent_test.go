package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRentMinimumBalance(t *testing.T) {
	rent := DefaultRent()

	// (dataLen + 128 bytes overhead) * 3480 lamports/byte-year * 2 years.
	require.Equal(t, uint64((0+128)*3480*2), rent.MinimumBalance(0))
	require.Equal(t, uint64((165+128)*3480*2), rent.MinimumBalance(165))

	require.True(t, rent.IsExempt(rent.MinimumBalance(64), 64))
	require.False(t, rent.IsExempt(rent.MinimumBalance(64)-1, 64))
}

func TestRentMinimumBalance_GrowsWithData(t *testing.T) {
	rent := DefaultRent()
	prev := rent.MinimumBalance(0)
	for _, n := range []int{1, 32, 1024, 1 << 20} {
		cur := rent.MinimumBalance(n)
		require.Greater(t, cur, prev)
		prev = cur
	}
}
