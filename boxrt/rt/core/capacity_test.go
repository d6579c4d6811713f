package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextPowerOfTwo(t *testing.T) {
	cases := map[uint32]uint32{0: 1, 1: 1, 2: 2, 3: 4, 4: 4, 5: 8, 1000: 1024, 1024: 1024, 1025: 2048}
	for in, want := range cases {
		assert.Equal(t, want, NextPowerOfTwo(in), "n=%d", in)
	}
}

func TestInstanceSlotGrowthIsMonotonic(t *testing.T) {
	var s InstanceSlot
	counts := []uint32{0, 1, 1, 3, 3, 4, 5, 17, 17, 100, 1000, 1000, 4097}
	prev := uint32(0)
	for _, n := range counts {
		_, err := s.Reserve(n)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, s.Capacity, n)
		assert.GreaterOrEqual(t, s.Capacity, prev)
		assert.Equal(t, s.Capacity, NextPowerOfTwo(s.Capacity), "power of two")
		prev = s.Capacity
	}
	assert.Equal(t, uint32(8192), s.Capacity)
}

func TestInstanceSlotAllocatesOnlyOnGrowth(t *testing.T) {
	var s InstanceSlot
	grew, _ := s.Reserve(10)
	assert.True(t, grew)
	for i := 0; i < 50; i++ {
		grew, _ = s.Reserve(uint32(i % 16))
		assert.False(t, grew)
	}
	assert.Equal(t, 1, s.Grows)

	// Shrinking counts keep the capacity.
	_, _ = s.Reserve(2)
	assert.Equal(t, uint32(16), s.Capacity)
	assert.Equal(t, uint32(2), s.Count)
}

func TestInstanceSlotLimit(t *testing.T) {
	s := InstanceSlot{Limit: 100}
	_, err := s.Reserve(70)
	require.NoError(t, err)
	assert.Equal(t, uint32(100), s.Capacity)

	_, err = s.Reserve(101)
	assert.ErrorIs(t, err, ErrBufferGrowth)
	assert.True(t, IsFatal(err))
}
