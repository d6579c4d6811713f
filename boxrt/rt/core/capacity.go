package core

import (
	"fmt"
	"math/bits"
)

// NextPowerOfTwo returns the smallest power of two >= n (1 for n == 0).
func NextPowerOfTwo(n uint32) uint32 {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len32(n-1)
}

// InstanceSlot tracks capacity and count of one shape kind's instance
// buffer. Capacity never shrinks during a run.
type InstanceSlot struct {
	Capacity uint32
	Count    uint32
	// Limit caps capacity, 0 means unbounded.
	Limit uint32
	// Grows counts reallocations.
	Grows int
}

// Reserve records count for this frame. It reports whether the backing
// buffer must be reallocated at the new Capacity.
func (s *InstanceSlot) Reserve(count uint32) (bool, error) {
	if s.Limit > 0 && count > s.Limit {
		return false, fmt.Errorf("%d instances exceed limit %d: %w", count, s.Limit, ErrBufferGrowth)
	}
	s.Count = count
	if count <= s.Capacity && s.Capacity > 0 {
		return false, nil
	}
	next := NextPowerOfTwo(count)
	if s.Limit > 0 && next > s.Limit {
		next = s.Limit
	}
	s.Capacity = next
	s.Grows++
	return true, nil
}
