// Package percent converts a percentage of a prize pool into an integer
// payout.
package percent

import (
	"errors"
	"math/bits"
)

var ErrOverflow = errors.New("percent: arithmetic overflow")

// Share returns percent of base. The remainder is rounded up whenever
// base*10/remainder exceeds 4, which is not standard rounding. It fails
// only when percent*base does not fit in 64 bits.
func Share(percent uint8, base uint64) (uint64, error) {
	hi, product := bits.Mul64(uint64(percent), base)
	if hi != 0 {
		return 0, ErrOverflow
	}

	quotient := product / 100
	remainder := product % 100
	if remainder == 0 {
		return quotient, nil
	}

	// base*10/remainder > 4 holds exactly when 2*base >= remainder, which
	// cannot overflow once base reaches 50 since remainder < 100.
	if base >= 50 || 2*base >= remainder {
		quotient++
	}

	return quotient, nil
}

// Sum adds a and b, failing instead of wrapping.
func Sum(a, b uint64) (uint64, error) {
	total, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return total, nil
}
