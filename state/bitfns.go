package state

import (
	"fmt"

	"github.com/pkg/errors"
)

// PickBit returns the spin at site idx of num.
func PickBit(num uint64, length, idx int) (uint64, error) {
	if idx < 0 || idx >= length {
		return 0, errors.Wrap(ErrInvalidBitIndex, fmt.Sprintf("%d %d", length, idx))
	}
	return (num >> idx) & 1, nil
}

// BitFlip flips the spins at sites i and j.
func BitFlip(num uint64, length, i, j int) (uint64, error) {
	if i < 0 || j < 0 || i >= length || j >= length || i == j {
		return 0, errors.Wrap(ErrInvalidBitIndex, fmt.Sprintf("%d %d %d", length, i, j))
	}
	return BitFlipUnsafe(num, i, j), nil
}

// BitFlipUnsafe is BitFlip without bounds checks.
func BitFlipUnsafe(num uint64, i, j int) uint64 {
	return num ^ (1<<i | 1<<j)
}

// SumBit counts the set bits of num.
func SumBit(num uint64) int {
	count := 0
	for ; num > 0; num >>= 1 {
		count += int(num & 1)
	}
	return count
}

// CyclicMove rotates num right by one site, moving site 0 to site length-1.
func CyclicMove(num uint64, length int) (uint64, error) {
	if err := checkFits(num, length); err != nil {
		return 0, errors.Wrap(err, "")
	}
	return CyclicMoveUnsafe(num, length), nil
}

func CyclicMoveUnsafe(num uint64, length int) uint64 {
	return num>>1 | (num&1)<<(length-1)
}

// Period returns the number of cyclic moves that bring num back to itself.
func Period(num uint64, length int) (int, error) {
	if err := checkFits(num, length); err != nil {
		return -1, errors.Wrap(err, "")
	}
	return PeriodUnsafe(num, length), nil
}

func PeriodUnsafe(num uint64, length int) int {
	count := 0
	for temp := num; ; {
		temp = CyclicMoveUnsafe(temp, length)
		count++
		if temp == num {
			return count
		}
	}
}

// IsRep reports whether num is the smallest integer of its orbit.
func IsRep(num uint64, length int) (bool, error) {
	if err := checkFits(num, length); err != nil {
		return false, errors.Wrap(err, "")
	}
	return IsRepUnsafe(num, length), nil
}

func IsRepUnsafe(num uint64, length int) bool {
	for temp := CyclicMoveUnsafe(num, length); temp != num; temp = CyclicMoveUnsafe(temp, length) {
		if temp < num {
			return false
		}
	}
	return true
}

func checkFits(num uint64, length int) error {
	if length < 1 || length > MaxLength {
		return errors.Wrap(ErrOverFlow, fmt.Sprintf("length %d", length))
	}
	if num >= 1<<length {
		return errors.Wrap(ErrOverFlow, fmt.Sprintf("%d %d", num, length))
	}
	return nil
}
