package state

import (
	"fmt"
	"iter"

	"github.com/pkg/errors"
)

// Site is a lattice site together with its spin.
type Site struct {
	Index int
	Bit   uint64
}

// The functions below assume num fits in length sites.
// Use the BitState methods for checked construction.

// Bits yields the spin at every site, site 0 first.
func Bits(num uint64, length int) iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for i := 0; i < length; i++ {
			if !yield(num & 1) {
				return
			}
			num >>= 1
		}
	}
}

// Pairs yields the spins of adjacent sites (i, i+1) with open boundaries.
func Pairs(num uint64, length int) iter.Seq2[uint64, uint64] {
	return func(yield func(uint64, uint64) bool) {
		prev := num & 1
		num >>= 1
		for i := 0; i < length-1; i++ {
			cur := num & 1
			if !yield(prev, cur) {
				return
			}
			prev = cur
			num >>= 1
		}
	}
}

// PeriodicPairs yields the spins of adjacent sites, wrapping the last site onto site 0.
func PeriodicPairs(num uint64, length int) iter.Seq2[uint64, uint64] {
	return PeriodicDistancedPairs(num, length, 1)
}

// PeriodicPairsEnumerate is PeriodicPairs with the site indices.
func PeriodicPairsEnumerate(num uint64, length int) iter.Seq2[Site, Site] {
	return PeriodicDistancedPairsEnumerate(num, length, 1)
}

// PeriodicDistancedPairs yields the spins of sites i and (i+dist) mod length for every i.
func PeriodicDistancedPairs(num uint64, length, dist int) iter.Seq2[uint64, uint64] {
	return func(yield func(uint64, uint64) bool) {
		other := rotate(num, length, dist)
		for i := 0; i < length; i++ {
			if !yield(num&1, other&1) {
				return
			}
			num >>= 1
			other >>= 1
		}
	}
}

// PeriodicDistancedPairsEnumerate is PeriodicDistancedPairs with the site indices.
func PeriodicDistancedPairsEnumerate(num uint64, length, dist int) iter.Seq2[Site, Site] {
	return func(yield func(Site, Site) bool) {
		other := rotate(num, length, dist)
		for i := 0; i < length; i++ {
			a := Site{Index: i, Bit: num & 1}
			b := Site{Index: (i + dist) % length, Bit: other & 1}
			if !yield(a, b) {
				return
			}
			num >>= 1
			other >>= 1
		}
	}
}

// Cycle yields the orbit of num under CyclicMove, starting from num itself.
func Cycle(num uint64, length int) iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		temp := num
		for i := 0; i < length; i++ {
			if !yield(temp) {
				return
			}
			temp = CyclicMoveUnsafe(temp, length)
			if temp == num {
				return
			}
		}
	}
}

// Commensurate yields every momentum index k in [0, length) with k*period divisible by length.
func Commensurate(period, length int) iter.Seq[int] {
	return func(yield func(int) bool) {
		for k := 0; k < length; k++ {
			if k*period%length != 0 {
				continue
			}
			if !yield(k) {
				return
			}
		}
	}
}

// rotate moves num right by dist sites, dist being taken modulo length.
func rotate(num uint64, length, dist int) uint64 {
	dist %= length
	if dist == 0 {
		return num
	}
	low := num & (1<<dist - 1)
	return num>>dist | low<<(length-dist)
}

// BitState is a spin configuration of a periodic chain, site i being bit i of Rep.
type BitState struct {
	Rep    uint64
	Length int
}

// New returns the state rep of a chain with length sites.
func New(rep uint64, length int) (BitState, error) {
	if err := checkFits(rep, length); err != nil {
		return BitState{}, errors.Wrap(err, "")
	}
	return BitState{Rep: rep, Length: length}, nil
}

func (s BitState) String() string {
	return fmt.Sprintf("%0*b", s.Length, s.Rep)
}

func (s BitState) PickBit(idx int) (uint64, error) { return PickBit(s.Rep, s.Length, idx) }

func (s BitState) BitFlip(i, j int) (BitState, error) {
	rep, err := BitFlip(s.Rep, s.Length, i, j)
	if err != nil {
		return BitState{}, errors.Wrap(err, "")
	}
	return BitState{Rep: rep, Length: s.Length}, nil
}

func (s BitState) SumBit() int { return SumBit(s.Rep) }

func (s BitState) CyclicMove() BitState {
	return BitState{Rep: CyclicMoveUnsafe(s.Rep, s.Length), Length: s.Length}
}

func (s BitState) Period() int { return PeriodUnsafe(s.Rep, s.Length) }

func (s BitState) IsRep() bool { return IsRepUnsafe(s.Rep, s.Length) }

func (s BitState) Bits() iter.Seq[uint64] { return Bits(s.Rep, s.Length) }

func (s BitState) Pairs() iter.Seq2[uint64, uint64] { return Pairs(s.Rep, s.Length) }

func (s BitState) PeriodicPairs() iter.Seq2[uint64, uint64] { return PeriodicPairs(s.Rep, s.Length) }

func (s BitState) PeriodicPairsEnumerate() iter.Seq2[Site, Site] {
	return PeriodicPairsEnumerate(s.Rep, s.Length)
}

// PeriodicDistancedPairs fails with ErrOverFlow unless dist < Length.
func (s BitState) PeriodicDistancedPairs(dist int) (iter.Seq2[uint64, uint64], error) {
	if dist < 0 || dist >= s.Length {
		return nil, errors.Wrap(ErrOverFlow, fmt.Sprintf("dist %d length %d", dist, s.Length))
	}
	return PeriodicDistancedPairs(s.Rep, s.Length, dist), nil
}

func (s BitState) PeriodicDistancedPairsEnumerate(dist int) (iter.Seq2[Site, Site], error) {
	if dist < 0 || dist >= s.Length {
		return nil, errors.Wrap(ErrOverFlow, fmt.Sprintf("dist %d length %d", dist, s.Length))
	}
	return PeriodicDistancedPairsEnumerate(s.Rep, s.Length, dist), nil
}

func (s BitState) Cycle() iter.Seq[uint64] { return Cycle(s.Rep, s.Length) }
