package hamiltonian

import (
	"iter"

	"github.com/fumin/spinchain/state"
)

// Term is a Hamiltonian term of a periodic chain.
type Term interface {
	// ApplyTo yields the states connected to s together with their matrix elements.
	// The diagonal element comes last, as the pair (s.Rep, diagonal).
	ApplyTo(s state.BitState) iter.Seq2[uint64, float64]
}

// Ising is the zz coupling of adjacent sites.
type Ising struct {
	Delta float64
}

// Energy returns the diagonal element of s.
func (t Ising) Energy(s state.BitState) float64 {
	var e float64
	for a, b := range state.PeriodicPairs(s.Rep, s.Length) {
		switch {
		case a == b:
			e -= t.Delta / 2
		default:
			e += t.Delta / 2
		}
	}
	return e
}

func (t Ising) ApplyTo(s state.BitState) iter.Seq2[uint64, float64] {
	return func(yield func(uint64, float64) bool) {
		yield(s.Rep, t.Energy(s))
	}
}

// NearestXXZ is the XXZ coupling of adjacent sites.
type NearestXXZ struct {
	DeltaX float64
	DeltaZ float64
}

func (t NearestXXZ) ApplyTo(s state.BitState) iter.Seq2[uint64, float64] {
	return func(yield func(uint64, float64) bool) {
		var diag float64
		for a, b := range state.PeriodicPairsEnumerate(s.Rep, s.Length) {
			if a.Bit == b.Bit {
				diag -= t.DeltaZ / 2
				continue
			}
			diag += t.DeltaZ / 2
			if !yield(state.BitFlipUnsafe(s.Rep, a.Index, b.Index), -t.DeltaX) {
				return
			}
		}
		yield(s.Rep, diag)
	}
}

// NextNearestXXZ adds an xy coupling between sites two apart to NearestXXZ.
// The chain must have at least three sites.
type NextNearestXXZ struct {
	DeltaX1 float64
	DeltaX2 float64
	DeltaZ  float64
}

func (t NextNearestXXZ) ApplyTo(s state.BitState) iter.Seq2[uint64, float64] {
	return func(yield func(uint64, float64) bool) {
		var diag float64
		for a, b := range state.PeriodicPairsEnumerate(s.Rep, s.Length) {
			if a.Bit == b.Bit {
				diag -= t.DeltaZ / 2
				continue
			}
			diag += t.DeltaZ / 2
			if !yield(state.BitFlipUnsafe(s.Rep, a.Index, b.Index), -t.DeltaX1) {
				return
			}
		}
		for a, b := range state.PeriodicDistancedPairsEnumerate(s.Rep, s.Length, 2) {
			if a.Bit == b.Bit {
				continue
			}
			if !yield(state.BitFlipUnsafe(s.Rep, a.Index, b.Index), -t.DeltaX2) {
				return
			}
		}
		yield(s.Rep, diag)
	}
}
