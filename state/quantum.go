package state

import (
	"cmp"
	"fmt"
	"math"
	"math/cmplx"
)

// Kind enumerates the conserved quantities labelling a sector.
type Kind int

const (
	KindEmpty Kind = iota
	KindNumber
	KindMomentum
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindNumber:
		return "number"
	case KindMomentum:
		return "momentum"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// QuantumNumber labels a sector.
// M is the number of up spins, K the momentum index. Fields not used by Kind are zero.
type QuantumNumber struct {
	Kind Kind
	M    int
	K    int
}

func Empty() QuantumNumber { return QuantumNumber{Kind: KindEmpty} }

func Number(m int) QuantumNumber { return QuantumNumber{Kind: KindNumber, M: m} }

func Momentum(m, k int) QuantumNumber { return QuantumNumber{Kind: KindMomentum, M: m, K: k} }

func (q QuantumNumber) String() string {
	switch q.Kind {
	case KindNumber:
		return fmt.Sprintf("n%d", q.M)
	case KindMomentum:
		return fmt.Sprintf("n%dk%d", q.M, q.K)
	default:
		return "empty"
	}
}

// PhaseFactor returns exp(i 2 pi k / length).
// Sectors without momentum have a unit phase.
func (q QuantumNumber) PhaseFactor(length int) complex128 {
	if q.Kind != KindMomentum {
		return 1
	}
	return cmplx.Exp(complex(0, 2*math.Pi*float64(q.K)/float64(length)))
}

// CheckCommensurability reports whether an orbit of the given period carries momentum K.
func (q QuantumNumber) CheckCommensurability(period, length int) bool {
	if q.Kind != KindMomentum {
		return true
	}
	return q.K*period%length == 0
}

// LowerThan reports whether every state labelled by o can be relabelled by q by dropping components of o.
func (q QuantumNumber) LowerThan(o QuantumNumber) bool {
	switch q.Kind {
	case KindEmpty:
		return true
	case KindNumber:
		switch o.Kind {
		case KindNumber, KindMomentum:
			return q.M == o.M
		}
		return false
	default:
		return q == o
	}
}

// Matches reports whether a state with m up spins can belong to q.
func (q QuantumNumber) Matches(m int) bool {
	return q.Kind == KindEmpty || q.M == m
}

// Compare orders quantum numbers by kind, then M, then K.
func Compare(a, b QuantumNumber) int {
	if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
		return c
	}
	if c := cmp.Compare(a.M, b.M); c != 0 {
		return c
	}
	return cmp.Compare(a.K, b.K)
}
