package state

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/pkg/errors"
)

// Component is the amplitude of one orbit member in a NormalizedState.
type Component struct {
	// Shift is the number of cyclic moves from the representative.
	Shift int
	Coeff complex128
}

// NormalizedState is the momentum eigenstate built on the orbit of a representative.
// Coefficients are per translation: the state sums over all Length translations, so each orbit
// member appears Length/Period times and its amplitude is that multiple of its coefficient.
type NormalizedState struct {
	Q      QuantumNumber
	Rep    uint64
	Length int
	Period int
	States map[uint64]Component
}

// NewNormalizedState builds the momentum state of q on the orbit of rep.
// rep must be the representative of its orbit, have q.M up spins, and its period must be
// commensurate with q.K.
func NewNormalizedState(rep uint64, length int, q QuantumNumber) (*NormalizedState, error) {
	isRep, err := IsRep(rep, length)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if !isRep {
		return nil, errors.Wrap(ErrInvalidArgument, fmt.Sprintf("%d is not a representative", rep))
	}
	if q.Kind != KindMomentum || SumBit(rep) != q.M {
		return nil, errors.Wrap(ErrInvalidArgument, fmt.Sprintf("%d %v", rep, q))
	}
	period := PeriodUnsafe(rep, length)
	if !q.CheckCommensurability(period, length) {
		return nil, errors.Wrap(ErrInvalidArgument, fmt.Sprintf("%v incommensurate with period %d", q, period))
	}
	return NewNormalizedStateUnsafe(rep, length, q), nil
}

// NewNormalizedStateUnsafe is NewNormalizedState without validation.
func NewNormalizedStateUnsafe(rep uint64, length int, q QuantumNumber) *NormalizedState {
	period := PeriodUnsafe(rep, length)
	s := &NormalizedState{Q: q, Rep: rep, Length: length, Period: period, States: make(map[uint64]Component, period)}

	norm := complex(NormalizeFactor(period, length), 0)
	phase := cmplx.Conj(q.PhaseFactor(length))
	coeff := norm
	shift := 0
	for n := range Cycle(rep, length) {
		s.States[n] = Component{Shift: shift, Coeff: coeff}
		coeff *= phase
		shift++
	}
	return s
}

// NormalizeFactor is the amplitude sqrt(period)/length of a momentum state per translation.
func NormalizeFactor(period, length int) float64 {
	return math.Sqrt(float64(period)) / float64(length)
}

// Norm returns the squared norm of s, which is one up to rounding.
func (s *NormalizedState) Norm() float64 {
	var sum float64
	for _, c := range s.States {
		sum += real(c.Coeff * cmplx.Conj(c.Coeff))
	}
	mult := float64(s.Length) / float64(s.Period)
	return sum * mult * mult
}
