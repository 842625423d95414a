package basis

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/fumin/spinchain/state"
)

// Builder enumerates the states of a periodic chain and sorts them into sectors.
type Builder struct {
	Length int
}

func NewBuilder(length int) (*Builder, error) {
	if length < 1 || length > state.MaxLength {
		return nil, errors.Wrap(state.ErrOverFlow, fmt.Sprintf("length %d", length))
	}
	return &Builder{Length: length}, nil
}

// Build returns the basis of the sector q, with materialized momentum states.
func (bd *Builder) Build(q state.QuantumNumber) (*Basis, error) {
	b, err := bd.build(q, false)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return b, nil
}

// BuildLight is Build without the momentum states, keeping only representatives and the index.
func (bd *Builder) BuildLight(q state.QuantumNumber) (*Basis, error) {
	b, err := bd.build(q, true)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return b, nil
}

func (bd *Builder) build(q state.QuantumNumber, light bool) (*Basis, error) {
	if err := bd.check(q); err != nil {
		return nil, errors.Wrap(err, "")
	}

	b := newBasis(q, bd.Length)
	numStates := uint64(1) << bd.Length
	for n := uint64(0); n < numStates; n++ {
		if !q.Matches(state.SumBit(n)) {
			continue
		}
		bd.add(b, n, light)
	}

	if b.Len() == 0 {
		return nil, errors.Wrap(state.ErrInvalidConfiguration, fmt.Sprintf("empty sector %v length %d", q, bd.Length))
	}
	return b, nil
}

// BuildFrom builds the sector q by refining prev, which must be a non-empty basis of a coarser sector.
// Only the elements of prev are examined.
func (bd *Builder) BuildFrom(prev *Basis, q state.QuantumNumber) (*Basis, error) {
	b, err := bd.buildFrom(prev, q, false)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return b, nil
}

func (bd *Builder) BuildFromLight(prev *Basis, q state.QuantumNumber) (*Basis, error) {
	b, err := bd.buildFrom(prev, q, true)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return b, nil
}

func (bd *Builder) buildFrom(prev *Basis, q state.QuantumNumber, light bool) (*Basis, error) {
	if prev == nil || prev.Len() == 0 {
		return nil, errors.Wrap(state.ErrInvalidArgument, "empty predecessor")
	}
	if prev.Length != bd.Length {
		return nil, errors.Wrap(state.ErrInvalidArgument, fmt.Sprintf("length %d, expected %d", prev.Length, bd.Length))
	}
	if prev.Q.Kind == state.KindMomentum || prev.Q.Kind >= q.Kind || !prev.Q.LowerThan(q) {
		return nil, errors.Wrap(state.ErrInvalidArgument, fmt.Sprintf("cannot extend %v to %v", prev.Q, q))
	}
	if err := bd.check(q); err != nil {
		return nil, errors.Wrap(err, "")
	}

	b := newBasis(q, bd.Length)
	for _, n := range prev.Reps {
		if !q.Matches(state.SumBit(n)) {
			continue
		}
		bd.add(b, n, light)
	}

	if b.Len() == 0 {
		return nil, errors.Wrap(state.ErrInvalidConfiguration, fmt.Sprintf("empty sector %v from %v", q, prev.Q))
	}
	return b, nil
}

// add appends n to b if n starts a new element of b.
func (bd *Builder) add(b *Basis, n uint64, light bool) {
	if b.Q.Kind != state.KindMomentum {
		b.addState(n)
		return
	}

	if !state.IsRepUnsafe(n, bd.Length) {
		return
	}
	period := state.PeriodUnsafe(n, bd.Length)
	if !b.Q.CheckCommensurability(period, bd.Length) {
		return
	}
	b.addOrbit(n, period, light)
}

func (bd *Builder) check(q state.QuantumNumber) error {
	switch q.Kind {
	case state.KindEmpty:
		return nil
	case state.KindNumber, state.KindMomentum:
		if q.M < 0 || q.M > bd.Length {
			return errors.Wrap(state.ErrOverFlow, fmt.Sprintf("%v length %d", q, bd.Length))
		}
		if q.Kind == state.KindMomentum && (q.K < 0 || q.K >= bd.Length) {
			return errors.Wrap(state.ErrOverFlow, fmt.Sprintf("%v length %d", q, bd.Length))
		}
		return nil
	default:
		return errors.Errorf("unknown kind %v", q.Kind)
	}
}

// BuildNumberAll builds every number sector in a single scan.
func (bd *Builder) BuildNumberAll() *Sectors {
	s := newSectors(bd.Length)
	numStates := uint64(1) << bd.Length
	for n := uint64(0); n < numStates; n++ {
		q := state.Number(state.SumBit(n))
		b, ok := s.Bases[q]
		if !ok {
			b = newBasis(q, bd.Length)
			s.Bases[q] = b
		}
		b.addState(n)
	}
	return s
}

// BuildMomentumAll builds every momentum sector in a single scan.
func (bd *Builder) BuildMomentumAll() *Sectors {
	return bd.buildMomentumAll(false)
}

func (bd *Builder) BuildMomentumAllLight() *Sectors {
	return bd.buildMomentumAll(true)
}

func (bd *Builder) buildMomentumAll(light bool) *Sectors {
	s := newSectors(bd.Length)
	numStates := uint64(1) << bd.Length
	for n := uint64(0); n < numStates; n++ {
		if !state.IsRepUnsafe(n, bd.Length) {
			continue
		}
		m := state.SumBit(n)
		period := state.PeriodUnsafe(n, bd.Length)
		for k := range state.Commensurate(period, bd.Length) {
			q := state.Momentum(m, k)
			b, ok := s.Bases[q]
			if !ok {
				b = newBasis(q, bd.Length)
				s.Bases[q] = b
			}
			b.addOrbit(n, period, light)
		}
	}
	return s
}
