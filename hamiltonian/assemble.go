package hamiltonian

import (
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/fumin/spinchain/basis"
	"github.com/fumin/spinchain/state"
)

// Assemble returns the matrix of term in the basis b.
//
// A connected state that is not the representative of its element carries the momentum phase
// omega^shift, where shift is its distance from the representative.
// Connected states outside of b have no projection onto the sector and are dropped.
func Assemble(b *basis.Basis, term Term) *mat.CDense {
	n := b.Len()
	h := mat.NewCDense(n, n, nil)
	omega := b.Q.PhaseFactor(b.Length)
	// powers caches omega^shift, shifts being bounded by the chain length.
	powers := make([]complex128, b.Length)
	for i := range powers {
		powers[i] = cmplx.Pow(omega, complex(float64(i), 0))
	}

	for idx, rep := range b.Reps {
		nf1 := b.NormalizeFactor(idx)
		for flipped, value := range term.ApplyTo(state.BitState{Rep: rep, Length: b.Length}) {
			e, ok := b.Lookup(flipped)
			if !ok {
				continue
			}
			nf2 := b.NormalizeFactor(e.Pos)
			v := complex(value*nf1/nf2, 0) * powers[e.Shift]
			h.Set(e.Pos, idx, h.At(e.Pos, idx)+v)
		}
	}
	return h
}

// AssembleDiagonal returns the diagonal matrix of the Ising energies of the elements of b.
// The Ising energy is translation invariant, so it is the same for every orbit member.
func AssembleDiagonal(b *basis.Basis, t Ising) *mat.CDense {
	n := b.Len()
	h := mat.NewCDense(n, n, nil)
	for idx := range b.Reps {
		h.Set(idx, idx, complex(t.Energy(b.Element(idx)), 0))
	}
	return h
}
