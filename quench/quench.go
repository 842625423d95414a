// Package quench computes energy changes of sectors under a sudden perturbation, averaged over
// an ensemble of perturbation strengths.
package quench

import (
	"fmt"
	"math/cmplx"

	"github.com/VictoriaMetrics/metrics"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/blas"
	gonum "gonum.org/v1/gonum/mat"

	"github.com/fumin/spinchain/basis"
	"github.com/fumin/spinchain/hamiltonian"
	"github.com/fumin/spinchain/mat"
	"github.com/fumin/spinchain/state"
)

var eigenSolves = metrics.NewCounter(`spinchain_eigen_solves_total{package="quench"}`)

// Sector holds what is needed to quench one sector.
// It is read only after construction and may be shared between goroutines.
type Sector struct {
	Q state.QuantumNumber
	// H0 is the unperturbed Hamiltonian, H1 the perturbation.
	H0 *gonum.CDense
	H1 *gonum.CDense
	// Vals and Vecs are the eigen decomposition of H0.
	Vals []float64
	Vecs *gonum.CDense
}

// NewSector assembles term and the diagonal perturbation in the basis b and diagonalizes term.
func NewSector(b *basis.Basis, term hamiltonian.Term, perturbation hamiltonian.Ising) (*Sector, error) {
	s := &Sector{Q: b.Q, H0: hamiltonian.Assemble(b, term), H1: hamiltonian.AssembleDiagonal(b, perturbation)}
	var err error
	s.Vals, s.Vecs, err = mat.Eigh(s.H0)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("%s", b.Q))
	}
	eigenSolves.Inc()
	return s, nil
}

func (s *Sector) Len() int { return len(s.Vals) }

// propagator returns R = X U X^dagger, where X = V0^dagger V2 is the overlap between the
// eigenvectors of H0 and those of H2 = H0 + r H1, and U = diag(exp(i e2)) is the unit time
// evolution under H2.
func (s *Sector) propagator(r float64) (*gonum.CDense, error) {
	h2 := mat.AddScaled(s.H0, complex(r, 0), s.H1)
	vals2, vecs2, err := mat.Eigh(h2)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("%s %f", s.Q, r))
	}
	eigenSolves.Inc()

	x := mat.Mul(blas.ConjTrans, s.Vecs, blas.NoTrans, vecs2)
	u := make([]complex128, len(vals2))
	for i, v := range vals2 {
		u[i] = cmplx.Exp(complex(0, v))
	}
	xu := mat.M(mat.Dense(x))
	mat.ScaleColumns(xu, u)
	return mat.Mul(blas.NoTrans, xu, blas.ConjTrans, x), nil
}

// EnergyChange returns for every eigenstate i of H0 the change sum_j |R_ij|^2 E_j - E_i.
func (s *Sector) EnergyChange(r float64) ([]float64, error) {
	rm, err := s.propagator(r)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	change := make([]float64, s.Len())
	for i := range change {
		var e float64
		for j, ej := range s.Vals {
			v := rm.At(i, j)
			e += (real(v)*real(v) + imag(v)*imag(v)) * ej
		}
		change[i] = e - s.Vals[i]
	}
	return change, nil
}

// WorkMatrix returns R^dagger E R - E in the eigenbasis of H0, E being the diagonal matrix of
// eigenvalues of H0.
func (s *Sector) WorkMatrix(r float64) (*gonum.CDense, error) {
	rm, err := s.propagator(r)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	e := make([]complex128, s.Len())
	for i, v := range s.Vals {
		e[i] = complex(v, 0)
	}
	er := mat.Mul(blas.ConjTrans, rm, blas.NoTrans, mat.Diag(e))
	w := mat.Mul(blas.NoTrans, er, blas.NoTrans, rm)
	for i, v := range e {
		w.Set(i, i, w.At(i, i)-v)
	}
	return w, nil
}
