package mat

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	// clusterTol is the relative gap below which eigenvalues of the real embedding are grouped.
	clusterTol = 1e-9
	// pivotTol is the smallest residual accepted as a new eigenvector during orthogonalization.
	pivotTol = 1e-6
	// hermitianTol is the largest deviation from Hermiticity accepted, relative to the largest element.
	hermitianTol = 1e-9
)

// ErrNotHermitian is returned by Eigh for a matrix that differs from its conjugate transpose.
var ErrNotHermitian = errors.New("not hermitian")

// Eigh diagonalizes the Hermitian matrix h, failing with ErrNotHermitian for any other matrix.
// It returns the eigenvalues in ascending order, and the unitary matrix whose columns are the
// corresponding eigenvectors.
//
// h = A + iB is diagonalized through the real symmetric matrix [[A, -B], [B, A]], whose spectrum
// is that of h with every eigenvalue doubled. Any real eigenvector (x, y) of the embedding gives
// the eigenvector x + iy of h, and an orthonormal set is picked from each doubled eigenspace.
func Eigh(h mat.CMatrix) ([]float64, *mat.CDense, error) {
	n, c := h.Dims()
	if n != c {
		return nil, nil, errors.Errorf("not square %d %d", n, c)
	}
	maxAbs := 1.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			maxAbs = math.Max(maxAbs, cmplx.Abs(h.At(i, j)))
		}
	}
	if !IsHermitian(h, hermitianTol*maxAbs) {
		return nil, nil, errors.Wrap(ErrNotHermitian, fmt.Sprintf("%d", n))
	}

	emb := mat.NewSymDense(2*n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := (h.At(i, j) + cmplx.Conj(h.At(j, i))) / 2
			a, b := real(v), imag(v)
			emb.SetSym(i, j, a)
			emb.SetSym(n+i, n+j, a)
			if i != j {
				emb.SetSym(n+i, j, b)
				emb.SetSym(n+j, i, -b)
			}
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(emb, true); !ok {
		return nil, nil, errors.Errorf("eigen decomposition failed %d", n)
	}
	embVals := eig.Values(nil)
	var embVecs mat.Dense
	eig.VectorsTo(&embVecs)

	scale := 1.0
	for _, v := range embVals {
		scale = math.Max(scale, math.Abs(v))
	}
	tol := clusterTol * scale

	vals := make([]float64, 0, n)
	vecs := mat.NewCDense(n, n, nil)
	for start := 0; start < len(embVals); {
		end := start + 1
		for end < len(embVals) && embVals[end]-embVals[end-1] <= tol {
			end++
		}
		size := end - start
		if size%2 != 0 {
			return nil, nil, errors.Errorf("unpaired eigenvalues %d %d %v", start, end, embVals[start:end])
		}

		candidates := make([][]complex128, 0, size)
		for col := start; col < end; col++ {
			z := make([]complex128, n)
			for r := range z {
				z[r] = complex(embVecs.At(r, col), embVecs.At(n+r, col))
			}
			candidates = append(candidates, z)
		}
		basis, err := orthonormalize(candidates, size/2)
		if err != nil {
			return nil, nil, errors.Wrap(err, "")
		}
		for j, z := range basis {
			col := len(vals)
			vals = append(vals, embVals[start+2*j])
			for r, v := range z {
				vecs.Set(r, col, v)
			}
		}

		start = end
	}
	return vals, vecs, nil
}

// orthonormalize picks d orthonormal vectors out of the span of candidates.
// At every step the candidate with the largest component orthogonal to the vectors already
// picked is taken.
func orthonormalize(candidates [][]complex128, d int) ([][]complex128, error) {
	picked := make([][]complex128, 0, d)
	for len(picked) < d {
		best, bestNorm := -1, 0.0
		for i, z := range candidates {
			if nrm := norm(z); nrm > bestNorm {
				best, bestNorm = i, nrm
			}
		}
		if best < 0 || bestNorm < pivotTol {
			return nil, errors.Errorf("degenerate eigenspace %d %d %f", len(picked), d, bestNorm)
		}

		q := candidates[best]
		for i := range q {
			q[i] /= complex(bestNorm, 0)
		}
		candidates = append(candidates[:best], candidates[best+1:]...)
		for _, z := range candidates {
			var proj complex128
			for i := range z {
				proj += cmplx.Conj(q[i]) * z[i]
			}
			for i := range z {
				z[i] -= proj * q[i]
			}
		}
		picked = append(picked, q)
	}
	return picked, nil
}

func norm(z []complex128) float64 {
	var s float64
	for _, v := range z {
		s += real(v)*real(v) + imag(v)*imag(v)
	}
	return math.Sqrt(s)
}
