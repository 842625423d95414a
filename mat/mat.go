package mat

import (
	"fmt"
	"math/cmplx"
	"strings"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"
)

// M returns the matrix with the given rows.
func M(dense [][]complex128) *mat.CDense {
	m := mat.NewCDense(len(dense), len(dense[0]), nil)
	for i, row := range dense {
		for j, v := range row {
			m.Set(i, j, v)
		}
	}
	return m
}

// Diag returns the square matrix with v on its diagonal.
func Diag(v []complex128) *mat.CDense {
	m := mat.NewCDense(len(v), len(v), nil)
	for i, x := range v {
		m.Set(i, i, x)
	}
	return m
}

// Dense returns the rows of m.
func Dense(m mat.CMatrix) [][]complex128 {
	r, c := m.Dims()
	dense := make([][]complex128, r)
	for i := range dense {
		dense[i] = make([]complex128, c)
		for j := range dense[i] {
			dense[i][j] = m.At(i, j)
		}
	}
	return dense
}

// AddScaled returns a + c*b.
func AddScaled(a mat.CMatrix, c complex128, b mat.CMatrix) *mat.CDense {
	r, cols := a.Dims()
	br, bc := b.Dims()
	if r != br || cols != bc {
		panic(fmt.Sprintf("wrong dimensions %d %d %d %d", r, cols, br, bc))
	}
	z := mat.NewCDense(r, cols, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < cols; j++ {
			z.Set(i, j, a.At(i, j)+c*b.At(i, j))
		}
	}
	return z
}

// Mul returns op(a)*op(b), where op is either the identity or the conjugate transpose.
func Mul(tA blas.Transpose, a *mat.CDense, tB blas.Transpose, b *mat.CDense) *mat.CDense {
	ar, ac := a.Dims()
	if tA != blas.NoTrans {
		ar, ac = ac, ar
	}
	br, bc := b.Dims()
	if tB != blas.NoTrans {
		br, bc = bc, br
	}
	if ac != br {
		panic(fmt.Sprintf("wrong dimensions %d %d", ac, br))
	}

	c := mat.NewCDense(ar, bc, nil)
	cblas128.Gemm(tA, tB, 1, a.RawCMatrix(), b.RawCMatrix(), 0, c.RawCMatrix())
	return c
}

// ScaleColumns multiplies the j-th column of m by v[j] in place.
func ScaleColumns(m *mat.CDense, v []complex128) {
	r, c := m.Dims()
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			m.Set(i, j, m.At(i, j)*v[j])
		}
	}
}

// Equal reports whether a and b have the same shape and agree elementwise within tol.
func Equal(a, b mat.CMatrix, tol float64) bool {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		return false
	}
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			if cmplx.Abs(a.At(i, j)-b.At(i, j)) > tol {
				return false
			}
		}
	}
	return true
}

// IsHermitian reports whether m equals its conjugate transpose within tol.
func IsHermitian(m mat.CMatrix, tol float64) bool {
	r, c := m.Dims()
	if r != c {
		return false
	}
	for i := 0; i < r; i++ {
		for j := i; j < c; j++ {
			if cmplx.Abs(m.At(i, j)-cmplx.Conj(m.At(j, i))) > tol {
				return false
			}
		}
	}
	return true
}

// String formats m with tab separated columns.
func String(m mat.CMatrix) string {
	r, c := m.Dims()
	lines := make([]string, 0, r)
	for i := 0; i < r; i++ {
		cs := make([]string, 0, c)
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			switch {
			case imag(v) == 0:
				cs = append(cs, format(real(v)))
			case real(v) == 0:
				cs = append(cs, format(imag(v))+"i")
			default:
				cs = append(cs, format(real(v))+"+"+format(imag(v))+"i")
			}
		}
		lines = append(lines, strings.Join(cs, "\t"))
	}
	return strings.Join(lines, "\n")
}

func format(v float64) string {
	// If v is 0 or -0, return "0" immediately to avoid returning "-0".
	if v == 0 {
		return " 0"
	}

	s := fmt.Sprintf("%.6g", v)

	// Add a space before non-negative numbers to align with other negative numbers in the same column.
	if v >= 0 {
		s = " " + s
	}

	return s
}
