package mat

import (
	"fmt"
	"math"
	"os"
	"testing"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/mat"
)

func TestAddScaled(t *testing.T) {
	t.Parallel()
	tests := []struct {
		a [][]complex128
		c complex128
		b [][]complex128
		z [][]complex128
	}{
		{
			a: [][]complex128{
				{1, 0},
				{0, 2i},
			},
			c: 1i,
			b: [][]complex128{
				{1i, 0},
				{2, -5},
			},
			z: [][]complex128{
				{0, 0},
				{2i, -3i},
			},
		},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v", test.a), func(t *testing.T) {
			t.Parallel()
			z := AddScaled(M(test.a), test.c, M(test.b))
			if !Equal(z, M(test.z), 0) {
				t.Fatalf("%s, expected %s", String(z), String(M(test.z)))
			}
		})
	}
}

func TestMul(t *testing.T) {
	t.Parallel()
	a := M([][]complex128{
		{1, 2i},
		{3, 4},
	})
	b := M([][]complex128{
		{1i, 0},
		{1, -1},
	})
	tests := []struct {
		tA, tB blas.Transpose
		z      [][]complex128
	}{
		{
			tA: blas.NoTrans, tB: blas.NoTrans,
			z: [][]complex128{
				{3i, -2i},
				{4 + 3i, -4},
			},
		},
		{
			tA: blas.ConjTrans, tB: blas.NoTrans,
			z: [][]complex128{
				{3 + 1i, -3},
				{6, -4},
			},
		},
		{
			tA: blas.NoTrans, tB: blas.ConjTrans,
			z: [][]complex128{
				{-1i, 1 - 2i},
				{-3i, -1},
			},
		},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%c %c", test.tA, test.tB), func(t *testing.T) {
			t.Parallel()
			z := Mul(test.tA, a, test.tB, b)
			if !Equal(z, M(test.z), 1e-12) {
				t.Fatalf("%s, expected %s", String(z), String(M(test.z)))
			}
		})
	}
}

func TestIsHermitian(t *testing.T) {
	t.Parallel()
	h := M([][]complex128{
		{1, 2 - 1i},
		{2 + 1i, -3},
	})
	if !IsHermitian(h, 1e-12) {
		t.Fatalf("%s should be hermitian", String(h))
	}
	h.Set(1, 0, 2-1i)
	if IsHermitian(h, 1e-12) {
		t.Fatalf("%s should not be hermitian", String(h))
	}
}

func TestEighNotHermitian(t *testing.T) {
	t.Parallel()
	tests := [][][]complex128{
		{{0, 1}, {2, 0}},
		{{1, 1i}, {1i, 1}},
		{{1i, 0}, {0, 1}},
	}
	for _, h := range tests {
		if _, _, err := Eigh(M(h)); !errors.Is(err, ErrNotHermitian) {
			t.Fatalf("%v: %+v, expected %v", h, err, ErrNotHermitian)
		}
	}

	// Rounding in the momentum phases stays within tolerance.
	h := M([][]complex128{{2, complex(1, 1e-14)}, {complex(1, -1.3e-14), 2}})
	if _, _, err := Eigh(h); err != nil {
		t.Fatalf("%+v", err)
	}
}

func TestEigh(t *testing.T) {
	t.Parallel()
	sqrt12 := math.Sqrt(12)
	tests := []struct {
		h    [][]complex128
		vals []float64
	}{
		{
			h: [][]complex128{
				{0, complex(-math.Sqrt(8), 0)},
				{complex(-math.Sqrt(8), 0), 4},
			},
			vals: []float64{2 - sqrt12, 2 + sqrt12},
		},
		{
			h: [][]complex128{
				{1, -1i},
				{1i, 1},
			},
			vals: []float64{0, 2},
		},
		{
			// Degenerate: the identity plus a rank one projector onto (1, i, 0)/sqrt(2).
			h: [][]complex128{
				{1.5, -0.5i, 0},
				{0.5i, 1.5, 0},
				{0, 0, 1},
			},
			vals: []float64{1, 1, 2},
		},
		{
			h: [][]complex128{
				{0, 0, 0, 0},
				{0, 0, 0, 0},
				{0, 0, 0, 0},
				{0, 0, 0, 0},
			},
			vals: []float64{0, 0, 0, 0},
		},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v", test.h), func(t *testing.T) {
			t.Parallel()
			h := M(test.h)
			vals, vecs, err := Eigh(h)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if len(vals) != len(test.vals) {
				t.Fatalf("%v, expected %v", vals, test.vals)
			}
			for i, v := range vals {
				if math.Abs(v-test.vals[i]) > 1e-9 {
					t.Fatalf("%v, expected %v", vals, test.vals)
				}
			}
			checkEigenvectors(t, h, vals, vecs)
		})
	}
}

func checkEigenvectors(t *testing.T, h *mat.CDense, vals []float64, vecs *mat.CDense) {
	n, _ := h.Dims()
	// Unitary.
	vv := Mul(blas.ConjTrans, vecs, blas.NoTrans, vecs)
	identity := make([]complex128, n)
	for i := range identity {
		identity[i] = 1
	}
	if !Equal(vv, Diag(identity), 1e-9) {
		t.Fatalf("%s, expected identity", String(vv))
	}

	// H V = V diag(vals).
	hv := Mul(blas.NoTrans, h, blas.NoTrans, vecs)
	lv := M(Dense(vecs))
	cvals := make([]complex128, n)
	for i, v := range vals {
		cvals[i] = complex(v, 0)
	}
	ScaleColumns(lv, cvals)
	if !Equal(hv, lv, 1e-9) {
		t.Fatalf("%s, expected %s", String(hv), String(lv))
	}
}

func TestCOO(t *testing.T) {
	t.Parallel()
	tests := []struct {
		m [][]complex128
	}{
		{
			m: [][]complex128{
				{1, 1, 0},
				{0, -2.5, 1i},
				{0, 1i, 3 - 4i},
			},
		},
		{
			m: [][]complex128{
				{0, 0},
				{0, 0},
			},
		},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v", test.m), func(t *testing.T) {
			t.Parallel()
			dir, err := os.MkdirTemp("", "")
			if err != nil {
				t.Fatalf("%+v", err)
			}
			defer os.RemoveAll(dir)

			m := M(test.m)
			if err := WriteCOO(dir, m); err != nil {
				t.Fatalf("%+v", err)
			}
			read, err := ReadCOO(dir)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if !Equal(read, m, 0) {
				t.Fatalf("%s, expected %s", String(read), String(m))
			}
		})
	}
}

func TestFormatNumpy(t *testing.T) {
	t.Parallel()
	tests := []struct {
		v complex128
		s string
	}{
		{v: 1.5, s: "1.5"},
		{v: -2, s: "-2"},
		{v: 1 - 2i, s: "(1-2j)"},
	}
	for _, test := range tests {
		if s := FormatNumpy(test.v); s != test.s {
			t.Fatalf("%s, expected %s", s, test.s)
		}
	}
}
