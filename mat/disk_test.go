package mat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestDiskAdd(t *testing.T) {
	t.Parallel()
	tests := []struct {
		a          [][]complex128
		c          complex128
		b          [][]complex128
		z          [][]complex128
		numNonZero int
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
			numNonZero: 2,
		},
		{
			a: [][]complex128{
				{1, 2, 0},
			},
			c: 2,
			b: [][]complex128{
				{0, 0, 0.5},
			},
			z: [][]complex128{
				{1, 2, 1},
			},
			numNonZero: 3,
		},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v", test.a), func(t *testing.T) {
			t.Parallel()
			dir, err := os.MkdirTemp("", "")
			if err != nil {
				t.Fatalf("%+v", err)
			}
			defer os.RemoveAll(dir)

			a, err := NewDiskMatrix(filepath.Join(dir, "a.db"), M(test.a))
			if err != nil {
				t.Fatalf("%+v", err)
			}
			defer a.Close()
			b, err := NewDiskMatrix(filepath.Join(dir, "b.db"), M(test.b))
			if err != nil {
				t.Fatalf("%+v", err)
			}
			defer b.Close()

			if err := a.Add(test.c, b); err != nil {
				t.Fatalf("%+v", err)
			}
			z, err := a.CDense()
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if !Equal(z, M(test.z), 0) {
				t.Fatalf("%s, expected %s", String(z), String(M(test.z)))
			}
			numNonZero, err := a.NumNonZero()
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if numNonZero != test.numNonZero {
				t.Fatalf("%d, expected %d", numNonZero, test.numNonZero)
			}
		})
	}
}

func TestDiskOpen(t *testing.T) {
	t.Parallel()
	dir, err := os.MkdirTemp("", "")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer os.RemoveAll(dir)

	m := M([][]complex128{
		{0, -2.5, 0},
		{1i, 0, 3 - 1i},
	})
	dbPath := filepath.Join(dir, "m.db")
	d, err := NewDiskMatrix(dbPath, m)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if err := d.Set(0, 0, 7); err != nil {
		t.Fatalf("%+v", err)
	}
	if err := d.Set(1, 2, 0); err != nil {
		t.Fatalf("%+v", err)
	}
	if err := d.Set(2, 0, 1); err == nil {
		t.Fatalf("expected out of range error")
	}
	if err := d.Close(); err != nil {
		t.Fatalf("%+v", err)
	}

	opened, err := OpenDiskMatrix(dbPath)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if r, c := opened.Dims(); r != 2 || c != 3 {
		t.Fatalf("%d %d, expected 2 3", r, c)
	}
	expected := M([][]complex128{
		{7, -2.5, 0},
		{1i, 0, 0},
	})
	openedDense, err := opened.CDense()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !Equal(openedDense, expected, 0) {
		t.Fatalf("%s, expected %s", String(openedDense), String(expected))
	}

	cooDir := filepath.Join(dir, "coo")
	if err := os.MkdirAll(cooDir, 0755); err != nil {
		t.Fatalf("%+v", err)
	}
	if err := opened.WriteCOO(cooDir); err != nil {
		t.Fatalf("%+v", err)
	}
	read, err := ReadCOO(cooDir)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !Equal(read, expected, 0) {
		t.Fatalf("%s, expected %s", String(read), String(expected))
	}

	if err := opened.Remove(); err != nil {
		t.Fatalf("%+v", err)
	}
	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatalf("%+v", err)
	}

	if _, err := OpenDiskMatrix(filepath.Join(dir, "missing.db")); err == nil {
		t.Fatalf("expected error for missing database")
	}
}

func TestIncomplete(t *testing.T) {
	t.Parallel()
	dir, err := os.MkdirTemp("", "")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer os.RemoveAll(dir)
	m := M([][]complex128{{1, 2i}, {-2i, 3}})

	// A database without its shape row.
	dbPath := filepath.Join(dir, "m.db")
	d, err := NewDiskMatrix(dbPath, m)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if _, err := d.db.ExecContext(context.Background(), "DELETE FROM "+tableShape); err != nil {
		t.Fatalf("%+v", err)
	}
	d.Close()
	if _, err := OpenDiskMatrix(dbPath); err == nil {
		t.Fatalf("expected error for incomplete database")
	}

	// A COO export without its shape file.
	cooDir := filepath.Join(dir, "coo")
	if err := os.MkdirAll(cooDir, 0755); err != nil {
		t.Fatalf("%+v", err)
	}
	if err := WriteCOO(cooDir, m); err != nil {
		t.Fatalf("%+v", err)
	}
	if err := os.Remove(filepath.Join(cooDir, FnameShape)); err != nil {
		t.Fatalf("%+v", err)
	}
	if _, err := ReadCOO(cooDir); err == nil {
		t.Fatalf("expected error for incomplete export")
	}

	// Writing again completes both.
	d, err = NewDiskMatrix(dbPath, m)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if err := d.WriteCOO(cooDir); err != nil {
		t.Fatalf("%+v", err)
	}
	d.Close()
	opened, err := OpenDiskMatrix(dbPath)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer opened.Close()
	read, err := ReadCOO(cooDir)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	openedDense, err := opened.CDense()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !Equal(openedDense, m, 0) || !Equal(read, m, 0) {
		t.Fatalf("%s %s, expected %s", String(openedDense), String(read), String(m))
	}
}
