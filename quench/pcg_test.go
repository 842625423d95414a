package quench

import (
	"fmt"
	"math/rand/v2"
	"testing"
)

func TestPCG64(t *testing.T) {
	t.Parallel()
	tests := []struct {
		seed uint64
		u    []uint64
	}{
		{seed: 42, u: []uint64{9175663511918380246, 10242628652808598733, 9788821050650074150}},
		{seed: 0, u: []uint64{14734495297819468440, 10563326859733236824, 9227103235516702998}},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d", test.seed), func(t *testing.T) {
			t.Parallel()
			p := Seed(test.seed)
			for i, expected := range test.u {
				if u := p.Uint64(); u != expected {
					t.Fatalf("%d: %d, expected %d", i, u, expected)
				}
			}
		})
	}
}

func TestUniform(t *testing.T) {
	t.Parallel()
	p := Seed(51)
	expected := []float64{-0.8206060620333129, 0.9565361249278892, 0.39097333664605305}
	for i, e := range expected {
		if v := p.Uniform(-1, 1); v != e {
			t.Fatalf("%d: %v, expected %v", i, v, e)
		}
	}

	p = Seed(7)
	for range 10000 {
		v := p.Uniform(-1, 1)
		if v < -1 || v >= 1 {
			t.Fatalf("%v out of range", v)
		}
	}
}

func TestSource(t *testing.T) {
	t.Parallel()
	a := rand.New(Seed(3))
	b := Seed(3)
	for range 10 {
		if x, y := a.Uint64(), b.Uint64(); x != y {
			t.Fatalf("%d, expected %d", x, y)
		}
	}
}
