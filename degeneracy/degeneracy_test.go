package degeneracy

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/fumin/spinchain/state"
)

var (
	target = state.Momentum(2, 0)
	other  = state.Momentum(2, 1)
)

func prepared(t *testing.T) EnergyMap {
	m, err := PrepareEnergyMap(target, []float64{1.11, 2.999, 3.0, 6.0, 5.99999999}, 0.1)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	return m
}

func TestPrepareEnergyMap(t *testing.T) {
	t.Parallel()
	m := prepared(t)
	expected := EnergyMap{
		11: {{Q: target, Idx: 0}},
		29: {{Q: target, Idx: 1}, {Q: target, Idx: 2}},
		60: {{Q: target, Idx: 3}, {Q: target, Idx: 4}},
	}
	require.Equal(t, expected, m)
	require.Equal(t, []int{11, 29, 60}, m.IDs())

	for _, width := range []float64{0, -1} {
		if _, err := PrepareEnergyMap(target, []float64{1}, width); !errors.Is(err, state.ErrInvalidArgument) {
			t.Fatalf("%f: %+v", width, err)
		}
	}
}

func TestCountDegeneracyFrom(t *testing.T) {
	t.Parallel()
	m := prepared(t)
	if CountDegeneracyFrom(m, state.Momentum(1, 0), []float64{50, -3}, 0.1) {
		t.Fatalf("unexpected match")
	}
	if !CountDegeneracyFrom(m, other, []float64{3.05, 6.001, 100}, 0.1) {
		t.Fatalf("expected match")
	}
	expected := EnergyMap{
		11: {{Q: target, Idx: 0}},
		29: {{Q: target, Idx: 1}, {Q: target, Idx: 2}, {Q: other, Idx: 0}},
		60: {{Q: target, Idx: 3}, {Q: target, Idx: 4}, {Q: other, Idx: 1}},
	}
	require.Equal(t, expected, m)
}

func TestPair(t *testing.T) {
	t.Parallel()
	m := prepared(t)
	CountDegeneracyFrom(m, other, []float64{3.05, 6.001, 100}, 0.1)

	weights, redirects, err := Pair(5, m)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	require.Equal(t, []float64{1, 1.0 / 3, -1, 1.0 / 3, -1}, weights)
	require.Equal(t, map[state.QuantumNumber][]Redirect{
		target: {{From: 2, To: 1}, {From: 4, To: 3}},
		other:  {{From: 0, To: 1}, {From: 1, To: 3}},
	}, redirects)

	// Every eigenstate of a bucket contributes once with the canonical weight.
	for _, id := range m.IDs() {
		canon := m[id][0].Idx
		n := 1
		for _, rs := range redirects {
			for _, r := range rs {
				if r.To == canon {
					n++
				}
			}
		}
		if sum := float64(n) * weights[canon]; sum < 1-1e-12 || sum > 1+1e-12 {
			t.Fatalf("bucket %d: %f, expected 1", id, sum)
		}
	}
}

func TestTriple(t *testing.T) {
	t.Parallel()
	m := prepared(t)
	CountDegeneracyFrom(m, other, []float64{3.05, 6.001, 100}, 0.1)

	weights, redirects, err := Triple(5, m)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	require.Equal(t, []float64{1, 1.0 / 3, -1, 1.0 / 3, -1}, weights)
	require.Equal(t, map[state.QuantumNumber][]Redirect3{
		target: {
			{From1: 1, From2: 2, To: 1}, {From1: 2, From2: 1, To: 1}, {From1: 2, From2: 2, To: 1},
			{From1: 3, From2: 4, To: 3}, {From1: 4, From2: 3, To: 3}, {From1: 4, From2: 4, To: 3},
		},
		other: {
			{From1: 0, From2: 0, To: 1},
			{From1: 1, From2: 1, To: 3},
		},
	}, redirects)
}

func TestSingleSector(t *testing.T) {
	t.Parallel()
	m, err := PrepareEnergyMap(target, []float64{-1, 0.5, 2}, 0.1)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	weights, redirects, err := Pair(3, m)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	require.Equal(t, []float64{1, 1, 1}, weights)
	require.Equal(t, map[state.QuantumNumber][]Redirect{target: {}}, redirects)

	_, redirects3, err := Triple(3, m)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	require.Equal(t, map[state.QuantumNumber][]Redirect3{target: {}}, redirects3)
}

func TestOverFlow(t *testing.T) {
	t.Parallel()
	tests := []struct {
		basisLen int
	}{
		{basisLen: 0},
		{basisLen: 3},
		{basisLen: 4},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d", test.basisLen), func(t *testing.T) {
			t.Parallel()
			m := prepared(t)
			if _, _, err := Pair(test.basisLen, m); !errors.Is(err, state.ErrOverFlow) {
				t.Fatalf("%+v", err)
			}
			if _, _, err := Triple(test.basisLen, m); !errors.Is(err, state.ErrOverFlow) {
				t.Fatalf("%+v", err)
			}
		})
	}
}
