package state

import (
	"fmt"
	"slices"
	"testing"

	"github.com/pkg/errors"
)

func TestIterators(t *testing.T) {
	t.Parallel()
	s, err := New(10, 5)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	bs := slices.Collect(s.Bits())
	if expected := []uint64{0, 1, 0, 1, 0}; !slices.Equal(bs, expected) {
		t.Fatalf("%v, expected %v", bs, expected)
	}

	pairs := collectPairs(s.Pairs())
	if expected := [][2]uint64{{0, 1}, {1, 0}, {0, 1}, {1, 0}}; !slices.Equal(pairs, expected) {
		t.Fatalf("%v, expected %v", pairs, expected)
	}

	periodic := collectPairs(s.PeriodicPairs())
	if expected := [][2]uint64{{0, 1}, {1, 0}, {0, 1}, {1, 0}, {0, 0}}; !slices.Equal(periodic, expected) {
		t.Fatalf("%v, expected %v", periodic, expected)
	}

	var enumerated [][2]Site
	for a, b := range s.PeriodicPairsEnumerate() {
		enumerated = append(enumerated, [2]Site{a, b})
	}
	expectedEnum := [][2]Site{
		{{0, 0}, {1, 1}},
		{{1, 1}, {2, 0}},
		{{2, 0}, {3, 1}},
		{{3, 1}, {4, 0}},
		{{4, 0}, {0, 0}},
	}
	if !slices.Equal(enumerated, expectedEnum) {
		t.Fatalf("%v, expected %v", enumerated, expectedEnum)
	}

	cycle := slices.Collect(s.Cycle())
	if expected := []uint64{10, 5, 18, 9, 20}; !slices.Equal(cycle, expected) {
		t.Fatalf("%v, expected %v", cycle, expected)
	}
}

func TestDistancedPairs(t *testing.T) {
	t.Parallel()
	s, err := New(10, 5)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	seq, err := s.PeriodicDistancedPairs(2)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	pairs := collectPairs(seq)
	if expected := [][2]uint64{{0, 0}, {1, 1}, {0, 0}, {1, 0}, {0, 1}}; !slices.Equal(pairs, expected) {
		t.Fatalf("%v, expected %v", pairs, expected)
	}

	enumSeq, err := s.PeriodicDistancedPairsEnumerate(2)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	var sites [][2]int
	for a, b := range enumSeq {
		sites = append(sites, [2]int{a.Index, b.Index})
	}
	if expected := [][2]int{{0, 2}, {1, 3}, {2, 4}, {3, 0}, {4, 1}}; !slices.Equal(sites, expected) {
		t.Fatalf("%v, expected %v", sites, expected)
	}

	if _, err := s.PeriodicDistancedPairs(5); !errors.Is(err, ErrOverFlow) {
		t.Fatalf("%+v, expected %v", err, ErrOverFlow)
	}
}

func TestCycle(t *testing.T) {
	t.Parallel()
	tests := []struct {
		num    uint64
		length int
		orbit  []uint64
	}{
		{num: 10, length: 4, orbit: []uint64{10, 5}},
		{num: 3, length: 4, orbit: []uint64{3, 9, 12, 6}},
		{num: 0, length: 3, orbit: []uint64{0}},
		{num: 1, length: 1, orbit: []uint64{1}},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d %d", test.num, test.length), func(t *testing.T) {
			t.Parallel()
			orbit := slices.Collect(Cycle(test.num, test.length))
			if !slices.Equal(orbit, test.orbit) {
				t.Fatalf("%v, expected %v", orbit, test.orbit)
			}
			if len(orbit) != PeriodUnsafe(test.num, test.length) {
				t.Fatalf("%d, expected %d", len(orbit), PeriodUnsafe(test.num, test.length))
			}
		})
	}
}

func TestCommensurate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		period int
		length int
		ks     []int
	}{
		{period: 6, length: 12, ks: []int{0, 2, 4, 6, 8, 10}},
		{period: 4, length: 12, ks: []int{0, 3, 6, 9}},
		{period: 12, length: 12, ks: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}},
		{period: 1, length: 4, ks: []int{0}},
	}
	for _, test := range tests {
		ks := slices.Collect(Commensurate(test.period, test.length))
		if !slices.Equal(ks, test.ks) {
			t.Fatalf("%d %d: %v, expected %v", test.period, test.length, ks, test.ks)
		}
	}
}

func TestIteratorEarlyStop(t *testing.T) {
	t.Parallel()
	var got []uint64
	for n := range Cycle(10, 5) {
		got = append(got, n)
		if len(got) == 2 {
			break
		}
	}
	if expected := []uint64{10, 5}; !slices.Equal(got, expected) {
		t.Fatalf("%v, expected %v", got, expected)
	}
}

func TestNewOverflow(t *testing.T) {
	t.Parallel()
	if _, err := New(16, 4); !errors.Is(err, ErrOverFlow) {
		t.Fatalf("%+v, expected %v", err, ErrOverFlow)
	}
	s, err := New(5, 4)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if s.String() != "0101" {
		t.Fatalf("%s, expected 0101", s)
	}
}

func collectPairs(seq func(yield func(uint64, uint64) bool)) [][2]uint64 {
	var pairs [][2]uint64
	for a, b := range seq {
		pairs = append(pairs, [2]uint64{a, b})
	}
	return pairs
}
