package basis

import (
	"maps"
	"slices"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/fumin/spinchain/state"
)

// Entry locates a state in a basis.
type Entry struct {
	// Pos is the position of the owning basis element.
	Pos int
	// Shift is the number of cyclic moves from the element's representative to the state.
	Shift int
}

// Basis is the list of basis elements of one sector together with its reverse index.
type Basis struct {
	Q      state.QuantumNumber
	Length int
	// Reps are the representatives of the basis elements.
	// In number and empty sectors every state is its own representative.
	Reps []uint64
	// States are the momentum states of the elements.
	// They are nil for light builds and for sectors without momentum.
	States []*state.NormalizedState

	periods []int
	index   map[uint64]Entry
	members *roaring64.Bitmap
}

func newBasis(q state.QuantumNumber, length int) *Basis {
	return &Basis{Q: q, Length: length, index: make(map[uint64]Entry), members: roaring64.New()}
}

func (b *Basis) Len() int { return len(b.Reps) }

// Light reports whether b carries no materialized momentum states.
func (b *Basis) Light() bool { return b.States == nil }

// Lookup returns the element owning the state n.
func (b *Basis) Lookup(n uint64) (Entry, bool) {
	e, ok := b.index[n]
	return e, ok
}

// Contains reports whether n is a member of some element's orbit.
func (b *Basis) Contains(n uint64) bool {
	return b.members.Contains(n)
}

// NumMembers returns the number of states spanned by the orbits of b.
func (b *Basis) NumMembers() uint64 {
	return b.members.GetCardinality()
}

// Period returns the orbit period of the element at pos.
func (b *Basis) Period(pos int) int { return b.periods[pos] }

// NormalizeFactor returns the per translation amplitude of the element at pos.
// Elements of sectors without momentum are plain states with unit amplitude.
func (b *Basis) NormalizeFactor(pos int) float64 {
	if b.Q.Kind != state.KindMomentum {
		return 1
	}
	return state.NormalizeFactor(b.periods[pos], b.Length)
}

// Element returns the representative of the element at pos as a BitState.
func (b *Basis) Element(pos int) state.BitState {
	return state.BitState{Rep: b.Reps[pos], Length: b.Length}
}

func (b *Basis) addState(n uint64) {
	b.index[n] = Entry{Pos: len(b.Reps), Shift: 0}
	b.members.Add(n)
	b.Reps = append(b.Reps, n)
	b.periods = append(b.periods, state.PeriodUnsafe(n, b.Length))
}

func (b *Basis) addOrbit(rep uint64, period int, light bool) {
	pos := len(b.Reps)
	shift := 0
	for n := range state.Cycle(rep, b.Length) {
		b.index[n] = Entry{Pos: pos, Shift: shift}
		b.members.Add(n)
		shift++
	}
	b.Reps = append(b.Reps, rep)
	b.periods = append(b.periods, period)
	if !light {
		b.States = append(b.States, state.NewNormalizedStateUnsafe(rep, b.Length, b.Q))
	}
}

// Sectors holds the bases of all sectors of one kind.
type Sectors struct {
	Length int
	Bases  map[state.QuantumNumber]*Basis
}

func newSectors(length int) *Sectors {
	return &Sectors{Length: length, Bases: make(map[state.QuantumNumber]*Basis)}
}

// Lookup returns the element owning n in the sector q.
func (s *Sectors) Lookup(q state.QuantumNumber, n uint64) (Entry, bool) {
	b, ok := s.Bases[q]
	if !ok {
		return Entry{}, false
	}
	return b.Lookup(n)
}

// Keys returns the sector labels in ascending order.
func (s *Sectors) Keys() []state.QuantumNumber {
	return slices.SortedFunc(maps.Keys(s.Bases), state.Compare)
}

// Len returns the total number of basis elements.
func (s *Sectors) Len() int {
	n := 0
	for _, b := range s.Bases {
		n += b.Len()
	}
	return n
}

// Coverage returns the union of the states spanned by every sector.
func (s *Sectors) Coverage() *roaring64.Bitmap {
	cover := roaring64.New()
	for _, b := range s.Bases {
		cover.Or(b.members)
	}
	return cover
}
