// Package degeneracy pools eigenstates of different sectors that share an energy level.
package degeneracy

import (
	"fmt"
	"math"
	"slices"

	"github.com/pkg/errors"

	"github.com/fumin/spinchain/state"
)

// Entry is the eigenstate Idx of the sector Q.
type Entry struct {
	Q   state.QuantumNumber
	Idx int
}

// EnergyMap groups eigenstates into energy buckets of a fixed width, keyed by floor(e/width).
type EnergyMap map[int][]Entry

func bucketID(e, width float64) int {
	return int(math.Floor(e / width))
}

// find returns the bucket that absorbs id.
// The bucket id itself is checked first, then id-1, then id+1.
func (m EnergyMap) find(id int) (int, bool) {
	for _, c := range [...]int{id, id - 1, id + 1} {
		if _, ok := m[c]; ok {
			return c, true
		}
	}
	return 0, false
}

// PrepareEnergyMap buckets the eigenvalues vals of the sector q.
// An eigenvalue falling next to an existing bucket joins that bucket, so that values straddling a
// bucket boundary are grouped together.
func PrepareEnergyMap(q state.QuantumNumber, vals []float64, width float64) (EnergyMap, error) {
	if !(width > 0) || math.IsInf(width, 0) {
		return nil, errors.Wrap(state.ErrInvalidArgument, "width")
	}
	m := make(EnergyMap)
	for i, e := range vals {
		id := bucketID(e, width)
		if c, ok := m.find(id); ok {
			id = c
		}
		m[id] = append(m[id], Entry{Q: q, Idx: i})
	}
	return m, nil
}

// CountDegeneracyFrom adds the eigenvalues of another sector q to the buckets of m.
// Eigenvalues that match no existing bucket are dropped.
// It reports whether any eigenvalue matched.
func CountDegeneracyFrom(m EnergyMap, q state.QuantumNumber, vals []float64, width float64) bool {
	var matched bool
	for i, e := range vals {
		id, ok := m.find(bucketID(e, width))
		if !ok {
			continue
		}
		m[id] = append(m[id], Entry{Q: q, Idx: i})
		matched = true
	}
	return matched
}

// IDs returns the bucket ids of m in ascending order.
func (m EnergyMap) IDs() []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Redirect moves the contribution of eigenstate From onto the canonical eigenstate To.
type Redirect struct {
	From int
	To   int
}

// Redirect3 moves the matrix element (From1, From2) onto the canonical eigenstate To.
type Redirect3 struct {
	From1 int
	From2 int
	To    int
}

// Pair computes the pooling weights of an energy map for an observable that is diagonal in the
// eigenbasis.
//
// The first entry of every bucket is canonical and receives the weight 1/size, size being the
// number of entries in the bucket. Other entries of the canonical sector receive the weight -1,
// marking them as folded into the canonical one. Every non canonical entry is redirected onto the
// canonical index. Pooling an observable o thus amounts to
//
//	total[i] = o[i]*weights[i] + sum over redirects (from, i) of o'[from]*weights[i]
//
// where o' is the observable of the redirect's sector.
// The weights are indexed by eigenstates of the canonical sector, whose size is basisLen.
func Pair(basisLen int, m EnergyMap) ([]float64, map[state.QuantumNumber][]Redirect, error) {
	weights := make([]float64, basisLen)
	redirects := make(map[state.QuantumNumber][]Redirect)
	for _, id := range m.IDs() {
		entries := m[id]
		canon := entries[0]
		if err := setWeights(weights, canon, entries); err != nil {
			return nil, nil, errors.Wrap(err, "")
		}
		if _, ok := redirects[canon.Q]; !ok {
			redirects[canon.Q] = make([]Redirect, 0)
		}
		for _, e := range entries[1:] {
			redirects[e.Q] = append(redirects[e.Q], Redirect{From: e.Idx, To: canon.Idx})
		}
	}
	return weights, redirects, nil
}

// Triple is Pair for an observable that is a full matrix in the eigenbasis.
//
// For every sector in a bucket, all matrix elements between the sector's entries are redirected
// onto the canonical index, except the canonical diagonal element which is weighted directly.
// The pooled value is then the expectation value in the equal superposition of the bucket's
// eigenstates.
func Triple(basisLen int, m EnergyMap) ([]float64, map[state.QuantumNumber][]Redirect3, error) {
	weights := make([]float64, basisLen)
	redirects := make(map[state.QuantumNumber][]Redirect3)
	for _, id := range m.IDs() {
		entries := m[id]
		canon := entries[0]
		if err := setWeights(weights, canon, entries); err != nil {
			return nil, nil, errors.Wrap(err, "")
		}
		if _, ok := redirects[canon.Q]; !ok {
			redirects[canon.Q] = make([]Redirect3, 0)
		}

		for _, q := range sectors(entries) {
			idxs := make([]int, 0, len(entries))
			for _, e := range entries {
				if e.Q == q {
					idxs = append(idxs, e.Idx)
				}
			}
			for _, a := range idxs {
				for _, b := range idxs {
					if q == canon.Q && a == canon.Idx && b == canon.Idx {
						continue
					}
					redirects[q] = append(redirects[q], Redirect3{From1: a, From2: b, To: canon.Idx})
				}
			}
		}
	}
	return weights, redirects, nil
}

func setWeights(weights []float64, canon Entry, entries []Entry) error {
	if canon.Idx < 0 || canon.Idx >= len(weights) {
		return errors.Wrap(state.ErrOverFlow, fmt.Sprintf("canonical %d %d", canon.Idx, len(weights)))
	}
	weights[canon.Idx] = 1 / float64(len(entries))
	for _, e := range entries[1:] {
		if e.Q != canon.Q {
			continue
		}
		if e.Idx < 0 || e.Idx >= len(weights) {
			return errors.Wrap(state.ErrOverFlow, fmt.Sprintf("%s %d %d", e.Q, e.Idx, len(weights)))
		}
		weights[e.Idx] = -1
	}
	return nil
}

// sectors returns the sectors of entries in order of first appearance.
func sectors(entries []Entry) []state.QuantumNumber {
	qs := make([]state.QuantumNumber, 0)
	for _, e := range entries {
		if !slices.Contains(qs, e.Q) {
			qs = append(qs, e.Q)
		}
	}
	return qs
}
