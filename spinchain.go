// Package spinchain solves the spectrum of periodic XXZ spin chains sector by sector.
package spinchain

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	gonum "gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/fumin/spinchain/basis"
	"github.com/fumin/spinchain/hamiltonian"
	"github.com/fumin/spinchain/mat"
	"github.com/fumin/spinchain/state"
)

var eigenSolves = metrics.NewCounter(`spinchain_eigen_solves_total{package="spinchain"}`)

// Interaction selects the couplings of a chain.
type Interaction int

const (
	Nearest Interaction = iota
	NextNearest
)

func (i Interaction) String() string {
	switch i {
	case Nearest:
		return "nearest"
	case NextNearest:
		return "next-nearest"
	default:
		return fmt.Sprintf("Interaction(%d)", int(i))
	}
}

// ParseInteraction parses the index of an interaction, 0 or 1.
func ParseInteraction(s string) (Interaction, error) {
	switch s {
	case "0", "nearest":
		return Nearest, nil
	case "1", "next-nearest":
		return NextNearest, nil
	}
	return 0, errors.Wrap(state.ErrInvalidArgument, fmt.Sprintf("interaction %q", s))
}

// Model is a periodic chain with unit xy couplings and zz anisotropy Delta.
type Model struct {
	Interaction Interaction
	Length      int
	Delta       float64
}

// Term returns the Hamiltonian term of m.
// Next nearest neighbour chains need at least three sites.
func (m Model) Term() (hamiltonian.Term, error) {
	if m.Length < 1 || m.Length > state.MaxLength {
		return nil, errors.Wrap(state.ErrOverFlow, fmt.Sprintf("length %d", m.Length))
	}
	switch m.Interaction {
	case Nearest:
		return hamiltonian.NearestXXZ{DeltaX: 1, DeltaZ: m.Delta}, nil
	case NextNearest:
		if m.Length < 3 {
			return nil, errors.Wrap(state.ErrInvalidArgument, fmt.Sprintf("%s length %d", m.Interaction, m.Length))
		}
		return hamiltonian.NextNearestXXZ{DeltaX1: 1, DeltaX2: 1, DeltaZ: m.Delta}, nil
	}
	return nil, errors.Wrap(state.ErrInvalidArgument, fmt.Sprintf("%s", m.Interaction))
}

// LoadSectors returns every momentum sector of a chain of the given length.
// When cacheDir is not empty, the sectors are read from a snapshot in it, or built and written
// there if the snapshot does not exist yet.
func LoadSectors(cacheDir string, length int) (*basis.Sectors, error) {
	build := func() (*basis.Sectors, error) {
		bd, err := basis.NewBuilder(length)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		return bd.BuildMomentumAllLight(), nil
	}
	if cacheDir == "" {
		return build()
	}

	fpath := filepath.Join(cacheDir, fmt.Sprintf("momentum_%d.snap", length))
	f, err := os.Open(fpath)
	switch {
	case err == nil:
		defer f.Close()
		s, err := basis.ReadSnapshot(f)
		if err != nil {
			return nil, errors.Wrap(err, fpath)
		}
		if err := checkComplete(s, length); err != nil {
			return nil, errors.Wrap(err, fpath)
		}
		return s, nil
	case !os.IsNotExist(err):
		return nil, errors.Wrap(err, "")
	}

	s, err := build()
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := os.MkdirAll(cacheDir, os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "")
	}
	// The snapshot appears under fpath only once complete.
	tmp, err := os.CreateTemp(cacheDir, "snap")
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer os.Remove(tmp.Name())
	if err := basis.WriteSnapshot(tmp, s); err != nil {
		tmp.Close()
		return nil, errors.Wrap(err, "")
	}
	if err := tmp.Close(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := os.Rename(tmp.Name(), fpath); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return s, nil
}

// checkComplete checks that the momentum sectors s of a chain of the given length together span
// every state of the chain.
func checkComplete(s *basis.Sectors, length int) error {
	if s.Length != length {
		return errors.Wrap(state.ErrInvalidConfiguration, fmt.Sprintf("length %d, expected %d", s.Length, length))
	}
	for q := range s.Bases {
		if q.Kind != state.KindMomentum {
			return errors.Wrap(state.ErrInvalidConfiguration, fmt.Sprintf("%v", q))
		}
	}
	if n := s.Coverage().GetCardinality(); n != uint64(1)<<length {
		return errors.Wrap(state.ErrInvalidConfiguration, fmt.Sprintf("%d states, expected %d", n, uint64(1)<<length))
	}
	return nil
}

// Spectrum is the eigen decomposition of one sector.
type Spectrum struct {
	Q    state.QuantumNumber
	Vals []float64
	Vecs *gonum.CDense
}

// SolveConfig configures Solve.
type SolveConfig struct {
	Logger  zerolog.Logger
	Workers int
	// Load, if not nil, supplies a previously stored Hamiltonian of a sector, or nil if there is none.
	Load func(q state.QuantumNumber) (*gonum.CDense, error)
	// Store, if not nil, receives every assembled Hamiltonian before it is diagonalized.
	Store func(q state.QuantumNumber, h *gonum.CDense) error
}

// sectorHamiltonian returns the loaded Hamiltonian of b if there is one, and otherwise assembles and stores it.
func (cfg SolveConfig) sectorHamiltonian(b *basis.Basis, term hamiltonian.Term) (*gonum.CDense, error) {
	if cfg.Load != nil {
		h, err := cfg.Load(b.Q)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		if h != nil {
			if r, c := h.Dims(); r != b.Len() || c != b.Len() {
				return nil, errors.Wrap(state.ErrInvalidConfiguration, fmt.Sprintf("stored %dx%d, basis %d", r, c, b.Len()))
			}
			return h, nil
		}
	}

	h := hamiltonian.Assemble(b, term)
	if cfg.Store != nil {
		if err := cfg.Store(b.Q, h); err != nil {
			return nil, errors.Wrap(err, "")
		}
	}
	return h, nil
}

// Solve diagonalizes term in every sector of sectors, and returns the spectra in key order.
func Solve(ctx context.Context, sectors *basis.Sectors, term hamiltonian.Term, cfg SolveConfig) ([]Spectrum, error) {
	keys := sectors.Keys()
	spectra := make([]Spectrum, len(keys))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for i, q := range keys {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			b := sectors.Bases[q]
			h, err := cfg.sectorHamiltonian(b, term)
			if err != nil {
				return errors.Wrap(err, fmt.Sprintf("%s", q))
			}
			vals, vecs, err := mat.Eigh(h)
			if err != nil {
				return errors.Wrap(err, fmt.Sprintf("%s", q))
			}
			eigenSolves.Inc()
			spectra[i] = Spectrum{Q: q, Vals: vals, Vecs: vecs}
			cfg.Logger.Debug().Str("sector", q.String()).Int("dim", b.Len()).Dur("elapsed", time.Since(start)).Msg("solved")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return spectra, nil
}

// Level is an eigenvalue together with its sector.
type Level struct {
	Q   state.QuantumNumber
	Val float64
}

// Levels pools the eigenvalues of spectra in ascending order.
// Equal eigenvalues are ordered by sector.
func Levels(spectra []Spectrum) []Level {
	levels := make([]Level, 0)
	for _, s := range spectra {
		for _, v := range s.Vals {
			levels = append(levels, Level{Q: s.Q, Val: v})
		}
	}
	slices.SortStableFunc(levels, func(a, b Level) int {
		if c := cmp.Compare(a.Val, b.Val); c != 0 {
			return c
		}
		return state.Compare(a.Q, b.Q)
	})
	return levels
}

type Statistics struct {
	Dimension    int
	GroundEnergy float64
	GroundSector state.QuantumNumber
	// Gap is the distance between the two lowest levels, zero for a degenerate ground state.
	Gap float64
	// MeanGapRatio is the mean of min(s_n, s_n+1) / max(s_n, s_n+1) over adjacent spacings s.
	// Pairs of zero spacings are skipped.
	MeanGapRatio float64
}

// GetStatistics computes the statistics of levels, which must be in ascending order.
func GetStatistics(levels []Level) (Statistics, error) {
	if len(levels) == 0 {
		return Statistics{}, errors.Errorf("no levels")
	}
	vals := make([]float64, len(levels))
	for i, l := range levels {
		vals[i] = l.Val
	}
	if !slices.IsSorted(vals) {
		return Statistics{}, errors.Errorf("not sorted")
	}

	ground := floats.MinIdx(vals)
	stats := Statistics{Dimension: len(vals), GroundEnergy: vals[ground], GroundSector: levels[ground].Q}
	if len(vals) > 1 {
		stats.Gap = vals[1] - vals[0]
	}

	spacings := make([]float64, len(vals)-1)
	for i := range spacings {
		spacings[i] = vals[i+1] - vals[i]
	}
	ratios := make([]float64, 0, len(spacings))
	for i := 1; i < len(spacings); i++ {
		hi := math.Max(spacings[i-1], spacings[i])
		if hi == 0 {
			continue
		}
		ratios = append(ratios, math.Min(spacings[i-1], spacings[i])/hi)
	}
	if len(ratios) > 0 {
		stats.MeanGapRatio = stat.Mean(ratios, nil)
	}
	return stats, nil
}
