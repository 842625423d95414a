package quench

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/fumin/spinchain/basis"
	"github.com/fumin/spinchain/degeneracy"
	"github.com/fumin/spinchain/hamiltonian"
	"github.com/fumin/spinchain/internal/util"
	"github.com/fumin/spinchain/state"
)

var (
	realizations    = metrics.NewCounter(`spinchain_quench_realizations_total`)
	retainedSectors = metrics.NewCounter(`spinchain_quench_retained_sectors_total`)
)

// Setup is a target sector together with the sectors sharing its energy levels.
type Setup struct {
	Target *Sector
	// Others are the sectors with at least one eigenvalue in a bucket of the target, in key order.
	Others []*Sector
	// Rtol is the bucket width of Energies, and the threshold of a positive energy change.
	Rtol     float64
	Energies degeneracy.EnergyMap
}

// Rtol returns threshold times the smallest gap between adjacent eigenvalues of vals, but no
// less than floor.
func Rtol(vals []float64, threshold, floor float64) float64 {
	gap := math.Inf(1)
	for i := 1; i < len(vals); i++ {
		gap = math.Min(gap, vals[i]-vals[i-1])
	}
	if math.IsInf(gap, 1) {
		return floor
	}
	return math.Max(threshold*gap, floor)
}

// NewSetup diagonalizes target and every other sector of sectors, and pools their degenerate
// levels. Sectors are solved concurrently by at most workers goroutines.
func NewSetup(ctx context.Context, sectors *basis.Sectors, target state.QuantumNumber, term hamiltonian.Term, perturbation hamiltonian.Ising, threshold, floor float64, workers int) (*Setup, error) {
	tb, ok := sectors.Bases[target]
	if !ok {
		return nil, errors.Wrap(state.ErrInvalidConfiguration, fmt.Sprintf("%s", target))
	}
	ts, err := NewSector(tb, term, perturbation)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	s := &Setup{Target: ts, Rtol: Rtol(ts.Vals, threshold, floor)}
	s.Energies, err = degeneracy.PrepareEnergyMap(target, ts.Vals, s.Rtol)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	keys := make([]state.QuantumNumber, 0, sectors.Len())
	for _, q := range sectors.Keys() {
		if q != target {
			keys = append(keys, q)
		}
	}
	others := make([]*Sector, len(keys))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, q := range keys {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var err error
			others[i], err = NewSector(sectors.Bases[q], term, perturbation)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "")
	}

	for _, o := range others {
		if degeneracy.CountDegeneracyFrom(s.Energies, o.Q, o.Vals, s.Rtol) {
			s.Others = append(s.Others, o)
			retainedSectors.Inc()
		}
	}
	return s, nil
}

// EnsembleConfig configures Ensemble.
type EnsembleConfig struct {
	Logger  zerolog.Logger
	Workers int
	// Realizations is the number of perturbation strengths drawn.
	Realizations int
	Seed         uint64
	// ProgressInterval throttles progress logs.
	ProgressInterval time.Duration
}

// Ensemble draws perturbation strengths r uniformly from [-1, 1) and returns, for every eigenstate
// of the target, the probability that quenching it with r raises its energy by more than Rtol.
// Degenerate eigenstates are pooled onto the canonical eigenstate of their level, with the
// weights returned alongside.
func Ensemble(ctx context.Context, s *Setup, cfg EnsembleConfig) ([]float64, []float64, error) {
	weights, redirects, err := degeneracy.Pair(s.Target.Len(), s.Energies)
	if err != nil {
		return nil, nil, errors.Wrap(err, "")
	}
	if cfg.Realizations < 1 {
		return nil, nil, errors.Errorf("realizations %d", cfg.Realizations)
	}
	workers := min(max(cfg.Workers, 1), cfg.Realizations)
	p := 1 / float64(cfg.Realizations)

	var rngMu sync.Mutex
	rng := Seed(cfg.Seed)
	draw := func() float64 {
		rngMu.Lock()
		defer rngMu.Unlock()
		return rng.Uniform(-1, 1)
	}

	var resultMu sync.Mutex
	result := make([]float64, s.Target.Len())
	var done int
	throttler := util.NewSkipThrottler(cfg.ProgressInterval)

	g, ctx := errgroup.WithContext(ctx)
	for w := range workers {
		quota := cfg.Realizations / workers
		if w < cfg.Realizations%workers {
			quota++
		}
		g.Go(func() error {
			start := time.Now()
			for range quota {
				if err := ctx.Err(); err != nil {
					return err
				}
				total, err := pooledChange(s, draw(), weights, redirects)
				if err != nil {
					return errors.Wrap(err, "")
				}

				resultMu.Lock()
				for i, v := range total {
					if v > s.Rtol {
						result[i] += p
					}
				}
				done++
				if skipped, ok := throttler.Ok(); ok {
					cfg.Logger.Info().Int("done", done).Int("total", cfg.Realizations).Int("since_last", skipped+1).Msg("ensemble")
				}
				resultMu.Unlock()
				realizations.Inc()
			}
			cfg.Logger.Info().Int("worker", w).Int("realizations", quota).Dur("elapsed", time.Since(start)).Msg("worker done")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, errors.Wrap(err, "")
	}
	return result, weights, nil
}

// pooledChange quenches every sector of s with r and pools the energy changes of degenerate
// eigenstates.
func pooledChange(s *Setup, r float64, weights []float64, redirects map[state.QuantumNumber][]degeneracy.Redirect) ([]float64, error) {
	change, err := s.Target.EnergyChange(r)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	total := make([]float64, len(change))
	for i, c := range change {
		total[i] = c * weights[i]
	}
	for _, rd := range redirects[s.Target.Q] {
		total[rd.To] += change[rd.From] * weights[rd.To]
	}

	for _, o := range s.Others {
		change, err := o.EnergyChange(r)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		for _, rd := range redirects[o.Q] {
			total[rd.To] += change[rd.From] * weights[rd.To]
		}
	}
	return total, nil
}

// SuperpositionWork returns for every eigenstate of the target the energy change of a single
// quench with r, where a degenerate level is prepared in the equal superposition of its
// eigenstates.
func SuperpositionWork(s *Setup, r float64) ([]float64, []float64, error) {
	weights, redirects, err := degeneracy.Triple(s.Target.Len(), s.Energies)
	if err != nil {
		return nil, nil, errors.Wrap(err, "")
	}

	w, err := s.Target.WorkMatrix(r)
	if err != nil {
		return nil, nil, errors.Wrap(err, "")
	}
	total := make([]complex128, s.Target.Len())
	for i := range total {
		total[i] = w.At(i, i) * complex(weights[i], 0)
	}
	for _, rd := range redirects[s.Target.Q] {
		total[rd.To] += w.At(rd.From1, rd.From2) * complex(weights[rd.To], 0)
	}
	for _, o := range s.Others {
		ow, err := o.WorkMatrix(r)
		if err != nil {
			return nil, nil, errors.Wrap(err, "")
		}
		for _, rd := range redirects[o.Q] {
			total[rd.To] += ow.At(rd.From1, rd.From2) * complex(weights[rd.To], 0)
		}
	}

	work := make([]float64, len(total))
	for i, v := range total {
		work[i] = real(v)
	}
	return work, weights, nil
}
