// Command quench computes the probability of an energy increase after a random quench of one
// momentum sector, or the work of a single quench.
//
// Usage:
//
//	quench interaction L m k delta lambda realizations seed threads threshold
//	quench work interaction L m k delta lambda r
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/fumin/spinchain"
	"github.com/fumin/spinchain/config"
	"github.com/fumin/spinchain/hamiltonian"
	"github.com/fumin/spinchain/internal/logger"
	"github.com/fumin/spinchain/quench"
	"github.com/fumin/spinchain/state"
)

const (
	modeEnsemble = "ensemble"
	modeWork     = "work"

	// workRtol is the degeneracy tolerance of a single quench.
	workRtol = 1e-4
)

type job struct {
	mode   string
	params quench.Params
	// threads overrides the configured number of workers when positive.
	threads int
}

func parseArgs(args []string) (job, error) {
	j := job{mode: modeEnsemble}
	if len(args) > 0 && args[0] == modeWork {
		j.mode = modeWork
		args = args[1:]
	}
	want := 10
	if j.mode == modeWork {
		want = 7
	}
	if len(args) != want {
		return job{}, errors.Errorf("%d arguments, expected %d", len(args), want)
	}

	p := &j.params
	ints := []*int{&p.Interaction, &p.Length, &p.M, &p.K}
	for i, dst := range ints {
		v, err := strconv.Atoi(args[i])
		if err != nil {
			return job{}, errors.Wrap(err, fmt.Sprintf("argument %d", i))
		}
		*dst = v
	}
	floats := []*float64{&p.Delta, &p.Lambda}
	for i, dst := range floats {
		v, err := strconv.ParseFloat(args[len(ints)+i], 64)
		if err != nil {
			return job{}, errors.Wrap(err, fmt.Sprintf("argument %d", len(ints)+i))
		}
		*dst = v
	}
	rest := args[len(ints)+len(floats):]

	var err error
	switch j.mode {
	case modeWork:
		if p.R, err = strconv.ParseFloat(rest[0], 64); err != nil {
			return job{}, errors.Wrap(err, "r")
		}
	default:
		if p.Realizations, err = strconv.Atoi(rest[0]); err != nil {
			return job{}, errors.Wrap(err, "realizations")
		}
		if p.Seed, err = strconv.Atoi(rest[1]); err != nil {
			return job{}, errors.Wrap(err, "seed")
		}
		if j.threads, err = strconv.Atoi(rest[2]); err != nil {
			return job{}, errors.Wrap(err, "threads")
		}
		if p.Threshold, err = strconv.ParseFloat(rest[3], 64); err != nil {
			return job{}, errors.Wrap(err, "threshold")
		}
	}
	if p.M < 0 || p.M > p.Length || p.K < 0 || p.K >= p.Length {
		return job{}, errors.Wrap(state.ErrOverFlow, fmt.Sprintf("%+v", *p))
	}
	return j, nil
}

// run executes j and returns the path of the written result file.
func run(ctx context.Context, j job, cfg *config.Config, lg zerolog.Logger) (string, error) {
	p := j.params
	interaction, err := spinchain.ParseInteraction(strconv.Itoa(p.Interaction))
	if err != nil {
		return "", errors.Wrap(err, "")
	}
	term, err := spinchain.Model{Interaction: interaction, Length: p.Length, Delta: p.Delta}.Term()
	if err != nil {
		return "", errors.Wrap(err, "")
	}
	sectors, err := spinchain.LoadSectors(cfg.CacheDir, p.Length)
	if err != nil {
		return "", errors.Wrap(err, "")
	}
	workers := cfg.Workers
	if j.threads > 0 {
		workers = j.threads
	}

	start := time.Now()
	threshold, floor := p.Threshold, cfg.RtolFloor
	if j.mode == modeWork {
		threshold, floor = 0, workRtol
	}
	target := state.Momentum(p.M, p.K)
	setup, err := quench.NewSetup(ctx, sectors, target, term, hamiltonian.Ising{Delta: p.Lambda}, threshold, floor, workers)
	if err != nil {
		return "", errors.Wrap(err, "")
	}
	lg.Info().Str("sector", target.String()).Int("dim", setup.Target.Len()).Int("degenerate_sectors", len(setup.Others)).
		Float64("rtol", setup.Rtol).Dur("elapsed", time.Since(start)).Msg("setup")

	var values, weights []float64
	var fname string
	switch j.mode {
	case modeWork:
		values, weights, err = quench.SuperpositionWork(setup, p.R)
		fname = p.WorkFileName()
	default:
		ecfg := quench.EnsembleConfig{
			Logger:           lg,
			Workers:          workers,
			Realizations:     p.Realizations,
			Seed:             p.EnsembleSeed(),
			ProgressInterval: cfg.ProgressInterval,
		}
		values, weights, err = quench.Ensemble(ctx, setup, ecfg)
		fname = p.EnsembleFileName()
	}
	if err != nil {
		return "", errors.Wrap(err, "")
	}

	if err := os.MkdirAll(cfg.OutputDir, os.ModePerm); err != nil {
		return "", errors.Wrap(err, "")
	}
	fpath := filepath.Join(cfg.OutputDir, fname)
	f, err := os.Create(fpath)
	if err != nil {
		return "", errors.Wrap(err, "")
	}
	if err := quench.WriteLevels(f, setup.Target.Vals, values, weights); err != nil {
		f.Close()
		return "", errors.Wrap(err, "")
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrap(err, "")
	}
	lg.Info().Str("path", fpath).Dur("elapsed", time.Since(start)).Msg("done")
	return fpath, nil
}

func writeMetrics(fpath string) error {
	f, err := os.Create(fpath)
	if err != nil {
		return errors.Wrap(err, "")
	}
	metrics.WritePrometheus(f, false)
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	if err := mainWithErr(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func mainWithErr() error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "")
	}
	lg := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	j, err := parseArgs(flag.Args())
	if err != nil {
		return errors.Wrap(err, "")
	}
	if _, err := run(context.Background(), j, cfg, lg); err != nil {
		return errors.Wrap(err, "")
	}

	if cfg.MetricsPath != "" {
		if err := writeMetrics(cfg.MetricsPath); err != nil {
			return errors.Wrap(err, "")
		}
	}
	return nil
}
