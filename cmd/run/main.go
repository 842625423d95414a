package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	gonum "gonum.org/v1/gonum/mat"

	"github.com/fumin/spinchain"
	"github.com/fumin/spinchain/config"
	"github.com/fumin/spinchain/internal/logger"
	"github.com/fumin/spinchain/mat"
	"github.com/fumin/spinchain/state"
)

const (
	fnameEigen      = "eig.csv"
	fnameDone       = "done.txt"
	fnameStatistics = "statistics.txt"
)

var (
	runDir    = flag.String("d", filepath.Join("runs", "spinchain"), "run directory")
	maxLength = flag.Int("l", 10, "maximum chain length")
	sqlite    = flag.Bool("sqlite", false, "store sector Hamiltonians in sqlite, reusing those of interrupted runs")
	coo       = flag.Bool("coo", false, "export stored Hamiltonians as COO csv, requires -sqlite")
)

type Statistics struct {
	model spinchain.Model
	spinchain.Statistics
}

func getStatistics(dir string) error {
	levels, err := readEig(dir)
	if err != nil {
		return errors.Wrap(err, "")
	}

	stats, err := spinchain.GetStatistics(levels)
	if err != nil {
		return errors.Wrap(err, "")
	}

	b, err := json.Marshal(stats)
	if err != nil {
		return errors.Wrap(err, "")
	}
	mPath := filepath.Join(dir, fnameStatistics)
	if err := os.WriteFile(mPath, b, 0644); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func sectorName(q state.QuantumNumber) string {
	return fmt.Sprintf("m%d_k%d", q.M, q.K)
}

// loadSector returns the Hamiltonian of q stored in dir by an interrupted run, or nil if there is none.
// The sqlite database is preferred over the COO export.
func loadSector(dir string, q state.QuantumNumber) (*gonum.CDense, error) {
	name := sectorName(q)
	if d, err := mat.OpenDiskMatrix(filepath.Join(dir, name+".db")); err == nil {
		defer d.Close()
		h, err := d.CDense()
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		return h, nil
	}

	cooDir := filepath.Join(dir, "coo", name)
	if _, err := os.Stat(filepath.Join(cooDir, mat.FnameShape)); err != nil {
		return nil, nil
	}
	h, err := mat.ReadCOO(cooDir)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return h, nil
}

// storeSector writes h to a sqlite database in dir, and optionally exports it as COO.
func storeSector(dir string, q state.QuantumNumber, h *gonum.CDense) error {
	name := sectorName(q)
	d, err := mat.NewDiskMatrix(filepath.Join(dir, name+".db"), h)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer d.Close()
	if !*coo {
		return nil
	}

	cooDir := filepath.Join(dir, "coo", name)
	if err := os.MkdirAll(cooDir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}
	if err := d.WriteCOO(cooDir); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func solveSpectrum(ctx context.Context, dir string, m spinchain.Model, cfg *config.Config, lg zerolog.Logger) error {
	term, err := m.Term()
	if err != nil {
		return errors.Wrap(err, "")
	}
	sectors, err := spinchain.LoadSectors(cfg.CacheDir, m.Length)
	if err != nil {
		return errors.Wrap(err, "")
	}

	scfg := spinchain.SolveConfig{Logger: lg, Workers: cfg.Workers}
	if *sqlite {
		scfg.Load = func(q state.QuantumNumber) (*gonum.CDense, error) {
			return loadSector(dir, q)
		}
		scfg.Store = func(q state.QuantumNumber, h *gonum.CDense) error {
			return storeSector(dir, q, h)
		}
	}
	spectra, err := spinchain.Solve(ctx, sectors, term, scfg)
	if err != nil {
		return errors.Wrap(err, "")
	}

	if err := writeEig(dir, spinchain.Levels(spectra)); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func solve(ctx context.Context, dir string, m spinchain.Model, cfg *config.Config, lg zerolog.Logger) error {
	donePath := filepath.Join(dir, fnameDone)
	if _, err := os.Stat(donePath); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}

	if err := solveSpectrum(ctx, dir, m, cfg, lg); err != nil {
		return errors.Wrap(err, "")
	}
	if err := getStatistics(dir); err != nil {
		return errors.Wrap(err, "")
	}

	if err := os.WriteFile(donePath, nil, 0644); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func gather(dir string) ([]Statistics, error) {
	stats := make([]Statistics, 0)
	iEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	for _, ient := range iEntries {
		interaction, err := spinchain.ParseInteraction(ient.Name())
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%#v", ient))
		}

		idir := filepath.Join(dir, ient.Name())
		lEntries, err := os.ReadDir(idir)
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%#v", ient))
		}
		for _, lent := range lEntries {
			length, err := strconv.Atoi(lent.Name())
			if err != nil {
				return nil, errors.Wrap(err, fmt.Sprintf("%#v %#v", ient, lent))
			}

			ldir := filepath.Join(idir, lent.Name())
			dEntries, err := os.ReadDir(ldir)
			if err != nil {
				return nil, errors.Wrap(err, fmt.Sprintf("%#v %#v", ient, lent))
			}
			for _, dent := range dEntries {
				delta, err := strconv.ParseFloat(dent.Name(), 64)
				if err != nil {
					return nil, errors.Wrap(err, fmt.Sprintf("%#v %#v %#v", ient, lent, dent))
				}

				sb, err := os.ReadFile(filepath.Join(ldir, dent.Name(), fnameStatistics))
				if err != nil {
					return nil, errors.Wrap(err, fmt.Sprintf("%#v %#v %#v", ient, lent, dent))
				}
				s := Statistics{model: spinchain.Model{Interaction: interaction, Length: length, Delta: delta}}
				if err := json.Unmarshal(sb, &s); err != nil {
					return nil, errors.Wrap(err, fmt.Sprintf("%#v %#v %#v", ient, lent, dent))
				}
				stats = append(stats, s)
			}
		}
	}
	return stats, nil
}

// readEig reads the levels written by writeEig.
func readEig(dir string) ([]spinchain.Level, error) {
	fpath := filepath.Join(dir, fnameEigen)
	f, err := os.Open(fpath)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = 3

	// Skip the header.
	if _, err := r.Read(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	levels := make([]spinchain.Level, 0)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "")
		}

		m, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%#v", record))
		}
		k, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%#v", record))
		}
		v, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%#v", record))
		}
		levels = append(levels, spinchain.Level{Q: state.Momentum(m, k), Val: v})
	}
	return levels, nil
}

func writeEig(dir string, levels []spinchain.Level) error {
	fpath := filepath.Join(dir, fnameEigen)
	f, err := os.Create(fpath)
	if err != nil {
		return errors.Wrap(err, "")
	}
	w := csv.NewWriter(f)

	if err1 := w.Write([]string{"m", "k", "value"}); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	for _, l := range levels {
		row := []string{strconv.Itoa(l.Q.M), strconv.Itoa(l.Q.K), strconv.FormatFloat(l.Val, 'g', -1, 64)}
		if err1 := w.Write(row); err1 != nil && err == nil {
			err = errors.Wrap(err1, "")
			break
		}
	}

	w.Flush()
	if err1 := w.Error(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	if err1 := f.Close(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	return err
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
	if *coo && !*sqlite {
		return errors.Errorf("-coo requires -sqlite")
	}
	if err := os.MkdirAll(*runDir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}

	configs := make([]spinchain.Model, 0)
	for _, interaction := range []spinchain.Interaction{spinchain.Nearest, spinchain.NextNearest} {
		for l := 4; l <= *maxLength; l += 2 {
			for _, delta := range []float64{0, 0.5, 1, 1.5, 2} {
				configs = append(configs, spinchain.Model{Interaction: interaction, Length: l, Delta: delta})
			}
		}
	}

	// Solve for the spectra.
	ctx := context.Background()
	for _, c := range configs {
		dir := filepath.Join(*runDir, strconv.Itoa(int(c.Interaction)), strconv.Itoa(c.Length), fmt.Sprintf("%f", c.Delta))
		if err := solve(ctx, dir, c, cfg, lg); err != nil {
			return errors.Wrap(err, fmt.Sprintf("%+v", c))
		}
		lg.Info().Str("interaction", c.Interaction.String()).Int("length", c.Length).Float64("delta", c.Delta).Msg("solved")
	}

	// Gather results and print them.
	stats, err := gather(*runDir)
	if err != nil {
		return errors.Wrap(err, "")
	}
	fmt.Printf("interaction,length,delta,dim,e0,m0,k0,gap,r\n")
	for _, s := range stats {
		fmt.Printf("%d,%d,%f,%d,%f,%d,%d,%f,%f\n", s.model.Interaction, s.model.Length, s.model.Delta, s.Dimension, s.GroundEnergy, s.GroundSector.M, s.GroundSector.K, s.Gap, s.MeanGapRatio)
	}
	return nil
}
