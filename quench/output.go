package quench

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Params identify a quench run.
type Params struct {
	// Interaction is 0 for nearest neighbour and 1 for next nearest neighbour chains.
	Interaction  int
	Length       int
	M            int
	K            int
	Delta        float64
	Lambda       float64
	Realizations int
	Seed         int
	Threshold    float64
	// R is the perturbation strength of a single quench.
	R float64
}

// EnsembleSeed returns the generator seed of the ensemble of p.
// Runs of different parameters draw different sequences even when given the same seed.
func (p Params) EnsembleSeed() uint64 {
	dl := int(p.Delta + p.Lambda)
	s := p.Seed + p.Length + p.M + p.K + p.Interaction + max(dl, 0)
	return uint64(s)
}

// EnsembleFileName returns the result file name of an ensemble run.
func (p Params) EnsembleFileName() string {
	return fmt.Sprintf("parallel_ed_p_Index_%d_SysSize_%d_M_%d_K_%d_Delta_%s_Lambda_%s_Ensem_%d_Seed_%d_Thr_%s.dat",
		p.Interaction, p.Length, p.M, p.K, formatExp(p.Delta, -1), formatExp(p.Lambda, -1), p.Realizations, p.Seed, formatExp(p.Threshold, -1))
}

// WorkFileName returns the result file name of a superposition work run.
func (p Params) WorkFileName() string {
	return fmt.Sprintf("ed_sppn_work_Index_%d_SysSize_%d_M_%d_K_%d_Delta_%s_Lambda_%s_R_%s.dat",
		p.Interaction, p.Length, p.M, p.K, formatExp(p.Delta, -1), formatExp(p.Lambda, -1), strconv.FormatFloat(p.R, 'f', -1, 64))
}

// WriteLevels writes one line of energy and value per eigenstate, skipping the eigenstates
// folded into others, those with a negative weight.
func WriteLevels(w io.Writer, energies, values, weights []float64) error {
	if len(energies) != len(values) || len(energies) != len(weights) {
		return errors.Errorf("%d %d %d", len(energies), len(values), len(weights))
	}
	bw := bufio.NewWriter(w)
	for i, e := range energies {
		if weights[i] < 0 {
			continue
		}
		if _, err := fmt.Fprintf(bw, "%s\t%s\n", formatExp(e, 5), formatExp(values[i], 5)); err != nil {
			return errors.Wrap(err, "")
		}
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// formatExp formats v in scientific notation with an unpadded, unsigned positive exponent,
// such as 1.50000e0 or 2e-3.
// A negative prec gives the shortest representation.
func formatExp(v float64, prec int) string {
	s := strconv.FormatFloat(v, 'e', prec, 64)
	mant, exp, ok := strings.Cut(s, "e")
	if !ok {
		return s
	}
	n, err := strconv.Atoi(exp)
	if err != nil {
		return s
	}
	return mant + "e" + strconv.Itoa(n)
}
