package mat

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/cmplx"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	FnameShape = "shape.csv"
	FnameCOO   = "coo.csv"
)

type vRowCol struct {
	v   complex128
	row int
	col int
}

// WriteCOO writes the nonzero elements of m in row major order to dir.
// A value or row equal to the one of the previous line is left blank.
func WriteCOO(dir string, m mat.CMatrix) error {
	rows, cols := m.Dims()
	w, err := newCOOWriter(dir, rows, cols)
	if err != nil {
		return errors.Wrap(err, "")
	}
Loop:
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			if v == 0 {
				continue
			}
			if err1 := w.Write(vRowCol{v: v, row: i, col: j}); err1 != nil && err == nil {
				err = errors.Wrap(err1, "")
				break Loop
			}
		}
	}
	if err1 := w.Close(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	return err
}

// cooWriter writes the shape file on a successful Close, marking the export complete.
type cooWriter struct {
	dir        string
	rows, cols int

	f    *os.File
	w    *csv.Writer
	prev vRowCol
	err  error
}

func newCOOWriter(dir string, rows, cols int) (*cooWriter, error) {
	shapePath := filepath.Join(dir, FnameShape)
	if err := os.Remove(shapePath); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "")
	}

	f, err := os.Create(filepath.Join(dir, FnameCOO))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	w := &cooWriter{dir: dir, rows: rows, cols: cols, f: f, w: csv.NewWriter(f), prev: vRowCol{v: cmplx.NaN(), row: -1, col: -1}}
	return w, nil
}

func (w *cooWriter) Write(v vRowCol) error {
	var vStr string
	if v.v != w.prev.v {
		vStr = FormatNumpy(v.v)
	}
	var rowStr string
	if v.row != w.prev.row {
		rowStr = strconv.Itoa(v.row)
	}
	if err := w.w.Write([]string{vStr, rowStr, strconv.Itoa(v.col)}); err != nil {
		w.err = errors.Wrap(err, "")
		return w.err
	}
	w.prev = v
	return nil
}

func (w *cooWriter) Close() error {
	err := w.err
	w.w.Flush()
	if err1 := w.w.Error(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	if err1 := w.f.Close(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	if err != nil {
		return err
	}

	shapePath := filepath.Join(w.dir, FnameShape)
	if err := os.WriteFile(shapePath, []byte(fmt.Sprintf("%d,%d", w.rows, w.cols)), 0644); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

type COOReader struct {
	f *os.File
	r *csv.Reader
	i int

	prev vRowCol
}

func NewCOOReader(dir string) (*COOReader, error) {
	r := &COOReader{i: -1}

	var err error
	r.f, err = os.Open(filepath.Join(dir, FnameCOO))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	r.r = csv.NewReader(r.f)
	return r, nil
}

func (r *COOReader) Close() error {
	return r.f.Close()
}

// Read returns the next element, or io.EOF.
func (r *COOReader) Read() (v complex128, row, col int, err error) {
	vrc, err := r.read()
	if err != nil {
		return 0, -1, -1, err
	}
	return vrc.v, vrc.row, vrc.col, nil
}

func (r *COOReader) read() (vRowCol, error) {
	r.i++
	record, err := r.r.Read()
	if err == io.EOF {
		return vRowCol{}, io.EOF
	}
	if err != nil {
		return vRowCol{}, errors.Wrap(err, fmt.Sprintf("%d", r.i))
	}
	if len(record) != 3 {
		return vRowCol{}, errors.Errorf("%d %#v", r.i, record)
	}

	var vrc vRowCol
	switch {
	case record[0] == "":
		vrc.v = r.prev.v
	default:
		s := strings.ReplaceAll(record[0], "j", "i")
		vrc.v, err = strconv.ParseComplex(s, 128)
		if err != nil {
			return vRowCol{}, errors.Wrap(err, fmt.Sprintf("%d %#v", r.i, record))
		}
	}

	switch {
	case record[1] == "":
		vrc.row = r.prev.row
	default:
		vrc.row, err = strconv.Atoi(record[1])
		if err != nil {
			return vRowCol{}, errors.Wrap(err, fmt.Sprintf("%d %#v", r.i, record))
		}
	}

	vrc.col, err = strconv.Atoi(record[2])
	if err != nil {
		return vRowCol{}, errors.Wrap(err, fmt.Sprintf("%d %#v", r.i, record))
	}

	r.prev = vrc
	return vrc, nil
}

// ReadCOO reads a matrix written by WriteCOO.
func ReadCOO(dir string) (*mat.CDense, error) {
	rows, cols, err := readShape(dir)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	m := mat.NewCDense(rows, cols, nil)

	r, err := NewCOOReader(dir)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer r.Close()
	for {
		v, err := r.read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		if v.row >= rows || v.col >= cols {
			return nil, errors.Errorf("%d %d out of %d %d", v.row, v.col, rows, cols)
		}
		m.Set(v.row, v.col, v.v)
	}

	return m, nil
}

func readShape(dir string) (int, int, error) {
	f, err := os.Open(filepath.Join(dir, FnameShape))
	if err != nil {
		return -1, -1, errors.Wrap(err, "")
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return -1, -1, errors.Wrap(err, "")
	}
	if len(records) == 0 {
		return -1, -1, errors.Errorf("empty")
	}
	row := records[0]

	if len(row) != 2 {
		return -1, -1, errors.Errorf("%#v", row)
	}
	i, err := strconv.Atoi(row[0])
	if err != nil {
		return -1, -1, errors.Wrap(err, fmt.Sprintf("%#v", row))
	}
	j, err := strconv.Atoi(row[1])
	if err != nil {
		return -1, -1, errors.Wrap(err, fmt.Sprintf("%#v", row))
	}

	return i, j, nil
}

// FormatNumpy formats v the way numpy parses complex numbers.
func FormatNumpy(v complex128) string {
	switch {
	case imag(v) == 0:
		return strconv.FormatFloat(real(v), 'g', -1, 64)
	default:
		s := strconv.FormatComplex(v, 'g', -1, 128)
		s = strings.ReplaceAll(s, "i", "j")
		return s
	}
}
