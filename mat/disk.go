package mat

import (
	"context"
	"database/sql"
	"fmt"
	"math/cmplx"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	tableMatrix = "m"
	tableShape  = "shape"
)

// DiskMatrix is a sparse complex matrix stored in sqlite.
type DiskMatrix struct {
	Path string
	rows int
	cols int

	db *sql.DB
}

// NewDiskMatrix creates the database at dbPath and stores m in it, replacing any previous content.
func NewDiskMatrix(dbPath string, m mat.CMatrix) (*DiskMatrix, error) {
	rows, cols := m.Dims()
	d := &DiskMatrix{Path: dbPath, rows: rows, cols: cols}
	var err error
	d.db, err = newDB(d.Path)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := d.init(m); err != nil {
		d.db.Close()
		return nil, errors.Wrap(err, "")
	}
	return d, nil
}

func (d *DiskMatrix) init(m mat.CMatrix) error {
	ctx, cancel := context.WithTimeout(context.Background(), 48*time.Hour)
	defer cancel()
	if err := prepareDB(ctx, d.db); err != nil {
		return errors.Wrap(err, "")
	}

	// The shape row commits with the elements. A database without one is incomplete.
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "")
	}
	sqlStr := fmt.Sprintf(`INSERT INTO %s (nrows, ncols) VALUES (?, ?)`, tableShape)
	if _, err := tx.ExecContext(ctx, sqlStr, d.rows, d.cols); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "")
	}
	for i := 0; i < d.rows; i++ {
		for j := 0; j < d.cols; j++ {
			if err := setItem(ctx, tx, i, j, m.At(i, j)); err != nil {
				tx.Rollback()
				return errors.Wrap(err, "")
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// OpenDiskMatrix opens a matrix previously stored with NewDiskMatrix.
func OpenDiskMatrix(dbPath string) (*DiskMatrix, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, errors.Wrap(err, "")
	}
	d := &DiskMatrix{Path: dbPath}
	var err error
	d.db, err = newDB(d.Path)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	sqlStr := fmt.Sprintf(`SELECT nrows, ncols FROM %s`, tableShape)
	if err := d.db.QueryRowContext(ctx, sqlStr).Scan(&d.rows, &d.cols); err != nil {
		d.db.Close()
		return nil, errors.Wrap(err, fmt.Sprintf("db %s", dbPath))
	}
	return d, nil
}

func (d *DiskMatrix) Close() error {
	return d.db.Close()
}

// Remove closes d and deletes its database.
func (d *DiskMatrix) Remove() error {
	var err error
	if err1 := d.db.Close(); err1 != nil && err == nil {
		err = err1
	}
	if err1 := os.Remove(d.Path); err1 != nil && err == nil {
		err = err1
	}
	return err
}

func (d *DiskMatrix) Dims() (int, int) { return d.rows, d.cols }

func (d *DiskMatrix) At(i, j int) complex128 {
	v, err := d.at(i, j)
	if err != nil {
		panic(fmt.Sprintf("%+v", err))
	}
	return v
}

func (d *DiskMatrix) at(i, j int) (complex128, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	sqlStr := fmt.Sprintf(`SELECT re, im FROM %s WHERE i=? AND j=?`, tableMatrix)
	var re, im float64
	err := d.db.QueryRowContext(ctx, sqlStr, i, j).Scan(&re, &im)
	switch {
	case err == sql.ErrNoRows:
		return 0, nil
	case err != nil:
		return cmplx.NaN(), errors.Wrap(err, "")
	default:
		return complex(re, im), nil
	}
}

func (d *DiskMatrix) Set(i, j int, v complex128) error {
	if i < 0 || i >= d.rows || j < 0 || j >= d.cols {
		return errors.Errorf("%d %d out of %d %d", i, j, d.rows, d.cols)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := setItem(ctx, d.db, i, j, v); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// Add sets d to d + c*b.
func (d *DiskMatrix) Add(c complex128, b *DiskMatrix) error {
	if d.rows != b.rows || d.cols != b.cols {
		return errors.Errorf("wrong dimensions %d %d %d %d", d.rows, d.cols, b.rows, b.cols)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 48*time.Hour)
	defer cancel()
	bm, err := b.nonZero(ctx)
	if err != nil {
		return errors.Wrap(err, "")
	}
	for _, bv := range bm {
		av, err := d.at(bv.row, bv.col)
		if err != nil {
			return errors.Wrap(err, "")
		}
		if err := setItem(ctx, d.db, bv.row, bv.col, av+c*bv.v); err != nil {
			return errors.Wrap(err, "")
		}
	}
	return nil
}

// CDense loads d into memory.
func (d *DiskMatrix) CDense() (*mat.CDense, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 48*time.Hour)
	defer cancel()
	vs, err := d.nonZero(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	m := mat.NewCDense(d.rows, d.cols, nil)
	for _, v := range vs {
		m.Set(v.row, v.col, v.v)
	}
	return m, nil
}

func (d *DiskMatrix) nonZero(ctx context.Context) ([]vRowCol, error) {
	sqlStr := fmt.Sprintf(`SELECT i, j, re, im FROM %s ORDER BY i, j`, tableMatrix)
	rows, err := d.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer rows.Close()

	vs := make([]vRowCol, 0)
	for rows.Next() {
		var i, j int
		var re, im float64
		if err := rows.Scan(&i, &j, &re, &im); err != nil {
			return nil, errors.Wrap(err, "")
		}
		vs = append(vs, vRowCol{v: complex(re, im), row: i, col: j})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return vs, nil
}

func (d *DiskMatrix) NumNonZero() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	sqlStr := fmt.Sprintf("SELECT count(1) FROM %s", tableMatrix)
	var n int
	if err := d.db.QueryRowContext(ctx, sqlStr).Scan(&n); err != nil {
		return -1, errors.Wrap(err, "")
	}
	return n, nil
}

// WriteCOO streams d to dir in the format of WriteCOO.
func (d *DiskMatrix) WriteCOO(dir string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 48*time.Hour)
	defer cancel()
	vs, err := d.nonZero(ctx)
	if err != nil {
		return errors.Wrap(err, "")
	}

	w, err := newCOOWriter(dir, d.rows, d.cols)
	if err != nil {
		return errors.Wrap(err, "")
	}
	for _, v := range vs {
		if err1 := w.Write(v); err1 != nil && err == nil {
			err = errors.Wrap(err1, "")
			break
		}
	}
	if err1 := w.Close(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func setItem(ctx context.Context, db execer, i, j int, v complex128) error {
	sqlStr := fmt.Sprintf(`INSERT OR REPLACE INTO %s (i, j, re, im) VALUES (?, ?, ?, ?)`, tableMatrix)
	args := []any{i, j, real(v), imag(v)}
	if v == 0 {
		sqlStr = fmt.Sprintf(`DELETE FROM %s WHERE i=? AND j=?`, tableMatrix)
		args = []any{i, j}
	}
	if _, err := db.ExecContext(ctx, sqlStr, args...); err != nil {
		return errors.Wrap(err, fmt.Sprintf("%s %#v", sqlStr, args))
	}
	return nil
}

func newDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", dbPath))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return db, nil
}

func prepareDB(ctx context.Context, db *sql.DB) error {
	for _, table := range []string{tableMatrix, tableShape} {
		sqlStr := fmt.Sprintf(`DROP TABLE IF EXISTS %s`, table)
		if _, err := db.ExecContext(ctx, sqlStr); err != nil {
			return errors.Wrap(err, "")
		}
	}
	sqlStr := fmt.Sprintf(`CREATE TABLE %s (i INTEGER, j INTEGER, re REAL, im REAL, PRIMARY KEY (i, j)) STRICT`, tableMatrix)
	if _, err := db.ExecContext(ctx, sqlStr); err != nil {
		return errors.Wrap(err, "")
	}
	sqlStr = fmt.Sprintf(`CREATE TABLE %s (nrows INTEGER, ncols INTEGER) STRICT`, tableShape)
	if _, err := db.ExecContext(ctx, sqlStr); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}
