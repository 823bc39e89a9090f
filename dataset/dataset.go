// Package dataset loads tabular regression data into gonum matrices.
//
// Two on-disk formats are supported: CSV with the target in a designated
// column, and NumPy .npy arrays (features and targets in separate files).
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/gboost-ml/gboost/pkg/errors"
)

// LoadCSV reads a CSV file and splits it into an n×d feature matrix and an
// n×1 target vector. targetCol is the zero-based index of the target column;
// a negative value selects the last column. When hasHeader is true the first
// record is skipped.
func LoadCSV(path string, targetCol int, hasHeader bool) (X, y *mat.Dense, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "LoadCSV: opening %s", path)
	}
	defer func() { _ = f.Close() }()

	return readCSV(f, targetCol, hasHeader)
}

func readCSV(rd io.Reader, targetCol int, hasHeader bool) (X, y *mat.Dense, err error) {
	r := csv.NewReader(rd)
	r.ReuseRecord = true

	if hasHeader {
		if _, err := r.Read(); err != nil {
			return nil, nil, errors.Wrap(err, "LoadCSV: reading header")
		}
	}

	var (
		features []float64
		targets  []float64
		nCols    int
		line     int
	)

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.Wrap(err, "LoadCSV: reading record")
		}
		line++

		if nCols == 0 {
			nCols = len(record)
			if nCols < 2 {
				return nil, nil, errors.NewValueError("LoadCSV", "need at least one feature column and one target column")
			}
			if targetCol < 0 {
				targetCol = nCols - 1
			}
			if targetCol >= nCols {
				return nil, nil, errors.NewValidationError("target_column", "out of range", targetCol)
			}
		}

		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "LoadCSV: row %d column %d", line, j)
			}
			if j == targetCol {
				targets = append(targets, v)
			} else {
				features = append(features, v)
			}
		}
	}

	if len(targets) == 0 {
		return nil, nil, errors.NewModelError("LoadCSV", "empty data", errors.ErrEmptyData)
	}

	n := len(targets)
	return mat.NewDense(n, nCols-1, features), mat.NewDense(n, 1, targets), nil
}

// LoadNPY reads a NumPy .npy file into a dense matrix. One-dimensional
// arrays come back as a single-column matrix.
func LoadNPY(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "LoadNPY: opening %s", path)
	}
	defer func() { _ = f.Close() }()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "LoadNPY: reading header of %s", path)
	}

	m := &mat.Dense{}
	if err := r.Read(m); err != nil {
		return nil, errors.Wrapf(err, "LoadNPY: reading %s", path)
	}
	return m, nil
}

// SaveNPY writes a matrix to a NumPy .npy file, for handing predictions back
// to Python tooling.
func SaveNPY(path string, m *mat.Dense) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "SaveNPY: creating %s", path)
	}
	defer func() { _ = f.Close() }()

	if err := npyio.Write(f, m); err != nil {
		return errors.Wrapf(err, "SaveNPY: writing %s", path)
	}
	return nil
}
