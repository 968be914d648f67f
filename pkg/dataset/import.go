package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/HunRotation/umato/pkg/errors"
)

// Dataset is a dense point matrix with optional per-point class labels.
// Labels is either nil or has exactly one entry per point.
type Dataset struct {
	Points [][]float64 `json:"points" bson:"points"`
	Labels []int       `json:"labels,omitempty" bson:"labels,omitempty"`
}

// Len returns the number of points.
func (d *Dataset) Len() int { return len(d.Points) }

// Dim returns the feature dimensionality, or 0 for an empty dataset.
func (d *Dataset) Dim() int {
	if len(d.Points) == 0 {
		return 0
	}
	return len(d.Points[0])
}

// ReadOptions control CSV parsing.
type ReadOptions struct {
	// HasHeader skips the first row.
	HasHeader bool

	// LabelColumn is the zero-based index of the integer label column.
	// A negative value means the file has no labels.
	LabelColumn int
}

// DefaultReadOptions returns options for an unlabeled, headerless file.
func DefaultReadOptions() ReadOptions {
	return ReadOptions{LabelColumn: -1}
}

// ReadCSV decodes a numeric CSV dataset from r.
//
// Every row must have the same number of columns. The label column, when
// selected, must parse as an integer; all other columns must parse as
// floats. ReadCSV does not close r.
func ReadCSV(r io.Reader, opts ReadOptions) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	if opts.HasHeader {
		if _, err := cr.Read(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read header")
		}
	}

	ds := &Dataset{}
	row := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "row %d", row)
		}
		if opts.LabelColumn >= len(rec) {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "row %d: label column %d out of range (%d columns)", row, opts.LabelColumn, len(rec))
		}

		point := make([]float64, 0, len(rec))
		for col, field := range rec {
			if col == opts.LabelColumn {
				label, err := strconv.Atoi(field)
				if err != nil {
					return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "row %d: label %q", row, field)
				}
				ds.Labels = append(ds.Labels, label)
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "row %d column %d: value %q", row, col, field)
			}
			point = append(point, v)
		}
		ds.Points = append(ds.Points, point)
		row++
	}

	if len(ds.Points) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "dataset is empty")
	}
	return ds, nil
}

// ImportCSV reads a CSV file at path and returns the decoded dataset.
//
// ImportCSV opens the file, decodes it using [ReadCSV], and closes the file.
// The error wraps the underlying cause with the file path for context.
func ImportCSV(path string, opts ReadOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f, opts)
}
