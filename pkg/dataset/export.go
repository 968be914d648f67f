package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// WriteCSV encodes the dataset as numeric CSV and writes it to w.
// When labels are present they are appended as the final column, so the
// output can be re-imported with LabelColumn = Dim().
func WriteCSV(d *Dataset, w io.Writer) error {
	cw := csv.NewWriter(w)

	rec := make([]string, 0, d.Dim()+1)
	for i, point := range d.Points {
		rec = rec[:0]
		for _, v := range point {
			rec = append(rec, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if d.Labels != nil {
			rec = append(rec, strconv.Itoa(d.Labels[i]))
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// ExportCSV writes a dataset to a CSV file at path.
// This is a convenience wrapper around [WriteCSV] for file-based output.
func ExportCSV(d *Dataset, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteCSV(d, f)
}
