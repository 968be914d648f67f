// Package dataset provides CSV import and export for point datasets.
//
// # Overview
//
// A dataset is a dense matrix of points (rows) in some feature space
// (columns), optionally paired with one integer class label per point.
// Labels never influence optimization; they exist for coloring rendered
// embeddings and for sanity-checking cluster structure.
//
// # CSV Format
//
// Input files are plain numeric CSV, one point per row:
//
//	5.1,3.5,1.4,0.2,0
//	4.9,3.0,1.4,0.2,0
//	6.3,3.3,6.0,2.5,2
//
// An optional header row is skipped with [ReadOptions.HasHeader]. A label
// column is selected with [ReadOptions.LabelColumn]; a negative column means
// the file carries no labels. Use [DefaultReadOptions] as the starting point.
// All remaining columns must parse as floats.
//
// # Import
//
// Use [ImportCSV] to read from a file path, or [ReadCSV] to read from any
// io.Reader:
//
//	ds, err := dataset.ImportCSV("iris.csv", dataset.ReadOptions{LabelColumn: 4})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Export
//
// Use [ExportCSV] to write a dataset (typically an optimized 2D embedding
// plus the original labels) to a file, or [WriteCSV] for any io.Writer.
// Exported files can be re-imported for round-trip processing.
package dataset
