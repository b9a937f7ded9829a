// Package exporter writes merged datasets as CSV files.
//
// CSVWriter is the core component. Every file it produces starts with a UTF-8
// BOM so spreadsheet programs pick the right encoding for accented column
// names such as año. Null cells are written as empty fields.
//
// Example usage:
//
//	writer := exporter.NewCSVWriter(paths, logger)
//
//	// <output>/hechos_transito_completo.csv
//	path, err := writer.WriteDataset(ctx, dataset)
//
//	// <output>/problemas.csv, only when some file could not be read
//	_, err = writer.WriteProblems(ctx, problems)
//
// ReadCSV loads a written file back into a domain.Table.
package exporter
