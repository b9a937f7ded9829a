// Package dataprocessing reads classified source files and merges them into
// one table per dataset category.
//
// # Architecture
//
// The package is organized into three components:
//
// 1. Reader: dispatches each file to the SPSS or Excel decoder of its format
// 2. Merger: stamps every table with its year, source file and category and
// stacks the tables by column name
// 3. Analyzer: reports row counts, columns and null counts of merged datasets
//
// # Usage
//
//	reader := dataprocessing.NewReader(logger)
//	merger := dataprocessing.NewMerger(reader, config.DefaultUnknownYear, logger)
//	dataset := merger.Merge(ctx, "hechos_transito", classification.Get("hechos_transito"))
//	if !dataset.Present() {
//	    // every file of the category failed
//	}
//
//	reports := dataprocessing.NewAnalyzer(logger).Analyze(ctx, order, datasets)
//
// # Data Flow
//
//	.sav / .xlsx → Reader → Table per file → Merger → MergedDataset → Analyzer → StructureReport
//
// # Error Handling
//
// A file that cannot be read never aborts a merge. Reader returns the failure
// inside the ReadResult as an AppError (parsing, unsupported, not found or
// validation) and Merger turns it into a domain.Problem on the dataset.
//
// # Column Union
//
// Columns appear in first-seen order across files read in path order. A row
// whose source file lacked a column holds Null there. The metadata columns
// año, archivo_origen and tipo_dataset always come last.
package dataprocessing
