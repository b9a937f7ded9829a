package dataprocessing

import (
	"context"
	"log/slog"

	"transitcli/pkg/contracts/domain"
)

// ColumnNulls is the null count of one column.
type ColumnNulls struct {
	Column  string
	Count   int
	Percent float64
}

// StructureReport describes the shape of one merged dataset.
type StructureReport struct {
	Category string
	Rows     int
	Columns  []string
	Nulls    []ColumnNulls // only columns with at least one null, in column order
}

// Analyzer reports the structure of merged datasets
type Analyzer struct {
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{logger: logger}
}

// Analyze builds one report per present dataset, in the given category
// order, and logs it. Datasets are not modified.
func (a *Analyzer) Analyze(ctx context.Context, order []string, datasets map[string]*domain.MergedDataset) []StructureReport {
	var reports []StructureReport
	for _, category := range order {
		ds := datasets[category]
		if !ds.Present() {
			continue
		}

		report := AnalyzeTable(category, ds.Table)
		reports = append(reports, report)

		a.logger.InfoContext(ctx, "Dataset structure",
			slog.String("category", category),
			slog.Int("rows", report.Rows),
			slog.Any("columns", report.Columns))

		for _, n := range report.Nulls {
			a.logger.InfoContext(ctx, "Null values",
				slog.String("category", category),
				slog.String("column", n.Column),
				slog.Int("count", n.Count),
				slog.Float64("percent", n.Percent))
		}
	}
	return reports
}

// AnalyzeTable counts the nulls of every column of t.
func AnalyzeTable(category string, t *domain.Table) StructureReport {
	report := StructureReport{
		Category: category,
		Rows:     t.Len(),
		Columns:  append([]string(nil), t.Columns...),
	}
	for _, col := range t.Columns {
		count := t.NullCount(col)
		if count == 0 {
			continue
		}
		report.Nulls = append(report.Nulls, ColumnNulls{
			Column:  col,
			Count:   count,
			Percent: float64(count) / float64(report.Rows) * 100,
		})
	}
	return report
}
