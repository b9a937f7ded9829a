package dataprocessing

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"transitcli/internal/config"
	"transitcli/internal/files"
	"transitcli/internal/infrastructure"
	"transitcli/pkg/contracts/domain"
)

// Merger concatenates the source files of one category into a single table
type Merger struct {
	reader      FileReader
	unknownYear string
	telemetry   *infrastructure.Telemetry
	logger      *slog.Logger
}

// NewMerger creates a merger reading files through reader
func NewMerger(reader FileReader, unknownYear string, logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	if unknownYear == "" {
		unknownYear = config.DefaultUnknownYear
	}
	return &Merger{
		reader:      reader,
		unknownYear: unknownYear,
		logger:      logger,
	}
}

// WithTelemetry records a span and a counter per file read.
func (m *Merger) WithTelemetry(t *infrastructure.Telemetry) *Merger {
	m.telemetry = t
	return m
}

// Merge reads every file of category in path order, stamps each table with
// its year, source file and category, and stacks the tables by column name.
// Unreadable files become problems. When no file could be read the result
// has a nil Table.
func (m *Merger) Merge(ctx context.Context, category string, sources []domain.SourceFile) *domain.MergedDataset {
	ordered := make([]domain.SourceFile, len(sources))
	copy(ordered, sources)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Path < ordered[j].Path
	})

	result := &domain.MergedDataset{Category: category}
	var tables []*domain.Table

	for i, file := range ordered {
		year := file.Year
		if year == "" {
			year = files.ExtractYear(file.Name, m.unknownYear)
		}

		m.logger.InfoContext(ctx, "Processing file",
			slog.String("category", category),
			slog.String("file", file.Name),
			slog.String("year", year),
			slog.Int("index", i+1),
			slog.Int("total", len(ordered)))

		read := m.read(ctx, file)
		if !read.OK() {
			result.Problems = append(result.Problems, domain.Problem{
				Category: category,
				File:     file.Name,
				Reason:   reason(read.Err),
			})
			continue
		}

		table := read.Table
		table.AddConstantColumn(config.ColumnYear, domain.StringValue(year))
		table.AddConstantColumn(config.ColumnSourceFile, domain.StringValue(file.Name))
		table.AddConstantColumn(config.ColumnDatasetType, domain.StringValue(category))
		tables = append(tables, table)
		result.Files = append(result.Files, file)
	}

	if len(tables) == 0 {
		m.logger.WarnContext(ctx, "No readable files for category",
			slog.String("category", category),
			slog.Int("files", len(ordered)),
			slog.Int("problems", len(result.Problems)))
		return result
	}

	merged := domain.Concat(tables...)
	merged.MoveToEnd(config.MetadataColumns()...)
	result.Table = merged
	result.Years = merged.DistinctStrings(config.ColumnYear)

	if m.telemetry != nil {
		m.telemetry.RecordRowsMerged(ctx, category, merged.Len())
	}

	m.logger.InfoContext(ctx, "Category merged",
		slog.String("category", category),
		slog.Int("rows", merged.Len()),
		slog.Int("columns", merged.Width()),
		slog.String("years", strings.Join(result.Years, ",")),
		slog.Any("column_names", merged.Columns),
		slog.Int("problems", len(result.Problems)))

	return result
}

func (m *Merger) read(ctx context.Context, file domain.SourceFile) domain.ReadResult {
	if m.telemetry == nil {
		return m.reader.Read(ctx, file)
	}

	ctx, span := m.telemetry.StartSpan(ctx, "read_file",
		attribute.String("file", file.Name),
		attribute.String("category", file.Category),
		attribute.String("format", string(file.Format)))
	defer span.End()

	result := m.reader.Read(ctx, file)
	infrastructure.RecordError(span, result.Err)
	if result.OK() {
		span.SetAttributes(
			attribute.Int("rows", result.Table.Len()),
			attribute.Int("columns", result.Table.Width()))
	}
	m.telemetry.RecordFileRead(ctx, file.Category, result.OK())
	return result
}

func reason(err error) string {
	if err == nil {
		return "empty result"
	}
	return err.Error()
}
