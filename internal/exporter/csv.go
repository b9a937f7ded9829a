package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"transitcli/internal/config"
	apperrors "transitcli/internal/errors"
	"transitcli/pkg/contracts/domain"
)

// utf8BOM lets spreadsheet programs detect the encoding
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(paths *config.Paths, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{paths: paths, logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options, replacing any
// existing file. Relative paths are resolved against the output directory.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := w.resolvePath(filePath)

	w.logger.Debug("Writing CSV file",
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	stream, err := w.createStream(fullPath, options.Headers, options.BOMPrefix)
	if err != nil {
		return err
	}

	for i, record := range options.Records {
		if err := stream.WriteRecord(record); err != nil {
			stream.file.Close()
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	return stream.Close()
}

// StreamWriter provides streaming CSV writing for large datasets
type StreamWriter struct {
	file   *os.File
	writer *csv.Writer
	rows   int
}

// CreateStreamWriter creates a new streaming CSV writer. The file starts with
// a UTF-8 BOM followed by the header row.
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	return w.createStream(w.resolvePath(filePath), headers, true)
}

func (w *CSVWriter) createStream(fullPath string, headers []string, bom bool) (*StreamWriter, error) {
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	if bom {
		if _, err := file.Write(utf8BOM); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)

	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}

	return &StreamWriter{
		file:   file,
		writer: writer,
	}, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	if err := s.writer.Write(record); err != nil {
		return err
	}
	s.rows++
	return nil
}

// Rows returns the number of records written so far, excluding the header
func (s *StreamWriter) Rows() int {
	return s.rows
}

// Close flushes and closes the stream writer
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// WriteDataset writes a merged dataset to <category><suffix> in the output
// directory and returns the path. Absent datasets are skipped and return an
// empty path.
func (w *CSVWriter) WriteDataset(ctx context.Context, ds *domain.MergedDataset) (string, error) {
	if !ds.Present() {
		category := ""
		if ds != nil {
			category = ds.Category
		}
		w.logger.WarnContext(ctx, "Skipping absent dataset", slog.String("category", category))
		return "", nil
	}

	path := w.paths.GetDatasetPath(ds.Category)
	stream, err := w.CreateStreamWriter(path, ds.Table.Columns)
	if err != nil {
		return "", apperrors.NewStorageError(fmt.Sprintf("cannot create %s", path), err)
	}

	for i := 0; i < ds.Table.Len(); i++ {
		if err := stream.WriteRecord(ds.Table.Record(i)); err != nil {
			stream.file.Close()
			return "", apperrors.NewStorageError(fmt.Sprintf("cannot write row %d of %s", i, path), err)
		}
	}

	if err := stream.Close(); err != nil {
		return "", apperrors.NewStorageError(fmt.Sprintf("cannot write %s", path), err)
	}

	w.logger.InfoContext(ctx, "Dataset written",
		slog.String("category", ds.Category),
		slog.String("path", path),
		slog.Int("rows", stream.Rows()),
		slog.Int("columns", ds.Table.Width()))

	return path, nil
}

// ProblemHeaders are the columns of the unreadable-files report
var ProblemHeaders = []string{config.ColumnDatasetType, "archivo", "error"}

// WriteProblems lists unreadable files in the output directory. When problems
// is empty no report is written and one left by an earlier run is removed.
func (w *CSVWriter) WriteProblems(ctx context.Context, problems []domain.Problem) (string, error) {
	if len(problems) == 0 {
		path := w.paths.GetProblemsPath()
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return "", apperrors.NewStorageError(fmt.Sprintf("cannot remove stale %s", path), err)
		} else if err == nil {
			w.logger.InfoContext(ctx, "Stale problems report removed", slog.String("path", path))
		}
		return "", nil
	}

	records := make([][]string, len(problems))
	for i, p := range problems {
		records[i] = []string{p.Category, p.File, p.Reason}
	}

	path := w.paths.GetProblemsPath()
	if err := w.WriteCSV(path, WriteOptions{
		Headers:   ProblemHeaders,
		Records:   records,
		BOMPrefix: true,
	}); err != nil {
		return "", apperrors.NewStorageError(fmt.Sprintf("cannot write %s", path), err)
	}

	w.logger.InfoContext(ctx, "Problems report written",
		slog.String("path", path),
		slog.Int("problems", len(problems)))

	return path, nil
}

// resolvePath resolves a relative path against the output directory
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.paths == nil {
		return filePath
	}
	return filepath.Join(w.paths.OutputDir, filePath)
}
