package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	apperrors "transitcli/internal/errors"
	"transitcli/internal/infrastructure"
	"transitcli/internal/spss"
	"transitcli/internal/validation"
	"transitcli/pkg/contracts/domain"
)

// DecodeFunc loads one file into a table.
type DecodeFunc func(path string) (*domain.Table, error)

// FileReader reads a classified source file. Failures are returned inside the
// result, never as a separate error.
type FileReader interface {
	Read(ctx context.Context, file domain.SourceFile) domain.ReadResult
}

// Reader dispatches each source file to the decoder of its format.
type Reader struct {
	decoders map[domain.FileFormat]DecodeFunc
	files    *validation.FileValidator
	validate *validator.Validate
	logger   *slog.Logger
}

// NewReader creates a reader for .sav and .xlsx files
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		decoders: map[domain.FileFormat]DecodeFunc{
			domain.FormatSAV:  DecodeSAV,
			domain.FormatXLSX: ParseWorkbook,
		},
		files:    validation.NewFileValidator(logger),
		validate: validator.New(),
		logger:   logger,
	}
}

// WithDecoder replaces the decoder of a format.
func (r *Reader) WithDecoder(format domain.FileFormat, decode DecodeFunc) *Reader {
	r.decoders[format] = decode
	return r
}

// DecodeSAV reads an SPSS system file into a table.
func DecodeSAV(path string) (*domain.Table, error) {
	file, err := spss.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return file.Table(), nil
}

// Read loads file. On success the row and column counts are logged; on
// failure the file name and error are logged and the result carries the
// error. A panicking decoder is reported as a failure.
func (r *Reader) Read(ctx context.Context, file domain.SourceFile) (result domain.ReadResult) {
	result.File = file

	defer func() {
		if rec := recover(); rec != nil {
			result.Table = nil
			result.Err = apperrors.NewParsingError(fmt.Sprintf("decoder panic reading %s", file.Name), fmt.Errorf("%v", rec))
		}
		if result.Err != nil {
			infrastructure.WithError(r.logger, result.Err).WarnContext(ctx, "Failed to read file",
				slog.String("file", file.Name),
				slog.String("category", file.Category))
		}
	}()

	if err := r.validate.Struct(file); err != nil {
		result.Err = apperrors.NewValidationError(fmt.Sprintf("invalid source file %q: %v", file.Name, err))
		return result
	}

	decode, ok := r.decoders[file.Format]
	if !ok {
		result.Err = apperrors.NewUnsupportedError(fmt.Sprintf("no decoder for format %q", file.Format), nil)
		return result
	}

	if err := r.files.ValidateFile(file.Path); err != nil {
		result.Err = err
		return result
	}

	table, err := decode(file.Path)
	if err != nil {
		if errors.Is(err, spss.ErrUnsupportedCompression) {
			result.Err = apperrors.NewUnsupportedError(fmt.Sprintf("cannot read %s", file.Name), err)
		} else {
			result.Err = apperrors.NewParsingError(fmt.Sprintf("cannot read %s", file.Name), err)
		}
		return result
	}

	result.Table = table
	r.logger.InfoContext(ctx, "File read",
		slog.String("file", file.Name),
		slog.String("format", string(file.Format)),
		slog.Int("rows", table.Len()),
		slog.Int("columns", table.Width()))

	return result
}
