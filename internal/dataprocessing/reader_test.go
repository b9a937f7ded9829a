package dataprocessing

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "transitcli/internal/errors"
	"transitcli/internal/spss/spsstest"
	"transitcli/pkg/contracts/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func sourceFile(path string, format domain.FileFormat) domain.SourceFile {
	return domain.SourceFile{
		Path:     path,
		Name:     filepath.Base(path),
		Category: "hechos_transito",
		Year:     "2019",
		Format:   format,
	}
}

func TestReader_Read(t *testing.T) {
	dir := t.TempDir()

	savPath := filepath.Join(dir, "hechos_transito_2018.sav")
	require.NoError(t, spsstest.New().Compressed().
		Numeric("A").String("B", 8).
		Row(1, "x").Row(2, "y").
		WriteFile(savPath))

	xlsxPath := filepath.Join(dir, "hechos_transito_2019.xlsx")
	writeWorkbook(t, xlsxPath, [][]interface{}{{"B", "C"}, {"p", 1}, {"q", 2}, {"r", 3}})

	var logs bytes.Buffer
	reader := NewReader(slog.New(slog.NewJSONHandler(&logs, nil)))

	sav := reader.Read(context.Background(), sourceFile(savPath, domain.FormatSAV))
	require.True(t, sav.OK(), "sav read failed: %v", sav.Err)
	assert.Equal(t, []string{"A", "B"}, sav.Table.Columns)
	assert.Equal(t, 2, sav.Table.Len())

	xlsx := reader.Read(context.Background(), sourceFile(xlsxPath, domain.FormatXLSX))
	require.True(t, xlsx.OK(), "xlsx read failed: %v", xlsx.Err)
	assert.Equal(t, []string{"B", "C"}, xlsx.Table.Columns)
	assert.Equal(t, 3, xlsx.Table.Len())

	assert.Contains(t, logs.String(), `"msg":"File read"`)
	assert.Contains(t, logs.String(), `"rows":3`)
}

func TestReader_Failures(t *testing.T) {
	dir := t.TempDir()

	corrupt := filepath.Join(dir, "hechos_transito_2017.sav")
	writeFile(t, corrupt, "definitely not spss")

	zlib := filepath.Join(dir, "hechos_transito_2016.sav")
	data := spsstest.New().Numeric("A").Row(1).Bytes()
	copy(data, "$FL3")
	require.NoError(t, os.WriteFile(zlib, data, 0644))

	fakeXLSX := filepath.Join(dir, "hechos_transito_2015.xlsx")
	writeFile(t, fakeXLSX, "not a workbook")

	tests := []struct {
		name    string
		file    domain.SourceFile
		errType apperrors.ErrorType
	}{
		{"corrupt sav", sourceFile(corrupt, domain.FormatSAV), apperrors.ErrTypeParsing},
		{"zlib sav", sourceFile(zlib, domain.FormatSAV), apperrors.ErrTypeUnsupported},
		{"corrupt xlsx", sourceFile(fakeXLSX, domain.FormatXLSX), apperrors.ErrTypeParsing},
		{"missing file", sourceFile(filepath.Join(dir, "gone.sav"), domain.FormatSAV), apperrors.ErrTypeNotFound},
		{"unknown format", sourceFile(corrupt, domain.FileFormat("csv")), apperrors.ErrTypeValidation},
		{"incomplete source file", domain.SourceFile{Path: corrupt, Format: domain.FormatSAV}, apperrors.ErrTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			reader := NewReader(slog.New(slog.NewJSONHandler(&logs, nil)))

			result := reader.Read(context.Background(), tt.file)
			assert.False(t, result.OK())
			assert.Nil(t, result.Table)
			require.Error(t, result.Err)
			assert.True(t, apperrors.IsType(result.Err, tt.errType), "got %v", result.Err)
			assert.Equal(t, tt.file, result.File)
			assert.Contains(t, logs.String(), "Failed to read file")
			assert.Contains(t, logs.String(), `"error":"[`+string(tt.errType)+`]`)
		})
	}
}

func TestReader_RecoversDecoderPanic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hechos_transito_2019.sav")
	writeFile(t, path, "content")

	reader := NewReader(nil).WithDecoder(domain.FormatSAV, func(string) (*domain.Table, error) {
		panic("index out of range")
	})

	result := reader.Read(context.Background(), sourceFile(path, domain.FormatSAV))
	assert.False(t, result.OK())
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "index out of range")
	assert.True(t, apperrors.IsType(result.Err, apperrors.ErrTypeParsing))
}
