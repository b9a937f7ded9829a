package validation

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "transitcli/internal/errors"
)

var sourceExtensions = []string{".sav", ".xlsx"}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("test"), 0644))
	return path
}

func TestFileValidator_ValidateInputDirectory(t *testing.T) {
	tests := []struct {
		name      string
		setupFunc func(t *testing.T) string
		wantErr   bool
		errType   apperrors.ErrorType
	}{
		{
			name: "valid directory with files",
			setupFunc: func(t *testing.T) string {
				dir := t.TempDir()
				touch(t, dir, "hechos_transito_2019.sav")
				return dir
			},
		},
		{
			name: "valid directory without files",
			setupFunc: func(t *testing.T) string {
				return t.TempDir()
			},
			wantErr: false, // No files is not an error
		},
		{
			name: "non-existent directory",
			setupFunc: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "missing")
			},
			wantErr: true,
			errType: apperrors.ErrTypeNotFound,
		},
		{
			name: "path is file not directory",
			setupFunc: func(t *testing.T) string {
				return touch(t, t.TempDir(), "test.txt")
			},
			wantErr: true,
			errType: apperrors.ErrTypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewFileValidator(nil)
			err := v.ValidateInputDirectory(tt.setupFunc(t), sourceExtensions)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, tt.errType), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFileValidator_WarnsWhenNoSourceFiles(t *testing.T) {
	var buf bytes.Buffer
	v := NewFileValidator(slog.New(slog.NewJSONHandler(&buf, nil)))

	dir := t.TempDir()
	touch(t, dir, "notes.txt")

	require.NoError(t, v.ValidateInputDirectory(dir, sourceExtensions))
	assert.Contains(t, buf.String(), "No source files found")
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	v := NewFileValidator(nil)

	t.Run("creates nested directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "a", "b")
		require.NoError(t, v.ValidateOutputDirectory(dir))

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())

		_, err = os.Stat(filepath.Join(dir, ".write_test"))
		assert.True(t, os.IsNotExist(err), "write test file must be removed")
	})

	t.Run("blocked by a file", func(t *testing.T) {
		blocker := touch(t, t.TempDir(), "blocker")
		err := v.ValidateOutputDirectory(filepath.Join(blocker, "out"))
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
	})
}

func TestFileValidator_ValidateFile(t *testing.T) {
	v := NewFileValidator(nil)
	dir := t.TempDir()

	assert.NoError(t, v.ValidateFile(touch(t, dir, "ok.sav")))

	empty := filepath.Join(dir, "empty.sav")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	assert.True(t, apperrors.IsType(v.ValidateFile(empty), apperrors.ErrTypeValidation))

	assert.True(t, apperrors.IsType(v.ValidateFile(filepath.Join(dir, "missing.sav")), apperrors.ErrTypeNotFound))
	assert.True(t, apperrors.IsType(v.ValidateFile(dir), apperrors.ErrTypeValidation))
}

func TestFileValidator_CountFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "hechos_transito_2018.sav")
	touch(t, dir, "hechos_transito_2019.XLSX")
	touch(t, dir, "~$hechos_transito_2019.xlsx")
	touch(t, dir, "readme.md")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.sav"), 0755))

	count, err := NewFileValidator(nil).CountFiles(dir, sourceExtensions)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestHasExtension(t *testing.T) {
	assert.True(t, HasExtension("a.SAV", sourceExtensions))
	assert.True(t, HasExtension("dir/a.xlsx", sourceExtensions))
	assert.False(t, HasExtension("a.xls", sourceExtensions))
	assert.False(t, HasExtension("sav", sourceExtensions))
}

func TestIsTemporaryFile(t *testing.T) {
	assert.True(t, IsTemporaryFile("~$book.xlsx"))
	assert.False(t, IsTemporaryFile(".hechos_transito_2019.sav"))
	assert.False(t, IsTemporaryFile("hechos_transito_2019.xlsx"))
}
