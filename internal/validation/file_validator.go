package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "transitcli/internal/errors"
)

// FileValidator checks the directories and source files a merge run touches
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateInputDirectory validates that the input directory exists and logs
// how many files carry one of the given extensions. A directory without
// matching files is not an error; the run simply produces nothing.
func (v *FileValidator) ValidateInputDirectory(dir string, extensions []string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Input directory does not exist",
			slog.String("directory", dir))
		return apperrors.NewNotFoundError(fmt.Sprintf("input directory %s", dir), err)
	}
	if err != nil {
		v.logger.Error("Failed to stat input directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to stat directory %s", dir), err)
	}
	if !info.IsDir() {
		v.logger.Error("Input path is not a directory",
			slog.String("path", dir))
		return apperrors.NewValidationError(fmt.Sprintf("%s is not a directory", dir))
	}

	count, err := v.CountFiles(dir, extensions)
	if err != nil {
		return err
	}

	if count == 0 {
		v.logger.Warn("No source files found",
			slog.String("directory", dir),
			slog.String("extensions", strings.Join(extensions, ",")))
		return nil
	}

	v.logger.Info("Input directory validated",
		slog.String("directory", dir),
		slog.Int("files_found", count))

	return nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return apperrors.NewNotFoundError(fmt.Sprintf("file %s", path), err)
	}
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to stat file %s", path), err)
	}
	if info.IsDir() {
		return apperrors.NewValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}
	if info.Size() == 0 {
		return apperrors.NewValidationError(fmt.Sprintf("file %s is empty", path))
	}

	// Check if file is readable by opening it
	file, err := os.Open(path)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("file %s is not readable", path), err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// CountFiles counts regular files in dir whose extension is one of extensions,
// ignoring case and office lock files.
func (v *FileValidator) CountFiles(dir string, extensions []string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		v.logger.Error("Failed to count files",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return 0, apperrors.NewStorageError(fmt.Sprintf("failed to read directory %s", dir), err)
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() || IsTemporaryFile(entry.Name()) {
			continue
		}
		if HasExtension(entry.Name(), extensions) {
			count++
		}
	}

	v.logger.Debug("Files counted",
		slog.String("directory", dir),
		slog.Int("count", count))
	return count, nil
}

// HasExtension reports whether name ends in one of extensions, ignoring case.
func HasExtension(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range extensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

// IsTemporaryFile reports office lock files (~$name.xlsx).
func IsTemporaryFile(name string) bool {
	return strings.HasPrefix(filepath.Base(name), "~$")
}
