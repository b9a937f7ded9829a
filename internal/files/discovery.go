package files

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"transitcli/internal/config"
	apperrors "transitcli/internal/errors"
	"transitcli/internal/validation"
	"transitcli/pkg/contracts/domain"
)

var yearPattern = regexp.MustCompile(`\d{4}`)

// SkippedFile is a directory entry the classifier left out, with the reason
type SkippedFile struct {
	Name   string
	Reason string
}

// Classification is the result of scanning the input directory: the source
// files of every configured category, in category priority order.
type Classification struct {
	Categories []string
	Files      map[string][]domain.SourceFile
	Skipped    []SkippedFile
}

// Get returns the files of one category, sorted by path
func (c *Classification) Get(category string) []domain.SourceFile {
	return c.Files[category]
}

// Total returns the number of classified files across all categories
func (c *Classification) Total() int {
	total := 0
	for _, files := range c.Files {
		total += len(files)
	}
	return total
}

// Discovery buckets the files of a directory into dataset categories
type Discovery struct {
	basePath    string
	rules       []config.CategoryRule
	extensions  []string
	unknownYear string
	logger      *slog.Logger
}

// NewDiscovery creates a classifier for the given merge configuration.
// Relative directories passed to Classify are resolved against basePath.
func NewDiscovery(basePath string, cfg config.MergeConfig, logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{
		basePath:    basePath,
		rules:       cfg.Categories,
		extensions:  cfg.Extensions,
		unknownYear: cfg.UnknownYear,
		logger:      logger,
	}
}

// Classify scans dir (not recursively) and assigns every file with a
// recognized extension to the first category whose match string appears in
// its lower-cased name. Files matching no category are excluded. A missing
// or unreadable directory is an error.
func (d *Discovery) Classify(ctx context.Context, dir string) (*Classification, error) {
	// If dir is already absolute, use it directly
	fullPath := dir
	if !filepath.IsAbs(dir) && d.basePath != "" {
		fullPath = filepath.Join(d.basePath, dir)
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("input directory %s", fullPath), err)
		}
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to read directory %s", fullPath), err)
	}

	result := &Classification{
		Files: make(map[string][]domain.SourceFile, len(d.rules)),
	}
	for _, rule := range d.rules {
		result.Categories = append(result.Categories, rule.Name)
		result.Files[rule.Name] = []domain.SourceFile{}
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if reason := d.exclusionReason(name); reason != "" {
			d.skip(ctx, result, name, reason)
			continue
		}

		category, ok := d.categoryOf(name)
		if !ok {
			d.skip(ctx, result, name, "no category match")
			continue
		}

		format, _ := domain.FormatFromExtension(strings.ToLower(filepath.Ext(name)))
		result.Files[category] = append(result.Files[category], domain.SourceFile{
			Path:     filepath.Join(fullPath, name),
			Name:     name,
			Category: category,
			Year:     ExtractYear(name, d.unknownYear),
			Format:   format,
		})
	}

	for _, category := range result.Categories {
		files := result.Files[category]
		sort.Slice(files, func(i, j int) bool {
			return files[i].Path < files[j].Path
		})
	}

	d.logger.InfoContext(ctx, "Classified source files",
		slog.String("directory", fullPath),
		slog.Int("classified", result.Total()),
		slog.Int("skipped", len(result.Skipped)))

	return result, nil
}

func (d *Discovery) exclusionReason(name string) string {
	if validation.IsTemporaryFile(name) {
		return "temporary file"
	}
	if !validation.HasExtension(name, d.extensions) {
		return "unrecognized extension"
	}
	return ""
}

// categoryOf applies the rules in priority order; the first match wins.
func (d *Discovery) categoryOf(name string) (string, bool) {
	stem := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
	for _, rule := range d.rules {
		if strings.Contains(stem, strings.ToLower(rule.Match)) {
			return rule.Name, true
		}
	}
	return "", false
}

func (d *Discovery) skip(ctx context.Context, result *Classification, name, reason string) {
	result.Skipped = append(result.Skipped, SkippedFile{Name: name, Reason: reason})
	d.logger.DebugContext(ctx, "Excluded file",
		slog.String("file", name),
		slog.String("reason", reason))
}

// ExtractYear returns the first run of four digits in the file name (its
// extension ignored), or sentinel when there is none. The value is not
// checked for being a plausible year.
func ExtractYear(name, sentinel string) string {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if year := yearPattern.FindString(stem); year != "" {
		return year
	}
	return sentinel
}
