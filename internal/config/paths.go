package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved file system locations of one merge run.
// This is the single source of truth for every path the pipeline touches.
type Paths struct {
	WorkingDir   string
	InputDir     string
	OutputDir    string
	LogFile      string
	MetricsFile  string
	OutputSuffix string
}

// ResolvePaths makes the configured locations absolute against the current
// working directory. Nothing is created on disk.
func ResolvePaths(cfg *Config) (*Paths, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	paths := &Paths{
		WorkingDir:   wd,
		InputDir:     absFrom(wd, cfg.Merge.InputDir),
		OutputDir:    absFrom(wd, cfg.Merge.OutputDir),
		LogFile:      absFrom(wd, cfg.Logging.FilePath),
		OutputSuffix: cfg.Merge.OutputSuffix,
	}
	if cfg.Telemetry.MetricsFile != "" {
		paths.MetricsFile = absFrom(wd, cfg.Telemetry.MetricsFile)
	}

	return paths, nil
}

func absFrom(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// GetDatasetPath returns the CSV path of a merged category (e.g. hechos_transito_completo.csv)
func (p *Paths) GetDatasetPath(category string) string {
	return filepath.Join(p.OutputDir, category+p.OutputSuffix)
}

// GetProblemsPath returns the path of the unreadable-files report
func (p *Paths) GetProblemsPath() string {
	return filepath.Join(p.OutputDir, ProblemsFileName)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("working", p.WorkingDir),
			slog.String("input", p.InputDir),
			slog.String("output", p.OutputDir),
		),
		slog.Group("files",
			slog.String("log", p.LogFile),
			slog.String("metrics", p.MetricsFile),
		),
		slog.Group("status",
			slog.Bool("input_exists", FileExists(p.InputDir)),
			slog.Bool("output_exists", FileExists(p.OutputDir)),
		))
}
