package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePaths(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	t.Run("relative paths resolve against the working directory", func(t *testing.T) {
		paths, err := ResolvePaths(Default())
		require.NoError(t, err)

		assert.Equal(t, wd, paths.WorkingDir)
		assert.Equal(t, filepath.Join(wd, "data"), paths.InputDir)
		assert.Equal(t, filepath.Join(wd, "datasets_unidos"), paths.OutputDir)
		assert.Equal(t, filepath.Join(wd, "logs", "merger.log"), paths.LogFile)
		assert.Empty(t, paths.MetricsFile)
	})

	t.Run("absolute paths are kept", func(t *testing.T) {
		dir := t.TempDir()
		cfg := Default()
		cfg.Merge.InputDir = filepath.Join(dir, "in")
		cfg.Merge.OutputDir = filepath.Join(dir, "out")
		cfg.Telemetry.MetricsFile = filepath.Join(dir, "transit.prom")

		paths, err := ResolvePaths(cfg)
		require.NoError(t, err)

		assert.Equal(t, cfg.Merge.InputDir, paths.InputDir)
		assert.Equal(t, cfg.Merge.OutputDir, paths.OutputDir)
		assert.Equal(t, cfg.Telemetry.MetricsFile, paths.MetricsFile)
	})
}

func TestPaths_OutputFiles(t *testing.T) {
	paths := &Paths{OutputDir: "/out", OutputSuffix: "_completo.csv"}

	assert.Equal(t, filepath.Join("/out", "hechos_transito_completo.csv"), paths.GetDatasetPath("hechos_transito"))
	assert.Equal(t, filepath.Join("/out", "problemas.csv"), paths.GetProblemsPath())
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, FileExists(dir))
	assert.False(t, FileExists(filepath.Join(dir, "missing")))
}
