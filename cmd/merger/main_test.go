package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitcli/internal/config"
	"transitcli/internal/infrastructure"
	"transitcli/internal/shared/testutil"
	"transitcli/pkg/contracts"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	infrastructure.ResetLoggerForTesting()
	t.Cleanup(infrastructure.ResetLoggerForTesting)

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestMergerCommand(t *testing.T) {
	in := testutil.WriteInputDir(t)
	out := filepath.Join(t.TempDir(), "salida")
	metrics := filepath.Join(t.TempDir(), "transit.prom")

	stdout, stderr, err := execute(t, "--in", in, "--out", out, "--metrics-file", metrics, "--log-level", "DEBUG")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(out, "hechos_transito_completo.csv"))
	assert.FileExists(t, filepath.Join(out, config.ProblemsFileName))
	assert.FileExists(t, metrics)

	assert.Contains(t, stdout, "Resumen final")
	assert.Contains(t, stdout, "No procesado")
	assert.Contains(t, stderr, `"msg":"Merge run completed"`)
	assert.Contains(t, stderr, `"run_id"`)
}

func TestMergerCommand_Trace(t *testing.T) {
	in := testutil.WriteInputDir(t)

	_, stderr, err := execute(t, "--in", in, "--out", t.TempDir(), "--trace")
	require.NoError(t, err)

	assert.Contains(t, stderr, `"Name": "merge"`)
	assert.Contains(t, stderr, `"Name": "read_file"`)
}

func TestMergerCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing input directory", []string{"--in", filepath.Join(os.TempDir(), "transit-missing-input-dir"), "--out", "unused"}},
		{"invalid log level", []string{"--log-level", "verbose"}},
		{"unexpected argument", []string{"data"}},
		{"missing config file", []string{"--config", "no-such-file.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestApplyFlags(t *testing.T) {
	cfg := config.Default()
	set := map[string]bool{"out": true, "trace": true, "log-level": true}

	applyFlags(cfg, flags{inputDir: "ignored", outputDir: "/tmp/out", trace: true, logLevel: "WARN"},
		func(name string) bool { return set[name] })

	assert.Equal(t, config.DefaultInputDir, cfg.Merge.InputDir)
	assert.Equal(t, "/tmp/out", cfg.Merge.OutputDir)
	assert.Equal(t, "stdout", cfg.Telemetry.TraceExporter)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestMergerCommand_Version(t *testing.T) {
	stdout, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, contracts.Version)
	assert.Contains(t, stdout, "output: "+contracts.OutputFormatVersion)
}
