package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"transitcli/internal/app"
	"transitcli/internal/config"
	"transitcli/internal/infrastructure"
	"transitcli/pkg/contracts"
)

// flags holds the command line overrides of the loaded configuration
type flags struct {
	configFile  string
	inputDir    string
	outputDir   string
	logLevel    string
	metricsFile string
	trace       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// newRootCmd builds the merger command writing its report to stdout and its
// structured logs to stderr
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "merger",
		Short: "Merge yearly traffic accident files into one CSV per dataset",
		Long: `merger reads every .sav and .xlsx file of the input directory, groups
them by dataset (hechos_transito, vehiculos_involucrados,
fallecidos_lesionados) and concatenates each group by column name.

Every row is tagged with its year (año), source file (archivo_origen) and
dataset (tipo_dataset). The result is written as <dataset>_completo.csv,
UTF-8 with BOM, to the output directory. Files that cannot be read are
listed in problemas.csv.

Settings are read from transit.yaml (or --config), then TRANSIT_*
environment variables, then the flags below.`,
		Version:       contracts.GetFullVersionString(),
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f, cmd.Flags().Changed, stdout, stderr)
		},
	}

	cmd.Flags().StringVar(&f.configFile, "config", "", "config file (default: transit.yaml or configs/transit.yaml)")
	cmd.Flags().StringVar(&f.inputDir, "in", "", "directory holding the source files (default ./data)")
	cmd.Flags().StringVar(&f.outputDir, "out", "", "directory for the merged CSV files (default ./datasets_unidos)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics of the run to this file")
	cmd.Flags().BoolVar(&f.trace, "trace", false, "print trace spans to stderr")

	return cmd
}

// run loads the configuration, applies the flags that were set and runs the
// merge
func run(ctx context.Context, f flags, changed func(string) bool, stdout, stderr io.Writer) error {
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return err
	}

	applyFlags(cfg, f, changed)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging, stderr)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	ctx = infrastructure.EnsureRunID(ctx)

	telemetry, err := infrastructure.InitializeTelemetry(cfg.Telemetry, infrastructure.GetRunID(ctx), stderr, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetry.Shutdown(context.Background()); err != nil {
			logger.Error("Failed to shut down telemetry", slog.String("error", err.Error()))
		}
	}()

	if _, err := app.Run(ctx, cfg, app.Options{
		Logger:    logger,
		Telemetry: telemetry,
		Console:   stdout,
	}); err != nil {
		logger.ErrorContext(ctx, "Merge failed", slog.String("error", err.Error()))
		return err
	}

	return nil
}

func applyFlags(cfg *config.Config, f flags, changed func(string) bool) {
	if changed("in") {
		cfg.Merge.InputDir = f.inputDir
	}
	if changed("out") {
		cfg.Merge.OutputDir = f.outputDir
	}
	if changed("log-level") {
		cfg.Logging.Level = strings.ToLower(f.logLevel)
	}
	if changed("metrics-file") {
		cfg.Telemetry.MetricsFile = f.metricsFile
	}
	if changed("trace") {
		if f.trace {
			cfg.Telemetry.TraceExporter = "stdout"
		} else {
			cfg.Telemetry.TraceExporter = "none"
		}
	}
}
