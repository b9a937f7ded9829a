package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"transitcli/internal/config"
	"transitcli/internal/dataprocessing"
	"transitcli/internal/exporter"
	"transitcli/internal/files"
	"transitcli/internal/infrastructure"
	"transitcli/internal/report"
	"transitcli/internal/validation"
	"transitcli/pkg/contracts/domain"
)

const (
	AppName = "Transit Dataset Merger"

	StageValidate = "validate_input"
	StageClassify = "classify"
	StageMerge    = "merge"
	StageAnalyze  = "analyze"
	StageWrite    = "write"
	StageSummary  = "summary"
)

// Options carries the collaborators of a run. Every field is optional.
type Options struct {
	Logger    *slog.Logger
	Telemetry *infrastructure.Telemetry
	Console   io.Writer // stdout when nil
}

// Result is everything a run produced.
type Result struct {
	Order        []string                         // categories in configured order
	Datasets     map[string]*domain.MergedDataset // nil Table for categories without readable files
	Reports      []dataprocessing.StructureReport
	Written      map[string]string // category -> CSV path
	Problems     []domain.Problem
	ProblemsFile string // empty when every file was read
}

// Pipeline wires the stages of one merge run
type Pipeline struct {
	cfg       *config.Config
	paths     *config.Paths
	logger    *slog.Logger
	telemetry *infrastructure.Telemetry
	console   *report.Console

	validator *validation.FileValidator
	discovery *files.Discovery
	merger    *dataprocessing.Merger
	analyzer  *dataprocessing.Analyzer
	writer    *exporter.CSVWriter
}

// NewPipeline resolves the configured paths and builds every component.
func NewPipeline(cfg *config.Config, opts Options) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	paths, err := config.ResolvePaths(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	reader := dataprocessing.NewReader(infrastructure.WithComponent(logger, "reader"))
	merger := dataprocessing.NewMerger(reader, cfg.Merge.UnknownYear, infrastructure.WithComponent(logger, "merger"))
	if opts.Telemetry != nil {
		merger.WithTelemetry(opts.Telemetry)
	}

	return &Pipeline{
		cfg:       cfg,
		paths:     paths,
		logger:    logger,
		telemetry: opts.Telemetry,
		console:   report.NewConsole(opts.Console),
		validator: validation.NewFileValidator(infrastructure.WithComponent(logger, "validation")),
		discovery: files.NewDiscovery(paths.WorkingDir, cfg.Merge, infrastructure.WithComponent(logger, "discovery")),
		merger:    merger,
		analyzer:  dataprocessing.NewAnalyzer(infrastructure.WithComponent(logger, "analyzer")),
		writer:    exporter.NewCSVWriter(paths, infrastructure.WithComponent(logger, "exporter")),
	}, nil
}

// Run executes a complete merge with cfg.
func Run(ctx context.Context, cfg *config.Config, opts Options) (*Result, error) {
	p, err := NewPipeline(cfg, opts)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx)
}

// Paths returns the resolved locations of the run
func (p *Pipeline) Paths() *config.Paths {
	return p.paths
}

// Run classifies the input directory, merges every category, reports the
// structure of the results and writes one CSV per merged category. Files
// that cannot be read are reported, never fatal. A missing input directory
// or a failed write aborts the run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	ctx = infrastructure.EnsureRunID(ctx)
	start := time.Now()

	p.logger.InfoContext(ctx, "Merge run starting",
		slog.String("name", AppName),
		slog.String("version", config.AppVersion),
		slog.String("run_id", infrastructure.GetRunID(ctx)))
	p.paths.LogPathResolution(p.logger)

	result := &Result{
		Order:    p.cfg.CategoryNames(),
		Datasets: make(map[string]*domain.MergedDataset),
		Written:  make(map[string]string),
	}

	err := p.stage(ctx, StageValidate, func(ctx context.Context) error {
		return p.validator.ValidateInputDirectory(p.paths.InputDir, p.cfg.Merge.Extensions)
	})
	if err != nil {
		return nil, err
	}

	var classification *files.Classification
	err = p.stage(ctx, StageClassify, func(ctx context.Context) error {
		var err error
		classification, err = p.discovery.Classify(ctx, p.paths.InputDir)
		if err != nil {
			return err
		}
		p.console.Classification(classification)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, StageMerge, func(ctx context.Context) error {
		p.console.Section("Unión de archivos")
		for _, category := range result.Order {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("merge interrupted before %s: %w", category, err)
			}
			ds := p.merger.Merge(ctx, category, classification.Get(category))
			result.Datasets[category] = ds
			result.Problems = append(result.Problems, ds.Problems...)
			p.console.Merged(ds)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = p.stage(ctx, StageAnalyze, func(ctx context.Context) error {
		result.Reports = p.analyzer.Analyze(ctx, result.Order, result.Datasets)
		p.console.Structure(result.Reports)
		return nil
	})

	err = p.stage(ctx, StageWrite, func(ctx context.Context) error {
		return p.write(ctx, result)
	})
	if err != nil {
		return nil, err
	}

	_ = p.stage(ctx, StageSummary, func(ctx context.Context) error {
		p.console.Summary(result.Order, result.Datasets, result.Written)
		p.console.Problems(result.Problems)
		return nil
	})

	if p.telemetry != nil {
		if err := p.telemetry.WriteMetricsFile(p.paths.MetricsFile); err != nil {
			p.logger.WarnContext(ctx, "Failed to write metrics file",
				slog.String("path", p.paths.MetricsFile),
				slog.String("error", err.Error()))
		}
	}

	p.logger.InfoContext(ctx, "Merge run completed",
		slog.Int("datasets_written", len(result.Written)),
		slog.Int("problems", len(result.Problems)),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

// write creates the output directory and writes every present dataset and
// the problems report
func (p *Pipeline) write(ctx context.Context, result *Result) error {
	if err := p.validator.ValidateOutputDirectory(p.paths.OutputDir); err != nil {
		return err
	}

	for _, category := range result.Order {
		ds := result.Datasets[category]
		if !ds.Present() {
			continue
		}

		path, err := p.writer.WriteDataset(ctx, ds)
		if err != nil {
			return err
		}
		result.Written[category] = path

		if p.telemetry != nil {
			p.telemetry.RecordDatasetWritten(ctx, category)
		}
	}

	path, err := p.writer.WriteProblems(ctx, result.Problems)
	if err != nil {
		return err
	}
	result.ProblemsFile = path

	return nil
}

// stage runs fn inside a span named after the stage and records its duration
func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()

	var span trace.Span
	if p.telemetry != nil {
		ctx, span = p.telemetry.StartSpan(ctx, name, attribute.String("run.id", infrastructure.GetRunID(ctx)))
		defer span.End()
	}

	err := fn(ctx)
	elapsed := time.Since(start)

	if p.telemetry != nil {
		infrastructure.RecordError(span, err)
		p.telemetry.RecordStage(ctx, name, elapsed)
	}

	if err != nil {
		p.logger.ErrorContext(ctx, "Stage failed",
			slog.String("stage", name),
			slog.String("error", err.Error()))
		return err
	}

	p.logger.DebugContext(ctx, "Stage finished",
		slog.String("stage", name),
		slog.Duration("duration", elapsed))
	return nil
}
