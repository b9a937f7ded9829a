// Package app runs the traffic accident dataset merge from configuration to
// written CSV files.
//
// # Architecture
//
// The app package wires every component at construction time. Pipeline holds
// the validator, classifier, merger, analyzer, writer and console report and
// runs them in order on a single goroutine.
//
// # Run Flow
//
//  1. Validate the input directory
//  2. Classify its files into the configured categories
//  3. Merge each category in configured order
//  4. Analyze the structure of every merged dataset
//  5. Write one CSV per merged category and the problems report
//  6. Print the final summary
//
// Every stage runs inside a tracing span and records its duration when
// telemetry is configured. The metrics registry is written to the configured
// textfile after the summary.
//
// # Usage
//
//	result, err := app.Run(ctx, cfg, app.Options{Logger: logger, Telemetry: tel})
//	if err != nil {
//	    return err
//	}
//
// # Error Handling
//
// A missing input directory, a failed write or a cancelled context stop the
// run and are returned to the caller. Files that cannot be read are never
// fatal; they are collected in Result.Problems. The package does not call
// os.Exit.
package app
