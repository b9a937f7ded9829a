// Package config provides centralized configuration management for the merger.
// It handles loading configuration from multiple sources, validation, and
// resolves every path a run reads from or writes to.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources, later sources winning:
//
//  1. Default values (the fixed behavior: ./data in, ./datasets_unidos out)
//  2. A YAML file (--config, or transit.yaml / configs/transit.yaml)
//  3. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern TRANSIT_<SECTION>_<FIELD>:
//
//	TRANSIT_MERGE_INPUT_DIR=/srv/ine/raw
//	TRANSIT_MERGE_OUTPUT_DIR=/srv/ine/merged
//	TRANSIT_MERGE_EXTENSIONS=.sav,.xlsx
//	TRANSIT_LOGGING_LEVEL=debug
//	TRANSIT_TELEMETRY_METRICS_FILE=/var/lib/node_exporter/transit.prom
//
// Category rules are only configurable from the YAML file:
//
//	merge:
//	  categories:
//	    - name: hechos_transito
//	      match: hechos_transito
//
// # Validation
//
// Validate reports every violation at once: struct tags (required fields,
// allowed log levels, extension syntax) and cross-field rules (duplicate
// categories, extensions without a decoder).
package config
