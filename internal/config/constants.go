package config

import "transitcli/pkg/contracts"

// Application constants - the fixed values the merger falls back to when no
// configuration file or environment overrides them.
const (
	// Application Info
	AppName    = "transitcli"
	AppVersion = contracts.Version

	// Environment variable prefix (TRANSIT_MERGE_INPUT_DIR, TRANSIT_LOGGING_LEVEL, ...)
	EnvPrefix = "TRANSIT"

	// Directories (relative to the working directory)
	DefaultInputDir  = "./data"
	DefaultOutputDir = "./datasets_unidos"
	DefaultLogFile   = "logs/merger.log"

	// Output naming
	DefaultOutputSuffix = "_completo.csv"
	ProblemsFileName    = "problemas.csv"

	// Sentinel used when a file name has no 4-digit year
	DefaultUnknownYear = "unknown"

	// Metadata columns stamped on every merged row
	ColumnYear        = "año"
	ColumnSourceFile  = "archivo_origen"
	ColumnDatasetType = "tipo_dataset"

	// Dataset categories, in classification priority order
	CategoryCrashEvents      = "hechos_transito"
	CategoryVehicles         = "vehiculos_involucrados"
	CategoryFatalitiesInjury = "fallecidos_lesionados"

	// Recognized source extensions
	ExtensionSAV  = ".sav"
	ExtensionXLSX = ".xlsx"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogOutput = "console"

	// Telemetry
	DefaultTraceExporter = "none"
)

// MetadataColumns lists the columns the merger appends, in output order.
func MetadataColumns() []string {
	return []string{ColumnYear, ColumnSourceFile, ColumnDatasetType}
}

// DefaultCategoryRules returns the three traffic-accident categories in the
// order a file name is tested against them.
func DefaultCategoryRules() []CategoryRule {
	return []CategoryRule{
		{Name: CategoryCrashEvents, Match: CategoryCrashEvents},
		{Name: CategoryVehicles, Match: CategoryVehicles},
		{Name: CategoryFatalitiesInjury, Match: CategoryFatalitiesInjury},
	}
}

// DefaultExtensions returns the source extensions the classifier accepts.
func DefaultExtensions() []string {
	return []string{ExtensionSAV, ExtensionXLSX}
}
