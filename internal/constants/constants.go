// Package constants is responsible for defining the constants used in the application.
package constants

import "log/slog"

var (
	// Version is the version of the application.
	Version = "Dev"
)

const (
	// CmdName is the name of the command line tool.
	CmdName = "extract-data"

	// DefaultLogLevel is the default log level selected without any verbosity flags.
	DefaultLogLevel = slog.LevelWarn
)

// Extraction contract constants.
const (
	// DocumentExt is the input file extension selecting the JSON-document shape.
	// Any other extension is read as log blocks.
	DocumentExt = ".json"

	// TableExt is the extension of the generated per-type tables.
	TableExt = ".csv"

	// DocumentPayloadKey is the key holding the payload of each JSON-document record.
	DocumentPayloadKey = "data"

	// UnknownVehicle is used in place of a missing vehicle identifier.
	UnknownVehicle = "desconocido"

	// VehicleSuffixLen is the number of trailing characters of the vehicle identifier used in folder names.
	VehicleSuffixLen = 4

	// SentinelValue replaces absent numeric operational fields.
	SentinelValue = -1
)

// Audit constants.
const (
	// AuditSummaryBaseName is the base name of the summary file written into the audited root.
	AuditSummaryBaseName = "summary"

	// DefaultAuditFormat is the default summary format.
	DefaultAuditFormat = "text"
)
