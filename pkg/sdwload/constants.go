package sdwload

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Load completed successfully
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration
	ExitConnectionError = 11 // Failed to connect to database
	ExitSourceError     = 12 // Source file missing or malformed
	ExitCoercionError   = 13 // Field value could not be coerced to its column type
	ExitConstraintError = 14 // Duplicate key or other constraint violation
	ExitCommitError     = 15 // Commit rejected by the database
)

const (
	// DefaultDataDir is the directory source files are resolved against.
	DefaultDataDir = "data"

	// DefaultDatabase is the target database when none is configured.
	DefaultDatabase = "retail_sdw"

	// DefaultTimeout bounds a whole CLI run.
	DefaultTimeout = 5 * time.Minute

	// DefaultConnectTimeout bounds establishing a single session.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultAppName is reported to servers that accept an application name.
	DefaultAppName = "sdwload"

	// MaxValuePreviewLength caps raw field values echoed in error messages.
	MaxValuePreviewLength = 64
)
